package memory

import (
	"context"

	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
)

var (
	_ repository.MovementRepository         = (*MovementRepo)(nil)
	_ repository.EquipmentHistoryRepository = (*EquipmentHistoryRepo)(nil)
)

// MovementRepo libro de movimientos en memoria (solo inserción).
type MovementRepo struct{ do access }

func (r *MovementRepo) Append(_ context.Context, m *entity.Movement) error {
	if err := m.Validate(); err != nil {
		return err
	}
	row := *m
	return r.do(func(st *state) error {
		for _, existing := range st.movements {
			if existing.ID == row.ID {
				return domain.ErrDuplicate
			}
		}
		st.movements = append(st.movements, &row)
		return nil
	})
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	var out *entity.Movement
	err := r.do(func(st *state) error {
		for _, m := range st.movements {
			if m.ID == id {
				row := *m
				out = &row
				return nil
			}
		}
		return nil
	})
	return out, err
}

// newest recorre los movimientos del más reciente al más antiguo.
func (r *MovementRepo) newest(keep func(*entity.Movement) bool) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := r.do(func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			if keep(st.movements[i]) {
				m := *st.movements[i]
				out = append(out, &m)
			}
		}
		return nil
	})
	return out, err
}

func (r *MovementRepo) ListByItem(_ context.Context, itemID string, limit, offset int) ([]*entity.Movement, error) {
	out, err := r.newest(func(m *entity.Movement) bool { return m.ItemID == itemID })
	return page(out, limit, offset), err
}

func (r *MovementRepo) ListByEquipment(_ context.Context, equipmentID string, limit, offset int) ([]*entity.Movement, error) {
	out, err := r.newest(func(m *entity.Movement) bool { return m.EquipmentID == equipmentID })
	return page(out, limit, offset), err
}

func (r *MovementRepo) ListByOrder(_ context.Context, orderID string) ([]*entity.Movement, error) {
	return r.newest(func(m *entity.Movement) bool { return m.OrderID == orderID })
}

func (r *MovementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	limit := f.Limit
	if limit <= 0 || limit > repository.MaxMovementJournal {
		limit = repository.MaxMovementJournal
	}
	out, err := r.newest(func(m *entity.Movement) bool {
		if f.Type != "" && m.Type != f.Type {
			return false
		}
		if f.From != nil && m.CreatedAt.Before(*f.From) {
			return false
		}
		if f.To != nil && m.CreatedAt.After(*f.To) {
			return false
		}
		return true
	})
	return page(out, limit, 0), err
}

func (r *MovementRepo) SumByItem(_ context.Context) (map[string]int, error) {
	sums := make(map[string]int)
	err := r.do(func(st *state) error {
		for _, m := range st.movements {
			if m.ItemID != "" {
				sums[m.ItemID] += m.SignedQuantity()
			}
		}
		return nil
	})
	return sums, err
}

// EquipmentHistoryRepo historial de equipos en memoria (solo inserción).
type EquipmentHistoryRepo struct{ do access }

func (r *EquipmentHistoryRepo) Append(_ context.Context, h *entity.EquipmentHistory) error {
	row := *h
	return r.do(func(st *state) error {
		for _, existing := range st.history {
			if existing.ID == row.ID {
				return domain.ErrDuplicate
			}
		}
		st.history = append(st.history, &row)
		return nil
	})
}

func (r *EquipmentHistoryRepo) GetByID(_ context.Context, id string) (*entity.EquipmentHistory, error) {
	var out *entity.EquipmentHistory
	err := r.do(func(st *state) error {
		for _, h := range st.history {
			if h.ID == id {
				row := *h
				out = &row
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *EquipmentHistoryRepo) ListByEquipment(_ context.Context, equipmentID string, limit, offset int) ([]*entity.EquipmentHistory, error) {
	var out []*entity.EquipmentHistory
	err := r.do(func(st *state) error {
		for i := len(st.history) - 1; i >= 0; i-- {
			if st.history[i].EquipmentID == equipmentID {
				h := *st.history[i]
				out = append(out, &h)
			}
		}
		return nil
	})
	return page(out, limit, offset), err
}

func (r *EquipmentHistoryRepo) LatestByEquipment(_ context.Context) (map[string]*entity.EquipmentHistory, error) {
	latest := make(map[string]*entity.EquipmentHistory)
	err := r.do(func(st *state) error {
		for _, h := range st.history {
			row := *h
			latest[h.EquipmentID] = &row
		}
		return nil
	})
	return latest, err
}
