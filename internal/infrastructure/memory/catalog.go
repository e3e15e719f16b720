package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
)

var (
	_ repository.EmployeeRepository  = (*EmployeeRepo)(nil)
	_ repository.StockItemRepository = (*StockItemRepo)(nil)
	_ repository.EquipmentRepository = (*EquipmentRepo)(nil)
)

// ─── Funcionários ───────────────────────────────────────────────────────────

// EmployeeRepo implementación en memoria de EmployeeRepository.
type EmployeeRepo struct{ do access }

func (r *EmployeeRepo) Create(_ context.Context, e *entity.Employee) error {
	return r.do(func(st *state) error {
		if _, ok := st.employees[e.ID]; ok {
			return domain.ErrDuplicate
		}
		st.employees[e.ID] = *e
		return nil
	})
}

func (r *EmployeeRepo) GetByID(_ context.Context, id string) (*entity.Employee, error) {
	var out *entity.Employee
	err := r.do(func(st *state) error {
		if e, ok := st.employees[id]; ok {
			out = &e
		}
		return nil
	})
	return out, err
}

func (r *EmployeeRepo) Update(_ context.Context, e *entity.Employee) error {
	return r.do(func(st *state) error {
		cur, ok := st.employees[e.ID]
		if !ok {
			return domain.ErrNotFound
		}
		upd := *e
		upd.CreatedAt = cur.CreatedAt
		st.employees[e.ID] = upd
		return nil
	})
}

func (r *EmployeeRepo) List(_ context.Context, onlyActive bool, limit, offset int) ([]*entity.Employee, error) {
	var out []*entity.Employee
	err := r.do(func(st *state) error {
		for _, e := range st.employees {
			if onlyActive && !e.Active {
				continue
			}
			e := e
			out = append(out, &e)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), err
}

// ─── Ítems ──────────────────────────────────────────────────────────────────

// StockItemRepo implementación en memoria de StockItemRepository.
type StockItemRepo struct{ do access }

func (r *StockItemRepo) Create(_ context.Context, it *entity.StockItem) error {
	return r.do(func(st *state) error {
		if _, ok := st.items[it.ID]; ok {
			return domain.ErrDuplicate
		}
		if it.Code != "" {
			for _, other := range st.items {
				if other.Code == it.Code {
					return domain.ErrDuplicate
				}
			}
		}
		row := *it
		row.Quantity = 0
		st.items[it.ID] = row
		return nil
	})
}

func (r *StockItemRepo) GetByID(_ context.Context, id string) (*entity.StockItem, error) {
	var out *entity.StockItem
	err := r.do(func(st *state) error {
		if it, ok := st.items[id]; ok {
			out = &it
		}
		return nil
	})
	return out, err
}

func (r *StockItemRepo) Update(_ context.Context, it *entity.StockItem) error {
	return r.do(func(st *state) error {
		cur, ok := st.items[it.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if it.Code != "" {
			for id, other := range st.items {
				if id != it.ID && other.Code == it.Code {
					return domain.ErrDuplicate
				}
			}
		}
		cur.Name = it.Name
		cur.Code = it.Code
		cur.Category = it.Category
		cur.Unit = it.Unit
		cur.MinQuantity = it.MinQuantity
		cur.UpdatedAt = time.Now()
		st.items[it.ID] = cur
		return nil
	})
}

func (r *StockItemRepo) List(_ context.Context, limit, offset int) ([]*entity.StockItem, error) {
	return r.list(func(*entity.StockItem) bool { return true }, limit, offset)
}

func (r *StockItemRepo) ListLowStock(_ context.Context) ([]*entity.StockItem, error) {
	return r.list(func(it *entity.StockItem) bool { return it.IsLowStock() }, 0, 0)
}

func (r *StockItemRepo) list(keep func(*entity.StockItem) bool, limit, offset int) ([]*entity.StockItem, error) {
	var out []*entity.StockItem
	err := r.do(func(st *state) error {
		for _, it := range st.items {
			it := it
			if keep(&it) {
				out = append(out, &it)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), err
}

func (r *StockItemRepo) AdjustQuantity(_ context.Context, id string, delta int) (int, error) {
	var result int
	err := r.do(func(st *state) error {
		it, ok := st.items[id]
		if !ok {
			return domain.ErrNotFound
		}
		if it.Quantity+delta < 0 {
			result = it.Quantity
			return domain.ErrInsufficientStock
		}
		it.Quantity += delta
		it.UpdatedAt = time.Now()
		st.items[id] = it
		result = it.Quantity
		return nil
	})
	return result, err
}

func (r *StockItemRepo) CompareAndSetQuantity(_ context.Context, id string, expected, next int) error {
	if next < 0 {
		return domain.ErrInvalidInput
	}
	return r.do(func(st *state) error {
		it, ok := st.items[id]
		if !ok {
			return domain.ErrNotFound
		}
		if it.Quantity != expected {
			return domain.ErrConflict
		}
		it.Quantity = next
		it.UpdatedAt = time.Now()
		st.items[id] = it
		return nil
	})
}

// ─── Equipos ────────────────────────────────────────────────────────────────

// EquipmentRepo implementación en memoria de EquipmentRepository.
type EquipmentRepo struct{ do access }

func (r *EquipmentRepo) Create(_ context.Context, eq *entity.Equipment) error {
	return r.do(func(st *state) error {
		if _, ok := st.equipment[eq.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, other := range st.equipment {
			if other.Code == eq.Code {
				return domain.ErrDuplicateEquipmentCode
			}
		}
		st.equipment[eq.ID] = *eq
		return nil
	})
}

func (r *EquipmentRepo) GetByID(_ context.Context, id string) (*entity.Equipment, error) {
	var out *entity.Equipment
	err := r.do(func(st *state) error {
		if eq, ok := st.equipment[id]; ok {
			out = &eq
		}
		return nil
	})
	return out, err
}

func (r *EquipmentRepo) GetByCode(_ context.Context, code string) (*entity.Equipment, error) {
	var out *entity.Equipment
	err := r.do(func(st *state) error {
		for _, eq := range st.equipment {
			if eq.Code == code {
				eq := eq
				out = &eq
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *EquipmentRepo) Update(_ context.Context, eq *entity.Equipment) error {
	return r.do(func(st *state) error {
		cur, ok := st.equipment[eq.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.Model = eq.Model
		cur.Serial = eq.Serial
		cur.Supplier = eq.Supplier
		cur.UpdatedAt = time.Now()
		st.equipment[eq.ID] = cur
		return nil
	})
}

func (r *EquipmentRepo) List(_ context.Context, status entity.EquipmentStatus, limit, offset int) ([]*entity.Equipment, error) {
	var out []*entity.Equipment
	err := r.do(func(st *state) error {
		for _, eq := range st.equipment {
			if status != "" && eq.Status != status {
				continue
			}
			eq := eq
			out = append(out, &eq)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, limit, offset), err
}

func (r *EquipmentRepo) ListByHolder(_ context.Context, employeeID string) ([]*entity.Equipment, error) {
	var out []*entity.Equipment
	err := r.do(func(st *state) error {
		for _, eq := range st.equipment {
			if eq.HolderID == employeeID {
				eq := eq
				out = append(out, &eq)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, err
}

func (r *EquipmentRepo) TransitionStatus(_ context.Context, id string, t repository.EquipmentTransition) error {
	return r.do(func(st *state) error {
		eq, ok := st.equipment[id]
		if !ok {
			return domain.ErrNotFound
		}
		if eq.Status != t.From || eq.OrderID != t.FromOrderID {
			return domain.ErrConflict
		}
		eq.Status = t.To
		eq.HolderID = t.HolderID
		eq.OrderID = t.OrderID
		eq.UpdatedAt = time.Now()
		st.equipment[id] = eq
		return nil
	})
}
