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
	_ repository.ServiceOrderRepository = (*ServiceOrderRepo)(nil)
	_ repository.DevolutionRepository   = (*DevolutionRepo)(nil)
)

func copyOrder(o *entity.ServiceOrder) entity.ServiceOrder {
	c := *o
	c.Items = append([]entity.OrderLineItem(nil), o.Items...)
	c.Equipment = append([]entity.OrderLineEquipment(nil), o.Equipment...)
	if o.SignedAt != nil {
		at := *o.SignedAt
		c.SignedAt = &at
	}
	return c
}

// ServiceOrderRepo implementación en memoria de ServiceOrderRepository.
type ServiceOrderRepo struct{ do access }

func (r *ServiceOrderRepo) Create(_ context.Context, o *entity.ServiceOrder) error {
	return r.do(func(st *state) error {
		if _, ok := st.orders[o.ID]; ok {
			return domain.ErrDuplicate
		}
		st.nextNumber++
		o.Number = st.nextNumber
		for i := range o.Items {
			o.Items[i].OrderID = o.ID
		}
		for i := range o.Equipment {
			o.Equipment[i].OrderID = o.ID
		}
		st.orders[o.ID] = &orderRow{order: copyOrder(o)}
		return nil
	})
}

func (r *ServiceOrderRepo) GetByID(_ context.Context, id string) (*entity.ServiceOrder, error) {
	var out *entity.ServiceOrder
	err := r.do(func(st *state) error {
		if row, ok := st.orders[id]; ok {
			o := copyOrder(&row.order)
			out = &o
		}
		return nil
	})
	return out, err
}

func (r *ServiceOrderRepo) List(_ context.Context, f repository.OrderFilter) ([]*entity.ServiceOrder, error) {
	var out []*entity.ServiceOrder
	err := r.do(func(st *state) error {
		for _, row := range st.orders {
			if f.EmployeeID != "" && row.order.EmployeeID != f.EmployeeID {
				continue
			}
			if f.Status != "" && row.order.Status != f.Status {
				continue
			}
			o := copyOrder(&row.order)
			o.Items, o.Equipment = nil, nil
			out = append(out, &o)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return page(out, f.Limit, f.Offset), err
}

func (r *ServiceOrderRepo) TransitionStatus(_ context.Context, id string, from, to entity.OrderStatus) error {
	return r.do(func(st *state) error {
		row, ok := st.orders[id]
		if !ok {
			return domain.ErrNotFound
		}
		if row.order.Status != from {
			return domain.ErrConflict
		}
		row.order.Status = to
		row.order.UpdatedAt = time.Now()
		return nil
	})
}

func (r *ServiceOrderRepo) SetSignature(_ context.Context, id, payload, signerID string, at time.Time) error {
	return r.do(func(st *state) error {
		row, ok := st.orders[id]
		if !ok {
			return domain.ErrNotFound
		}
		if row.order.Signature != "" {
			return domain.ErrAlreadySigned
		}
		row.order.Signature = payload
		row.order.SignedBy = signerID
		row.order.SignedAt = &at
		row.order.UpdatedAt = time.Now()
		return nil
	})
}

func (r *ServiceOrderRepo) AcquireLease(_ context.Context, id, token string, until time.Time) error {
	return r.do(func(st *state) error {
		row, ok := st.orders[id]
		if !ok {
			return domain.ErrNotFound
		}
		if row.leaseToken != "" && row.leaseToken != token && time.Now().Before(row.leaseUntil) {
			return domain.ErrOperationInProgress
		}
		row.leaseToken = token
		row.leaseUntil = until
		return nil
	})
}

func (r *ServiceOrderRepo) ReleaseLease(_ context.Context, id, token string) error {
	return r.do(func(st *state) error {
		row, ok := st.orders[id]
		if !ok {
			return domain.ErrNotFound
		}
		if row.leaseToken == token {
			row.leaseToken = ""
			row.leaseUntil = time.Time{}
		}
		return nil
	})
}

// DevolutionRepo devoluciones en memoria (solo inserción).
type DevolutionRepo struct{ do access }

func copyDevolution(d *entity.Devolution) *entity.Devolution {
	c := *d
	c.Items = append([]entity.DevolutionLineItem(nil), d.Items...)
	c.Equipment = append([]entity.DevolutionLineEquipment(nil), d.Equipment...)
	return &c
}

func (r *DevolutionRepo) Create(_ context.Context, d *entity.Devolution) error {
	return r.do(func(st *state) error {
		if _, ok := st.orders[d.OrderID]; !ok {
			return domain.ErrNotFound
		}
		for i := range d.Items {
			d.Items[i].DevolutionID = d.ID
		}
		for i := range d.Equipment {
			d.Equipment[i].DevolutionID = d.ID
		}
		st.devolutions = append(st.devolutions, copyDevolution(d))
		return nil
	})
}

func (r *DevolutionRepo) ListByOrder(_ context.Context, orderID string) ([]*entity.Devolution, error) {
	var out []*entity.Devolution
	err := r.do(func(st *state) error {
		for _, d := range st.devolutions {
			if d.OrderID == orderID {
				out = append(out, copyDevolution(d))
			}
		}
		return nil
	})
	return out, err
}
