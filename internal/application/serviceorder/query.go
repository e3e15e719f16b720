package serviceorder

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
)

// ItemProgress situación de una línea de ítem.
type ItemProgress struct {
	Line        entity.OrderLineItem
	Returned    int
	Outstanding int
}

// EquipmentProgress situación de una línea de equipo.
type EquipmentProgress struct {
	Line        entity.OrderLineEquipment
	Status      entity.EquipmentStatus
	Returned    bool
	Outstanding bool // sigue em_uso bajo esta orden
}

// OrderDetail orden con el avance de sus líneas y sus devoluciones.
type OrderDetail struct {
	Order       *entity.ServiceOrder
	Items       []ItemProgress
	Equipment   []EquipmentProgress
	Devolutions []*entity.Devolution
}

// Detail devuelve la orden con cantidades pendientes por línea.
func (e *Engine) Detail(ctx context.Context, orderID string) (*OrderDetail, error) {
	order, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	devs, err := e.devolutions.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	p := &progress{items: make(map[string]int), equipment: make(map[string]bool)}
	for _, d := range devs {
		for _, l := range d.Items {
			p.items[l.ItemID] += l.Quantity
		}
		for _, l := range d.Equipment {
			p.equipment[l.EquipmentID] = true
		}
	}

	detail := &OrderDetail{Order: order, Devolutions: devs}
	issued := order.Status != entity.OrderDraft && order.Status != entity.OrderCancelled
	for _, line := range order.Items {
		ip := ItemProgress{Line: line, Returned: p.items[line.ItemID]}
		if issued {
			ip.Outstanding = line.Quantity - ip.Returned
		}
		detail.Items = append(detail.Items, ip)
	}
	for _, line := range order.Equipment {
		ep := EquipmentProgress{Line: line, Returned: p.equipment[line.EquipmentID]}
		unit, err := e.units.GetByID(ctx, line.EquipmentID)
		if err != nil {
			return nil, err
		}
		if unit != nil {
			ep.Status = unit.Status
			ep.Outstanding = unit.Status == entity.EquipmentInUse && unit.OrderID == order.ID
		}
		detail.Equipment = append(detail.Equipment, ep)
	}
	return detail, nil
}

// List devuelve las órdenes por número descendente.
func (e *Engine) List(ctx context.Context, filter repository.OrderFilter) ([]*entity.ServiceOrder, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return e.orders.List(ctx, filter)
}

// Sign registra la firma del funcionário en una OS ya emitida. La firma no se sobrescribe.
func (e *Engine) Sign(ctx context.Context, orderID, payload, signerID string) (*entity.ServiceOrder, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, fmt.Errorf("%w: firma vacía", domain.ErrInvalidInput)
	}
	order, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == entity.OrderDraft || order.Status == entity.OrderCancelled {
		return nil, &domain.TransitionError{Entity: "orden", ID: order.ID, From: string(order.Status), Action: "assinar"}
	}
	if order.IsSigned() {
		return nil, domain.ErrAlreadySigned
	}
	at := e.now()
	if err := e.orders.SetSignature(ctx, order.ID, payload, signerID, at); err != nil {
		return nil, err
	}
	order.Signature = payload
	order.SignedBy = signerID
	order.SignedAt = &at
	e.log.Info().Str("order_id", order.ID).Str("signer", signerID).Msg("OS firmada")
	return order, nil
}
