package serviceorder

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jhoicas/estoque-os-api/internal/application/equipment"
	"github.com/jhoicas/estoque-os-api/internal/application/inventory"
	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/lifecycle"
)

// Confirm pasa una OS de rascunho a confirmada.
//
// Primero valida todas las líneas sin efectos (stock suficiente, equipos em_estoque).
// Después aplica cada línea (saída en el Ledger, atribución en el Registry) y, solo
// si todas tienen éxito, cambia el estado. Si una línea falla a mitad de camino,
// revierte las ya aplicadas y la OS queda en rascunho.
func (e *Engine) Confirm(ctx context.Context, orderID, actorID string) (*entity.ServiceOrder, error) {
	var confirmed *entity.ServiceOrder
	err := e.withLease(ctx, orderID, func(opCtx context.Context) error {
		order, err := e.loadOrder(opCtx, orderID)
		if err != nil {
			return err
		}
		next, err := lifecycle.NextOrderStatus(order.ID, order.Status, lifecycle.OrderConfirm)
		if err != nil {
			return err
		}
		if err := e.validateConfirm(opCtx, order); err != nil {
			return err
		}
		// Antes de aplicar aún se respeta la cancelación del llamador.
		if err := ctx.Err(); err != nil {
			return err
		}

		s := e.newSaga(order.ID)
		if err := e.applyConfirm(opCtx, s, order, actorID); err != nil {
			return s.fail(opCtx, domain.ErrPartialApplication, err)
		}
		if err := e.transitionOrder(opCtx, "confirmar orden", order.ID, order.Status, next); err != nil {
			return s.fail(opCtx, domain.ErrPartialApplication, err)
		}

		order.Status = next
		order.UpdatedAt = e.now()
		confirmed = order
		e.log.Info().Str("order_id", order.ID).Int64("number", order.Number).Str("actor", actorID).Msg("OS confirmada")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

func (e *Engine) validateConfirm(ctx context.Context, order *entity.ServiceOrder) error {
	for _, line := range order.Items {
		item, err := e.items.GetByID(ctx, line.ItemID)
		if err != nil {
			return withLine(err, order.ID, line.ID, line.ItemID, "")
		}
		if item == nil {
			return &domain.LineError{Err: domain.ErrNotFound, OrderID: order.ID, LineID: line.ID, ItemID: line.ItemID}
		}
		if item.Quantity < line.Quantity {
			return &domain.LineError{
				Err:      domain.ErrInsufficientStock,
				OrderID:  order.ID,
				LineID:   line.ID,
				ItemID:   line.ItemID,
				Expected: strconv.Itoa(line.Quantity),
				Actual:   strconv.Itoa(item.Quantity),
			}
		}
	}
	for _, line := range order.Equipment {
		unit, err := e.units.GetByID(ctx, line.EquipmentID)
		if err != nil {
			return withLine(err, order.ID, line.ID, "", line.EquipmentID)
		}
		if unit == nil {
			return &domain.LineError{Err: domain.ErrNotFound, OrderID: order.ID, LineID: line.ID, EquipmentID: line.EquipmentID}
		}
		if unit.Status != entity.EquipmentInStock {
			return &domain.LineError{
				Err:         domain.ErrEquipmentUnavailable,
				OrderID:     order.ID,
				LineID:      line.ID,
				EquipmentID: line.EquipmentID,
				Expected:    string(entity.EquipmentInStock),
				Actual:      string(unit.Status),
			}
		}
	}
	return nil
}

func (e *Engine) applyConfirm(ctx context.Context, s *saga, order *entity.ServiceOrder, actorID string) error {
	for _, line := range order.Items {
		line := line
		in := inventory.MovementInput{
			ItemID:     line.ItemID,
			Quantity:   line.Quantity,
			OrderID:    order.ID,
			EmployeeID: order.EmployeeID,
			ActorID:    actorID,
		}
		key := newStepKeys()
		err := s.do(ctx, "item:"+line.ID,
			func(ctx context.Context) error {
				exit := in
				exit.RequestID = key.apply
				exit.Description = fmt.Sprintf("Saída OS #%d", order.Number)
				_, err := e.ledger.RecordExit(ctx, exit)
				return err
			},
			func(ctx context.Context) error {
				void := in
				void.RequestID = key.undo
				void.Description = fmt.Sprintf("Estorno saída OS #%d", order.Number)
				_, err := e.ledger.RecordVoid(ctx, void)
				return err
			})
		if err != nil {
			return withLine(err, order.ID, line.ID, line.ItemID, "")
		}
	}
	for _, line := range order.Equipment {
		line := line
		key := newStepKeys()
		err := s.do(ctx, "equipamento:"+line.ID,
			func(ctx context.Context) error {
				_, err := e.registry.Assign(ctx, equipment.AssignInput{
					RequestID:   key.apply,
					EquipmentID: line.EquipmentID,
					EmployeeID:  order.EmployeeID,
					OrderID:     order.ID,
					ActorID:     actorID,
					Description: fmt.Sprintf("Atribuída OS #%d", order.Number),
					MovementMsg: fmt.Sprintf("Saída ONU OS #%d", order.Number),
				})
				return err
			},
			func(ctx context.Context) error {
				_, err := e.registry.Release(ctx, equipment.ReleaseInput{
					RequestID:       key.undo,
					EquipmentID:     line.EquipmentID,
					ExpectedOrderID: order.ID,
					ActorID:         actorID,
					Reason:          fmt.Sprintf("Estorno atribuição OS #%d", order.Number),
					MovementType:    entity.MovementVoid,
					MovementMsg:     fmt.Sprintf("Estorno saída ONU OS #%d", order.Number),
				})
				return err
			})
		if err != nil {
			return withLine(err, order.ID, line.ID, "", line.EquipmentID)
		}
	}
	return nil
}
