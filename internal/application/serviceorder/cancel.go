package serviceorder

import (
	"context"
	"fmt"

	"github.com/jhoicas/estoque-os-api/internal/application/equipment"
	"github.com/jhoicas/estoque-os-api/internal/application/inventory"
	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/lifecycle"
)

// Cancel cancela una OS en rascunho o confirmada.
//
// En rascunho solo cambia el estado. En confirmada calcula, a partir del libro de
// movimientos de la orden, lo que sigue en poder del funcionário y lo revierte
// (cancelamento de ítems, liberación de equipos). Se intentan todas las líneas;
// si alguna queda pendiente devuelve *domain.PartialFailure con ErrPartialCancellation
// y la OS conserva su estado. Volver a llamar a Cancel revierte solo lo pendiente.
func (e *Engine) Cancel(ctx context.Context, orderID, actorID string) (*entity.ServiceOrder, error) {
	var cancelled *entity.ServiceOrder
	err := e.withLease(ctx, orderID, func(opCtx context.Context) error {
		order, err := e.loadOrder(opCtx, orderID)
		if err != nil {
			return err
		}
		next, err := lifecycle.NextOrderStatus(order.ID, order.Status, lifecycle.OrderCancel)
		if err != nil {
			return err
		}

		var reversed []string
		if order.Status == entity.OrderConfirmed {
			if err := ctx.Err(); err != nil {
				return err
			}
			if reversed, err = e.reverseOrder(opCtx, order, actorID); err != nil {
				return err
			}
		}

		if err := e.transitionOrder(opCtx, "cancelar orden", order.ID, order.Status, next); err != nil {
			if order.Status == entity.OrderDraft {
				return err
			}
			// Las líneas quedaron revertidas; solo falta el estado. Un nuevo Cancel lo completa.
			e.log.Error().Err(err).Str("order_id", order.ID).Strs("applied", reversed).Msg("líneas revertidas, estado cancelada pendiente")
			return &domain.PartialFailure{
				Err:         domain.ErrPartialCancellation,
				OrderID:     order.ID,
				Cause:       err,
				Applied:     reversed,
				Outstanding: []string{"status"},
			}
		}

		order.Status = next
		order.UpdatedAt = e.now()
		cancelled = order
		e.log.Info().Str("order_id", order.ID).Int64("number", order.Number).Str("actor", actorID).Msg("OS cancelada")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// heldQuantities calcula, por ítem, la cantidad que la orden mantiene fuera del estoque:
// saídas menos cancelamentos y devoluciones registrados con esta OS.
func (e *Engine) heldQuantities(ctx context.Context, orderID string) (map[string]int, error) {
	var movs []*entity.Movement
	err := e.retry(ctx, "movimientos de la orden", func(ctx context.Context) error {
		var err error
		movs, err = e.movements.ListByOrder(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	held := make(map[string]int)
	for _, m := range movs {
		if m.ItemID == "" {
			continue
		}
		switch m.Type {
		case entity.MovementExit:
			held[m.ItemID] += m.Quantity
		case entity.MovementVoid, entity.MovementReturn:
			held[m.ItemID] -= m.Quantity
		}
	}
	return held, nil
}

// reverseOrder revierte lo que la orden mantiene fuera del estoque y devuelve las
// líneas revertidas en esta llamada.
func (e *Engine) reverseOrder(ctx context.Context, order *entity.ServiceOrder, actorID string) ([]string, error) {
	held, err := e.heldQuantities(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	var reversed, outstanding []string
	var firstErr error
	fail := func(name string, err error) {
		e.log.Error().Err(err).Str("order_id", order.ID).Str("line", name).Msg("no se pudo revertir la línea")
		outstanding = append(outstanding, name)
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, line := range order.Items {
		name := "item:" + line.ID
		qty := held[line.ItemID]
		if qty <= 0 {
			continue
		}
		key := newStepKeys()
		err := e.retry(ctx, "cancelar "+name, func(ctx context.Context) error {
			_, err := e.ledger.RecordVoid(ctx, inventory.MovementInput{
				RequestID:   key.apply,
				ItemID:      line.ItemID,
				Quantity:    qty,
				OrderID:     order.ID,
				EmployeeID:  order.EmployeeID,
				ActorID:     actorID,
				Description: fmt.Sprintf("Cancelamento OS #%d", order.Number),
			})
			return err
		})
		if err != nil {
			fail(name, withLine(err, order.ID, line.ID, line.ItemID, ""))
			continue
		}
		held[line.ItemID] = 0
		reversed = append(reversed, name)
	}

	for _, line := range order.Equipment {
		name := "equipamento:" + line.ID
		unit, err := e.units.GetByID(ctx, line.EquipmentID)
		if err != nil {
			fail(name, withLine(err, order.ID, line.ID, "", line.EquipmentID))
			continue
		}
		if unit == nil || unit.Status != entity.EquipmentInUse || unit.OrderID != order.ID {
			if unit != nil && unit.Status == entity.EquipmentLost {
				e.log.Warn().Str("order_id", order.ID).Str("equipment_id", unit.ID).Msg("equipo extraviado, se mantiene fuera del estoque")
			}
			continue
		}
		key := newStepKeys()
		err = e.retry(ctx, "cancelar "+name, func(ctx context.Context) error {
			_, err := e.registry.Release(ctx, equipment.ReleaseInput{
				RequestID:       key.apply,
				EquipmentID:     line.EquipmentID,
				ExpectedOrderID: order.ID,
				ActorID:         actorID,
				Reason:          fmt.Sprintf("Cancelamento OS #%d", order.Number),
				MovementType:    entity.MovementVoid,
				MovementMsg:     fmt.Sprintf("Cancelamento ONU OS #%d", order.Number),
			})
			return err
		})
		if err != nil {
			fail(name, withLine(err, order.ID, line.ID, "", line.EquipmentID))
			continue
		}
		reversed = append(reversed, name)
	}

	if len(outstanding) > 0 {
		return reversed, &domain.PartialFailure{
			Err:         domain.ErrPartialCancellation,
			OrderID:     order.ID,
			Cause:       firstErr,
			Applied:     reversed,
			Outstanding: outstanding,
		}
	}
	return reversed, nil
}
