package serviceorder

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/lifecycle"
)

// MarkEquipmentLost marca como extraviado un equipo em_uso y reevalúa su orden:
// si con ello no queda nada pendiente, la orden pasa a encerrada.
func (e *Engine) MarkEquipmentLost(ctx context.Context, equipmentID, actorID, description string) (*entity.Equipment, error) {
	unit, err := e.units.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, domain.ErrNotFound
	}
	if unit.Status != entity.EquipmentInUse || unit.OrderID == "" {
		// El registro rechaza la transición con el error adecuado.
		return e.registry.MarkLost(ctx, equipmentID, actorID, description)
	}

	var lost *entity.Equipment
	err = e.withLease(ctx, unit.OrderID, func(opCtx context.Context) error {
		order, err := e.loadOrder(opCtx, unit.OrderID)
		if err != nil {
			return err
		}
		if description == "" {
			description = fmt.Sprintf("Extraviada OS #%d", order.Number)
		}
		attempts := 0
		if err := e.retry(opCtx, "extraviar equipo", func(ctx context.Context) error {
			attempts++
			var err error
			lost, err = e.registry.MarkLost(ctx, equipmentID, actorID, description)
			if err != nil && attempts > 1 && errors.Is(err, domain.ErrInvalidTransition) {
				// El intento anterior pudo aplicarse aunque su confirmación se perdió.
				if cur, getErr := e.units.GetByID(ctx, equipmentID); getErr == nil && cur != nil &&
					cur.Status == entity.EquipmentLost && cur.HolderID == unit.HolderID {
					lost = cur
					return nil
				}
			}
			return err
		}); err != nil {
			return err
		}
		e.log.Warn().Str("order_id", order.ID).Str("equipment_id", equipmentID).Str("holder_id", lost.HolderID).
			Str("actor", actorID).Msg("equipo extraviado")

		if !lifecycle.AcceptsDevolution(order.Status) {
			return nil
		}
		p, err := e.returnProgress(opCtx, order)
		if err != nil {
			return err
		}
		closed, err := e.fullyReconciled(opCtx, order, p)
		if err != nil || !closed {
			return err
		}
		next, err := lifecycle.NextOrderStatus(order.ID, order.Status, lifecycle.OrderClose)
		if err != nil {
			return err
		}
		if err := e.transitionOrder(opCtx, "encerrar orden", order.ID, order.Status, next); err != nil {
			return fmt.Errorf("equipo extraviado, cierre de la OS pendiente: %w", err)
		}
		e.log.Info().Str("order_id", order.ID).Msg("OS encerrada sin pendientes")
		return nil
	})
	if err != nil {
		return lost, err
	}
	return lost, nil
}
