package serviceorder

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/jhoicas/estoque-os-api/internal/application/equipment"
	"github.com/jhoicas/estoque-os-api/internal/application/inventory"
	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/lifecycle"
)

// DevolutionInput devolución parcial o total contra una OS.
type DevolutionInput struct {
	OrderID      string
	Items        []ItemQuantity
	EquipmentIDs []string
	ActorID      string
	Notes        string
}

// RegisterDevolution registra la devolución de ítems y equipos de una OS confirmada
// o con devolución parcial. Todas las líneas se validan antes de aplicar ninguna y
// la llamada es todo o nada: si una línea falla se revierten las aplicadas.
// La OS pasa a encerrada cuando no queda nada pendiente y a devolucao_parcial si no.
func (e *Engine) RegisterDevolution(ctx context.Context, in DevolutionInput) (*entity.Devolution, error) {
	items, err := mergeItems(in.OrderID, in.Items)
	if err != nil {
		return nil, err
	}
	equipmentIDs, err := uniqueEquipment(in.OrderID, in.EquipmentIDs)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 && len(equipmentIDs) == 0 {
		return nil, fmt.Errorf("%w: la devolución necesita al menos un ítem o equipo", domain.ErrInvalidInput)
	}

	var dev *entity.Devolution
	err = e.withLease(ctx, in.OrderID, func(opCtx context.Context) error {
		order, err := e.loadOrder(opCtx, in.OrderID)
		if err != nil {
			return err
		}
		if !lifecycle.AcceptsDevolution(order.Status) {
			_, err := lifecycle.NextOrderStatus(order.ID, order.Status, lifecycle.OrderPartialReturn)
			return err
		}

		progress, err := e.returnProgress(opCtx, order)
		if err != nil {
			return err
		}
		held, err := e.heldQuantities(opCtx, order.ID)
		if err != nil {
			return err
		}
		holders, err := e.validateDevolution(opCtx, order, progress, held, items, equipmentIDs)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		s := e.newSaga(order.ID)
		if err := e.applyDevolution(opCtx, s, order, items, equipmentIDs, holders, in.ActorID); err != nil {
			return s.fail(opCtx, domain.ErrPartialDevolution, err)
		}

		for _, it := range items {
			progress.items[it.ItemID] += it.Quantity
		}
		for _, id := range equipmentIDs {
			progress.equipment[id] = true
		}
		closed, err := e.fullyReconciled(opCtx, order, progress)
		if err != nil {
			return s.fail(opCtx, domain.ErrPartialDevolution, err)
		}
		action := lifecycle.OrderPartialReturn
		if closed {
			action = lifecycle.OrderClose
		}
		next, err := lifecycle.NextOrderStatus(order.ID, order.Status, action)
		if err != nil {
			return s.fail(opCtx, domain.ErrPartialDevolution, err)
		}
		prev := order.Status
		if err := s.do(opCtx, "status",
			e.orderStatusStep(order.ID, prev, next),
			func(ctx context.Context) error {
				if prev == next {
					return nil
				}
				return e.transitionOrder(ctx, "revertir estado", order.ID, next, prev)
			}); err != nil {
			return s.fail(opCtx, domain.ErrPartialDevolution, err)
		}

		record := &entity.Devolution{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			ActorID:   in.ActorID,
			Notes:     in.Notes,
			CreatedAt: e.now(),
		}
		for _, it := range items {
			record.Items = append(record.Items, entity.DevolutionLineItem{ID: uuid.New().String(), DevolutionID: record.ID, ItemID: it.ItemID, Quantity: it.Quantity})
		}
		for _, id := range equipmentIDs {
			record.Equipment = append(record.Equipment, entity.DevolutionLineEquipment{ID: uuid.New().String(), DevolutionID: record.ID, EquipmentID: id})
		}
		if err := e.retry(opCtx, "registrar devolución", func(ctx context.Context) error {
			return e.devolutions.Create(ctx, record)
		}); err != nil {
			return s.fail(opCtx, domain.ErrPartialDevolution, err)
		}

		dev = record
		e.log.Info().Str("order_id", order.ID).Str("devolution_id", record.ID).Str("status", string(next)).
			Str("actor", in.ActorID).Msg("devolución registrada")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// progress acumula lo ya devuelto de una orden.
type progress struct {
	items     map[string]int  // ítem → cantidad devuelta
	equipment map[string]bool // equipos devueltos
}

func (e *Engine) returnProgress(ctx context.Context, order *entity.ServiceOrder) (*progress, error) {
	p := &progress{items: make(map[string]int), equipment: make(map[string]bool)}
	var devs []*entity.Devolution
	err := e.retry(ctx, "devoluciones previas", func(ctx context.Context) error {
		var err error
		devs, err = e.devolutions.ListByOrder(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, d := range devs {
		for _, l := range d.Items {
			p.items[l.ItemID] += l.Quantity
		}
		for _, l := range d.Equipment {
			p.equipment[l.EquipmentID] = true
		}
	}
	return p, nil
}

// validateDevolution comprueba todas las líneas sin efectos. Lo devolvible de cada ítem
// es lo pendiente de la línea, acotado por lo que el libro indica que la OS aún mantiene
// fuera del estoque (held). Devuelve el portador actual de cada equipo a devolver
// (necesario para la compensación).
func (e *Engine) validateDevolution(ctx context.Context, order *entity.ServiceOrder, p *progress, held map[string]int, items []ItemQuantity, equipmentIDs []string) (map[string]string, error) {
	for _, it := range items {
		line, ok := order.ItemLine(it.ItemID)
		if !ok {
			return nil, &domain.LineError{Err: domain.ErrInvalidInput, OrderID: order.ID, ItemID: it.ItemID, Actual: "fora da OS"}
		}
		outstanding := min(line.Quantity-p.items[it.ItemID], max(held[it.ItemID], 0))
		if it.Quantity > outstanding {
			return nil, &domain.LineError{
				Err:      domain.ErrInvalidInput,
				OrderID:  order.ID,
				LineID:   line.ID,
				ItemID:   it.ItemID,
				Expected: "<= " + strconv.Itoa(outstanding),
				Actual:   strconv.Itoa(it.Quantity),
			}
		}
	}
	holders := make(map[string]string, len(equipmentIDs))
	for _, id := range equipmentIDs {
		line, ok := order.EquipmentLine(id)
		if !ok {
			return nil, &domain.LineError{Err: domain.ErrInvalidInput, OrderID: order.ID, EquipmentID: id, Actual: "fora da OS"}
		}
		unit, err := e.units.GetByID(ctx, id)
		if err != nil {
			return nil, withLine(err, order.ID, line.ID, "", id)
		}
		if unit == nil || unit.Status != entity.EquipmentInUse || unit.OrderID != order.ID {
			actual := "inexistente"
			if unit != nil {
				actual = string(unit.Status)
			}
			return nil, &domain.LineError{
				Err:         domain.ErrInvalidTransition,
				OrderID:     order.ID,
				LineID:      line.ID,
				EquipmentID: id,
				Expected:    string(entity.EquipmentInUse),
				Actual:      actual,
			}
		}
		holders[id] = unit.HolderID
	}
	return holders, nil
}

func (e *Engine) applyDevolution(ctx context.Context, s *saga, order *entity.ServiceOrder, items []ItemQuantity, equipmentIDs []string, holders map[string]string, actorID string) error {
	for _, it := range items {
		line, _ := order.ItemLine(it.ItemID)
		in := inventory.MovementInput{
			ItemID:     it.ItemID,
			Quantity:   it.Quantity,
			OrderID:    order.ID,
			EmployeeID: order.EmployeeID,
			ActorID:    actorID,
		}
		key := newStepKeys()
		err := s.do(ctx, "item:"+line.ID,
			func(ctx context.Context) error {
				ret := in
				ret.RequestID = key.apply
				ret.Description = fmt.Sprintf("Devolução OS #%d", order.Number)
				_, err := e.ledger.RecordReturn(ctx, ret)
				return err
			},
			func(ctx context.Context) error {
				exit := in
				exit.RequestID = key.undo
				exit.Description = fmt.Sprintf("Estorno devolução OS #%d", order.Number)
				_, err := e.ledger.RecordExit(ctx, exit)
				return err
			})
		if err != nil {
			return withLine(err, order.ID, line.ID, it.ItemID, "")
		}
	}
	for _, id := range equipmentIDs {
		line, _ := order.EquipmentLine(id)
		holder := holders[id]
		key := newStepKeys()
		err := s.do(ctx, "equipamento:"+line.ID,
			func(ctx context.Context) error {
				_, err := e.registry.Release(ctx, equipment.ReleaseInput{
					RequestID:       key.apply,
					EquipmentID:     id,
					ExpectedOrderID: order.ID,
					ActorID:         actorID,
					Reason:          fmt.Sprintf("Devolução OS #%d", order.Number),
					MovementType:    entity.MovementReturn,
					MovementMsg:     fmt.Sprintf("Devolução ONU OS #%d", order.Number),
				})
				return err
			},
			func(ctx context.Context) error {
				_, err := e.registry.Assign(ctx, equipment.AssignInput{
					RequestID:   key.undo,
					EquipmentID: id,
					EmployeeID:  holder,
					OrderID:     order.ID,
					ActorID:     actorID,
					Description: fmt.Sprintf("Estorno devolução OS #%d", order.Number),
					MovementMsg: fmt.Sprintf("Estorno devolução ONU OS #%d", order.Number),
				})
				return err
			})
		if err != nil {
			return withLine(err, order.ID, line.ID, "", id)
		}
	}
	return nil
}

// fullyReconciled indica si todas las líneas de la orden están conciliadas: cada ítem
// devuelto por completo y cada equipo devuelto o ya no vinculado a la orden (extraviado).
func (e *Engine) fullyReconciled(ctx context.Context, order *entity.ServiceOrder, p *progress) (bool, error) {
	for _, line := range order.Items {
		if p.items[line.ItemID] < line.Quantity {
			return false, nil
		}
	}
	for _, line := range order.Equipment {
		if p.equipment[line.EquipmentID] {
			continue
		}
		unit, err := e.units.GetByID(ctx, line.EquipmentID)
		if err != nil {
			return false, err
		}
		if unit != nil && unit.Status == entity.EquipmentInUse && unit.OrderID == order.ID {
			return false, nil
		}
	}
	return true, nil
}
