package serviceorder

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
)

// ItemQuantity cantidad solicitada o devuelta de un ítem.
type ItemQuantity struct {
	ItemID   string
	Quantity int
}

// DraftInput datos de una nueva OS en borrador.
type DraftInput struct {
	EmployeeID   string
	Items        []ItemQuantity
	EquipmentIDs []string
	Notes        string
	ActorID      string
}

// CreateDraft valida y persiste una OS en rascunho. No toca el Ledger ni el Registry.
// Líneas repetidas del mismo ítem se suman; un equipo repetido es inválido.
func (e *Engine) CreateDraft(ctx context.Context, in DraftInput) (*entity.ServiceOrder, error) {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return nil, fmt.Errorf("%w: funcionário obligatorio", domain.ErrInvalidInput)
	}
	items, err := mergeItems("", in.Items)
	if err != nil {
		return nil, err
	}
	equipmentIDs, err := uniqueEquipment("", in.EquipmentIDs)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 && len(equipmentIDs) == 0 {
		return nil, fmt.Errorf("%w: la OS necesita al menos un ítem o equipo", domain.ErrInvalidInput)
	}

	emp, err := e.employees.GetByID(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, fmt.Errorf("%w: funcionário %s no existe", domain.ErrInvalidInput, in.EmployeeID)
	}
	if !emp.Active {
		return nil, fmt.Errorf("%w: funcionário %s inactivo", domain.ErrInvalidInput, in.EmployeeID)
	}

	now := e.now()
	order := &entity.ServiceOrder{
		ID:         uuid.New().String(),
		EmployeeID: in.EmployeeID,
		Status:     entity.OrderDraft,
		Notes:      in.Notes,
		CreatedBy:  in.ActorID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	for _, it := range items {
		stock, err := e.items.GetByID(ctx, it.ItemID)
		if err != nil {
			return nil, err
		}
		if stock == nil {
			return nil, &domain.LineError{Err: domain.ErrInvalidInput, ItemID: it.ItemID, Actual: "inexistente"}
		}
		order.Items = append(order.Items, entity.OrderLineItem{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			ItemID:    it.ItemID,
			Quantity:  it.Quantity,
			CreatedAt: now,
		})
	}
	for _, id := range equipmentIDs {
		unit, err := e.units.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if unit == nil {
			return nil, &domain.LineError{Err: domain.ErrInvalidInput, EquipmentID: id, Actual: "inexistente"}
		}
		if unit.Status != entity.EquipmentInStock {
			return nil, &domain.LineError{
				Err:         domain.ErrEquipmentUnavailable,
				EquipmentID: id,
				Expected:    string(entity.EquipmentInStock),
				Actual:      string(unit.Status),
			}
		}
		order.Equipment = append(order.Equipment, entity.OrderLineEquipment{
			ID:          uuid.New().String(),
			OrderID:     order.ID,
			EquipmentID: id,
			CreatedAt:   now,
		})
	}

	if err := e.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	e.log.Info().Str("order_id", order.ID).Int64("number", order.Number).
		Int("items", len(order.Items)).Int("equipment", len(order.Equipment)).Msg("OS creada en rascunho")
	return order, nil
}

// mergeItems suma cantidades del mismo ítem conservando el orden de aparición.
func mergeItems(orderID string, lines []ItemQuantity) ([]ItemQuantity, error) {
	index := make(map[string]int, len(lines))
	var out []ItemQuantity
	for _, l := range lines {
		id := strings.TrimSpace(l.ItemID)
		if id == "" {
			return nil, fmt.Errorf("%w: ítem sin identificador", domain.ErrInvalidInput)
		}
		if l.Quantity <= 0 {
			return nil, &domain.LineError{Err: domain.ErrInvalidInput, OrderID: orderID, ItemID: id, Expected: "> 0", Actual: strconv.Itoa(l.Quantity)}
		}
		if i, ok := index[id]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[id] = len(out)
		out = append(out, ItemQuantity{ItemID: id, Quantity: l.Quantity})
	}
	return out, nil
}

// uniqueEquipment rechaza equipos repetidos.
func uniqueEquipment(orderID string, ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			return nil, fmt.Errorf("%w: equipo sin identificador", domain.ErrInvalidInput)
		}
		if _, dup := seen[id]; dup {
			return nil, &domain.LineError{Err: domain.ErrInvalidInput, OrderID: orderID, EquipmentID: id, Actual: "duplicado"}
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
