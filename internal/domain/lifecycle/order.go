// Package lifecycle contiene las tablas de transición de estado de órdenes y equipos.
// Toda mutación de estado consulta estas tablas antes de escribir.
package lifecycle

import (
	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
)

// OrderAction es una acción sobre una orden de servicio.
type OrderAction string

const (
	OrderConfirm       OrderAction = "confirmar"
	OrderCancel        OrderAction = "cancelar"
	OrderPartialReturn OrderAction = "devolucao_parcial"
	OrderClose         OrderAction = "encerrar"
)

var orderTransitions = map[entity.OrderStatus]map[OrderAction]entity.OrderStatus{
	entity.OrderDraft: {
		OrderConfirm: entity.OrderConfirmed,
		OrderCancel:  entity.OrderCancelled,
	},
	entity.OrderConfirmed: {
		OrderCancel:        entity.OrderCancelled,
		OrderPartialReturn: entity.OrderPartiallyReturned,
		OrderClose:         entity.OrderClosed,
	},
	entity.OrderPartiallyReturned: {
		OrderPartialReturn: entity.OrderPartiallyReturned,
		OrderClose:         entity.OrderClosed,
	},
	// cancelada y encerrada son terminales.
}

// NextOrderStatus devuelve el estado destino o un *domain.TransitionError.
func NextOrderStatus(orderID string, from entity.OrderStatus, action OrderAction) (entity.OrderStatus, error) {
	if next, ok := orderTransitions[from][action]; ok {
		return next, nil
	}
	return "", &domain.TransitionError{Entity: "orden", ID: orderID, From: string(from), Action: string(action)}
}

// IsTerminal indica si no se admite ninguna transición desde el estado.
func IsTerminal(s entity.OrderStatus) bool {
	return len(orderTransitions[s]) == 0
}

// AcceptsDevolution indica si se pueden registrar devoluciones en el estado.
func AcceptsDevolution(s entity.OrderStatus) bool {
	_, ok := orderTransitions[s][OrderPartialReturn]
	return ok
}
