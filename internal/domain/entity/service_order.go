package entity

import "time"

// OrderStatus es el estado persistido de una orden de servicio (os_status).
type OrderStatus string

// Estados de OS (valores persistidos, no traducir).
const (
	OrderDraft             OrderStatus = "rascunho"
	OrderConfirmed         OrderStatus = "confirmada"
	OrderCancelled         OrderStatus = "cancelada"
	OrderPartiallyReturned OrderStatus = "devolucao_parcial"
	OrderClosed            OrderStatus = "encerrada"
)

// Valid indica si el estado pertenece a la enumeración persistida.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderDraft, OrderConfirmed, OrderCancelled, OrderPartiallyReturned, OrderClosed:
		return true
	}
	return false
}

// ServiceOrder es una OS que entrega ítems y equipos a un funcionário.
// Las líneas son inmutables una vez que la orden sale de borrador.
type ServiceOrder struct {
	ID         string
	Number     int64
	EmployeeID string
	Status     OrderStatus
	Notes      string
	Signature  string // payload de la firma (base64)
	SignedBy   string
	SignedAt   *time.Time
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Items      []OrderLineItem
	Equipment  []OrderLineEquipment
}

// OrderLineItem es una línea de material consumible solicitada en la OS.
type OrderLineItem struct {
	ID        string
	OrderID   string
	ItemID    string
	Quantity  int
	CreatedAt time.Time
}

// OrderLineEquipment es un equipo incluido en la OS.
type OrderLineEquipment struct {
	ID          string
	OrderID     string
	EquipmentID string
	CreatedAt   time.Time
}

// IsSigned indica si la orden ya tiene firma registrada.
func (o *ServiceOrder) IsSigned() bool {
	return o.Signature != ""
}

// ItemLine busca la línea de un ítem.
func (o *ServiceOrder) ItemLine(itemID string) (OrderLineItem, bool) {
	for _, l := range o.Items {
		if l.ItemID == itemID {
			return l, true
		}
	}
	return OrderLineItem{}, false
}

// EquipmentLine busca la línea de un equipo.
func (o *ServiceOrder) EquipmentLine(equipmentID string) (OrderLineEquipment, bool) {
	for _, l := range o.Equipment {
		if l.EquipmentID == equipmentID {
			return l, true
		}
	}
	return OrderLineEquipment{}, false
}
