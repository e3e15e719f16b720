package entity

import "time"

// Devolution es una devolución (parcial o total) contra una OS confirmada. Inmutable.
type Devolution struct {
	ID        string
	OrderID   string
	ActorID   string
	Notes     string
	CreatedAt time.Time
	Items     []DevolutionLineItem
	Equipment []DevolutionLineEquipment
}

// DevolutionLineItem es la cantidad devuelta de un ítem.
type DevolutionLineItem struct {
	ID           string
	DevolutionID string
	ItemID       string
	Quantity     int
}

// DevolutionLineEquipment es un equipo devuelto.
type DevolutionLineEquipment struct {
	ID           string
	DevolutionID string
	EquipmentID  string
}
