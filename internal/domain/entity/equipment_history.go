package entity

import "time"

// EquipmentHistory es una transición de estado registrada (solo inserción).
// PreviousStatus vacío corresponde al alta del equipo.
type EquipmentHistory struct {
	ID             string
	EquipmentID    string
	PreviousStatus EquipmentStatus
	NewStatus      EquipmentStatus
	HolderID       string
	OrderID        string
	ActorID        string
	Description    string
	CreatedAt      time.Time
}
