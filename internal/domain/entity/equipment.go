package entity

import "time"

// EquipmentStatus es el estado persistido de una ONU.
type EquipmentStatus string

// Estados de equipo (valores persistidos, no traducir).
const (
	EquipmentInStock  EquipmentStatus = "em_estoque"
	EquipmentInUse    EquipmentStatus = "em_uso"
	EquipmentLost     EquipmentStatus = "extraviada"
	EquipmentReturned EquipmentStatus = "devolvida"
)

// Valid indica si el estado pertenece a la enumeración persistida.
func (s EquipmentStatus) Valid() bool {
	switch s {
	case EquipmentInStock, EquipmentInUse, EquipmentLost, EquipmentReturned:
		return true
	}
	return false
}

// Equipment representa una unidad prestable (ONU) identificada por código único.
// HolderID y OrderID vacíos equivalen a NULL.
// Con estado em_uso ambos están presentes; extraviada conserva HolderID.
type Equipment struct {
	ID        string
	Code      string
	Model     string
	Serial    string
	Supplier  string
	Status    EquipmentStatus
	HolderID  string
	OrderID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HolderConsistent verifica que holder/orden vinculada coincidan con el estado.
func (e *Equipment) HolderConsistent() bool {
	linked := e.HolderID != "" && e.OrderID != ""
	if e.Status == EquipmentInUse {
		return linked
	}
	return e.OrderID == ""
}
