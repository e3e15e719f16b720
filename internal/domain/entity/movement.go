package entity

import (
	"time"

	"github.com/jhoicas/estoque-os-api/internal/domain"
)

// MovementType es el tipo persistido de movimiento (movimento_tipo).
type MovementType string

// Tipos de movimiento (valores persistidos, no traducir).
const (
	MovementExit   MovementType = "saida"
	MovementEntry  MovementType = "entrada"
	MovementReturn MovementType = "devolucao"
	MovementVoid   MovementType = "cancelamento"
)

// Valid indica si el tipo pertenece a la enumeración persistida.
func (t MovementType) Valid() bool {
	switch t {
	case MovementExit, MovementEntry, MovementReturn, MovementVoid:
		return true
	}
	return false
}

// Movement es un registro inmutable del libro de movimientos.
// Referencia exactamente un ítem o un equipo; Quantity solo aplica a ítems.
type Movement struct {
	ID          string
	Type        MovementType
	ItemID      string
	EquipmentID string
	Quantity    int
	OrderID     string
	EmployeeID  string
	ActorID     string
	Description string
	CreatedAt   time.Time
}

// SignedQuantity devuelve el efecto del movimiento sobre la cantidad del ítem.
func (m *Movement) SignedQuantity() int {
	if m.Type == MovementExit {
		return -m.Quantity
	}
	return m.Quantity
}

// Validate comprueba la forma del movimiento antes de insertarlo.
func (m *Movement) Validate() error {
	if !m.Type.Valid() {
		return domain.ErrInvalidInput
	}
	hasItem := m.ItemID != ""
	hasEquipment := m.EquipmentID != ""
	if hasItem == hasEquipment {
		return domain.ErrInvalidInput
	}
	if hasItem && m.Quantity <= 0 {
		return domain.ErrInvalidInput
	}
	if hasEquipment && m.Quantity != 0 {
		return domain.ErrInvalidInput
	}
	return nil
}
