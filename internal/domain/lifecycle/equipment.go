package lifecycle

import (
	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
)

// EquipmentAction es una acción sobre una ONU.
type EquipmentAction string

const (
	EquipmentAssign   EquipmentAction = "atribuir"
	EquipmentRelease  EquipmentAction = "liberar"
	EquipmentMarkLost EquipmentAction = "extraviar"
	EquipmentRecover  EquipmentAction = "recuperar"
	EquipmentRetire   EquipmentAction = "devolver_fornecedor"
)

var equipmentTransitions = map[entity.EquipmentStatus]map[EquipmentAction]entity.EquipmentStatus{
	entity.EquipmentInStock: {
		EquipmentAssign: entity.EquipmentInUse,
		EquipmentRetire: entity.EquipmentReturned,
	},
	entity.EquipmentInUse: {
		EquipmentRelease:  entity.EquipmentInStock,
		EquipmentMarkLost: entity.EquipmentLost,
	},
	entity.EquipmentLost: {
		EquipmentRecover: entity.EquipmentInStock,
	},
	entity.EquipmentReturned: {
		EquipmentRecover: entity.EquipmentInStock,
	},
}

// NextEquipmentStatus devuelve el estado destino o un *domain.TransitionError.
func NextEquipmentStatus(equipmentID string, from entity.EquipmentStatus, action EquipmentAction) (entity.EquipmentStatus, error) {
	if next, ok := equipmentTransitions[from][action]; ok {
		return next, nil
	}
	return "", &domain.TransitionError{Entity: "equipo", ID: equipmentID, From: string(from), Action: string(action)}
}
