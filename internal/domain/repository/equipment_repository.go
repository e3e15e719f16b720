package repository

import (
	"context"

	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
)

// EquipmentTransition describe un cambio de estado condicional de una ONU.
// Se aplica solo si el estado actual es From y la orden vinculada actual es
// FromOrderID (vacío = sin orden).
type EquipmentTransition struct {
	From        entity.EquipmentStatus
	FromOrderID string
	To          entity.EquipmentStatus
	HolderID    string
	OrderID     string
}

// EquipmentRepository define el puerto de persistencia para ONUs.
// Status, HolderID y OrderID solo cambian mediante TransitionStatus.
type EquipmentRepository interface {
	// Create devuelve domain.ErrDuplicateEquipmentCode si el código ya existe.
	Create(ctx context.Context, equipment *entity.Equipment) error
	GetByID(ctx context.Context, id string) (*entity.Equipment, error)
	GetByCode(ctx context.Context, code string) (*entity.Equipment, error)
	// Update modifica solo modelo, serial y proveedor.
	Update(ctx context.Context, equipment *entity.Equipment) error
	// List filtra por estado si status no está vacío; limit <= 0 devuelve todos.
	List(ctx context.Context, status entity.EquipmentStatus, limit, offset int) ([]*entity.Equipment, error)
	ListByHolder(ctx context.Context, employeeID string) ([]*entity.Equipment, error)
	// TransitionStatus aplica la transición como compare-and-set (domain.ErrConflict si no coincide).
	TransitionStatus(ctx context.Context, id string, t EquipmentTransition) error
}

// EquipmentHistoryRepository es el historial de estados (solo inserción).
type EquipmentHistoryRepository interface {
	// Append falla con domain.ErrDuplicate si ya existe una entrada con ese ID.
	Append(ctx context.Context, entry *entity.EquipmentHistory) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.EquipmentHistory, error)
	// ListByEquipment devuelve el historial más reciente primero.
	ListByEquipment(ctx context.Context, equipmentID string, limit, offset int) ([]*entity.EquipmentHistory, error)
	// LatestByEquipment devuelve la última entrada de cada equipo con historial.
	LatestByEquipment(ctx context.Context) (map[string]*entity.EquipmentHistory, error)
}
