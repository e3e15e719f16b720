package repository

import (
	"context"
	"time"

	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
)

// MaxMovementJournal es el tope de registros del diario de movimientos.
const MaxMovementJournal = 500

// MovementFilter filtra el diario de movimientos. Limit <= 0 o mayor que
// MaxMovementJournal se reduce a MaxMovementJournal.
type MovementFilter struct {
	From  *time.Time
	To    *time.Time
	Type  entity.MovementType
	Limit int
}

// MovementRepository es el libro de movimientos (solo inserción, sin update ni delete).
// Todas las listas se devuelven del más reciente al más antiguo.
type MovementRepository interface {
	// Append falla con domain.ErrDuplicate si ya existe un movimiento con ese ID.
	Append(ctx context.Context, movement *entity.Movement) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.Movement, error)
	ListByEquipment(ctx context.Context, equipmentID string, limit, offset int) ([]*entity.Movement, error)
	ListByOrder(ctx context.Context, orderID string) ([]*entity.Movement, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, error)
	// SumByItem devuelve, por ítem, la suma con signo de sus movimientos (salida resta).
	SumByItem(ctx context.Context) (map[string]int, error)
}
