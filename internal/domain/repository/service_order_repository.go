package repository

import (
	"context"
	"time"

	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
)

// OrderFilter filtra el listado de órdenes (campos vacíos no filtran).
type OrderFilter struct {
	EmployeeID string
	Status     entity.OrderStatus
	Limit      int
	Offset     int
}

// ServiceOrderRepository define el puerto de persistencia para órdenes de servicio.
// Las líneas se insertan junto con la orden en Create y no se modifican después.
type ServiceOrderRepository interface {
	// Create asigna el siguiente número secuencial y persiste orden y líneas.
	Create(ctx context.Context, order *entity.ServiceOrder) error
	// GetByID devuelve la orden con sus líneas (nil, nil si no existe).
	GetByID(ctx context.Context, id string) (*entity.ServiceOrder, error)
	// List devuelve las órdenes por número descendente, sin líneas.
	List(ctx context.Context, filter OrderFilter) ([]*entity.ServiceOrder, error)
	// TransitionStatus cambia el estado solo si el actual es from (domain.ErrConflict si no).
	TransitionStatus(ctx context.Context, id string, from, to entity.OrderStatus) error
	// SetSignature registra la firma una única vez (domain.ErrAlreadySigned si ya existe).
	SetSignature(ctx context.Context, id, payload, signerID string, at time.Time) error
	// AcquireLease reserva la orden para una operación hasta until.
	// Devuelve domain.ErrOperationInProgress si otro token vigente la tiene.
	AcquireLease(ctx context.Context, id, token string, until time.Time) error
	ReleaseLease(ctx context.Context, id, token string) error
}

// DevolutionRepository persiste devoluciones con sus líneas (solo inserción).
type DevolutionRepository interface {
	Create(ctx context.Context, devolution *entity.Devolution) error
	// ListByOrder devuelve las devoluciones de la orden, más antigua primero, con líneas.
	ListByOrder(ctx context.Context, orderID string) ([]*entity.Devolution, error)
}
