package repository

import (
	"context"

	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
)

// EmployeeRepository define el puerto de persistencia para funcionários (DIP).
// No expone Delete: la baja es lógica vía Update con Active=false.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *entity.Employee) error
	GetByID(ctx context.Context, id string) (*entity.Employee, error)
	Update(ctx context.Context, employee *entity.Employee) error
	List(ctx context.Context, onlyActive bool, limit, offset int) ([]*entity.Employee, error)
}
