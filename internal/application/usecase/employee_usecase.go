package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/estoque-os-api/internal/application/dto"
	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
)

// EmployeeUseCase casos de uso de funcionários. No hay baja física: solo desactivación.
type EmployeeUseCase struct {
	repo   repository.EmployeeRepository
	units  repository.EquipmentRepository
	orders repository.ServiceOrderRepository
}

// NewEmployeeUseCase construye el caso de uso.
func NewEmployeeUseCase(repo repository.EmployeeRepository, units repository.EquipmentRepository, orders repository.ServiceOrderRepository) *EmployeeUseCase {
	return &EmployeeUseCase{repo: repo, units: units, orders: orders}
}

// Create da de alta un funcionário activo.
func (uc *EmployeeUseCase) Create(ctx context.Context, in dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	employee := &entity.Employee{
		ID:        uuid.New().String(),
		Name:      name,
		Role:      strings.TrimSpace(in.Role),
		Document:  strings.TrimSpace(in.Document),
		Badge:     strings.TrimSpace(in.Badge),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, employee); err != nil {
		return nil, err
	}
	return toEmployeeResponse(employee), nil
}

// GetByID devuelve el funcionário con los equipos a su cargo y sus OS abiertas.
func (uc *EmployeeUseCase) GetByID(ctx context.Context, id string) (*dto.EmployeeDetailResponse, error) {
	employee, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, nil
	}
	units, err := uc.units.ListByHolder(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &dto.EmployeeDetailResponse{
		EmployeeResponse: *toEmployeeResponse(employee),
		Equipment:        make([]dto.EquipmentResponse, 0, len(units)),
		Orders:           []dto.OrderResponse{},
	}
	for _, u := range units {
		out.Equipment = append(out.Equipment, *toEquipmentResponse(u))
	}
	for _, status := range []entity.OrderStatus{entity.OrderConfirmed, entity.OrderPartiallyReturned} {
		orders, err := uc.orders.List(ctx, repository.OrderFilter{EmployeeID: id, Status: status})
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			out.Orders = append(out.Orders, *toOrderResponse(o))
		}
	}
	return out, nil
}

// Update actualiza los datos del funcionário.
func (uc *EmployeeUseCase) Update(ctx context.Context, id string, in dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error) {
	employee, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, nil
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		employee.Name = name
	}
	if in.Role != nil {
		employee.Role = strings.TrimSpace(*in.Role)
	}
	if in.Document != nil {
		employee.Document = strings.TrimSpace(*in.Document)
	}
	if in.Badge != nil {
		employee.Badge = strings.TrimSpace(*in.Badge)
	}
	employee.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, employee); err != nil {
		return nil, err
	}
	return toEmployeeResponse(employee), nil
}

// SetActive activa o desactiva al funcionário. Un inactivo no recibe nuevas OS.
func (uc *EmployeeUseCase) SetActive(ctx context.Context, id string, active bool) (*dto.EmployeeResponse, error) {
	employee, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, nil
	}
	employee.Active = active
	employee.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, employee); err != nil {
		return nil, err
	}
	return toEmployeeResponse(employee), nil
}

// List lista funcionários ordenados por nombre.
func (uc *EmployeeUseCase) List(ctx context.Context, onlyActive bool, limit, offset int) (*dto.EmployeeListResponse, error) {
	list, err := uc.repo.List(ctx, onlyActive, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.EmployeeResponse, 0, len(list))
	for _, e := range list {
		items = append(items, *toEmployeeResponse(e))
	}
	return &dto.EmployeeListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func toEmployeeResponse(e *entity.Employee) *dto.EmployeeResponse {
	if e == nil {
		return nil
	}
	return &dto.EmployeeResponse{
		ID:        e.ID,
		Name:      e.Name,
		Role:      e.Role,
		Document:  e.Document,
		Badge:     e.Badge,
		Active:    e.Active,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
