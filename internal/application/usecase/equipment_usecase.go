package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/estoque-os-api/internal/application/dto"
	"github.com/jhoicas/estoque-os-api/internal/application/equipment"
	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
)

// EquipmentUseCase casos de uso de ONUs. Los cambios de estado pasan por el Registry.
type EquipmentUseCase struct {
	repo     repository.EquipmentRepository
	registry *equipment.Registry
}

// NewEquipmentUseCase construye el caso de uso.
func NewEquipmentUseCase(repo repository.EquipmentRepository, registry *equipment.Registry) *EquipmentUseCase {
	return &EquipmentUseCase{repo: repo, registry: registry}
}

// Create registra una ONU en estoque. Código repetido: domain.ErrDuplicateEquipmentCode.
func (uc *EquipmentUseCase) Create(ctx context.Context, actorID string, in dto.CreateEquipmentRequest) (*dto.EquipmentResponse, error) {
	eq := &entity.Equipment{
		Code:     in.Code,
		Model:    strings.TrimSpace(in.Model),
		Serial:   strings.TrimSpace(in.Serial),
		Supplier: strings.TrimSpace(in.Supplier),
	}
	if err := uc.registry.Register(ctx, eq, actorID); err != nil {
		return nil, err
	}
	return toEquipmentResponse(eq), nil
}

// GetByID obtiene una ONU por ID.
func (uc *EquipmentUseCase) GetByID(ctx context.Context, id string) (*dto.EquipmentResponse, error) {
	eq, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toEquipmentResponse(eq), nil
}

// Update actualiza modelo, serial y proveedor.
func (uc *EquipmentUseCase) Update(ctx context.Context, id string, in dto.UpdateEquipmentRequest) (*dto.EquipmentResponse, error) {
	eq, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if eq == nil {
		return nil, nil
	}
	if in.Model != nil {
		eq.Model = strings.TrimSpace(*in.Model)
	}
	if in.Serial != nil {
		eq.Serial = strings.TrimSpace(*in.Serial)
	}
	if in.Supplier != nil {
		eq.Supplier = strings.TrimSpace(*in.Supplier)
	}
	eq.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, eq); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, id)
}

// List lista ONUs por código, filtradas por estado si status no está vacío.
func (uc *EquipmentUseCase) List(ctx context.Context, status string, limit, offset int) (*dto.EquipmentListResponse, error) {
	st := entity.EquipmentStatus(status)
	if status != "" && !st.Valid() {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.repo.List(ctx, st, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.EquipmentResponse, 0, len(list))
	for _, eq := range list {
		items = append(items, *toEquipmentResponse(eq))
	}
	return &dto.EquipmentListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Recover reingresa al estoque una ONU extraviada o devuelta al proveedor.
func (uc *EquipmentUseCase) Recover(ctx context.Context, id, actorID string, in dto.EquipmentStatusRequest) (*dto.EquipmentResponse, error) {
	eq, err := uc.registry.Recover(ctx, id, actorID, statusNote(in.Description, "Reingresso ao estoque"))
	if err != nil {
		return nil, err
	}
	return toEquipmentResponse(eq), nil
}

// Retire marca como devuelta al proveedor una ONU en estoque.
func (uc *EquipmentUseCase) Retire(ctx context.Context, id, actorID string, in dto.EquipmentStatusRequest) (*dto.EquipmentResponse, error) {
	eq, err := uc.registry.Retire(ctx, id, actorID, statusNote(in.Description, "Devolvida ao fornecedor"))
	if err != nil {
		return nil, err
	}
	return toEquipmentResponse(eq), nil
}

// History devuelve el historial de estados, más reciente primero.
func (uc *EquipmentUseCase) History(ctx context.Context, id string, limit, offset int) (*dto.EquipmentHistoryListResponse, error) {
	eq, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if eq == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.registry.History(ctx, id, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.EquipmentHistoryResponse, 0, len(list))
	for _, h := range list {
		items = append(items, dto.EquipmentHistoryResponse{
			ID:             h.ID,
			EquipmentID:    h.EquipmentID,
			PreviousStatus: string(h.PreviousStatus),
			NewStatus:      string(h.NewStatus),
			HolderID:       h.HolderID,
			OrderID:        h.OrderID,
			ActorID:        h.ActorID,
			Description:    h.Description,
			CreatedAt:      h.CreatedAt,
		})
	}
	return &dto.EquipmentHistoryListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func statusNote(desc, fallback string) string {
	if d := strings.TrimSpace(desc); d != "" {
		return d
	}
	return fallback
}

func toEquipmentResponse(eq *entity.Equipment) *dto.EquipmentResponse {
	if eq == nil {
		return nil
	}
	return &dto.EquipmentResponse{
		ID:        eq.ID,
		Code:      eq.Code,
		Model:     eq.Model,
		Serial:    eq.Serial,
		Supplier:  eq.Supplier,
		Status:    string(eq.Status),
		HolderID:  eq.HolderID,
		OrderID:   eq.OrderID,
		CreatedAt: eq.CreatedAt,
		UpdatedAt: eq.UpdatedAt,
	}
}
