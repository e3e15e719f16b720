package usecase

import (
	"context"

	"github.com/jhoicas/estoque-os-api/internal/application/dto"
	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
)

// MovementUseCase consulta del diario de movimientos (solo lectura).
type MovementUseCase struct {
	repo repository.MovementRepository
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(repo repository.MovementRepository) *MovementUseCase {
	return &MovementUseCase{repo: repo}
}

// Journal lista movimientos, más reciente primero, con tope de MaxMovementJournal.
func (uc *MovementUseCase) Journal(ctx context.Context, in dto.MovementJournalRequest) (*dto.MovementListResponse, error) {
	typ := entity.MovementType(in.Type)
	if in.Type != "" && !typ.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if in.From != nil && in.To != nil && in.To.Before(*in.From) {
		return nil, domain.ErrInvalidInput
	}
	limit := in.Limit
	if limit <= 0 || limit > repository.MaxMovementJournal {
		limit = repository.MaxMovementJournal
	}
	list, err := uc.repo.List(ctx, repository.MovementFilter{From: in.From, To: in.To, Type: typ, Limit: limit})
	if err != nil {
		return nil, err
	}
	return &dto.MovementListResponse{
		Items: toMovementResponses(list),
		Page:  dto.PageResponse{Limit: limit, Total: len(list)},
	}, nil
}

func toMovementResponse(m *entity.Movement) *dto.MovementResponse {
	if m == nil {
		return nil
	}
	return &dto.MovementResponse{
		ID:          m.ID,
		Type:        string(m.Type),
		ItemID:      m.ItemID,
		EquipmentID: m.EquipmentID,
		Quantity:    m.Quantity,
		OrderID:     m.OrderID,
		EmployeeID:  m.EmployeeID,
		ActorID:     m.ActorID,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}

func toMovementResponses(list []*entity.Movement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, *toMovementResponse(m))
	}
	return out
}
