package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/estoque-os-api/internal/application/dto"
	"github.com/jhoicas/estoque-os-api/internal/application/inventory"
	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
)

// ItemUseCase casos de uso de ítems consumibles.
// Las cantidades solo cambian a través del Ledger.
type ItemUseCase struct {
	repo   repository.StockItemRepository
	ledger *inventory.Ledger
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(repo repository.StockItemRepository, ledger *inventory.Ledger) *ItemUseCase {
	return &ItemUseCase{repo: repo, ledger: ledger}
}

// Create crea el ítem; InitialQuantity > 0 se registra como entrada "Saldo inicial".
func (uc *ItemUseCase) Create(ctx context.Context, actorID string, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.MinQuantity < 0 || in.InitialQuantity < 0 {
		return nil, domain.ErrInvalidInput
	}
	item := &entity.StockItem{
		Name:        name,
		Code:        strings.TrimSpace(in.Code),
		Category:    strings.TrimSpace(in.Category),
		Unit:        strings.TrimSpace(in.Unit),
		MinQuantity: in.MinQuantity,
	}
	if err := uc.ledger.RegisterItem(ctx, item, in.InitialQuantity, actorID); err != nil {
		return nil, err
	}
	return toItemResponse(item), nil
}

// GetByID obtiene un ítem por ID.
func (uc *ItemUseCase) GetByID(ctx context.Context, id string) (*dto.ItemResponse, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toItemResponse(item), nil
}

// Update actualiza metadatos del ítem. La cantidad no se toca.
func (uc *ItemUseCase) Update(ctx context.Context, id string, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		item.Name = name
	}
	if in.Code != nil {
		item.Code = strings.TrimSpace(*in.Code)
	}
	if in.Category != nil {
		item.Category = strings.TrimSpace(*in.Category)
	}
	if in.Unit != nil {
		item.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.MinQuantity != nil {
		if *in.MinQuantity < 0 {
			return nil, domain.ErrInvalidInput
		}
		item.MinQuantity = *in.MinQuantity
	}
	item.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	// La cantidad devuelta es la almacenada, no la leída antes del update.
	return uc.GetByID(ctx, id)
}

// List lista ítems por nombre con paginación.
func (uc *ItemUseCase) List(ctx context.Context, limit, offset int) (*dto.ItemListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return &dto.ItemListResponse{
		Items: toItemResponses(list),
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// LowStock lista los ítems con cantidad en o por debajo del mínimo.
func (uc *ItemUseCase) LowStock(ctx context.Context) (*dto.ItemListResponse, error) {
	list, err := uc.repo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.ItemListResponse{
		Items: toItemResponses(list),
		Page:  dto.PageResponse{Limit: len(list), Total: len(list)},
	}, nil
}

// RegisterEntry repone stock manualmente (movimiento de entrada).
func (uc *ItemUseCase) RegisterEntry(ctx context.Context, itemID, actorID string, in dto.ItemEntryRequest) (*dto.MovementResponse, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		desc = "Reposição manual"
	}
	mov, err := uc.ledger.RecordEntry(ctx, inventory.MovementInput{
		ItemID:      itemID,
		Quantity:    in.Quantity,
		ActorID:     actorID,
		Description: desc,
	})
	if err != nil {
		return nil, err
	}
	return toMovementResponse(mov), nil
}

// Movements devuelve una página del historial del ítem, más reciente primero.
func (uc *ItemUseCase) Movements(ctx context.Context, itemID string, offset int) (*dto.MovementListResponse, error) {
	item, err := uc.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.ledger.History(ctx, itemID, offset)
	if err != nil {
		return nil, err
	}
	return &dto.MovementListResponse{
		Items: toMovementResponses(list),
		Page:  dto.PageResponse{Limit: uc.ledger.PageSize(), Offset: max(offset, 0)},
	}, nil
}

func toItemResponse(i *entity.StockItem) *dto.ItemResponse {
	if i == nil {
		return nil
	}
	return &dto.ItemResponse{
		ID:          i.ID,
		Name:        i.Name,
		Code:        i.Code,
		Category:    i.Category,
		Unit:        i.Unit,
		Quantity:    i.Quantity,
		MinQuantity: i.MinQuantity,
		LowStock:    i.IsLowStock(),
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func toItemResponses(list []*entity.StockItem) []dto.ItemResponse {
	out := make([]dto.ItemResponse, 0, len(list))
	for _, i := range list {
		out = append(out, *toItemResponse(i))
	}
	return out
}
