package repository

import (
	"context"

	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
)

// StockItemRepository define el puerto de persistencia para ítems consumibles.
// La cantidad solo cambia mediante AdjustQuantity o CompareAndSetQuantity;
// Create siempre persiste cantidad 0 y Update ignora Quantity.
type StockItemRepository interface {
	Create(ctx context.Context, item *entity.StockItem) error
	GetByID(ctx context.Context, id string) (*entity.StockItem, error)
	Update(ctx context.Context, item *entity.StockItem) error
	List(ctx context.Context, limit, offset int) ([]*entity.StockItem, error)
	ListLowStock(ctx context.Context) ([]*entity.StockItem, error)
	// AdjustQuantity suma delta de forma atómica y devuelve la cantidad resultante.
	// Si el resultado fuera negativo no modifica nada y devuelve la cantidad actual
	// junto con domain.ErrInsufficientStock.
	AdjustQuantity(ctx context.Context, id string, delta int) (int, error)
	// CompareAndSetQuantity fija la cantidad solo si la actual es expected (domain.ErrConflict si no).
	CompareAndSetQuantity(ctx context.Context, id string, expected, next int) error
}
