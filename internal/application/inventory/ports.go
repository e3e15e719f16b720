package inventory

import (
	"context"

	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Garantiza que el ajuste de cantidad y el movimiento se persistan juntos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		itemRepo repository.StockItemRepository,
		movRepo repository.MovementRepository,
	) error) error
}
