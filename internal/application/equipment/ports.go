package equipment

import (
	"context"

	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
)

// TxRunner ejecuta una transición de equipo en una sola transacción:
// cambio de estado condicional, historial y movimiento.
type TxRunner interface {
	RunEquipment(ctx context.Context, fn func(
		equipmentRepo repository.EquipmentRepository,
		historyRepo repository.EquipmentHistoryRepository,
		movRepo repository.MovementRepository,
	) error) error
}
