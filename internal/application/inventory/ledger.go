package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
)

// DefaultHistoryLimit es el tamaño de página del historial por ítem.
const DefaultHistoryLimit = 50

// Ledger mantiene las cantidades de los ítems y el libro de movimientos.
// Cada registro ajusta la cantidad con un delta atómico y agrega el movimiento en la misma tx.
type Ledger struct {
	txRunner     TxRunner
	movRepo      repository.MovementRepository
	historyLimit int
	now          func() time.Time
}

// NewLedger construye el libro. historyLimit <= 0 usa DefaultHistoryLimit.
func NewLedger(txRunner TxRunner, movRepo repository.MovementRepository, historyLimit int) *Ledger {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Ledger{
		txRunner:     txRunner,
		movRepo:      movRepo,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// MovementInput datos de un movimiento de ítem.
//
// RequestID, si no está vacío, se usa como ID del movimiento y hace la llamada
// idempotente: repetirla con el mismo RequestID devuelve el movimiento ya
// registrado sin volver a ajustar la cantidad.
type MovementInput struct {
	RequestID   string
	ItemID      string
	Quantity    int
	OrderID     string
	EmployeeID  string
	ActorID     string
	Description string
}

// RecordExit descuenta stock (salida). Devuelve *domain.LineError con ErrInsufficientStock
// si la cantidad actual es menor que la solicitada; en ese caso no se modifica nada.
func (l *Ledger) RecordExit(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	return l.record(ctx, entity.MovementExit, in)
}

// RecordEntry suma stock por reposición manual (entrada).
func (l *Ledger) RecordEntry(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	return l.record(ctx, entity.MovementEntry, in)
}

// RecordReturn suma stock por devolución de una OS.
func (l *Ledger) RecordReturn(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	return l.record(ctx, entity.MovementReturn, in)
}

// RecordVoid revierte una salida previa (cancelamento).
func (l *Ledger) RecordVoid(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	return l.record(ctx, entity.MovementVoid, in)
}

func (l *Ledger) record(ctx context.Context, typ entity.MovementType, in MovementInput) (*entity.Movement, error) {
	if strings.TrimSpace(in.ItemID) == "" || in.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	id := in.RequestID
	if id == "" {
		id = uuid.New().String()
	}
	mov := &entity.Movement{
		ID:          id,
		Type:        typ,
		ItemID:      in.ItemID,
		Quantity:    in.Quantity,
		OrderID:     in.OrderID,
		EmployeeID:  in.EmployeeID,
		ActorID:     in.ActorID,
		Description: in.Description,
		CreatedAt:   l.now(),
	}
	if err := mov.Validate(); err != nil {
		return nil, err
	}

	var replayed *entity.Movement
	err := l.txRunner.Run(ctx, func(itemRepo repository.StockItemRepository, movRepo repository.MovementRepository) error {
		if in.RequestID != "" {
			existing, err := movRepo.GetByID(ctx, in.RequestID)
			if err != nil {
				return err
			}
			if existing != nil {
				replayed = existing
				return nil
			}
		}
		current, err := itemRepo.AdjustQuantity(ctx, in.ItemID, mov.SignedQuantity())
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				return &domain.LineError{
					Err:      domain.ErrInsufficientStock,
					OrderID:  in.OrderID,
					ItemID:   in.ItemID,
					Expected: strconv.Itoa(in.Quantity),
					Actual:   strconv.Itoa(current),
				}
			}
			return err
		}
		return movRepo.Append(ctx, mov)
	})
	if err != nil && in.RequestID != "" && errors.Is(err, domain.ErrDuplicate) {
		// Otro intento con la misma clave ganó la carrera; la tx se revirtió entera.
		replayed, err = l.movRepo.GetByID(ctx, in.RequestID)
		if err == nil && replayed == nil {
			err = domain.ErrDuplicate
		}
	}
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		if replayed.Type != typ || replayed.ItemID != in.ItemID || replayed.Quantity != in.Quantity {
			return nil, fmt.Errorf("%w: movimiento %s ya registrado con otros datos", domain.ErrConflict, in.RequestID)
		}
		return replayed, nil
	}
	return mov, nil
}

// RegisterItem crea el ítem y, si initialQty > 0, registra el saldo inicial como entrada.
func (l *Ledger) RegisterItem(ctx context.Context, item *entity.StockItem, initialQty int, actorID string) error {
	if initialQty < 0 {
		return domain.ErrInvalidInput
	}
	now := l.now()
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt = now
	item.UpdatedAt = now

	return l.txRunner.Run(ctx, func(itemRepo repository.StockItemRepository, movRepo repository.MovementRepository) error {
		item.Quantity = 0
		if err := itemRepo.Create(ctx, item); err != nil {
			return err
		}
		if initialQty == 0 {
			return nil
		}
		qty, err := itemRepo.AdjustQuantity(ctx, item.ID, initialQty)
		if err != nil {
			return err
		}
		item.Quantity = qty
		return movRepo.Append(ctx, &entity.Movement{
			ID:          uuid.New().String(),
			Type:        entity.MovementEntry,
			ItemID:      item.ID,
			Quantity:    initialQty,
			ActorID:     actorID,
			Description: "Saldo inicial",
			CreatedAt:   now,
		})
	})
}

// PageSize tamaño de página de History.
func (l *Ledger) PageSize() int { return l.historyLimit }

// History devuelve los movimientos del ítem, más reciente primero, en páginas de historyLimit.
// offset permite reanudar la lectura desde donde quedó la página anterior.
func (l *Ledger) History(ctx context.Context, itemID string, offset int) ([]*entity.Movement, error) {
	if offset < 0 {
		offset = 0
	}
	return l.movRepo.ListByItem(ctx, itemID, l.historyLimit, offset)
}
