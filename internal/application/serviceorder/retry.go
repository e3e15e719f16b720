package serviceorder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
)

// retry ejecuta fn hasta cfg.RetryAttempts veces. Los errores de negocio
// (stock insuficiente, transición inválida, etc.) no se reintentan.
// fn debe ser idempotente: un commit cuyo resultado se perdió se vuelve a intentar.
func (e *Engine) retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= e.cfg.RetryAttempts; attempt++ {
		err = fn(ctx)
		if err == nil || domain.IsBusinessError(err) {
			return err
		}
		if attempt == e.cfg.RetryAttempts {
			break
		}
		e.log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Msg("fallo transitorio, reintentando")
		if e.cfg.RetryDelay > 0 {
			t := time.NewTimer(e.cfg.RetryDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return err
			case <-t.C:
			}
		}
	}
	return err
}

// stepKeys claves de idempotencia de un paso de saga y de su inversa. Se generan
// una vez por paso y se repiten en cada reintento.
type stepKeys struct {
	apply string
	undo  string
}

func newStepKeys() stepKeys {
	return stepKeys{apply: uuid.New().String(), undo: uuid.New().String()}
}

// orderStatusStep cambia el estado de la orden de from a to. En un reintento, un
// conflicto con la orden ya en to significa que el intento anterior sí se aplicó.
func (e *Engine) orderStatusStep(orderID string, from, to entity.OrderStatus) func(ctx context.Context) error {
	attempts := 0
	return func(ctx context.Context) error {
		attempts++
		err := e.orders.TransitionStatus(ctx, orderID, from, to)
		if err == nil || attempts == 1 || !errors.Is(err, domain.ErrConflict) {
			return err
		}
		current, getErr := e.orders.GetByID(ctx, orderID)
		if getErr == nil && current != nil && current.Status == to {
			return nil
		}
		return err
	}
}

func (e *Engine) transitionOrder(ctx context.Context, op, orderID string, from, to entity.OrderStatus) error {
	return e.retry(ctx, op, e.orderStatusStep(orderID, from, to))
}
