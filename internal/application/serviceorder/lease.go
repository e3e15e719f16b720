package serviceorder

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// withLease serializa las operaciones sobre una misma orden entre procesos.
// fn recibe un contexto desacoplado de la cancelación del llamador y acotado por
// OperationTimeout: una vez iniciada la aplicación de líneas, termina o compensa.
func (e *Engine) withLease(ctx context.Context, orderID string, fn func(opCtx context.Context) error) error {
	token := uuid.New().String()
	if err := e.orders.AcquireLease(ctx, orderID, token, e.now().Add(e.cfg.OperationTimeout)); err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.OperationTimeout)
	defer cancel()
	defer func() {
		relCtx, relCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer relCancel()
		if err := e.orders.ReleaseLease(relCtx, orderID, token); err != nil {
			// El lease expira solo; se registra para diagnóstico.
			e.log.Warn().Err(err).Str("order_id", orderID).Msg("no se pudo liberar el lease de la orden")
		}
	}()
	return fn(opCtx)
}
