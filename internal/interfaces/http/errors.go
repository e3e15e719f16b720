package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/estoque-os-api/internal/application/dto"
	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/pkg/logger"
)

// errorMapping código HTTP y código de error para cada sentinel de dominio.
var errorMapping = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrEquipmentUnavailable, fiber.StatusConflict, "EQUIPMENT_UNAVAILABLE"},
	{domain.ErrDuplicateEquipmentCode, fiber.StatusConflict, "DUPLICATE_EQUIPMENT_CODE"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrOperationInProgress, fiber.StatusConflict, "OPERATION_IN_PROGRESS"},
	{domain.ErrAlreadySigned, fiber.StatusConflict, "ALREADY_SIGNED"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrInvalidTransition, fiber.StatusUnprocessableEntity, "INVALID_TRANSITION"},
}

// partialCodes código de error de cada tipo de fallo parcial.
var partialCodes = map[error]string{
	domain.ErrPartialApplication:  "PARTIAL_APPLICATION",
	domain.ErrPartialCancellation: "PARTIAL_CANCELLATION",
	domain.ErrPartialDevolution:   "PARTIAL_DEVOLUTION",
}

// writeError traduce err a dto.ErrorResponse.
//   - *domain.PartialFailure compensado → 409; con líneas pendientes → 500 (requiere reintento o conciliación).
//   - *domain.LineError → código del sentinel con el detalle de la línea.
//   - Sentinels de dominio → 400/401/403/404/409/422.
//   - Cualquier otro → 500 INTERNAL, registrado en el log.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	resp := dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()}
	status := fiber.StatusInternalServerError

	for _, m := range errorMapping {
		if errors.Is(err, m.target) {
			status, resp.Code = m.status, m.code
			break
		}
	}

	var line *domain.LineError
	if errors.As(err, &line) {
		resp.Line = &dto.LineErrorDetail{
			OrderID:     line.OrderID,
			LineID:      line.LineID,
			ItemID:      line.ItemID,
			EquipmentID: line.EquipmentID,
			Expected:    line.Expected,
			Actual:      line.Actual,
		}
	}

	var partial *domain.PartialFailure
	if errors.As(err, &partial) {
		resp.Code = partialCodes[partial.Err]
		resp.Partial = &dto.PartialFailureDetail{
			OrderID:     partial.OrderID,
			Applied:     partial.Applied,
			Outstanding: partial.Outstanding,
			Compensated: partial.Compensated,
		}
		if partial.Compensated {
			status = fiber.StatusConflict
		} else {
			status = fiber.StatusInternalServerError
		}
	}

	if errors.Is(err, context.DeadlineExceeded) && resp.Partial == nil {
		status, resp.Code = fiber.StatusGatewayTimeout, "TIMEOUT"
	}

	if status >= fiber.StatusInternalServerError && log != nil {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Str("actor", GetUserID(c)).
			Int("status", status).Msg("error en petición")
	}
	return c.Status(status).JSON(resp)
}
