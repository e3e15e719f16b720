package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/estoque-os-api/internal/application/dto"
	"github.com/jhoicas/estoque-os-api/internal/application/usecase"
	"github.com/jhoicas/estoque-os-api/pkg/logger"
)

// MovementHandler expone el diario de movimientos (protegido, solo lectura).
type MovementHandler struct {
	uc  *usecase.MovementUseCase
	log *logger.Logger
}

// NewMovementHandler construye el handler.
func NewMovementHandler(uc *usecase.MovementUseCase, log *logger.Logger) *MovementHandler {
	return &MovementHandler{uc: uc, log: log}
}

// Journal godoc
// @Summary      Diario de movimientos (más reciente primero, máximo 500)
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        from   query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to     query  string  false  "Hasta (RFC3339 o YYYY-MM-DD, inclusive)"
// @Param        type   query  string  false  "saida | entrada | devolucao | cancelamento"
// @Param        limit  query  int     false  "Límite"  default(500)
// @Success      200    {object}  dto.MovementListResponse
// @Failure      400    {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *MovementHandler) Journal(c *fiber.Ctx) error {
	from, err := queryTime(c, "from", false)
	if err != nil {
		return badRequest(c, &dto.ErrorResponse{Code: "VALIDATION", Message: "from: fecha inválida"})
	}
	to, err := queryTime(c, "to", true)
	if err != nil {
		return badRequest(c, &dto.ErrorResponse{Code: "VALIDATION", Message: "to: fecha inválida"})
	}
	in := dto.MovementJournalRequest{From: from, To: to, Type: c.Query("type"), Limit: c.QueryInt("limit", 0)}
	if e := validateStruct(&in); e != nil {
		return badRequest(c, e)
	}
	out, err := h.uc.Journal(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
