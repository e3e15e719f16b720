package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/estoque-os-api/internal/application/usecase"
	"github.com/jhoicas/estoque-os-api/pkg/logger"
)

// ReconciliationHandler ejecuta la conciliación bajo demanda (protegido).
type ReconciliationHandler struct {
	uc  *usecase.ReconciliationUseCase
	log *logger.Logger
}

// NewReconciliationHandler construye el handler.
func NewReconciliationHandler(uc *usecase.ReconciliationUseCase, log *logger.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{uc: uc, log: log}
}

// Run godoc
// @Summary      Conciliar cantidades y estados contra sus libros (solo lectura)
// @Tags         reconciliation
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ReconciliationReportResponse
// @Router       /api/reconciliation [get]
func (h *ReconciliationHandler) Run(c *fiber.Ctx) error {
	out, err := h.uc.Run(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// CorrectItem godoc
// @Summary      Ajustar la cantidad del ítem al valor del libro de movimientos
// @Tags         reconciliation
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.DivergenceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reconciliation/items/{id}/correct [post]
func (h *ReconciliationHandler) CorrectItem(c *fiber.Ctx) error {
	out, err := h.uc.CorrectItem(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
