package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/estoque-os-api/internal/application/dto"
	"github.com/jhoicas/estoque-os-api/internal/application/usecase"
	"github.com/jhoicas/estoque-os-api/pkg/logger"
)

// EquipmentHandler maneja las peticiones HTTP de ONUs (protegido).
// El extravío pasa por el motor de OS porque puede cerrar la orden vinculada.
type EquipmentHandler struct {
	uc     *usecase.EquipmentUseCase
	orders *usecase.OrderUseCase
	log    *logger.Logger
}

// NewEquipmentHandler construye el handler.
func NewEquipmentHandler(uc *usecase.EquipmentUseCase, orders *usecase.OrderUseCase, log *logger.Logger) *EquipmentHandler {
	return &EquipmentHandler{uc: uc, orders: orders, log: log}
}

// Create godoc
// @Summary      Registrar ONU
// @Tags         equipment
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateEquipmentRequest  true  "Código, modelo, serial, proveedor"
// @Success      201   {object}  dto.EquipmentResponse
// @Failure      409   {object}  dto.ErrorResponse  "DUPLICATE_EQUIPMENT_CODE"
// @Router       /api/equipment [post]
func (h *EquipmentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateEquipmentRequest
	if e := bindBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener ONU por ID
// @Tags         equipment
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la ONU"
// @Success      200  {object}  dto.EquipmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/equipment/{id} [get]
func (h *EquipmentHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "equipo no encontrado"})
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar modelo, serial y proveedor
// @Tags         equipment
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la ONU"
// @Param        body  body  dto.UpdateEquipmentRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.EquipmentResponse
// @Router       /api/equipment/{id} [put]
func (h *EquipmentHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateEquipmentRequest
	if e := bindBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "equipo no encontrado"})
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar ONUs
// @Tags         equipment
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "em_estoque | em_uso | extraviada | devolvida"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.EquipmentListResponse
// @Router       /api/equipment [get]
func (h *EquipmentHandler) List(c *fiber.Ctx) error {
	page := pageFrom(c)
	out, err := h.uc.List(c.UserContext(), c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// MarkLost godoc
// @Summary      Marcar ONU em_uso como extraviada
// @Tags         equipment
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true   "ID de la ONU"
// @Param        body  body  dto.EquipmentStatusRequest  false  "Descripción"
// @Success      200   {object}  dto.EquipmentResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/equipment/{id}/lost [post]
func (h *EquipmentHandler) MarkLost(c *fiber.Ctx) error {
	var in dto.EquipmentStatusRequest
	if e := bindOptionalBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	out, err := h.orders.MarkEquipmentLost(c.UserContext(), c.Params("id"), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Recover reingresa una ONU extraviada o devuelta al proveedor.
func (h *EquipmentHandler) Recover(c *fiber.Ctx) error {
	var in dto.EquipmentStatusRequest
	if e := bindOptionalBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	out, err := h.uc.Recover(c.UserContext(), c.Params("id"), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Retire marca como devuelta al proveedor una ONU en estoque.
func (h *EquipmentHandler) Retire(c *fiber.Ctx) error {
	var in dto.EquipmentStatusRequest
	if e := bindOptionalBody(c, &in); e != nil {
		return badRequest(c, e)
	}
	out, err := h.uc.Retire(c.UserContext(), c.Params("id"), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// History godoc
// @Summary      Historial de estados de la ONU
// @Tags         equipment
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID de la ONU"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.EquipmentHistoryListResponse
// @Router       /api/equipment/{id}/history [get]
func (h *EquipmentHandler) History(c *fiber.Ctx) error {
	page := pageFrom(c)
	out, err := h.uc.History(c.UserContext(), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
