package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/estoque-os-api/internal/application/usecase"
	"github.com/jhoicas/estoque-os-api/pkg/jwt"
	"github.com/jhoicas/estoque-os-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	EmployeeUC       *usecase.EmployeeUseCase
	ItemUC           *usecase.ItemUseCase
	EquipmentUC      *usecase.EquipmentUseCase
	OrderUC          *usecase.OrderUseCase
	MovementUC       *usecase.MovementUseCase
	ReconciliationUC *usecase.ReconciliationUseCase
	JWTSecret        string
	Log              *logger.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token; el user_id del
// token es el actor registrado en movimientos e historial.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	read := RequireRole(jwt.RoleAdmin, jwt.RoleOperator, jwt.RoleViewer)
	write := RequireRole(jwt.RoleAdmin, jwt.RoleOperator)
	admin := RequireRole(jwt.RoleAdmin)

	// Funcionários
	employees := protected.Group("/employees")
	employeeHandler := NewEmployeeHandler(deps.EmployeeUC, log)
	employees.Post("/", write, employeeHandler.Create)
	employees.Get("/", read, employeeHandler.List)
	employees.Get("/:id", read, employeeHandler.GetByID)
	employees.Put("/:id", write, employeeHandler.Update)
	employees.Patch("/:id/active", write, employeeHandler.SetActive)

	// Ítems consumibles
	items := protected.Group("/items")
	itemHandler := NewItemHandler(deps.ItemUC, log)
	items.Post("/", write, itemHandler.Create)
	items.Get("/", read, itemHandler.List)
	items.Get("/low-stock", read, itemHandler.LowStock)
	items.Get("/:id", read, itemHandler.GetByID)
	items.Put("/:id", write, itemHandler.Update)
	items.Post("/:id/entries", write, itemHandler.RegisterEntry)
	items.Get("/:id/movements", read, itemHandler.Movements)

	// ONUs
	equipment := protected.Group("/equipment")
	equipmentHandler := NewEquipmentHandler(deps.EquipmentUC, deps.OrderUC, log)
	equipment.Post("/", write, equipmentHandler.Create)
	equipment.Get("/", read, equipmentHandler.List)
	equipment.Get("/:id", read, equipmentHandler.GetByID)
	equipment.Put("/:id", write, equipmentHandler.Update)
	equipment.Post("/:id/lost", write, equipmentHandler.MarkLost)
	equipment.Post("/:id/recover", write, equipmentHandler.Recover)
	equipment.Post("/:id/retire", write, equipmentHandler.Retire)
	equipment.Get("/:id/history", read, equipmentHandler.History)

	// Órdenes de servicio
	orders := protected.Group("/orders")
	orderHandler := NewOrderHandler(deps.OrderUC, log)
	orders.Post("/", write, orderHandler.Create)
	orders.Get("/", read, orderHandler.List)
	orders.Get("/:id", read, orderHandler.GetByID)
	orders.Post("/:id/confirm", write, orderHandler.Confirm)
	orders.Post("/:id/cancel", write, orderHandler.Cancel)
	orders.Post("/:id/devolutions", write, orderHandler.RegisterDevolution)
	orders.Post("/:id/signature", write, orderHandler.Sign)

	// Diario de movimientos
	movementHandler := NewMovementHandler(deps.MovementUC, log)
	protected.Get("/movements", read, movementHandler.Journal)

	// Conciliación: la corrección es explícita y solo para admin
	reconciliation := protected.Group("/reconciliation")
	reconciliationHandler := NewReconciliationHandler(deps.ReconciliationUC, log)
	reconciliation.Get("/", read, reconciliationHandler.Run)
	reconciliation.Post("/items/:id/correct", admin, reconciliationHandler.CorrectItem)
}
