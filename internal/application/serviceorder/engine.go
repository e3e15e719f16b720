// Package serviceorder implementa el ciclo de vida de las órdenes de servicio:
// borrador, confirmación, cancelación y devoluciones sobre el Ledger y el Registry.
package serviceorder

import (
	"context"
	"time"

	"github.com/jhoicas/estoque-os-api/internal/application/equipment"
	"github.com/jhoicas/estoque-os-api/internal/application/inventory"
	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
	"github.com/jhoicas/estoque-os-api/pkg/logger"
)

// StockLedger es la parte del libro de inventario que usa el motor.
type StockLedger interface {
	RecordExit(ctx context.Context, in inventory.MovementInput) (*entity.Movement, error)
	RecordReturn(ctx context.Context, in inventory.MovementInput) (*entity.Movement, error)
	RecordVoid(ctx context.Context, in inventory.MovementInput) (*entity.Movement, error)
}

// EquipmentRegistry es la parte del registro de equipos que usa el motor.
type EquipmentRegistry interface {
	Assign(ctx context.Context, in equipment.AssignInput) (*entity.Equipment, error)
	Release(ctx context.Context, in equipment.ReleaseInput) (*entity.Equipment, error)
	MarkLost(ctx context.Context, equipmentID, actorID, description string) (*entity.Equipment, error)
}

// Deps agrupa los puertos del motor.
type Deps struct {
	Orders      repository.ServiceOrderRepository
	Devolutions repository.DevolutionRepository
	Employees   repository.EmployeeRepository
	Items       repository.StockItemRepository
	Equipment   repository.EquipmentRepository
	Movements   repository.MovementRepository
	Ledger      StockLedger
	Registry    EquipmentRegistry
}

// Config parámetros de reintento y duración de las operaciones.
type Config struct {
	RetryAttempts    int           // intentos totales por llamada; 2 = un reintento
	RetryDelay       time.Duration // espera entre intentos
	OperationTimeout time.Duration // tope de una operación y duración del lease
}

// DefaultConfig un reintento, 100ms de espera y 30s por operación.
func DefaultConfig() Config {
	return Config{RetryAttempts: 2, RetryDelay: 100 * time.Millisecond, OperationTimeout: 30 * time.Second}
}

// Engine es la máquina de estados de las órdenes de servicio.
// Las operaciones de varias líneas se ejecutan como sagas: cada línea aplicada
// registra su acción inversa y, ante un fallo, se revierten en orden inverso.
type Engine struct {
	orders      repository.ServiceOrderRepository
	devolutions repository.DevolutionRepository
	employees   repository.EmployeeRepository
	items       repository.StockItemRepository
	units       repository.EquipmentRepository
	movements   repository.MovementRepository
	ledger      StockLedger
	registry    EquipmentRegistry
	cfg         Config
	log         *logger.Logger
	now         func() time.Time
}

// NewEngine construye el motor. Valores de cfg no positivos toman DefaultConfig.
func NewEngine(deps Deps, cfg Config, log *logger.Logger) *Engine {
	def := DefaultConfig()
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = def.RetryAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = def.OperationTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		orders:      deps.Orders,
		devolutions: deps.Devolutions,
		employees:   deps.Employees,
		items:       deps.Items,
		units:       deps.Equipment,
		movements:   deps.Movements,
		ledger:      deps.Ledger,
		registry:    deps.Registry,
		cfg:         cfg,
		log:         log.WithFields(map[string]any{"component": "serviceorder"}),
		now:         time.Now,
	}
}

// loadOrder obtiene la orden con sus líneas o domain.ErrNotFound.
func (e *Engine) loadOrder(ctx context.Context, orderID string) (*entity.ServiceOrder, error) {
	var order *entity.ServiceOrder
	err := e.retry(ctx, "cargar orden", func(ctx context.Context) error {
		var err error
		order, err = e.orders.GetByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}
