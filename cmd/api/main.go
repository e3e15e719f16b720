package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/estoque-os-api/internal/application/equipment"
	"github.com/jhoicas/estoque-os-api/internal/application/inventory"
	"github.com/jhoicas/estoque-os-api/internal/application/reconciliation"
	"github.com/jhoicas/estoque-os-api/internal/application/serviceorder"
	"github.com/jhoicas/estoque-os-api/internal/application/usecase"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
	"github.com/jhoicas/estoque-os-api/internal/infrastructure/memory"
	"github.com/jhoicas/estoque-os-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/estoque-os-api/internal/interfaces/http"
	"github.com/jhoicas/estoque-os-api/pkg/config"
	"github.com/jhoicas/estoque-os-api/pkg/logger"
)

// stores agrupa los repositorios del driver elegido en STORE_DRIVER.
type stores struct {
	employees   repository.EmployeeRepository
	items       repository.StockItemRepository
	units       repository.EquipmentRepository
	history     repository.EquipmentHistoryRepository
	movements   repository.MovementRepository
	orders      repository.ServiceOrderRepository
	devolutions repository.DevolutionRepository
	itemTx      inventory.TxRunner
	unitTx      equipment.TxRunner
	close       func()
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.App.StoreDriver == config.StoreDriverMemory {
		log.Warn().Msg("STORE_DRIVER=memory: los datos se pierden al reiniciar")
		m := memory.NewStore()
		return &stores{
			employees:   m.Employees(),
			items:       m.Items(),
			units:       m.Equipment(),
			history:     m.History(),
			movements:   m.Movements(),
			orders:      m.Orders(),
			devolutions: m.Devolutions(),
			itemTx:      m,
			unitTx:      m,
			close:       func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("migraciones aplicadas")
	}
	txRunner := postgres.NewTxRunner(pool)
	return &stores{
		employees:   postgres.NewEmployeeRepository(pool),
		items:       postgres.NewStockItemRepository(pool),
		units:       postgres.NewEquipmentRepository(pool),
		history:     postgres.NewEquipmentHistoryRepository(pool),
		movements:   postgres.NewMovementRepository(pool),
		orders:      postgres.NewServiceOrderRepository(pool),
		devolutions: postgres.NewDevolutionRepository(pool),
		itemTx:      txRunner,
		unitTx:      txRunner,
		close:       pool.Close,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Msg("iniciando aplicación")
	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: todas las rutas /api responderán 401")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer st.close()

	ledger := inventory.NewLedger(st.itemTx, st.movements, cfg.Engine.HistoryLimit)
	registry := equipment.NewRegistry(st.unitTx, st.history)
	engine := serviceorder.NewEngine(serviceorder.Deps{
		Orders:      st.orders,
		Devolutions: st.devolutions,
		Employees:   st.employees,
		Items:       st.items,
		Equipment:   st.units,
		Movements:   st.movements,
		Ledger:      ledger,
		Registry:    registry,
	}, serviceorder.Config{
		RetryAttempts:    cfg.Engine.RetryAttempts,
		RetryDelay:       cfg.Engine.RetryDelay,
		OperationTimeout: cfg.Engine.OperationTimeout,
	}, log)
	guard := reconciliation.NewGuard(st.items, st.units, st.movements, st.history, log)
	if cfg.Reconcile.Interval > 0 {
		guard.Start(ctx, cfg.Reconcile.Interval)
		log.Info().Dur("interval", cfg.Reconcile.Interval).Msg("conciliación periódica activa")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.Engine.OperationTimeout + 5*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Estoque OS API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		EmployeeUC:       usecase.NewEmployeeUseCase(st.employees, st.units, st.orders),
		ItemUC:           usecase.NewItemUseCase(st.items, ledger),
		EquipmentUC:      usecase.NewEquipmentUseCase(st.units, registry),
		OrderUC:          usecase.NewOrderUseCase(engine),
		MovementUC:       usecase.NewMovementUseCase(st.movements),
		ReconciliationUC: usecase.NewReconciliationUseCase(guard),
		JWTSecret:        cfg.JWT.Secret,
		Log:              log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
