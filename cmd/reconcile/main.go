// reconcile ejecuta una conciliación única de cantidades y estados contra sus libros.
//
// Uso: go run ./cmd/reconcile [--json] [--correct-items --actor <id>] [--timeout 2m]
// Lee la misma configuración que la API (DATABASE_URL / DB_*). Sale con código 2 si
// quedan divergencias.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/jhoicas/estoque-os-api/internal/application/reconciliation"
	"github.com/jhoicas/estoque-os-api/internal/infrastructure/postgres"
	"github.com/jhoicas/estoque-os-api/pkg/config"
	"github.com/jhoicas/estoque-os-api/pkg/logger"
)

func main() {
	err := run(os.Args[1:])
	if err != nil && !errors.Is(err, errDivergences) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.NewWithWriter(os.Stderr, cfg.App.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	guard := reconciliation.NewGuard(
		postgres.NewStockItemRepository(pool),
		postgres.NewEquipmentRepository(pool),
		postgres.NewMovementRepository(pool),
		postgres.NewEquipmentHistoryRepository(pool),
		log,
	)
	return execute(ctx, guard, opts, os.Stdout, log)
}
