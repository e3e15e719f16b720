// seed_catalog importa ítems consumibles y ONUs desde un CSV separado por ';'.
//
//	tipo;codigo;nome;...
//	item;CB-DROP;Cabo drop 1FO;cabos;m;100;2000
//	onu;ZTEG1A2B3C4D;F601;ZTEG1A2B3C4D;ZTE
//
// Uso: go run ./cmd/seed_catalog --file catalogo.csv --actor <usuario> [--encoding auto|utf-8|latin1] [--dry-run]
// La cantidad inicial de cada ítem se registra como entrada en el libro de movimientos.
// Códigos ya registrados se omiten.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/jhoicas/estoque-os-api/internal/application/equipment"
	"github.com/jhoicas/estoque-os-api/internal/application/inventory"
	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/infrastructure/postgres"
	"github.com/jhoicas/estoque-os-api/pkg/config"
	"github.com/jhoicas/estoque-os-api/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var filePath, encoding, actor string
	var dryRun bool

	flagSet := pflag.NewFlagSet("seed_catalog", pflag.ContinueOnError)
	flagSet.StringVarP(&filePath, "file", "f", "catalogo.csv", "CSV del catálogo")
	flagSet.StringVar(&encoding, "encoding", encodingAuto, "codificación: auto, utf-8 o latin1")
	flagSet.StringVar(&actor, "actor", "", "usuario registrado como autor de las altas")
	flagSet.BoolVar(&dryRun, "dry-run", false, "solo validar el archivo")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("abrir CSV: %w", err)
	}
	defer f.Close()
	r, err := decodeInput(f, encoding)
	if err != nil {
		return err
	}
	catalog, err := parseCatalog(r)
	if err != nil {
		return fmt.Errorf("CSV inválido:\n%w", err)
	}
	fmt.Printf("%d ítems y %d ONUs leídos de %s\n", len(catalog.items), len(catalog.units), filePath)
	if dryRun {
		return nil
	}
	if actor == "" {
		return fmt.Errorf("--actor es obligatorio")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.NewWithWriter(os.Stderr, cfg.App.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()
	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			return err
		}
	}

	txRunner := postgres.NewTxRunner(pool)
	ledger := inventory.NewLedger(txRunner, postgres.NewMovementRepository(pool), cfg.Engine.HistoryLimit)
	registry := equipment.NewRegistry(txRunner, postgres.NewEquipmentHistoryRepository(pool))

	var created, skipped int
	for _, row := range catalog.items {
		item := &entity.StockItem{
			Name:        row.name,
			Code:        row.code,
			Category:    row.category,
			Unit:        row.unit,
			MinQuantity: row.minQty,
		}
		err := ledger.RegisterItem(ctx, item, row.initialQty, actor)
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			skipped++
			log.Warn().Int("line", row.line).Str("code", row.code).Msg("ítem ya registrado")
		case err != nil:
			return fmt.Errorf("línea %d: %w", row.line, err)
		default:
			created++
		}
	}
	for _, row := range catalog.units {
		eq := &entity.Equipment{Code: row.code, Model: row.model, Serial: row.serial, Supplier: row.supplier}
		err := registry.Register(ctx, eq, actor)
		switch {
		case errors.Is(err, domain.ErrDuplicateEquipmentCode):
			skipped++
			log.Warn().Int("line", row.line).Str("code", row.code).Msg("ONU ya registrada")
		case err != nil:
			return fmt.Errorf("línea %d: %w", row.line, err)
		default:
			created++
		}
	}
	fmt.Printf("%d registros creados, %d omitidos\n", created, skipped)
	return nil
}
