package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/estoque-os-api/internal/application/inventory"
	"github.com/jhoicas/estoque-os-api/internal/application/reconciliation"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/infrastructure/memory"
	"github.com/jhoicas/estoque-os-api/pkg/logger"
)

// newGuard devuelve un guardián sobre un almacén en memoria con un ítem cuya
// cantidad almacenada (8) no coincide con su libro (10).
func newGuard(t *testing.T) (*reconciliation.Guard, *memory.Store, string) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	ledger := inventory.NewLedger(store, store.Movements(), 0)
	it := &entity.StockItem{Name: "Conector", Unit: "un"}
	require.NoError(t, ledger.RegisterItem(ctx, it, 10, "admin"))
	_, err := store.Items().AdjustQuantity(ctx, it.ID, -2)
	require.NoError(t, err)
	g := reconciliation.NewGuard(store.Items(), store.Equipment(), store.Movements(), store.History(), logger.Nop())
	return g, store, it.ID
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags(nil)
	require.NoError(t, err)
	assert.False(t, opts.asJSON)
	assert.False(t, opts.correct)
	assert.Equal(t, 2*time.Minute, opts.timeout)

	opts, err = parseFlags([]string{"--json", "--correct-items", "--actor", "admin", "--timeout", "30s"})
	require.NoError(t, err)
	assert.True(t, opts.asJSON)
	assert.True(t, opts.correct)
	assert.Equal(t, "admin", opts.actor)
	assert.Equal(t, 30*time.Second, opts.timeout)

	_, err = parseFlags([]string{"--correct-items"})
	assert.ErrorContains(t, err, "--actor")

	_, err = parseFlags([]string{"--timeout", "0s"})
	assert.Error(t, err)

	_, err = parseFlags([]string{"--desconocido"})
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 2, exitCode(errDivergences))
	assert.Equal(t, 2, exitCode(errors.Join(errDivergences)))
	assert.Equal(t, 1, exitCode(errors.New("sin conexión")))
}

func TestExecute_DivergenciasSalenConCodigo2(t *testing.T) {
	g, store, itemID := newGuard(t)
	var out bytes.Buffer

	err := execute(context.Background(), g, options{}, &out, logger.Nop())
	require.ErrorIs(t, err, errDivergences)
	assert.Equal(t, 2, exitCode(err))
	assert.Contains(t, out.String(), "divergencias: 1")
	assert.Contains(t, out.String(), itemID)

	// Solo informa: la cantidad almacenada no cambia.
	it, err := store.Items().GetByID(context.Background(), itemID)
	require.NoError(t, err)
	assert.Equal(t, 8, it.Quantity)
}

func TestExecute_CorrigeItemsYTerminaLimpio(t *testing.T) {
	g, store, itemID := newGuard(t)
	var out bytes.Buffer

	err := execute(context.Background(), g, options{asJSON: true, correct: true, actor: "admin"}, &out, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 0, exitCode(err))

	var rep reconciliation.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	require.Len(t, rep.Divergences, 1)
	assert.Equal(t, reconciliation.KindItemQuantity, rep.Divergences[0].Kind)

	it, err := store.Items().GetByID(context.Background(), itemID)
	require.NoError(t, err)
	assert.Equal(t, 10, it.Quantity)
}

func TestExecute_SinDivergencias(t *testing.T) {
	store := memory.NewStore()
	g := reconciliation.NewGuard(store.Items(), store.Equipment(), store.Movements(), store.History(), logger.Nop())
	var out bytes.Buffer

	require.NoError(t, execute(context.Background(), g, options{}, &out, logger.Nop()))
	assert.Contains(t, out.String(), "divergencias: 0")
	assert.NotContains(t, out.String(), "TIPO")
}
