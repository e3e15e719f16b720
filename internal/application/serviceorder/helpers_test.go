package serviceorder_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/estoque-os-api/internal/application/equipment"
	"github.com/jhoicas/estoque-os-api/internal/application/inventory"
	"github.com/jhoicas/estoque-os-api/internal/application/reconciliation"
	"github.com/jhoicas/estoque-os-api/internal/application/serviceorder"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
	"github.com/jhoicas/estoque-os-api/internal/infrastructure/memory"
	"github.com/jhoicas/estoque-os-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const actor = "user-almoxarife"

var errTransient = errors.New("conexión reiniciada")

// scriptedTx envuelve el TxRunner de ítems; hook se ejecuta antes de cada llamada
// (numeradas desde 1) y puede abortarla devolviendo un error. after se ejecuta
// después de un commit exitoso y simula una confirmación perdida.
type scriptedTx struct {
	inner inventory.TxRunner
	mu    sync.Mutex
	calls int
	hook  func(call int) error
	after func(call int) error
}

func (s *scriptedTx) Run(ctx context.Context, fn func(repository.StockItemRepository, repository.MovementRepository) error) error {
	s.mu.Lock()
	s.calls++
	call, hook := s.calls, s.hook
	s.mu.Unlock()
	if hook != nil {
		if err := hook(call); err != nil {
			return err
		}
	}
	if err := s.inner.Run(ctx, fn); err != nil {
		return err
	}
	if s.after != nil {
		return s.after(call)
	}
	return nil
}

// scriptedEquipmentTx igual que scriptedTx para el TxRunner de equipos.
type scriptedEquipmentTx struct {
	inner equipment.TxRunner
	mu    sync.Mutex
	calls int
	hook  func(call int) error
	after func(call int) error
}

func (s *scriptedEquipmentTx) RunEquipment(ctx context.Context, fn func(repository.EquipmentRepository, repository.EquipmentHistoryRepository, repository.MovementRepository) error) error {
	s.mu.Lock()
	s.calls++
	call, hook := s.calls, s.hook
	s.mu.Unlock()
	if hook != nil {
		if err := hook(call); err != nil {
			return err
		}
	}
	if err := s.inner.RunEquipment(ctx, fn); err != nil {
		return err
	}
	if s.after != nil {
		return s.after(call)
	}
	return nil
}

// flakyOrders hace fallar las transiciones hacia failTo: las próximas remaining veces
// sin aplicarlas y, después, ackLost veces aplicándolas pero devolviendo error.
type flakyOrders struct {
	repository.ServiceOrderRepository
	mu        sync.Mutex
	failTo    entity.OrderStatus
	remaining int
	ackLost   int
}

func (r *flakyOrders) TransitionStatus(ctx context.Context, id string, from, to entity.OrderStatus) error {
	r.mu.Lock()
	fail := to == r.failTo && r.remaining > 0
	lost := !fail && to == r.failTo && r.ackLost > 0
	if fail {
		r.remaining--
	}
	if lost {
		r.ackLost--
	}
	r.mu.Unlock()
	if fail {
		return errTransient
	}
	if err := r.ServiceOrderRepository.TransitionStatus(ctx, id, from, to); err != nil {
		return err
	}
	if lost {
		return errTransient
	}
	return nil
}

type fixture struct {
	store    *memory.Store
	ledger   *inventory.Ledger   // sin inyección de fallos (preparación y "otros procesos")
	registry *equipment.Registry // sin inyección de fallos
	itemTx   *scriptedTx
	unitTx   *scriptedEquipmentTx
	engine   *serviceorder.Engine
	guard    *reconciliation.Guard
	emp      *entity.Employee
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:    store,
		ledger:   inventory.NewLedger(store, store.Movements(), 0),
		registry: equipment.NewRegistry(store, store.History()),
		itemTx:   &scriptedTx{inner: store},
		unitTx:   &scriptedEquipmentTx{inner: store},
	}
	f.useOrders(store.Orders())
	f.guard = reconciliation.NewGuard(store.Items(), store.Equipment(), store.Movements(), store.History(), logger.Nop())
	f.emp = f.addEmployee(t, "emp-1", true)
	return f
}

// useOrders reconstruye el motor sobre otro repositorio de órdenes.
func (f *fixture) useOrders(orders repository.ServiceOrderRepository) {
	f.engine = serviceorder.NewEngine(serviceorder.Deps{
		Orders:      orders,
		Devolutions: f.store.Devolutions(),
		Employees:   f.store.Employees(),
		Items:       f.store.Items(),
		Equipment:   f.store.Equipment(),
		Movements:   f.store.Movements(),
		Ledger:      inventory.NewLedger(f.itemTx, f.store.Movements(), 0),
		Registry:    equipment.NewRegistry(f.unitTx, f.store.History()),
	}, serviceorder.Config{RetryAttempts: 2, RetryDelay: 0, OperationTimeout: serviceorder.DefaultConfig().OperationTimeout}, logger.Nop())
}

func (f *fixture) addEmployee(t *testing.T, id string, active bool) *entity.Employee {
	t.Helper()
	e := &entity.Employee{ID: id, Name: "Técnico " + id, Role: "instalador", Active: active}
	require.NoError(t, f.store.Employees().Create(context.Background(), e))
	return e
}

func (f *fixture) addItem(t *testing.T, name string, qty, min int) *entity.StockItem {
	t.Helper()
	it := &entity.StockItem{Name: name, Unit: "un", MinQuantity: min}
	require.NoError(t, f.ledger.RegisterItem(context.Background(), it, qty, actor))
	return it
}

func (f *fixture) addUnit(t *testing.T, code string) *entity.Equipment {
	t.Helper()
	eq := &entity.Equipment{Code: code, Model: "F601"}
	require.NoError(t, f.registry.Register(context.Background(), eq, actor))
	return eq
}

func (f *fixture) draft(t *testing.T, items []serviceorder.ItemQuantity, units ...string) *entity.ServiceOrder {
	t.Helper()
	o, err := f.engine.CreateDraft(context.Background(), serviceorder.DraftInput{
		EmployeeID:   f.emp.ID,
		Items:        items,
		EquipmentIDs: units,
		ActorID:      actor,
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) confirmed(t *testing.T, items []serviceorder.ItemQuantity, units ...string) *entity.ServiceOrder {
	t.Helper()
	o := f.draft(t, items, units...)
	o, err := f.engine.Confirm(context.Background(), o.ID, actor)
	require.NoError(t, err)
	return o
}

func (f *fixture) qty(t *testing.T, itemID string) int {
	t.Helper()
	it, err := f.store.Items().GetByID(context.Background(), itemID)
	require.NoError(t, err)
	require.NotNil(t, it)
	return it.Quantity
}

func (f *fixture) unit(t *testing.T, id string) *entity.Equipment {
	t.Helper()
	eq, err := f.store.Equipment().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, eq)
	return eq
}

func (f *fixture) status(t *testing.T, orderID string) entity.OrderStatus {
	t.Helper()
	o, err := f.store.Orders().GetByID(context.Background(), orderID)
	require.NoError(t, err)
	require.NotNil(t, o)
	return o.Status
}

// itemMovements devuelve los movimientos del ítem por tipo.
func (f *fixture) itemMovements(t *testing.T, itemID string, typ entity.MovementType) []*entity.Movement {
	t.Helper()
	all, err := f.store.Movements().ListByItem(context.Background(), itemID, 0, 0)
	require.NoError(t, err)
	var out []*entity.Movement
	for _, m := range all {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

// transitions devuelve el historial del equipo sin el registro de alta, del más antiguo al más reciente.
func (f *fixture) transitions(t *testing.T, equipmentID string) []*entity.EquipmentHistory {
	t.Helper()
	hist, err := f.registry.History(context.Background(), equipmentID, 0, 0)
	require.NoError(t, err)
	var out []*entity.EquipmentHistory
	for i := len(hist) - 1; i >= 0; i-- {
		if hist[i].PreviousStatus != "" {
			out = append(out, hist[i])
		}
	}
	return out
}

// requireConsistent ejecuta el guardián y exige que no haya divergencias.
func (f *fixture) requireConsistent(t *testing.T) {
	t.Helper()
	rep, err := f.guard.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, rep.Divergences)
}

func lines(pairs ...any) []serviceorder.ItemQuantity {
	var out []serviceorder.ItemQuantity
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, serviceorder.ItemQuantity{ItemID: pairs[i].(string), Quantity: pairs[i+1].(int)})
	}
	return out
}

func inventoryVoid(itemID string, qty int, orderID string) inventory.MovementInput {
	return inventory.MovementInput{ItemID: itemID, Quantity: qty, OrderID: orderID, ActorID: actor, Description: "ajuste manual"}
}

func inventoryExit(itemID string, qty int) inventory.MovementInput {
	return inventory.MovementInput{ItemID: itemID, Quantity: qty, ActorID: "outro-processo", Description: "consumo concorrente"}
}
