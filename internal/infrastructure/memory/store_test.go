package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
	"github.com/jhoicas/estoque-os-api/internal/infrastructure/memory"
)

func seedItem(t *testing.T, s *memory.Store, id string, qty int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Items().Create(ctx, &entity.StockItem{ID: id, Name: id, Quantity: 999}))
	if qty > 0 {
		_, err := s.Items().AdjustQuantity(ctx, id, qty)
		require.NoError(t, err)
	}
}

func TestItems_CreateIgnoraCantidad(t *testing.T) {
	s := memory.NewStore()
	seedItem(t, s, "it-1", 0)
	got, err := s.Items().GetByID(context.Background(), "it-1")
	require.NoError(t, err)
	assert.Zero(t, got.Quantity)

	missing, err := s.Items().GetByID(context.Background(), "nada")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestItems_AdjustQuantityNoQuedaNegativo(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seedItem(t, s, "it-1", 5)

	q, err := s.Items().AdjustQuantity(ctx, "it-1", -6)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 5, q, "devuelve la cantidad actual")

	q, err = s.Items().AdjustQuantity(ctx, "it-1", -5)
	require.NoError(t, err)
	assert.Zero(t, q)

	_, err = s.Items().AdjustQuantity(ctx, "nada", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItems_AdjustQuantityConcurrente(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seedItem(t, s, "it-1", 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok int
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Items().AdjustQuantity(ctx, "it-1", -1); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, ok)
	got, err := s.Items().GetByID(ctx, "it-1")
	require.NoError(t, err)
	assert.Zero(t, got.Quantity)
}

func TestItems_CompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seedItem(t, s, "it-1", 4)

	assert.ErrorIs(t, s.Items().CompareAndSetQuantity(ctx, "it-1", 3, 9), domain.ErrConflict)
	assert.ErrorIs(t, s.Items().CompareAndSetQuantity(ctx, "it-1", 4, -1), domain.ErrInvalidInput)
	require.NoError(t, s.Items().CompareAndSetQuantity(ctx, "it-1", 4, 9))
	got, err := s.Items().GetByID(ctx, "it-1")
	require.NoError(t, err)
	assert.Equal(t, 9, got.Quantity)
}

func TestItems_LowStock(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Items().Create(ctx, &entity.StockItem{ID: "a", Name: "A", MinQuantity: 5}))
	require.NoError(t, s.Items().Create(ctx, &entity.StockItem{ID: "b", Name: "B", MinQuantity: 1}))
	_, err := s.Items().AdjustQuantity(ctx, "b", 3)
	require.NoError(t, err)

	low, err := s.Items().ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "a", low[0].ID)
}

func TestRun_RevierteAnteError(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seedItem(t, s, "it-1", 5)
	boom := errors.New("boom")

	err := s.Run(ctx, func(items repository.StockItemRepository, movs repository.MovementRepository) error {
		if _, err := items.AdjustQuantity(ctx, "it-1", -2); err != nil {
			return err
		}
		if err := movs.Append(ctx, &entity.Movement{ID: "m1", Type: entity.MovementExit, ItemID: "it-1", Quantity: 2}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Items().GetByID(ctx, "it-1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)
	movs, err := s.Movements().ListByItem(ctx, "it-1", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestRun_ContextoCancelado(t *testing.T) {
	s := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.RunEquipment(ctx, func(repository.EquipmentRepository, repository.EquipmentHistoryRepository, repository.MovementRepository) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestMovements_ValidaYFiltra(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	repo := s.Movements()

	assert.Error(t, repo.Append(ctx, &entity.Movement{ID: "x", Type: entity.MovementExit, ItemID: "a", EquipmentID: "b", Quantity: 1}))
	assert.Error(t, repo.Append(ctx, &entity.Movement{ID: "x", Type: entity.MovementExit, ItemID: "a"}))

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Append(ctx, &entity.Movement{ID: "m1", Type: entity.MovementEntry, ItemID: "a", Quantity: 10, CreatedAt: base}))
	require.NoError(t, repo.Append(ctx, &entity.Movement{ID: "m2", Type: entity.MovementExit, ItemID: "a", Quantity: 3, OrderID: "os-1", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Append(ctx, &entity.Movement{ID: "m3", Type: entity.MovementExit, EquipmentID: "u1", OrderID: "os-1", CreatedAt: base.Add(2 * time.Hour)}))

	exits, err := repo.List(ctx, repository.MovementFilter{Type: entity.MovementExit})
	require.NoError(t, err)
	require.Len(t, exits, 2)
	assert.Equal(t, "m3", exits[0].ID)

	from := base.Add(30 * time.Minute)
	to := base.Add(90 * time.Minute)
	window, err := repo.List(ctx, repository.MovementFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "m2", window[0].ID)

	byOrder, err := repo.ListByOrder(ctx, "os-1")
	require.NoError(t, err)
	assert.Len(t, byOrder, 2)

	sums, err := repo.SumByItem(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 7}, sums)
}

func TestEquipment_TransitionStatusCompara(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	repo := s.Equipment()
	require.NoError(t, repo.Create(ctx, &entity.Equipment{ID: "u1", Code: "ZTEG1", Status: entity.EquipmentInStock}))
	assert.ErrorIs(t, repo.Create(ctx, &entity.Equipment{ID: "u2", Code: "ZTEG1"}), domain.ErrDuplicateEquipmentCode)

	require.NoError(t, repo.TransitionStatus(ctx, "u1", repository.EquipmentTransition{
		From: entity.EquipmentInStock, To: entity.EquipmentInUse, HolderID: "emp-1", OrderID: "os-1",
	}))
	// Misma situación de partida pero con la OS equivocada.
	err := repo.TransitionStatus(ctx, "u1", repository.EquipmentTransition{
		From: entity.EquipmentInUse, FromOrderID: "os-2", To: entity.EquipmentInStock,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, repo.TransitionStatus(ctx, "u1", repository.EquipmentTransition{
		From: entity.EquipmentInUse, FromOrderID: "os-1", To: entity.EquipmentInStock,
	}))
	got, err := repo.GetByCode(ctx, "ZTEG1")
	require.NoError(t, err)
	assert.Equal(t, entity.EquipmentInStock, got.Status)
	assert.Empty(t, got.HolderID)
}

func newOrder(id string) *entity.ServiceOrder {
	return &entity.ServiceOrder{
		ID:         id,
		EmployeeID: "emp-1",
		Status:     entity.OrderDraft,
		Items:      []entity.OrderLineItem{{ID: id + "-l1", ItemID: "a", Quantity: 2}},
	}
}

func TestOrders_NumeracionYTransicion(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	repo := s.Orders()
	a, b := newOrder("os-a"), newOrder("os-b")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))
	assert.Equal(t, int64(1), a.Number)
	assert.Equal(t, int64(2), b.Number)

	got, err := repo.GetByID(ctx, "os-a")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "os-a", got.Items[0].OrderID)

	assert.ErrorIs(t, repo.TransitionStatus(ctx, "os-a", entity.OrderConfirmed, entity.OrderClosed), domain.ErrConflict)
	require.NoError(t, repo.TransitionStatus(ctx, "os-a", entity.OrderDraft, entity.OrderConfirmed))

	list, err := repo.List(ctx, repository.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "os-b", list[0].ID)
	assert.Nil(t, list[0].Items)

	confirmed, err := repo.List(ctx, repository.OrderFilter{Status: entity.OrderConfirmed})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "os-a", confirmed[0].ID)
}

func TestOrders_LeaseYFirma(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	repo := s.Orders()
	require.NoError(t, repo.Create(ctx, newOrder("os-a")))

	require.NoError(t, repo.AcquireLease(ctx, "os-a", "t1", time.Now().Add(time.Minute)))
	assert.ErrorIs(t, repo.AcquireLease(ctx, "os-a", "t2", time.Now().Add(time.Minute)), domain.ErrOperationInProgress)
	require.NoError(t, repo.ReleaseLease(ctx, "os-a", "t2"), "liberar con otro token no hace nada")
	assert.ErrorIs(t, repo.AcquireLease(ctx, "os-a", "t2", time.Now().Add(time.Minute)), domain.ErrOperationInProgress)
	require.NoError(t, repo.ReleaseLease(ctx, "os-a", "t1"))
	require.NoError(t, repo.AcquireLease(ctx, "os-a", "t2", time.Now().Add(-time.Second)))
	// Un lease vencido se puede tomar.
	require.NoError(t, repo.AcquireLease(ctx, "os-a", "t3", time.Now().Add(time.Minute)))

	at := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetSignature(ctx, "os-a", "data:image/png;base64,AAA", "emp-1", at))
	assert.ErrorIs(t, repo.SetSignature(ctx, "os-a", "otra", "emp-1", at), domain.ErrAlreadySigned)
	got, err := repo.GetByID(ctx, "os-a")
	require.NoError(t, err)
	assert.True(t, got.IsSigned())
	assert.Equal(t, at, *got.SignedAt)
}

func TestDevolutions_RequiereOrden(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Orders().Create(ctx, newOrder("os-a")))

	assert.ErrorIs(t, s.Devolutions().Create(ctx, &entity.Devolution{ID: "d0", OrderID: "nada"}), domain.ErrNotFound)
	require.NoError(t, s.Devolutions().Create(ctx, &entity.Devolution{ID: "d1", OrderID: "os-a",
		Items: []entity.DevolutionLineItem{{ID: "dl1", DevolutionID: "d1", ItemID: "a", Quantity: 1}}}))
	require.NoError(t, s.Devolutions().Create(ctx, &entity.Devolution{ID: "d2", OrderID: "os-a"}))

	devs, err := s.Devolutions().ListByOrder(ctx, "os-a")
	require.NoError(t, err)
	require.Len(t, devs, 2)
	assert.Equal(t, "d1", devs[0].ID)
	require.Len(t, devs[0].Items, 1)
}

func TestEmployees_ListaActivos(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Employees().Create(ctx, &entity.Employee{ID: "e1", Name: "Bruno", Active: true}))
	require.NoError(t, s.Employees().Create(ctx, &entity.Employee{ID: "e2", Name: "Ana", Active: false}))
	require.NoError(t, s.Employees().Create(ctx, &entity.Employee{ID: "e3", Name: "Carla", Active: true}))
	assert.ErrorIs(t, s.Employees().Create(ctx, &entity.Employee{ID: "e1"}), domain.ErrDuplicate)

	active, err := s.Employees().List(ctx, true, 0, 0)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Bruno", active[0].Name)

	all, err := s.Employees().List(ctx, false, 2, 1)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Bruno", all[0].Name)
}
