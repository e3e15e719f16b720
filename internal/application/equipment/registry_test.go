package equipment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/estoque-os-api/internal/application/equipment"
	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/infrastructure/memory"
)

func newRegistry(t *testing.T) (*equipment.Registry, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return equipment.NewRegistry(store, store.History()), store
}

func register(t *testing.T, r *equipment.Registry, code string) *entity.Equipment {
	t.Helper()
	eq := &entity.Equipment{Code: code, Model: "F670L", Serial: "SN-" + code}
	require.NoError(t, r.Register(context.Background(), eq, "admin"))
	return eq
}

func assignInput(id string) equipment.AssignInput {
	return equipment.AssignInput{
		EquipmentID: id,
		EmployeeID:  "emp-1",
		OrderID:     "os-1",
		ActorID:     "almox",
		Description: "Atribuída OS #1",
		MovementMsg: "Saída ONU OS #1",
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "ZTEGC8A1", equipment.NormalizeCode("  zteGc8a1 "))
	assert.Equal(t, "", equipment.NormalizeCode("   "))
}

func TestRegister(t *testing.T) {
	r, store := newRegistry(t)
	eq := register(t, r, " zteg0001")

	assert.Equal(t, "ZTEG0001", eq.Code)
	assert.Equal(t, entity.EquipmentInStock, eq.Status)
	hist, err := r.History(context.Background(), eq.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Empty(t, hist[0].PreviousStatus)
	assert.Equal(t, entity.EquipmentInStock, hist[0].NewStatus)

	err = r.Register(context.Background(), &entity.Equipment{Code: "ZTEG0001"}, "admin")
	assert.ErrorIs(t, err, domain.ErrDuplicateEquipmentCode)
	err = r.Register(context.Background(), &entity.Equipment{Code: " "}, "admin")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	all, err := store.Equipment().List(context.Background(), "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAssignYRelease(t *testing.T) {
	ctx := context.Background()
	r, store := newRegistry(t)
	eq := register(t, r, "ZTEG0002")

	got, err := r.Assign(ctx, assignInput(eq.ID))
	require.NoError(t, err)
	assert.Equal(t, entity.EquipmentInUse, got.Status)
	assert.Equal(t, "emp-1", got.HolderID)
	assert.Equal(t, "os-1", got.OrderID)
	assert.True(t, got.HolderConsistent())

	movs, err := store.Movements().ListByEquipment(ctx, eq.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementExit, movs[0].Type)
	assert.Equal(t, "Saída ONU OS #1", movs[0].Description)

	_, err = r.Release(ctx, equipment.ReleaseInput{EquipmentID: eq.ID, ExpectedOrderID: "os-2"})
	require.ErrorIs(t, err, domain.ErrInvalidTransition, "otra OS no puede liberar el equipo")

	released, err := r.Release(ctx, equipment.ReleaseInput{
		EquipmentID:     eq.ID,
		ExpectedOrderID: "os-1",
		ActorID:         "almox",
		Reason:          "Devolução OS #1",
		MovementType:    entity.MovementReturn,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.EquipmentInStock, released.Status)
	assert.Empty(t, released.HolderID)
	assert.Empty(t, released.OrderID)

	movs, err = store.Movements().ListByEquipment(ctx, eq.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementReturn, movs[0].Type)
	assert.Equal(t, "os-1", movs[0].OrderID, "el movimiento conserva la OS de origen")
	assert.Equal(t, "emp-1", movs[0].EmployeeID)
	assert.Equal(t, "Devolução OS #1", movs[0].Description)

	hist, err := r.History(ctx, eq.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, entity.EquipmentInUse, hist[0].PreviousStatus)
	assert.Equal(t, entity.EquipmentInStock, hist[0].NewStatus)
	assert.Equal(t, "emp-1", hist[0].HolderID)
}

func TestAssign_NoDisponible(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry(t)
	eq := register(t, r, "ZTEG0003")
	_, err := r.Assign(ctx, assignInput(eq.ID))
	require.NoError(t, err)

	_, err = r.Assign(ctx, assignInput(eq.ID))
	require.ErrorIs(t, err, domain.ErrEquipmentUnavailable)
	var le *domain.LineError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, string(entity.EquipmentInStock), le.Expected)
	assert.Equal(t, string(entity.EquipmentInUse), le.Actual)

	in := assignInput(eq.ID)
	in.OrderID = ""
	_, err = r.Assign(ctx, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = r.Assign(ctx, assignInput("no-existe"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkLostYRecover(t *testing.T) {
	ctx := context.Background()
	r, store := newRegistry(t)
	eq := register(t, r, "ZTEG0004")

	_, err := r.MarkLost(ctx, eq.ID, "almox", "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "em_estoque no se extravía")

	_, err = r.Assign(ctx, assignInput(eq.ID))
	require.NoError(t, err)
	lost, err := r.MarkLost(ctx, eq.ID, "almox", "Extraviada em campo")
	require.NoError(t, err)
	assert.Equal(t, entity.EquipmentLost, lost.Status)
	assert.Equal(t, "emp-1", lost.HolderID)
	assert.Empty(t, lost.OrderID)
	assert.True(t, lost.HolderConsistent())

	hist, err := r.History(ctx, eq.ID, 1, 0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "os-1", hist[0].OrderID)

	recovered, err := r.Recover(ctx, eq.ID, "almox", "Localizada")
	require.NoError(t, err)
	assert.Equal(t, entity.EquipmentInStock, recovered.Status)
	assert.Empty(t, recovered.HolderID)

	movs, err := store.Movements().ListByEquipment(ctx, eq.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 1, "extravío y recuperación solo quedan en el historial")
}

func TestRetireYRecover(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry(t)
	eq := register(t, r, "ZTEG0005")

	retired, err := r.Retire(ctx, eq.ID, "admin", "RMA fornecedor")
	require.NoError(t, err)
	assert.Equal(t, entity.EquipmentReturned, retired.Status)

	_, err = r.Assign(ctx, assignInput(eq.ID))
	assert.ErrorIs(t, err, domain.ErrEquipmentUnavailable)

	back, err := r.Recover(ctx, eq.ID, "admin", "Retorno RMA")
	require.NoError(t, err)
	assert.Equal(t, entity.EquipmentInStock, back.Status)
}

func TestAssign_RequestIDRepetidoEsIdempotente(t *testing.T) {
	r, store := newRegistry(t)
	eq := register(t, r, "ZTEG0100")
	ctx := context.Background()
	in := assignInput(eq.ID)
	in.RequestID = "2b9e4c1a-0000-4000-8000-000000000002"

	_, err := r.Assign(ctx, in)
	require.NoError(t, err)
	again, err := r.Assign(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, entity.EquipmentInUse, again.Status)
	assert.Equal(t, "os-1", again.OrderID)

	hist, err := r.History(ctx, eq.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, hist, 2, "alta y una sola atribución")
	movs, err := store.Movements().ListByEquipment(ctx, eq.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 1)

	// Sin clave, una segunda atribución sigue siendo rechazada.
	in.RequestID = ""
	_, err = r.Assign(ctx, in)
	assert.ErrorIs(t, err, domain.ErrEquipmentUnavailable)
}
