package lifecycle_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/lifecycle"
)

// ─────────────────────────────────────────────────────────────────────────────
// Órdenes
// ─────────────────────────────────────────────────────────────────────────────

func TestNextOrderStatus(t *testing.T) {
	cases := []struct {
		name   string
		from   entity.OrderStatus
		action lifecycle.OrderAction
		want   entity.OrderStatus
		ok     bool
	}{
		{"borrador confirma", entity.OrderDraft, lifecycle.OrderConfirm, entity.OrderConfirmed, true},
		{"borrador cancela", entity.OrderDraft, lifecycle.OrderCancel, entity.OrderCancelled, true},
		{"borrador no devuelve", entity.OrderDraft, lifecycle.OrderPartialReturn, "", false},
		{"confirmada cancela", entity.OrderConfirmed, lifecycle.OrderCancel, entity.OrderCancelled, true},
		{"confirmada devuelve parcial", entity.OrderConfirmed, lifecycle.OrderPartialReturn, entity.OrderPartiallyReturned, true},
		{"confirmada cierra", entity.OrderConfirmed, lifecycle.OrderClose, entity.OrderClosed, true},
		{"confirmada no reconfirma", entity.OrderConfirmed, lifecycle.OrderConfirm, "", false},
		{"parcial sigue parcial", entity.OrderPartiallyReturned, lifecycle.OrderPartialReturn, entity.OrderPartiallyReturned, true},
		{"parcial cierra", entity.OrderPartiallyReturned, lifecycle.OrderClose, entity.OrderClosed, true},
		{"parcial no cancela", entity.OrderPartiallyReturned, lifecycle.OrderCancel, "", false},
		{"cancelada terminal", entity.OrderCancelled, lifecycle.OrderConfirm, "", false},
		{"encerrada terminal", entity.OrderClosed, lifecycle.OrderPartialReturn, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := lifecycle.NextOrderStatus("os-1", tc.from, tc.action)
			if !tc.ok {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
				var te *domain.TransitionError
				require.True(t, errors.As(err, &te))
				assert.Equal(t, "os-1", te.ID)
				assert.Equal(t, string(tc.from), te.From)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, lifecycle.IsTerminal(entity.OrderCancelled))
	assert.True(t, lifecycle.IsTerminal(entity.OrderClosed))
	assert.False(t, lifecycle.IsTerminal(entity.OrderDraft))
	assert.False(t, lifecycle.IsTerminal(entity.OrderPartiallyReturned))
}

func TestAcceptsDevolution(t *testing.T) {
	assert.True(t, lifecycle.AcceptsDevolution(entity.OrderConfirmed))
	assert.True(t, lifecycle.AcceptsDevolution(entity.OrderPartiallyReturned))
	assert.False(t, lifecycle.AcceptsDevolution(entity.OrderDraft))
	assert.False(t, lifecycle.AcceptsDevolution(entity.OrderClosed))
}

// ─────────────────────────────────────────────────────────────────────────────
// Equipos
// ─────────────────────────────────────────────────────────────────────────────

func TestNextEquipmentStatus(t *testing.T) {
	next, err := lifecycle.NextEquipmentStatus("onu-1", entity.EquipmentInStock, lifecycle.EquipmentAssign)
	require.NoError(t, err)
	assert.Equal(t, entity.EquipmentInUse, next)

	next, err = lifecycle.NextEquipmentStatus("onu-1", entity.EquipmentInUse, lifecycle.EquipmentMarkLost)
	require.NoError(t, err)
	assert.Equal(t, entity.EquipmentLost, next)

	next, err = lifecycle.NextEquipmentStatus("onu-1", entity.EquipmentLost, lifecycle.EquipmentRecover)
	require.NoError(t, err)
	assert.Equal(t, entity.EquipmentInStock, next)

	_, err = lifecycle.NextEquipmentStatus("onu-1", entity.EquipmentInUse, lifecycle.EquipmentAssign)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = lifecycle.NextEquipmentStatus("onu-1", entity.EquipmentInStock, lifecycle.EquipmentRelease)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = lifecycle.NextEquipmentStatus("onu-1", entity.EquipmentLost, lifecycle.EquipmentMarkLost)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}
