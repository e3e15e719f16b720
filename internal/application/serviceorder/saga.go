package serviceorder

import (
	"context"
	"errors"

	"github.com/jhoicas/estoque-os-api/internal/domain"
)

type sagaStep struct {
	name string
	undo func(ctx context.Context) error
}

// saga registra las líneas aplicadas de una operación y sabe revertirlas.
type saga struct {
	e       *Engine
	orderID string
	applied []sagaStep
}

func (e *Engine) newSaga(orderID string) *saga {
	return &saga{e: e, orderID: orderID}
}

// do aplica un paso (con reintento) y, si tiene éxito, apila su inversa.
func (s *saga) do(ctx context.Context, name string, apply, undo func(ctx context.Context) error) error {
	if err := s.e.retry(ctx, name, apply); err != nil {
		return err
	}
	s.applied = append(s.applied, sagaStep{name: name, undo: undo})
	return nil
}

func (s *saga) names() []string {
	out := make([]string, 0, len(s.applied))
	for _, st := range s.applied {
		out = append(out, st.name)
	}
	return out
}

// compensate revierte los pasos aplicados en orden inverso y devuelve los que no se pudieron revertir.
func (s *saga) compensate(ctx context.Context) []string {
	var outstanding []string
	for i := len(s.applied) - 1; i >= 0; i-- {
		st := s.applied[i]
		if st.undo == nil {
			continue
		}
		if err := s.e.retry(ctx, "revertir "+st.name, st.undo); err != nil {
			s.e.log.Error().Err(err).Str("order_id", s.orderID).Str("line", st.name).Msg("compensación pendiente")
			outstanding = append(outstanding, st.name)
			continue
		}
		s.e.log.Info().Str("order_id", s.orderID).Str("line", st.name).Msg("línea compensada")
	}
	return outstanding
}

// fail cierra la saga tras un error. Sin pasos aplicados devuelve cause tal cual;
// con pasos aplicados compensa y devuelve *domain.PartialFailure de tipo kind.
func (s *saga) fail(ctx context.Context, kind, cause error) error {
	if len(s.applied) == 0 {
		return cause
	}
	applied := s.names()
	outstanding := s.compensate(ctx)
	pf := &domain.PartialFailure{
		Err:         kind,
		OrderID:     s.orderID,
		Cause:       cause,
		Applied:     applied,
		Outstanding: outstanding,
		Compensated: len(outstanding) == 0,
	}
	ev := s.e.log.Warn()
	if !pf.Compensated {
		ev = s.e.log.Error()
	}
	ev.Err(cause).Str("order_id", s.orderID).Strs("applied", applied).Strs("outstanding", outstanding).
		Bool("compensated", pf.Compensated).Msg(kind.Error())
	return pf
}

// withLine agrega a err el contexto de la línea que falló.
func withLine(err error, orderID, lineID, itemID, equipmentID string) error {
	var le *domain.LineError
	if errors.As(err, &le) {
		c := *le
		c.OrderID = orderID
		c.LineID = lineID
		if c.ItemID == "" {
			c.ItemID = itemID
		}
		if c.EquipmentID == "" {
			c.EquipmentID = equipmentID
		}
		return &c
	}
	return &domain.LineError{Err: err, OrderID: orderID, LineID: lineID, ItemID: itemID, EquipmentID: equipmentID}
}
