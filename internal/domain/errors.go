package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrDuplicateEquipmentCode = errors.New("código de equipo ya registrado")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrEquipmentUnavailable   = errors.New("equipo no disponible")
	ErrInvalidTransition      = errors.New("transición de estado inválida")
	ErrOperationInProgress    = errors.New("otra operación sobre la orden está en curso")
	ErrAlreadySigned          = errors.New("la orden ya fue firmada")
	ErrStore                  = errors.New("fallo del almacenamiento")

	// Fallos parciales de operaciones multi-línea (ver PartialFailure).
	ErrPartialApplication  = errors.New("aplicación parcial de la orden")
	ErrPartialCancellation = errors.New("cancelación parcial de la orden")
	ErrPartialDevolution   = errors.New("devolución parcial de la orden")
)

// IsBusinessError indica si err es una regla de negocio (no se reintenta).
// Cualquier otro error se trata como fallo transitorio del almacenamiento.
func IsBusinessError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidInput, ErrDuplicate, ErrDuplicateEquipmentCode,
		ErrConflict, ErrInsufficientStock, ErrEquipmentUnavailable,
		ErrInvalidTransition, ErrOperationInProgress, ErrAlreadySigned,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// LineError identifica la línea de una orden que provocó el fallo.
// Expected/Actual describen la cantidad o el estado esperado frente al encontrado.
type LineError struct {
	Err         error
	OrderID     string
	LineID      string
	ItemID      string
	EquipmentID string
	Expected    string
	Actual      string
}

func (e *LineError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.OrderID != "" {
		fmt.Fprintf(&b, " (orden=%s", e.OrderID)
	} else {
		b.WriteString(" (")
	}
	if e.LineID != "" {
		fmt.Fprintf(&b, " línea=%s", e.LineID)
	}
	if e.ItemID != "" {
		fmt.Fprintf(&b, " item=%s", e.ItemID)
	}
	if e.EquipmentID != "" {
		fmt.Fprintf(&b, " equipo=%s", e.EquipmentID)
	}
	if e.Expected != "" || e.Actual != "" {
		fmt.Fprintf(&b, " esperado=%s actual=%s", e.Expected, e.Actual)
	}
	b.WriteString(")")
	return b.String()
}

func (e *LineError) Unwrap() error { return e.Err }

// TransitionError se produce cuando una acción no está permitida desde el estado actual.
type TransitionError struct {
	Entity string // "orden" | "equipo"
	ID     string
	From   string
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s: acción %q no permitida desde el estado %q", e.Entity, e.ID, e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// PartialFailure describe una operación multi-línea que falló después de aplicar
// al menos una línea. Applied lista las líneas aplicadas antes del fallo y
// Outstanding las que quedaron sin aplicar o sin revertir.
type PartialFailure struct {
	Err         error // ErrPartialApplication | ErrPartialCancellation | ErrPartialDevolution
	OrderID     string
	Cause       error
	Applied     []string
	Outstanding []string
	Compensated bool
}

func (e *PartialFailure) Error() string {
	msg := fmt.Sprintf("%s (orden=%s aplicadas=%d pendientes=%v compensada=%t)",
		e.Err.Error(), e.OrderID, len(e.Applied), e.Outstanding, e.Compensated)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PartialFailure) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}
