package equipment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/lifecycle"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
)

// Registry controla el estado y el portador de cada ONU.
// Toda transición pasa por la tabla de lifecycle y queda en el historial.
type Registry struct {
	txRunner    TxRunner
	historyRepo repository.EquipmentHistoryRepository
	now         func() time.Time
}

// NewRegistry construye el registro de equipos.
func NewRegistry(txRunner TxRunner, historyRepo repository.EquipmentHistoryRepository) *Registry {
	return &Registry{txRunner: txRunner, historyRepo: historyRepo, now: time.Now}
}

// NormalizeCode normaliza el código único (sin espacios, mayúsculas).
// Un Caser no se comparte entre goroutines, por eso se crea en cada llamada.
func NormalizeCode(code string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(code))
}

// AssignInput entrega de un equipo a un funcionário dentro de una OS.
// RequestID, si no está vacío, es el ID de la entrada del historial y hace la
// llamada idempotente (igual en ReleaseInput).
type AssignInput struct {
	RequestID   string
	EquipmentID string
	EmployeeID  string
	OrderID     string
	ActorID     string
	Description string // historial
	MovementMsg string // descripción del movimiento de saída; vacío = sin movimiento
}

// ReleaseInput devolución de un equipo al estoque.
// ExpectedOrderID, si no está vacío, exige que el equipo esté vinculado a esa OS.
type ReleaseInput struct {
	RequestID       string
	EquipmentID     string
	ExpectedOrderID string
	ActorID         string
	Reason          string
	MovementType    entity.MovementType // cancelamento o devolucao; vacío = sin movimiento
	MovementMsg     string
}

// Register da de alta un equipo en estoque y registra la entrada inicial en el historial.
func (r *Registry) Register(ctx context.Context, eq *entity.Equipment, actorID string) error {
	eq.Code = NormalizeCode(eq.Code)
	if eq.Code == "" {
		return domain.ErrInvalidInput
	}
	now := r.now()
	if eq.ID == "" {
		eq.ID = uuid.New().String()
	}
	eq.Status = entity.EquipmentInStock
	eq.HolderID = ""
	eq.OrderID = ""
	eq.CreatedAt = now
	eq.UpdatedAt = now

	return r.txRunner.RunEquipment(ctx, func(equipmentRepo repository.EquipmentRepository, historyRepo repository.EquipmentHistoryRepository, _ repository.MovementRepository) error {
		existing, err := equipmentRepo.GetByCode(ctx, eq.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicateEquipmentCode
		}
		if err := equipmentRepo.Create(ctx, eq); err != nil {
			return err
		}
		return historyRepo.Append(ctx, &entity.EquipmentHistory{
			ID:          uuid.New().String(),
			EquipmentID: eq.ID,
			NewStatus:   entity.EquipmentInStock,
			ActorID:     actorID,
			Description: "Cadastro",
			CreatedAt:   now,
		})
	})
}

// Assign pasa el equipo de em_estoque a em_uso con portador y OS.
// Cualquier otro estado devuelve *domain.LineError con ErrEquipmentUnavailable.
func (r *Registry) Assign(ctx context.Context, in AssignInput) (*entity.Equipment, error) {
	if in.EmployeeID == "" || in.OrderID == "" {
		return nil, domain.ErrInvalidInput
	}
	eq, err := r.apply(ctx, in.EquipmentID, lifecycle.EquipmentAssign, change{
		requestID:   in.RequestID,
		actorID:     in.ActorID,
		description: in.Description,
		target:      func(*entity.Equipment) (string, string) { return in.EmployeeID, in.OrderID },
		movement:    entity.MovementExit,
		movementMsg: in.MovementMsg,
	})
	if err != nil && (errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrConflict)) {
		le := &domain.LineError{Err: domain.ErrEquipmentUnavailable, OrderID: in.OrderID, EquipmentID: in.EquipmentID, Expected: string(entity.EquipmentInStock)}
		var te *domain.TransitionError
		if errors.As(err, &te) {
			le.Actual = te.From
		}
		return nil, le
	}
	return eq, err
}

// Release devuelve el equipo a em_estoque y limpia portador y OS.
// Falla con ErrInvalidTransition si no está em_uso (o no pertenece a ExpectedOrderID).
func (r *Registry) Release(ctx context.Context, in ReleaseInput) (*entity.Equipment, error) {
	return r.apply(ctx, in.EquipmentID, lifecycle.EquipmentRelease, change{
		requestID:       in.RequestID,
		expectedOrderID: in.ExpectedOrderID,
		actorID:         in.ActorID,
		description:     in.Reason,
		target:          func(*entity.Equipment) (string, string) { return "", "" },
		movement:        in.MovementType,
		movementMsg:     in.MovementMsg,
	})
}

// MarkLost marca el equipo em_uso como extraviada. Conserva el portador y desvincula la OS;
// el historial guarda ambos.
func (r *Registry) MarkLost(ctx context.Context, equipmentID, actorID, description string) (*entity.Equipment, error) {
	return r.apply(ctx, equipmentID, lifecycle.EquipmentMarkLost, change{
		actorID:     actorID,
		description: description,
		target:      func(eq *entity.Equipment) (string, string) { return eq.HolderID, "" },
	})
}

// Recover reingresa al estoque un equipo extraviado o devuelto al proveedor.
func (r *Registry) Recover(ctx context.Context, equipmentID, actorID, description string) (*entity.Equipment, error) {
	return r.apply(ctx, equipmentID, lifecycle.EquipmentRecover, change{
		actorID:     actorID,
		description: description,
		target:      func(*entity.Equipment) (string, string) { return "", "" },
	})
}

// Retire marca como devolvida (devuelta al proveedor) una unidad em_estoque.
func (r *Registry) Retire(ctx context.Context, equipmentID, actorID, description string) (*entity.Equipment, error) {
	return r.apply(ctx, equipmentID, lifecycle.EquipmentRetire, change{
		actorID:     actorID,
		description: description,
		target:      func(*entity.Equipment) (string, string) { return "", "" },
	})
}

// History devuelve el historial del equipo, más reciente primero.
func (r *Registry) History(ctx context.Context, equipmentID string, limit, offset int) ([]*entity.EquipmentHistory, error) {
	return r.historyRepo.ListByEquipment(ctx, equipmentID, limit, offset)
}

type change struct {
	requestID       string
	expectedOrderID string
	actorID         string
	description     string
	// target devuelve el portador y la OS resultantes.
	target      func(eq *entity.Equipment) (holderID, orderID string)
	movement    entity.MovementType
	movementMsg string
}

func (r *Registry) apply(ctx context.Context, equipmentID string, action lifecycle.EquipmentAction, c change) (*entity.Equipment, error) {
	var result *entity.Equipment
	err := r.txRunner.RunEquipment(ctx, func(equipmentRepo repository.EquipmentRepository, historyRepo repository.EquipmentHistoryRepository, movRepo repository.MovementRepository) error {
		eq, err := equipmentRepo.GetByID(ctx, equipmentID)
		if err != nil {
			return err
		}
		if eq == nil {
			return domain.ErrNotFound
		}
		if c.requestID != "" {
			done, err := historyRepo.GetByID(ctx, c.requestID)
			if err != nil {
				return err
			}
			if done != nil {
				if done.EquipmentID != eq.ID {
					return fmt.Errorf("%w: transición %s ya registrada para otro equipo", domain.ErrConflict, c.requestID)
				}
				result = eq
				return nil
			}
		}
		next, err := lifecycle.NextEquipmentStatus(eq.ID, eq.Status, action)
		if err != nil {
			return err
		}
		if c.expectedOrderID != "" && eq.OrderID != c.expectedOrderID {
			return &domain.LineError{
				Err:         domain.ErrInvalidTransition,
				OrderID:     c.expectedOrderID,
				EquipmentID: eq.ID,
				Expected:    string(entity.EquipmentInUse) + " na OS " + c.expectedOrderID,
				Actual:      string(eq.Status) + " na OS " + eq.OrderID,
			}
		}

		holderID, orderID := c.target(eq)
		if err := equipmentRepo.TransitionStatus(ctx, eq.ID, repository.EquipmentTransition{
			From:        eq.Status,
			FromOrderID: eq.OrderID,
			To:          next,
			HolderID:    holderID,
			OrderID:     orderID,
		}); err != nil {
			return err
		}

		now := r.now()
		historyID := c.requestID
		if historyID == "" {
			historyID = uuid.New().String()
		}
		if err := historyRepo.Append(ctx, &entity.EquipmentHistory{
			ID:             historyID,
			EquipmentID:    eq.ID,
			PreviousStatus: eq.Status,
			NewStatus:      next,
			HolderID:       firstNonEmpty(holderID, eq.HolderID),
			OrderID:        firstNonEmpty(orderID, eq.OrderID),
			ActorID:        c.actorID,
			Description:    c.description,
			CreatedAt:      now,
		}); err != nil {
			return err
		}

		if c.movement != "" {
			if err := movRepo.Append(ctx, &entity.Movement{
				ID:          uuid.New().String(),
				Type:        c.movement,
				EquipmentID: eq.ID,
				OrderID:     firstNonEmpty(orderID, eq.OrderID),
				EmployeeID:  firstNonEmpty(holderID, eq.HolderID),
				ActorID:     c.actorID,
				Description: firstNonEmpty(c.movementMsg, c.description),
				CreatedAt:   now,
			}); err != nil {
				return err
			}
		}

		updated := *eq
		updated.Status = next
		updated.HolderID = holderID
		updated.OrderID = orderID
		updated.UpdatedAt = now
		result = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
