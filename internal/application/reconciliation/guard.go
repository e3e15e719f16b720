// Package reconciliation recalcula el estado autoritativo desde los libros
// (movimientos e historial) y reporta divergencias. Nunca corrige por sí solo.
package reconciliation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
	"github.com/jhoicas/estoque-os-api/pkg/logger"
)

// Tipos de divergencia.
const (
	KindItemQuantity     = "item_quantity"
	KindEquipmentStatus  = "equipment_status"
	KindEquipmentHolder  = "equipment_holder"
	KindEquipmentHistory = "equipment_without_history"
)

// LedgerDivergence es un hallazgo del guardián: valor almacenado frente al recalculado.
type LedgerDivergence struct {
	Kind       string
	EntityID   string
	Stored     string
	Computed   string
	DetectedAt time.Time
}

// Report resultado de una ejecución.
type Report struct {
	StartedAt    time.Time
	FinishedAt   time.Time
	ItemsChecked int
	UnitsChecked int
	Divergences  []LedgerDivergence
}

// Clean indica si no se encontraron divergencias.
func (r *Report) Clean() bool { return len(r.Divergences) == 0 }

// Guard audita ítems y equipos contra sus libros.
type Guard struct {
	items     repository.StockItemRepository
	units     repository.EquipmentRepository
	movements repository.MovementRepository
	history   repository.EquipmentHistoryRepository
	log       *logger.Logger
	now       func() time.Time
}

// NewGuard construye el guardián.
func NewGuard(
	items repository.StockItemRepository,
	units repository.EquipmentRepository,
	movements repository.MovementRepository,
	history repository.EquipmentHistoryRepository,
	log *logger.Logger,
) *Guard {
	if log == nil {
		log = logger.Nop()
	}
	return &Guard{
		items:     items,
		units:     units,
		movements: movements,
		history:   history,
		log:       log.WithFields(map[string]any{"component": "reconciliation"}),
		now:       time.Now,
	}
}

// Run recalcula cada cantidad desde los movimientos y cada estado de equipo desde su
// última entrada de historial. Solo lectura.
func (g *Guard) Run(ctx context.Context) (*Report, error) {
	rep := &Report{StartedAt: g.now()}

	sums, err := g.movements.SumByItem(ctx)
	if err != nil {
		return nil, fmt.Errorf("sumar movimientos: %w", err)
	}
	items, err := g.items.List(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("listar ítems: %w", err)
	}
	for _, it := range items {
		rep.ItemsChecked++
		if computed := sums[it.ID]; computed != it.Quantity {
			rep.Divergences = append(rep.Divergences, LedgerDivergence{
				Kind:       KindItemQuantity,
				EntityID:   it.ID,
				Stored:     strconv.Itoa(it.Quantity),
				Computed:   strconv.Itoa(computed),
				DetectedAt: g.now(),
			})
		}
	}

	latest, err := g.history.LatestByEquipment(ctx)
	if err != nil {
		return nil, fmt.Errorf("último historial: %w", err)
	}
	units, err := g.units.List(ctx, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("listar equipos: %w", err)
	}
	for _, u := range units {
		rep.UnitsChecked++
		h, ok := latest[u.ID]
		switch {
		case !ok:
			rep.Divergences = append(rep.Divergences, LedgerDivergence{
				Kind: KindEquipmentHistory, EntityID: u.ID, Stored: string(u.Status), Computed: "", DetectedAt: g.now(),
			})
		case h.NewStatus != u.Status:
			rep.Divergences = append(rep.Divergences, LedgerDivergence{
				Kind: KindEquipmentStatus, EntityID: u.ID, Stored: string(u.Status), Computed: string(h.NewStatus), DetectedAt: g.now(),
			})
		}
		if !u.HolderConsistent() {
			rep.Divergences = append(rep.Divergences, LedgerDivergence{
				Kind:       KindEquipmentHolder,
				EntityID:   u.ID,
				Stored:     fmt.Sprintf("status=%s holder=%s order=%s", u.Status, u.HolderID, u.OrderID),
				Computed:   holderRule(u.Status),
				DetectedAt: g.now(),
			})
		}
	}

	rep.FinishedAt = g.now()
	ev := g.log.Info()
	if !rep.Clean() {
		ev = g.log.Warn()
	}
	ev.Int("items", rep.ItemsChecked).Int("units", rep.UnitsChecked).Int("divergences", len(rep.Divergences)).
		Dur("elapsed", rep.FinishedAt.Sub(rep.StartedAt)).Msg("conciliación terminada")
	return rep, nil
}

func holderRule(s entity.EquipmentStatus) string {
	if s == entity.EquipmentInUse {
		return "holder e order presentes"
	}
	return "order ausente"
}

// CorrectItem ajusta la cantidad almacenada al valor recalculado desde el libro.
// Es la acción explícita y auditada para una divergencia de ítem: compara con el valor
// almacenado leído ahora y falla con domain.ErrConflict si cambió entretanto.
func (g *Guard) CorrectItem(ctx context.Context, itemID, actorID string) (*LedgerDivergence, error) {
	item, err := g.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	sums, err := g.movements.SumByItem(ctx)
	if err != nil {
		return nil, err
	}
	computed := sums[itemID]
	if computed < 0 {
		return nil, fmt.Errorf("%w: el libro da cantidad negativa (%d)", domain.ErrConflict, computed)
	}
	d := &LedgerDivergence{
		Kind:       KindItemQuantity,
		EntityID:   itemID,
		Stored:     strconv.Itoa(item.Quantity),
		Computed:   strconv.Itoa(computed),
		DetectedAt: g.now(),
	}
	if computed == item.Quantity {
		return d, nil
	}
	if err := g.items.CompareAndSetQuantity(ctx, itemID, item.Quantity, computed); err != nil {
		return nil, err
	}
	g.log.Warn().Str("item_id", itemID).Int("stored", item.Quantity).Int("computed", computed).
		Str("actor", actorID).Msg("cantidad corregida al valor del libro")
	return d, nil
}

// Start ejecuta Run cada interval hasta que ctx se cancele. interval <= 0 no hace nada.
func (g *Guard) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if _, err := g.Run(ctx); err != nil {
					g.log.Error().Err(err).Msg("conciliación periódica falló")
				}
			}
		}
	}()
}
