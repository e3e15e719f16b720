package usecase

import (
	"context"

	"github.com/jhoicas/estoque-os-api/internal/application/dto"
	"github.com/jhoicas/estoque-os-api/internal/application/reconciliation"
)

// ReconciliationUseCase ejecuta el guardián bajo demanda y aplica correcciones explícitas.
type ReconciliationUseCase struct {
	guard *reconciliation.Guard
}

// NewReconciliationUseCase construye el caso de uso.
func NewReconciliationUseCase(guard *reconciliation.Guard) *ReconciliationUseCase {
	return &ReconciliationUseCase{guard: guard}
}

// Run ejecuta una conciliación completa (solo lectura).
func (uc *ReconciliationUseCase) Run(ctx context.Context) (*dto.ReconciliationReportResponse, error) {
	rep, err := uc.guard.Run(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.ReconciliationReportResponse{
		StartedAt:    rep.StartedAt,
		FinishedAt:   rep.FinishedAt,
		ItemsChecked: rep.ItemsChecked,
		UnitsChecked: rep.UnitsChecked,
		Clean:        rep.Clean(),
		Divergences:  make([]dto.DivergenceResponse, 0, len(rep.Divergences)),
	}
	for _, d := range rep.Divergences {
		out.Divergences = append(out.Divergences, toDivergenceResponse(d))
	}
	return out, nil
}

// CorrectItem rebasa la cantidad del ítem al valor del libro.
func (uc *ReconciliationUseCase) CorrectItem(ctx context.Context, itemID, actorID string) (*dto.DivergenceResponse, error) {
	d, err := uc.guard.CorrectItem(ctx, itemID, actorID)
	if err != nil {
		return nil, err
	}
	out := toDivergenceResponse(*d)
	return &out, nil
}

func toDivergenceResponse(d reconciliation.LedgerDivergence) dto.DivergenceResponse {
	return dto.DivergenceResponse{
		Kind:       d.Kind,
		EntityID:   d.EntityID,
		Stored:     d.Stored,
		Computed:   d.Computed,
		DetectedAt: d.DetectedAt,
	}
}
