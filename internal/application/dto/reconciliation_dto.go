package dto

import "time"

// DivergenceResponse diferencia entre el valor almacenado y el recalculado.
type DivergenceResponse struct {
	Kind       string    `json:"kind"`
	EntityID   string    `json:"entity_id"`
	Stored     string    `json:"stored"`
	Computed   string    `json:"computed"`
	DetectedAt time.Time `json:"detected_at"`
}

// ReconciliationReportResponse resultado de una conciliación.
type ReconciliationReportResponse struct {
	StartedAt    time.Time            `json:"started_at"`
	FinishedAt   time.Time            `json:"finished_at"`
	ItemsChecked int                  `json:"items_checked"`
	UnitsChecked int                  `json:"units_checked"`
	Clean        bool                 `json:"clean"`
	Divergences  []DivergenceResponse `json:"divergences"`
}
