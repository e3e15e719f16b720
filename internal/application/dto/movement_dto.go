package dto

import "time"

// MovementResponse salida de un registro del libro de movimientos.
type MovementResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	ItemID      string    `json:"item_id,omitempty"`
	EquipmentID string    `json:"equipment_id,omitempty"`
	Quantity    int       `json:"quantity,omitempty"`
	OrderID     string    `json:"order_id,omitempty"`
	EmployeeID  string    `json:"employee_id,omitempty"`
	ActorID     string    `json:"actor_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// MovementListResponse página de movimientos, más reciente primero.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// MovementJournalRequest filtros del diario de movimientos.
type MovementJournalRequest struct {
	From  *time.Time
	To    *time.Time
	Type  string `validate:"omitempty,oneof=saida entrada devolucao cancelamento"`
	Limit int    `validate:"min=0"`
}
