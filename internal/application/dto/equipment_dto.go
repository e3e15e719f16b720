package dto

import "time"

// CreateEquipmentRequest entrada para registrar una ONU.
type CreateEquipmentRequest struct {
	Code     string `json:"code" validate:"required,min=1,max=60"`
	Model    string `json:"model" validate:"max=100"`
	Serial   string `json:"serial" validate:"max=100"`
	Supplier string `json:"supplier" validate:"max=100"`
}

// UpdateEquipmentRequest actualiza modelo, serial y proveedor. El código no cambia.
type UpdateEquipmentRequest struct {
	Model    *string `json:"model" validate:"omitempty,max=100"`
	Serial   *string `json:"serial" validate:"omitempty,max=100"`
	Supplier *string `json:"supplier" validate:"omitempty,max=100"`
}

// EquipmentStatusRequest nota que acompaña un cambio manual de estado.
type EquipmentStatusRequest struct {
	Description string `json:"description" validate:"max=500"`
}

// EquipmentResponse salida de una ONU.
type EquipmentResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Model     string    `json:"model"`
	Serial    string    `json:"serial"`
	Supplier  string    `json:"supplier"`
	Status    string    `json:"status"`
	HolderID  string    `json:"holder_id,omitempty"`
	OrderID   string    `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EquipmentListResponse lista paginada de ONUs.
type EquipmentListResponse struct {
	Items []EquipmentResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}

// EquipmentHistoryResponse entrada del historial de estados.
type EquipmentHistoryResponse struct {
	ID             string    `json:"id"`
	EquipmentID    string    `json:"equipment_id"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	NewStatus      string    `json:"new_status"`
	HolderID       string    `json:"holder_id,omitempty"`
	OrderID        string    `json:"order_id,omitempty"`
	ActorID        string    `json:"actor_id"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
}

// EquipmentHistoryListResponse página del historial, más reciente primero.
type EquipmentHistoryListResponse struct {
	Items []EquipmentHistoryResponse `json:"items"`
	Page  PageResponse               `json:"page"`
}
