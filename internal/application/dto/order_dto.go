package dto

import "time"

// OrderItemRequest cantidad de un ítem en una OS o en una devolución.
type OrderItemRequest struct {
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

// CreateOrderRequest entrada para crear una OS en borrador.
type CreateOrderRequest struct {
	EmployeeID   string             `json:"employee_id" validate:"required"`
	Items        []OrderItemRequest `json:"items" validate:"dive"`
	EquipmentIDs []string           `json:"equipment_ids" validate:"dive,required"`
	Notes        string             `json:"notes" validate:"max=1000"`
}

// DevolutionRequest devolución parcial o total de una OS.
type DevolutionRequest struct {
	Items        []OrderItemRequest `json:"items" validate:"dive"`
	EquipmentIDs []string           `json:"equipment_ids" validate:"dive,required"`
	Notes        string             `json:"notes" validate:"max=1000"`
}

// SignatureRequest firma capturada al entregar el material (base64).
type SignatureRequest struct {
	Payload string `json:"payload" validate:"required"`
}

// OrderItemLineResponse línea de ítem con su avance de devolución.
type OrderItemLineResponse struct {
	ID          string `json:"id"`
	ItemID      string `json:"item_id"`
	Quantity    int    `json:"quantity"`
	Returned    int    `json:"returned"`
	Outstanding int    `json:"outstanding"`
}

// OrderEquipmentLineResponse línea de equipo con su situación actual.
type OrderEquipmentLineResponse struct {
	ID          string `json:"id"`
	EquipmentID string `json:"equipment_id"`
	Status      string `json:"status,omitempty"`
	Returned    bool   `json:"returned"`
	Outstanding bool   `json:"outstanding"`
}

// OrderResponse salida de una OS. Las líneas se omiten en los listados.
type OrderResponse struct {
	ID         string                       `json:"id"`
	Number     int64                        `json:"number"`
	EmployeeID string                       `json:"employee_id"`
	Status     string                       `json:"status"`
	Notes      string                       `json:"notes"`
	Signed     bool                         `json:"signed"`
	SignedBy   string                       `json:"signed_by,omitempty"`
	SignedAt   *time.Time                   `json:"signed_at,omitempty"`
	CreatedBy  string                       `json:"created_by"`
	CreatedAt  time.Time                    `json:"created_at"`
	UpdatedAt  time.Time                    `json:"updated_at"`
	Items      []OrderItemLineResponse      `json:"items,omitempty"`
	Equipment  []OrderEquipmentLineResponse `json:"equipment,omitempty"`
}

// OrderDetailResponse OS con líneas, pendientes y devoluciones registradas.
type OrderDetailResponse struct {
	OrderResponse
	Devolutions []DevolutionResponse `json:"devolutions"`
}

// OrderListResponse lista paginada de órdenes, número descendente.
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// DevolutionItemResponse cantidad devuelta de un ítem.
type DevolutionItemResponse struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// DevolutionResponse salida de una devolución.
type DevolutionResponse struct {
	ID           string                   `json:"id"`
	OrderID      string                   `json:"order_id"`
	ActorID      string                   `json:"actor_id"`
	Notes        string                   `json:"notes"`
	CreatedAt    time.Time                `json:"created_at"`
	Items        []DevolutionItemResponse `json:"items"`
	EquipmentIDs []string                 `json:"equipment_ids"`
}
