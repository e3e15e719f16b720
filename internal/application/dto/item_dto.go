package dto

import "time"

// CreateItemRequest entrada para crear un ítem consumible.
// InitialQuantity se registra como movimiento de entrada.
type CreateItemRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=200"`
	Code            string `json:"code" validate:"max=60"`
	Category        string `json:"category" validate:"max=100"`
	Unit            string `json:"unit" validate:"max=20"`
	MinQuantity     int    `json:"min_quantity" validate:"min=0"`
	InitialQuantity int    `json:"initial_quantity" validate:"min=0"`
}

// UpdateItemRequest actualiza solo metadatos; la cantidad cambia por movimientos.
type UpdateItemRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Code        *string `json:"code" validate:"omitempty,max=60"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	Unit        *string `json:"unit" validate:"omitempty,max=20"`
	MinQuantity *int    `json:"min_quantity" validate:"omitempty,min=0"`
}

// ItemEntryRequest reposición manual de stock.
type ItemEntryRequest struct {
	Quantity    int    `json:"quantity" validate:"required,min=1"`
	Description string `json:"description" validate:"max=500"`
}

// ItemResponse salida de un ítem.
type ItemResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code,omitempty"`
	Category    string    `json:"category"`
	Unit        string    `json:"unit"`
	Quantity    int       `json:"quantity"`
	MinQuantity int       `json:"min_quantity"`
	LowStock    bool      `json:"low_stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemListResponse lista paginada de ítems.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
