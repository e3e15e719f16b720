package dto

import "time"

// CreateEmployeeRequest entrada para dar de alta un funcionário.
type CreateEmployeeRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Role     string `json:"role" validate:"max=100"`
	Document string `json:"document" validate:"max=30"`
	Badge    string `json:"badge" validate:"max=30"`
}

// UpdateEmployeeRequest entrada para actualizar datos de un funcionário.
type UpdateEmployeeRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=200"`
	Role     *string `json:"role" validate:"omitempty,max=100"`
	Document *string `json:"document" validate:"omitempty,max=30"`
	Badge    *string `json:"badge" validate:"omitempty,max=30"`
}

// SetEmployeeActiveRequest activa o desactiva un funcionário.
type SetEmployeeActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// EmployeeResponse salida de un funcionário.
type EmployeeResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Document  string    `json:"document"`
	Badge     string    `json:"badge"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmployeeDetailResponse funcionário con los equipos en su poder y sus OS abiertas.
type EmployeeDetailResponse struct {
	EmployeeResponse
	Equipment []EquipmentResponse `json:"equipment"`
	Orders    []OrderResponse     `json:"orders"`
}

// EmployeeListResponse lista paginada de funcionários.
type EmployeeListResponse struct {
	Items []EmployeeResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
