package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
// Line y Partial solo se informan en fallos de operaciones sobre órdenes.
type ErrorResponse struct {
	Code    string                `json:"code"`
	Message string                `json:"message"`
	Line    *LineErrorDetail      `json:"line,omitempty"`
	Partial *PartialFailureDetail `json:"partial,omitempty"`
}

// LineErrorDetail línea de la orden que provocó el rechazo.
type LineErrorDetail struct {
	OrderID     string `json:"order_id,omitempty"`
	LineID      string `json:"line_id,omitempty"`
	ItemID      string `json:"item_id,omitempty"`
	EquipmentID string `json:"equipment_id,omitempty"`
	Expected    string `json:"expected,omitempty"`
	Actual      string `json:"actual,omitempty"`
}

// PartialFailureDetail estado de una operación multi-línea interrumpida.
type PartialFailureDetail struct {
	OrderID     string   `json:"order_id"`
	Applied     []string `json:"applied"`
	Outstanding []string `json:"outstanding"`
	Compensated bool     `json:"compensated"`
}
