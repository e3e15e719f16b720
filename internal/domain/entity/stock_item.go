package entity

import "time"

// StockItem representa un material consumible.
// Quantity es una vista materializada del libro de movimientos: solo el Ledger la modifica.
type StockItem struct {
	ID          string
	Name        string
	Code        string // opcional; único si está presente
	Category    string
	Unit        string
	Quantity    int
	MinQuantity int // umbral de alerta de stock bajo
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsLowStock indica si la cantidad actual está en o por debajo del mínimo.
func (i *StockItem) IsLowStock() bool {
	return i.Quantity <= i.MinQuantity
}
