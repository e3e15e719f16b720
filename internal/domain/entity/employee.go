package entity

import "time"

// Employee representa un técnico de campo (funcionário) que recibe material por OS.
// Nunca se elimina: la desactivación es un cambio del flag Active.
type Employee struct {
	ID        string
	Name      string
	Role      string // cargo
	Document  string
	Badge     string // matrícula
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
