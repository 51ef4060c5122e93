package entity

import "time"

// Vaccine catálogo mínimo de vacunas referenciadas por lotes y citas.
type Vaccine struct {
	ID        string
	Name      string
	Disease   string
	CreatedAt time.Time
}
