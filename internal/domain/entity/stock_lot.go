package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un lote de vacunas.
const (
	LotStatusValid   = "VALID"   // vigente
	LotStatusExpired = "EXPIRED" // vencido
	LotStatusPending = "PENDING" // en tránsito, aún no disponible
)

// StockLot representa un lote de dosis con una única fecha de vencimiento y
// una cantidad restante que solo puede disminuir. SourceLotID enlaza el lote
// con el lote origen del que se derivó en un traslado confirmado (linaje);
// la cadena forma un árbol, nunca un ciclo.
// Invariante: 0 <= RemainingQuantity <= Quantity.
type StockLot struct {
	ID                string
	VaccineID         string
	Owner             Owner
	Quantity          decimal.Decimal // cantidad total recibida
	RemainingQuantity decimal.Decimal
	Expiration        time.Time
	Status            string
	SourceLotID       *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Available indica si el lote aporta stock consumible o agregable
// (le queda cantidad y no está en tránsito).
func (l *StockLot) Available() bool {
	return l.RemainingQuantity.GreaterThan(decimal.Zero) && l.Status != LotStatusPending
}

// StockRef identifica una línea de stock: la pareja (vacuna, dueño).
type StockRef struct {
	VaccineID string
	Owner     Owner
}

// AggregateStock cantidad agregada cacheada por (vacuna, dueño), junto con
// el vencimiento más próximo entre sus lotes con cantidad restante.
// Invariante: Quantity == suma de RemainingQuantity sobre los lotes de la pareja
// con RemainingQuantity > 0 y estado VALID o EXPIRED.
type AggregateStock struct {
	VaccineID         string
	Owner             Owner
	Quantity          decimal.Decimal
	NearestExpiration *time.Time
	HasExpiredLot     bool
	UpdatedAt         time.Time
}
