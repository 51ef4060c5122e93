package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un traslado pendiente. Una vez fuera de PENDING el traslado es
// inmutable: la transición ocurre exactamente una vez.
const (
	TransferStatusPending   = "PENDING"
	TransferStatusConfirmed = "CONFIRMED"
	TransferStatusRejected  = "REJECTED"
	TransferStatusCancelled = "CANCELLED"
)

// TransferAllocation línea de asignación de un traslado: de qué lote origen
// se tomó cuánto, con el vencimiento y estado del lote fotografiados en el
// momento del débito. El snapshot permite acreditar o compensar después sin
// releer lotes históricos que pudieron cambiar.
type TransferAllocation struct {
	ID                 string
	TransferID         string
	SourceLotID        string
	Quantity           decimal.Decimal
	SnapshotExpiration time.Time
	SnapshotStatus     string
}

// PendingStockTransfer cantidad debitada del origen y todavía no acreditada
// en el destino ("en vuelo" entre dos niveles adyacentes).
// Invariante: Σ Allocations[i].Quantity == Quantity.
type PendingStockTransfer struct {
	ID            string
	VaccineID     string
	From          Owner
	To            Owner
	Quantity      decimal.Decimal
	Status        string
	ConfirmedAt   *time.Time
	ConfirmedByID string
	Allocations   []TransferAllocation
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TransferHistory registro inmutable de auditoría escrito al confirmar un
// traslado. Nunca se actualiza ni se borra.
type TransferHistory struct {
	ID          string
	TransferID  string
	VaccineID   string
	From        Owner
	To          Owner
	Quantity    decimal.Decimal
	Allocations []TransferAllocation
	CreatedAt   time.Time
}
