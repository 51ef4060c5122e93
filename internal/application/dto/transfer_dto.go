package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// InitiateTransferRequest body para POST /api/transfers (fase 1).
type InitiateTransferRequest struct {
	From      OwnerDTO        `json:"from"`
	To        OwnerDTO        `json:"to"`
	VaccineID string          `json:"vaccine_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// TransferAllocationDTO línea de asignación con su snapshot.
type TransferAllocationDTO struct {
	SourceLotID        string          `json:"source_lot_id"`
	Quantity           decimal.Decimal `json:"quantity"`
	SnapshotExpiration time.Time       `json:"snapshot_expiration"`
	SnapshotStatus     string          `json:"snapshot_status"`
}

// TransferResponse traslado en respuestas.
type TransferResponse struct {
	ID          string                  `json:"id"`
	VaccineID   string                  `json:"vaccine_id"`
	From        OwnerDTO                `json:"from"`
	To          OwnerDTO                `json:"to"`
	Quantity    decimal.Decimal         `json:"quantity"`
	Status      string                  `json:"status"`
	ConfirmedAt *time.Time              `json:"confirmed_at,omitempty"`
	Allocations []TransferAllocationDTO `json:"allocations"`
	CreatedAt   time.Time               `json:"created_at"`
}

// RunCheckResponse resumen de una corrida manual del notificador.
type RunCheckResponse struct {
	Engine            string `json:"engine"`
	NotificationsSent int    `json:"notifications_sent"`
	Skipped           int    `json:"skipped"`
	Errors            int    `json:"errors"`
}
