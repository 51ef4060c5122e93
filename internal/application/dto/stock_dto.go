package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OwnerDTO dueño de una línea de stock en requests/responses.
type OwnerDTO struct {
	Tier string `json:"tier"`
	ID   string `json:"id,omitempty"`
}

// CreateLotRequest body para POST /api/stock/lots (ingreso de stock).
type CreateLotRequest struct {
	VaccineID  string          `json:"vaccine_id"`
	Owner      OwnerDTO        `json:"owner"`
	Quantity   decimal.Decimal `json:"quantity"`
	Expiration time.Time       `json:"expiration"`
}

// LotResponse lote en respuestas.
type LotResponse struct {
	ID                string          `json:"id"`
	VaccineID         string          `json:"vaccine_id"`
	Owner             OwnerDTO        `json:"owner"`
	Quantity          decimal.Decimal `json:"quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	Expiration        time.Time       `json:"expiration"`
	Status            string          `json:"status"`
	SourceLotID       *string         `json:"source_lot_id,omitempty"`
}

// ConsumeRequest body para POST /api/stock/consume.
type ConsumeRequest struct {
	VaccineID string          `json:"vaccine_id"`
	Owner     OwnerDTO        `json:"owner"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// ConsumedLotDTO línea del resultado de un consumo.
type ConsumedLotDTO struct {
	LotID         string          `json:"lot_id"`
	QuantityTaken decimal.Decimal `json:"quantity_taken"`
}

// AggregateStockDTO línea de stock agregado en respuestas.
type AggregateStockDTO struct {
	VaccineID         string          `json:"vaccine_id"`
	Owner             OwnerDTO        `json:"owner"`
	Quantity          decimal.Decimal `json:"quantity"`
	NearestExpiration *time.Time      `json:"nearest_expiration,omitempty"`
	HasExpiredLot     bool            `json:"has_expired_lot"`
}
