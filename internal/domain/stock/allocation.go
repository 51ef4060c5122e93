package stock

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
)

// Política de consumo de lotes (servicio de dominio): "vence-primero".
// Los lotes VALID van antes que los EXPIRED y, dentro de cada estado, el de
// vencimiento más próximo primero, para minimizar el desperdicio futuro.
// La política está aislada aquí para poder auditarla o sustituirla sin tocar
// el caso de uso que la aplica.

// Allocation resultado de tomar cantidad de un lote concreto.
type Allocation struct {
	Lot           *entity.StockLot
	QuantityTaken decimal.Decimal
}

// statusOrder VALID < EXPIRED; cualquier otro estado va al final.
func statusOrder(status string) int {
	switch status {
	case entity.LotStatusValid:
		return 0
	case entity.LotStatusExpired:
		return 1
	}
	return 2
}

// SortEarliestExpirationFirst ordena los lotes según la política de consumo:
// estado ascendente (VALID antes que EXPIRED) y luego vencimiento ascendente.
// El orden es estable para que lotes con el mismo vencimiento conserven su
// orden de llegada.
func SortEarliestExpirationFirst(lots []*entity.StockLot) {
	sort.SliceStable(lots, func(i, j int) bool {
		si, sj := statusOrder(lots[i].Status), statusOrder(lots[j].Status)
		if si != sj {
			return si < sj
		}
		return lots[i].Expiration.Before(lots[j].Expiration)
	})
}

// Allocate reparte la cantidad solicitada entre los lotes candidatos en el
// orden de la política, sin mutarlos: devuelve cuánto tomar de cada uno.
// Si la suma disponible no alcanza, devuelve (nil, false) y el caller debe
// abortar sin efecto parcial.
func Allocate(lots []*entity.StockLot, quantity decimal.Decimal) ([]Allocation, bool) {
	SortEarliestExpirationFirst(lots)

	remaining := quantity
	var result []Allocation
	for _, lot := range lots {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		if !lot.RemainingQuantity.GreaterThan(decimal.Zero) {
			continue
		}
		take := decimal.Min(lot.RemainingQuantity, remaining)
		result = append(result, Allocation{Lot: lot, QuantityTaken: take})
		remaining = remaining.Sub(take)
	}
	if remaining.GreaterThan(decimal.Zero) {
		return nil, false
	}
	return result, true
}
