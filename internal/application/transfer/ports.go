package transfer

import (
	"context"

	"github.com/tu-usuario/vaxtrack/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios del traslado además de los del libro de lotes: el débito de
// fase 1 (consumo + fila PENDING) y el crédito de fase 2 (alta de lotes +
// transición de estado + historial) son cada uno una unidad atómica.
type TxRunner interface {
	RunTransfer(ctx context.Context, fn func(
		lotRepo repository.StockLotRepository,
		aggRepo repository.AggregateStockRepository,
		transferRepo repository.TransferRepository,
		historyRepo repository.TransferHistoryRepository,
	) error) error
}
