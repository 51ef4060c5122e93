package ledger

import (
	"context"

	"github.com/tu-usuario/vaxtrack/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Toda mutación que toca lotes y agregado a la
// vez pasa por aquí: o se aplica completa o no se aplica (nunca hay efecto
// parcial observable por un lector concurrente).
type TxRunner interface {
	Run(ctx context.Context, fn func(
		lotRepo repository.StockLotRepository,
		aggRepo repository.AggregateStockRepository,
	) error) error
}
