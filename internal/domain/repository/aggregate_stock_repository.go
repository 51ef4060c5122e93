package repository

import "github.com/tu-usuario/vaxtrack/internal/domain/entity"

// AggregateStockRepository define el puerto para la cantidad agregada
// cacheada por (vacuna, dueño). Usado dentro de transacciones junto con
// StockLotRepository para que caché y lotes nunca diverjan.
type AggregateStockRepository interface {
	Get(vaccineID string, owner entity.Owner) (*entity.AggregateStock, error)
	// GetForUpdate bloquea la fila del agregado (SELECT FOR UPDATE).
	GetForUpdate(vaccineID string, owner entity.Owner) (*entity.AggregateStock, error)
	Upsert(agg *entity.AggregateStock) error
	// ListByOwner líneas de stock del dueño (lectura para la capa HTTP).
	ListByOwner(owner entity.Owner) ([]*entity.AggregateStock, error)
}
