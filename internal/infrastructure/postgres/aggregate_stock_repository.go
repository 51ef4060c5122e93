package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
	"github.com/tu-usuario/vaxtrack/internal/domain/repository"
)

var _ repository.AggregateStockRepository = (*AggregateStockRepo)(nil)

// AggregateStockRepo implementación sobre PostgreSQL (usable con pool o tx).
type AggregateStockRepo struct {
	q Querier
}

// NewAggregateStockRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAggregateStockRepository(q Querier) *AggregateStockRepo {
	return &AggregateStockRepo{q: q}
}

const aggColumns = `vaccine_id, owner_tier, owner_id, quantity, nearest_expiration, has_expired_lot, updated_at`

// Get obtiene el agregado de la pareja (vacuna, dueño); nil si no existe.
func (r *AggregateStockRepo) Get(vaccineID string, owner entity.Owner) (*entity.AggregateStock, error) {
	query := `SELECT ` + aggColumns + ` FROM aggregate_stock
		WHERE vaccine_id = $1 AND owner_tier = $2 AND owner_id = $3`
	return r.getOne(query, vaccineID, string(owner.Tier), owner.ID)
}

// GetForUpdate bloquea la fila del agregado (SELECT FOR UPDATE); nil si no existe.
func (r *AggregateStockRepo) GetForUpdate(vaccineID string, owner entity.Owner) (*entity.AggregateStock, error) {
	query := `SELECT ` + aggColumns + ` FROM aggregate_stock
		WHERE vaccine_id = $1 AND owner_tier = $2 AND owner_id = $3
		FOR UPDATE`
	return r.getOne(query, vaccineID, string(owner.Tier), owner.ID)
}

// Upsert inserta o actualiza el agregado de la pareja.
func (r *AggregateStockRepo) Upsert(agg *entity.AggregateStock) error {
	query := `
		INSERT INTO aggregate_stock (` + aggColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (vaccine_id, owner_tier, owner_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			nearest_expiration = EXCLUDED.nearest_expiration,
			has_expired_lot = EXCLUDED.has_expired_lot,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(context.Background(), query,
		agg.VaccineID, string(agg.Owner.Tier), agg.Owner.ID,
		agg.Quantity, agg.NearestExpiration, agg.HasExpiredLot, agg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert aggregate stock: %w", err)
	}
	return nil
}

// ListByOwner líneas de stock del dueño.
func (r *AggregateStockRepo) ListByOwner(owner entity.Owner) ([]*entity.AggregateStock, error) {
	query := `SELECT ` + aggColumns + ` FROM aggregate_stock
		WHERE owner_tier = $1 AND owner_id = $2
		ORDER BY vaccine_id`
	rows, err := r.q.Query(context.Background(), query, string(owner.Tier), owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list aggregate stock: %w", err)
	}
	defer rows.Close()

	var aggs []*entity.AggregateStock
	for rows.Next() {
		agg, err := scanAggregate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan aggregate stock: %w", err)
		}
		aggs = append(aggs, agg)
	}
	return aggs, rows.Err()
}

func (r *AggregateStockRepo) getOne(query string, args ...any) (*entity.AggregateStock, error) {
	agg, err := scanAggregate(r.q.QueryRow(context.Background(), query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get aggregate stock: %w", err)
	}
	return agg, nil
}

func scanAggregate(row pgx.Row) (*entity.AggregateStock, error) {
	var agg entity.AggregateStock
	var tier string
	err := row.Scan(
		&agg.VaccineID, &tier, &agg.Owner.ID,
		&agg.Quantity, &agg.NearestExpiration, &agg.HasExpiredLot, &agg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	agg.Owner.Tier = entity.OwnerTier(tier)
	return &agg, nil
}
