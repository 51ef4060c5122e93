package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
	"github.com/tu-usuario/vaxtrack/internal/domain/repository"
)

var _ repository.StockLotRepository = (*StockLotRepo)(nil)

// StockLotRepo implementación de StockLotRepository sobre PostgreSQL (usable con pool o tx).
type StockLotRepo struct {
	q Querier
}

// NewStockLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLotRepository(q Querier) *StockLotRepo {
	return &StockLotRepo{q: q}
}

const lotColumns = `id, vaccine_id, owner_tier, owner_id, quantity, remaining_quantity, expiration, status, source_lot_id, created_at, updated_at`

// Create persiste un lote.
func (r *StockLotRepo) Create(lot *entity.StockLot) error {
	query := `
		INSERT INTO stock_lots (` + lotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		lot.ID, lot.VaccineID, string(lot.Owner.Tier), lot.Owner.ID,
		lot.Quantity, lot.RemainingQuantity, lot.Expiration, lot.Status,
		lot.SourceLotID, lot.CreatedAt, lot.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create stock lot: id duplicado")
		}
		return fmt.Errorf("create stock lot: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID; nil si no existe.
func (r *StockLotRepo) GetByID(id string) (*entity.StockLot, error) {
	query := `SELECT ` + lotColumns + ` FROM stock_lots WHERE id = $1`
	lot, err := scanLot(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock lot: %w", err)
	}
	return lot, nil
}

// ListForConsumptionForUpdate bloquea los lotes candidatos a consumo de la
// pareja. El orden de candidatos por id estabiliza el orden de bloqueo entre
// transacciones concurrentes; el orden de consumo lo decide el dominio.
func (r *StockLotRepo) ListForConsumptionForUpdate(vaccineID string, owner entity.Owner) ([]*entity.StockLot, error) {
	query := `
		SELECT ` + lotColumns + ` FROM stock_lots
		WHERE vaccine_id = $1 AND owner_tier = $2 AND owner_id = $3
		  AND remaining_quantity > 0 AND status IN ('VALID', 'EXPIRED')
		ORDER BY id
		FOR UPDATE`
	return r.queryLots(query, vaccineID, string(owner.Tier), owner.ID)
}

// ListActive lotes vigentes de la pareja para recomputar el agregado.
func (r *StockLotRepo) ListActive(vaccineID string, owner entity.Owner) ([]*entity.StockLot, error) {
	query := `
		SELECT ` + lotColumns + ` FROM stock_lots
		WHERE vaccine_id = $1 AND owner_tier = $2 AND owner_id = $3
		  AND remaining_quantity > 0 AND status IN ('VALID', 'EXPIRED')
		ORDER BY expiration ASC`
	return r.queryLots(query, vaccineID, string(owner.Tier), owner.ID)
}

// ListWithRemaining todos los lotes vigentes de todos los dueños
// (enumeración del notificador de vencimientos).
func (r *StockLotRepo) ListWithRemaining() ([]*entity.StockLot, error) {
	query := `
		SELECT ` + lotColumns + ` FROM stock_lots
		WHERE remaining_quantity > 0 AND status IN ('VALID', 'EXPIRED')
		ORDER BY expiration ASC`
	return r.queryLots(query)
}

// ListLineage devuelve el lote raíz y todos sus derivados transitivos
// siguiendo source_lot_id (CTE recursivo; el linaje es un árbol, no hay ciclos).
func (r *StockLotRepo) ListLineage(rootID string) ([]*entity.StockLot, error) {
	query := `
		WITH RECURSIVE lineage AS (
			SELECT ` + lotColumns + ` FROM stock_lots WHERE id = $1
			UNION ALL
			SELECT l.id, l.vaccine_id, l.owner_tier, l.owner_id, l.quantity, l.remaining_quantity,
			       l.expiration, l.status, l.source_lot_id, l.created_at, l.updated_at
			FROM stock_lots l
			INNER JOIN lineage p ON l.source_lot_id = p.id
		)
		SELECT * FROM lineage`
	return r.queryLots(query, rootID)
}

// UpdateRemaining fija la cantidad restante de un lote.
func (r *StockLotRepo) UpdateRemaining(id string, remaining decimal.Decimal, updatedAt time.Time) error {
	query := `UPDATE stock_lots SET remaining_quantity = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, remaining, updatedAt)
	if err != nil {
		return fmt.Errorf("update remaining: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update remaining: lote %s no existe", id)
	}
	return nil
}

// DeleteByIDs borra los lotes indicados.
func (r *StockLotRepo) DeleteByIDs(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `DELETE FROM stock_lots WHERE id = ANY($1)`
	if _, err := r.q.Exec(context.Background(), query, ids); err != nil {
		return fmt.Errorf("delete stock lots: %w", err)
	}
	return nil
}

// MarkExpired pasa a EXPIRED los lotes VALID ya vencidos y devuelve las
// parejas (vacuna, dueño) afectadas.
func (r *StockLotRepo) MarkExpired(now time.Time) ([]entity.StockRef, error) {
	query := `
		UPDATE stock_lots
		SET status = 'EXPIRED', updated_at = $1
		WHERE status = 'VALID' AND expiration < $1
		RETURNING vaccine_id, owner_tier, owner_id`
	rows, err := r.q.Query(context.Background(), query, now)
	if err != nil {
		return nil, fmt.Errorf("mark expired: %w", err)
	}
	defer rows.Close()

	seen := make(map[entity.StockRef]struct{})
	var refs []entity.StockRef
	for rows.Next() {
		var vaccineID, tier, ownerID string
		if err := rows.Scan(&vaccineID, &tier, &ownerID); err != nil {
			return nil, fmt.Errorf("mark expired scan: %w", err)
		}
		ref := entity.StockRef{VaccineID: vaccineID, Owner: entity.Owner{Tier: entity.OwnerTier(tier), ID: ownerID}}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *StockLotRepo) queryLots(query string, args ...any) ([]*entity.StockLot, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stock lots: %w", err)
	}
	defer rows.Close()

	var lots []*entity.StockLot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock lot: %w", err)
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

func scanLot(row pgx.Row) (*entity.StockLot, error) {
	var lot entity.StockLot
	var tier string
	err := row.Scan(
		&lot.ID, &lot.VaccineID, &tier, &lot.Owner.ID,
		&lot.Quantity, &lot.RemainingQuantity, &lot.Expiration, &lot.Status,
		&lot.SourceLotID, &lot.CreatedAt, &lot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lot.Owner.Tier = entity.OwnerTier(tier)
	return &lot, nil
}
