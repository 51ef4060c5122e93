package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
	"github.com/tu-usuario/vaxtrack/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo implementación sobre PostgreSQL (usable con pool o tx).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, vaccine_id, from_tier, from_id, to_tier, to_id, quantity, status, confirmed_at, confirmed_by_id, created_at, updated_at`

// Create persiste el traslado y sus líneas de asignación.
func (r *TransferRepo) Create(transfer *entity.PendingStockTransfer) error {
	ctx := context.Background()
	query := `
		INSERT INTO pending_stock_transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		transfer.ID, transfer.VaccineID,
		string(transfer.From.Tier), transfer.From.ID,
		string(transfer.To.Tier), transfer.To.ID,
		transfer.Quantity, transfer.Status,
		transfer.ConfirmedAt, nullIfEmpty(transfer.ConfirmedByID),
		transfer.CreatedAt, transfer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create transfer: %w", err)
	}
	for _, alloc := range transfer.Allocations {
		_, err := r.q.Exec(ctx, `
			INSERT INTO transfer_allocations (id, transfer_id, source_lot_id, quantity, snapshot_expiration, snapshot_status)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			alloc.ID, transfer.ID, alloc.SourceLotID, alloc.Quantity,
			alloc.SnapshotExpiration, alloc.SnapshotStatus,
		)
		if err != nil {
			return fmt.Errorf("create transfer allocation: %w", err)
		}
	}
	return nil
}

// GetByID obtiene el traslado con sus líneas; nil si no existe.
func (r *TransferRepo) GetByID(id string) (*entity.PendingStockTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM pending_stock_transfers WHERE id = $1`
	return r.getOne(query, id)
}

// GetByIDForUpdate bloquea la fila del traslado; nil si no existe.
func (r *TransferRepo) GetByIDForUpdate(id string) (*entity.PendingStockTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM pending_stock_transfers WHERE id = $1 FOR UPDATE`
	return r.getOne(query, id)
}

// UpdateStatus aplica la transición de estado; falla si el traslado ya salió
// de PENDING (la condición en el WHERE hace la transición única).
func (r *TransferRepo) UpdateStatus(id, status string, confirmedAt *time.Time, confirmedByID string, updatedAt time.Time) error {
	query := `
		UPDATE pending_stock_transfers
		SET status = $2, confirmed_at = $3, confirmed_by_id = $4, updated_at = $5
		WHERE id = $1 AND status = 'PENDING'`
	tag, err := r.q.Exec(context.Background(), query,
		id, status, confirmedAt, nullIfEmpty(confirmedByID), updatedAt)
	if err != nil {
		return fmt.Errorf("update transfer status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update transfer status: traslado %s no está PENDING", id)
	}
	return nil
}

// ListPendingTo traslados PENDING con destino en el dueño indicado.
func (r *TransferRepo) ListPendingTo(owner entity.Owner) ([]*entity.PendingStockTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM pending_stock_transfers
		WHERE status = 'PENDING' AND to_tier = $1 AND to_id = $2
		ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query, string(owner.Tier), owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list pending transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*entity.PendingStockTransfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, t := range transfers {
		if err := r.loadAllocations(t); err != nil {
			return nil, err
		}
	}
	return transfers, nil
}

func (r *TransferRepo) getOne(query string, args ...any) (*entity.PendingStockTransfer, error) {
	t, err := scanTransfer(r.q.QueryRow(context.Background(), query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	if err := r.loadAllocations(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TransferRepo) loadAllocations(t *entity.PendingStockTransfer) error {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, transfer_id, source_lot_id, quantity, snapshot_expiration, snapshot_status
		FROM transfer_allocations WHERE transfer_id = $1
		ORDER BY snapshot_expiration`, t.ID)
	if err != nil {
		return fmt.Errorf("load allocations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var alloc entity.TransferAllocation
		if err := rows.Scan(&alloc.ID, &alloc.TransferID, &alloc.SourceLotID,
			&alloc.Quantity, &alloc.SnapshotExpiration, &alloc.SnapshotStatus); err != nil {
			return fmt.Errorf("scan allocation: %w", err)
		}
		t.Allocations = append(t.Allocations, alloc)
	}
	return rows.Err()
}

func scanTransfer(row pgx.Row) (*entity.PendingStockTransfer, error) {
	var t entity.PendingStockTransfer
	var fromTier, toTier string
	var confirmedBy *string
	err := row.Scan(
		&t.ID, &t.VaccineID,
		&fromTier, &t.From.ID, &toTier, &t.To.ID,
		&t.Quantity, &t.Status, &t.ConfirmedAt, &confirmedBy,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.From.Tier = entity.OwnerTier(fromTier)
	t.To.Tier = entity.OwnerTier(toTier)
	if confirmedBy != nil {
		t.ConfirmedByID = *confirmedBy
	}
	return &t, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
