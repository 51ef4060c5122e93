package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
	"github.com/tu-usuario/vaxtrack/internal/domain/repository"
)

var _ repository.TransferHistoryRepository = (*TransferHistoryRepo)(nil)

// TransferHistoryRepo historial inmutable de traslados confirmados (solo
// INSERT; las líneas se guardan como JSONB porque nadie las consulta por
// columna, solo se auditan completas).
type TransferHistoryRepo struct {
	q Querier
}

// NewTransferHistoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferHistoryRepository(q Querier) *TransferHistoryRepo {
	return &TransferHistoryRepo{q: q}
}

// Create inserta el registro de auditoría.
func (r *TransferHistoryRepo) Create(h *entity.TransferHistory) error {
	allocations, err := json.Marshal(h.Allocations)
	if err != nil {
		return fmt.Errorf("marshal allocations: %w", err)
	}
	query := `
		INSERT INTO transfer_history (id, transfer_id, vaccine_id, from_tier, from_id, to_tier, to_id, quantity, allocations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.q.Exec(context.Background(), query,
		h.ID, h.TransferID, h.VaccineID,
		string(h.From.Tier), h.From.ID, string(h.To.Tier), h.To.ID,
		h.Quantity, allocations, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create transfer history: %w", err)
	}
	return nil
}
