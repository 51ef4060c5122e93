package repository

import (
	"time"

	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
)

// TransferRepository define el puerto de persistencia para traslados
// pendientes y sus líneas de asignación.
type TransferRepository interface {
	// Create persiste el traslado con sus líneas de asignación.
	Create(transfer *entity.PendingStockTransfer) error
	GetByID(id string) (*entity.PendingStockTransfer, error)
	// GetByIDForUpdate bloquea la fila del traslado para la transición de
	// estado (evita doble confirmación concurrente).
	GetByIDForUpdate(id string) (*entity.PendingStockTransfer, error)
	// UpdateStatus aplica la única transición permitida desde PENDING.
	UpdateStatus(id, status string, confirmedAt *time.Time, confirmedByID string, updatedAt time.Time) error
	// ListPendingTo traslados PENDING cuyo destino es el dueño indicado
	// (bandeja de entrada del receptor).
	ListPendingTo(owner entity.Owner) ([]*entity.PendingStockTransfer, error)
}

// TransferHistoryRepository define el puerto del historial inmutable de
// traslados confirmados (solo inserción; reporting lee, nunca escribe aquí).
type TransferHistoryRepository interface {
	Create(h *entity.TransferHistory) error
}
