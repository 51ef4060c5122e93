package transfer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/vaxtrack/internal/application/ledger"
	"github.com/tu-usuario/vaxtrack/internal/domain"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
	"github.com/tu-usuario/vaxtrack/internal/domain/repository"
)

// UseCase coordina el traslado en dos fases de una cantidad de vacuna entre
// dueños adyacentes de la jerarquía. Fase 1 (Initiate): débito del origen y
// fila PENDING con snapshots de asignación. Fase 2 (Confirm): alta de lotes
// en el destino con linaje y crédito del agregado destino. Reject/Cancel
// compensan el débito acuñando lotes en el origen; nunca se mutan filas
// históricas, el rastro de auditoría queda intacto.
type UseCase struct {
	txRunner     TxRunner
	ledger       *ledger.UseCase
	transferRepo repository.TransferRepository // lecturas fuera de tx
	now          func() time.Time
}

// NewUseCase construye el coordinador; compone el caso de uso del libro de
// lotes para consumir y acuñar dentro de sus propias transacciones.
func NewUseCase(txRunner TxRunner, ledgerUC *ledger.UseCase, transferRepo repository.TransferRepository) *UseCase {
	return &UseCase{
		txRunner:     txRunner,
		ledger:       ledgerUC,
		transferRepo: transferRepo,
		now:          time.Now,
	}
}

// WithClock sustituye el reloj (tests).
func (u *UseCase) WithClock(now func() time.Time) *UseCase {
	u.now = now
	return u
}

// InitiateInput entrada de la fase 1.
type InitiateInput struct {
	From      entity.Owner
	To        entity.Owner
	VaccineID string
	Quantity  decimal.Decimal
}

// Initiate fase 1: verifica que la línea de stock destino exista, consume los
// lotes del origen (el agregado origen queda debitado de inmediato) y
// persiste el traslado PENDING con el snapshot exacto de qué lotes se
// drenaron. El destino no se toca todavía: la cantidad queda "en vuelo".
func (u *UseCase) Initiate(ctx context.Context, input InitiateInput) (*entity.PendingStockTransfer, error) {
	if input.VaccineID == "" || !input.From.Valid() || !input.To.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if input.From.Equal(input.To) || !input.From.AdjacentTo(input.To) {
		return nil, domain.ErrInvalidInput
	}
	if !input.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	now := u.now()
	var transfer *entity.PendingStockTransfer
	err := u.txRunner.RunTransfer(ctx, func(
		lotRepo repository.StockLotRepository,
		aggRepo repository.AggregateStockRepository,
		transferRepo repository.TransferRepository,
		_ repository.TransferHistoryRepository,
	) error {
		// La línea de stock del destino debe existir antes de debitar.
		destAgg, err := aggRepo.Get(input.VaccineID, input.To)
		if err != nil {
			return err
		}
		if destAgg == nil {
			return domain.ErrNotFound
		}

		consumed, err := u.ledger.ConsumeInTx(lotRepo, aggRepo, input.VaccineID, input.From, input.Quantity, now)
		if err != nil {
			return err
		}

		transferID := uuid.New().String()
		allocations := make([]entity.TransferAllocation, 0, len(consumed))
		for _, c := range consumed {
			allocations = append(allocations, entity.TransferAllocation{
				ID:                 uuid.New().String(),
				TransferID:         transferID,
				SourceLotID:        c.LotID,
				Quantity:           c.QuantityTaken,
				SnapshotExpiration: c.Expiration,
				SnapshotStatus:     c.Status,
			})
		}
		transfer = &entity.PendingStockTransfer{
			ID:          transferID,
			VaccineID:   input.VaccineID,
			From:        input.From,
			To:          input.To,
			Quantity:    input.Quantity,
			Status:      entity.TransferStatusPending,
			Allocations: allocations,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return transferRepo.Create(transfer)
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// Confirm fase 2: solo el dueño destino puede confirmar. Por cada línea de
// asignación se acuña un lote en el destino con SourceLotID = lote original y
// vencimiento/estado copiados del snapshot; el agregado destino se acredita
// recién aquí. Se escribe el registro inmutable de historial.
func (u *UseCase) Confirm(ctx context.Context, transferID string, confirming entity.Owner, confirmedByID string) (*entity.PendingStockTransfer, error) {
	if transferID == "" || !confirming.Valid() {
		return nil, domain.ErrInvalidInput
	}
	now := u.now()
	var result *entity.PendingStockTransfer
	err := u.txRunner.RunTransfer(ctx, func(
		lotRepo repository.StockLotRepository,
		aggRepo repository.AggregateStockRepository,
		transferRepo repository.TransferRepository,
		historyRepo repository.TransferHistoryRepository,
	) error {
		transfer, err := lockPending(transferRepo, transferID)
		if err != nil {
			return err
		}
		if !transfer.To.Equal(confirming) {
			return domain.ErrForbidden
		}

		for _, alloc := range transfer.Allocations {
			sourceLotID := alloc.SourceLotID
			_, err := u.ledger.MintLotInTx(lotRepo, aggRepo, ledger.CreateLotInput{
				VaccineID:   transfer.VaccineID,
				Owner:       transfer.To,
				Quantity:    alloc.Quantity,
				Expiration:  alloc.SnapshotExpiration,
				SourceLotID: &sourceLotID,
				Status:      alloc.SnapshotStatus,
			}, now)
			if err != nil {
				return err
			}
		}

		confirmedAt := now
		if err := transferRepo.UpdateStatus(transferID, entity.TransferStatusConfirmed, &confirmedAt, confirmedByID, now); err != nil {
			return err
		}
		if err := historyRepo.Create(&entity.TransferHistory{
			ID:          uuid.New().String(),
			TransferID:  transfer.ID,
			VaccineID:   transfer.VaccineID,
			From:        transfer.From,
			To:          transfer.To,
			Quantity:    transfer.Quantity,
			Allocations: transfer.Allocations,
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		transfer.Status = entity.TransferStatusConfirmed
		transfer.ConfirmedAt = &confirmedAt
		transfer.ConfirmedByID = confirmedByID
		transfer.UpdatedAt = now
		result = transfer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reject el dueño destino rechaza el traslado: la cantidad debitada vuelve al
// origen como lotes compensatorios y el traslado queda REJECTED (terminal).
func (u *UseCase) Reject(ctx context.Context, transferID string, rejecting entity.Owner) (*entity.PendingStockTransfer, error) {
	return u.compensate(ctx, transferID, rejecting, entity.TransferStatusRejected, destinationOwner)
}

// Cancel el dueño origen cancela el traslado antes de la confirmación; misma
// compensación que Reject, estado CANCELLED (terminal).
func (u *UseCase) Cancel(ctx context.Context, transferID string, cancelling entity.Owner) (*entity.PendingStockTransfer, error) {
	return u.compensate(ctx, transferID, cancelling, entity.TransferStatusCancelled, sourceOwner)
}

// GetByID lectura del traslado con sus líneas (capa HTTP).
func (u *UseCase) GetByID(transferID string) (*entity.PendingStockTransfer, error) {
	if transferID == "" {
		return nil, domain.ErrInvalidInput
	}
	t, err := u.transferRepo.GetByID(transferID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

// ListInbox traslados pendientes cuyo destino es el dueño (por confirmar).
func (u *UseCase) ListInbox(owner entity.Owner) ([]*entity.PendingStockTransfer, error) {
	if !owner.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return u.transferRepo.ListPendingTo(owner)
}

type ownerSide int

const (
	sourceOwner ownerSide = iota
	destinationOwner
)

// compensate restaura la cantidad debitada al origen: por cada línea de
// asignación acuña un lote compensatorio que conserva el vencimiento y estado
// del snapshot y referencia al lote drenado vía SourceLotID (política
// documentada en DESIGN.md: nunca se muta un lote histórico). El agregado
// origen se re-acredita en la misma transacción y el traslado pasa al estado
// terminal indicado.
func (u *UseCase) compensate(ctx context.Context, transferID string, acting entity.Owner, terminalStatus string, mustBe ownerSide) (*entity.PendingStockTransfer, error) {
	if transferID == "" || !acting.Valid() {
		return nil, domain.ErrInvalidInput
	}
	now := u.now()
	var result *entity.PendingStockTransfer
	err := u.txRunner.RunTransfer(ctx, func(
		lotRepo repository.StockLotRepository,
		aggRepo repository.AggregateStockRepository,
		transferRepo repository.TransferRepository,
		_ repository.TransferHistoryRepository,
	) error {
		transfer, err := lockPending(transferRepo, transferID)
		if err != nil {
			return err
		}
		expected := transfer.From
		if mustBe == destinationOwner {
			expected = transfer.To
		}
		if !expected.Equal(acting) {
			return domain.ErrForbidden
		}

		for _, alloc := range transfer.Allocations {
			sourceLotID := alloc.SourceLotID
			_, err := u.ledger.MintLotInTx(lotRepo, aggRepo, ledger.CreateLotInput{
				VaccineID:   transfer.VaccineID,
				Owner:       transfer.From,
				Quantity:    alloc.Quantity,
				Expiration:  alloc.SnapshotExpiration,
				SourceLotID: &sourceLotID,
				Status:      alloc.SnapshotStatus,
			}, now)
			if err != nil {
				return err
			}
		}
		if err := transferRepo.UpdateStatus(transferID, terminalStatus, nil, "", now); err != nil {
			return err
		}

		transfer.Status = terminalStatus
		transfer.UpdatedAt = now
		result = transfer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// lockPending bloquea el traslado y valida que siga PENDING: cualquier
// segunda transición es conflicto (un traslado no-PENDING es inmutable).
func lockPending(transferRepo repository.TransferRepository, transferID string) (*entity.PendingStockTransfer, error) {
	transfer, err := transferRepo.GetByIDForUpdate(transferID)
	if err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, domain.ErrNotFound
	}
	if transfer.Status != entity.TransferStatusPending {
		return nil, domain.ErrConflict
	}
	return transfer, nil
}
