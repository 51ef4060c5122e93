package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/vaxtrack/internal/domain"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
	"github.com/tu-usuario/vaxtrack/internal/domain/repository"
	"github.com/tu-usuario/vaxtrack/internal/domain/stock"
)

// UseCase libro de lotes: alta por ingreso, consumo parcial ordenado por la
// política vence-primero, borrado en cascada por linaje y mantenimiento del
// agregado cacheado por (vacuna, dueño). Cada operación ejecuta dentro de una
// transacción del TxRunner junto con la actualización del agregado.
type UseCase struct {
	txRunner    TxRunner
	vaccineRepo repository.VaccineRepository
	aggRepo     repository.AggregateStockRepository // lecturas fuera de tx
	now         func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(txRunner TxRunner, vaccineRepo repository.VaccineRepository, aggRepo repository.AggregateStockRepository) *UseCase {
	return &UseCase{
		txRunner:    txRunner,
		vaccineRepo: vaccineRepo,
		aggRepo:     aggRepo,
		now:         time.Now,
	}
}

// WithClock sustituye el reloj (tests).
func (u *UseCase) WithClock(now func() time.Time) *UseCase {
	u.now = now
	return u
}

// CreateLotInput entrada para dar de alta un lote.
// Status vacío = se decide por el vencimiento (VALID, o EXPIRED si ya pasó).
// SourceLotID solo viene informado en lotes derivados de un traslado.
type CreateLotInput struct {
	VaccineID   string
	Owner       entity.Owner
	Quantity    decimal.Decimal
	Expiration  time.Time
	SourceLotID *string
	Status      string
}

// ConsumedLot cuánto se tomó de qué lote, con el vencimiento y estado del
// lote en el momento del consumo (snapshot para las líneas de un traslado).
type ConsumedLot struct {
	LotID         string
	QuantityTaken decimal.Decimal
	Expiration    time.Time
	Status        string
}

// CreateLot valida la entrada, verifica que la vacuna exista y da de alta el
// lote con RemainingQuantity = Quantity, actualizando el agregado en la misma
// transacción.
func (u *UseCase) CreateLot(ctx context.Context, input CreateLotInput) (*entity.StockLot, error) {
	if input.VaccineID == "" || !input.Owner.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if !input.Quantity.GreaterThan(decimal.Zero) || input.Expiration.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	vaccine, err := u.vaccineRepo.GetByID(input.VaccineID)
	if err != nil {
		return nil, err
	}
	if vaccine == nil {
		return nil, domain.ErrNotFound
	}

	now := u.now()
	var lot *entity.StockLot
	err = u.txRunner.Run(ctx, func(
		lotRepo repository.StockLotRepository,
		aggRepo repository.AggregateStockRepository,
	) error {
		var txErr error
		lot, txErr = u.MintLotInTx(lotRepo, aggRepo, input, now)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

// MintLotInTx da de alta un lote usando los repositorios proporcionados
// (misma transacción del caller). Lo usa CreateLot y también el coordinador
// de traslados al acreditar el destino o compensar el origen.
func (u *UseCase) MintLotInTx(
	lotRepo repository.StockLotRepository,
	aggRepo repository.AggregateStockRepository,
	input CreateLotInput,
	now time.Time,
) (*entity.StockLot, error) {
	status := input.Status
	if status == "" {
		status = entity.LotStatusValid
		if input.Expiration.Before(now) {
			status = entity.LotStatusExpired
		}
	}
	lot := &entity.StockLot{
		ID:                uuid.New().String(),
		VaccineID:         input.VaccineID,
		Owner:             input.Owner,
		Quantity:          input.Quantity,
		RemainingQuantity: input.Quantity,
		Expiration:        input.Expiration,
		Status:            status,
		SourceLotID:       input.SourceLotID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := lotRepo.Create(lot); err != nil {
		return nil, err
	}

	agg, err := aggRepo.GetForUpdate(input.VaccineID, input.Owner)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		agg = &entity.AggregateStock{
			VaccineID: input.VaccineID,
			Owner:     input.Owner,
			Quantity:  decimal.Zero,
		}
	}
	// Los lotes PENDING (en tránsito) no cuentan en el agregado.
	if status != entity.LotStatusPending {
		agg.Quantity = agg.Quantity.Add(input.Quantity)
	}
	if err := u.syncAggregateMeta(lotRepo, aggRepo, agg, now); err != nil {
		return nil, err
	}
	return lot, nil
}

// ConsumeLots descuenta la cantidad solicitada de los lotes de la pareja
// (vacuna, dueño) en orden vence-primero. Todo o nada: si la suma disponible
// no alcanza, aborta con ErrInsufficientStock sin decremento parcial.
func (u *UseCase) ConsumeLots(ctx context.Context, vaccineID string, owner entity.Owner, quantity decimal.Decimal) ([]ConsumedLot, error) {
	if vaccineID == "" || !owner.Valid() || !quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	now := u.now()
	var consumed []ConsumedLot
	err := u.txRunner.Run(ctx, func(
		lotRepo repository.StockLotRepository,
		aggRepo repository.AggregateStockRepository,
	) error {
		var txErr error
		consumed, txErr = u.ConsumeInTx(lotRepo, aggRepo, vaccineID, owner, quantity, now)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return consumed, nil
}

// ConsumeInTx ejecuta el consumo con los repositorios del caller (misma
// transacción). Lo usa ConsumeLots y el débito de fase 1 de un traslado.
func (u *UseCase) ConsumeInTx(
	lotRepo repository.StockLotRepository,
	aggRepo repository.AggregateStockRepository,
	vaccineID string,
	owner entity.Owner,
	quantity decimal.Decimal,
	now time.Time,
) ([]ConsumedLot, error) {
	// Bloquea la fila del agregado primero: serializa consumos concurrentes
	// de la misma pareja y evita sobregirar lotes.
	agg, err := aggRepo.GetForUpdate(vaccineID, owner)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		return nil, domain.ErrNotFound
	}
	if agg.Quantity.LessThan(quantity) {
		return nil, domain.ErrInsufficientStock
	}

	lots, err := lotRepo.ListForConsumptionForUpdate(vaccineID, owner)
	if err != nil {
		return nil, err
	}
	allocations, ok := stock.Allocate(lots, quantity)
	if !ok {
		// El agregado prometía más que los lotes; la transacción aborta y
		// el caller puede reintentar tras el conflicto.
		return nil, domain.ErrInsufficientStock
	}

	consumed := make([]ConsumedLot, 0, len(allocations))
	for _, alloc := range allocations {
		newRemaining := alloc.Lot.RemainingQuantity.Sub(alloc.QuantityTaken)
		if err := lotRepo.UpdateRemaining(alloc.Lot.ID, newRemaining, now); err != nil {
			return nil, err
		}
		consumed = append(consumed, ConsumedLot{
			LotID:         alloc.Lot.ID,
			QuantityTaken: alloc.QuantityTaken,
			Expiration:    alloc.Lot.Expiration,
			Status:        alloc.Lot.Status,
		})
	}

	agg.Quantity = agg.Quantity.Sub(quantity)
	if err := u.syncAggregateMeta(lotRepo, aggRepo, agg, now); err != nil {
		return nil, err
	}
	return consumed, nil
}

// DeleteLotCascade borra el lote y, transitivamente, todo lote derivado de él
// por linaje; devuelve los IDs borrados. Los agregados de cada pareja tocada
// se descuentan en la misma transacción.
func (u *UseCase) DeleteLotCascade(ctx context.Context, lotID string) ([]string, error) {
	if lotID == "" {
		return nil, domain.ErrInvalidInput
	}
	now := u.now()
	var deleted []string
	err := u.txRunner.Run(ctx, func(
		lotRepo repository.StockLotRepository,
		aggRepo repository.AggregateStockRepository,
	) error {
		lots, err := lotRepo.ListLineage(lotID)
		if err != nil {
			return err
		}
		if len(lots) == 0 {
			return domain.ErrNotFound
		}

		// Cantidad que cada pareja (vacuna, dueño) pierde del agregado.
		removed := make(map[entity.StockRef]decimal.Decimal)
		ids := make([]string, 0, len(lots))
		for _, lot := range lots {
			ids = append(ids, lot.ID)
			if lot.Available() {
				ref := entity.StockRef{VaccineID: lot.VaccineID, Owner: lot.Owner}
				removed[ref] = removed[ref].Add(lot.RemainingQuantity)
			}
		}
		if err := lotRepo.DeleteByIDs(ids); err != nil {
			return err
		}
		for ref, qty := range removed {
			agg, err := aggRepo.GetForUpdate(ref.VaccineID, ref.Owner)
			if err != nil {
				return err
			}
			if agg == nil {
				continue
			}
			agg.Quantity = agg.Quantity.Sub(qty)
			if err := u.syncAggregateMeta(lotRepo, aggRepo, agg, now); err != nil {
				return err
			}
		}
		deleted = ids
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// RefreshNearestExpiration recomputa NearestExpiration y HasExpiredLot del
// agregado a partir de los lotes vigentes de la pareja.
func (u *UseCase) RefreshNearestExpiration(ctx context.Context, vaccineID string, owner entity.Owner) error {
	if vaccineID == "" || !owner.Valid() {
		return domain.ErrInvalidInput
	}
	now := u.now()
	return u.txRunner.Run(ctx, func(
		lotRepo repository.StockLotRepository,
		aggRepo repository.AggregateStockRepository,
	) error {
		agg, err := aggRepo.GetForUpdate(vaccineID, owner)
		if err != nil {
			return err
		}
		if agg == nil {
			return domain.ErrNotFound
		}
		return u.syncAggregateMeta(lotRepo, aggRepo, agg, now)
	})
}

// ExpireDueLots pasa a EXPIRED los lotes VALID ya vencidos y refresca los
// agregados afectados. Lo invoca el scheduler antes de cada corrida del
// notificador de vencimientos. Devuelve cuántas parejas se tocaron.
func (u *UseCase) ExpireDueLots(ctx context.Context) (int, error) {
	now := u.now()
	var touched int
	err := u.txRunner.Run(ctx, func(
		lotRepo repository.StockLotRepository,
		aggRepo repository.AggregateStockRepository,
	) error {
		refs, err := lotRepo.MarkExpired(now)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			agg, err := aggRepo.GetForUpdate(ref.VaccineID, ref.Owner)
			if err != nil {
				return err
			}
			if agg == nil {
				continue
			}
			if err := u.syncAggregateMeta(lotRepo, aggRepo, agg, now); err != nil {
				return err
			}
		}
		touched = len(refs)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return touched, nil
}

// ListStock líneas de stock agregado del dueño (lectura fuera de transacción).
func (u *UseCase) ListStock(owner entity.Owner) ([]*entity.AggregateStock, error) {
	if !owner.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return u.aggRepo.ListByOwner(owner)
}

// syncAggregateMeta recomputa vencimiento más próximo y bandera de lote
// vencido desde los lotes vigentes y persiste el agregado. La cantidad ya
// viene ajustada por el caller (aritmética de caché, no recomputación).
func (u *UseCase) syncAggregateMeta(
	lotRepo repository.StockLotRepository,
	aggRepo repository.AggregateStockRepository,
	agg *entity.AggregateStock,
	now time.Time,
) error {
	lots, err := lotRepo.ListActive(agg.VaccineID, agg.Owner)
	if err != nil {
		return err
	}
	agg.NearestExpiration = nil
	agg.HasExpiredLot = false
	for _, lot := range lots {
		if agg.NearestExpiration == nil || lot.Expiration.Before(*agg.NearestExpiration) {
			exp := lot.Expiration
			agg.NearestExpiration = &exp
		}
		if lot.Status == entity.LotStatusExpired {
			agg.HasExpiredLot = true
		}
	}
	agg.UpdatedAt = now
	return aggRepo.Upsert(agg)
}
