package transfer_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/vaxtrack/internal/application/ledger"
	"github.com/tu-usuario/vaxtrack/internal/application/transfer"
	"github.com/tu-usuario/vaxtrack/internal/domain"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
	"github.com/tu-usuario/vaxtrack/internal/infrastructure/memory"
)

var (
	testNow  = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	region   = entity.Owner{Tier: entity.TierRegional, ID: "r-1"}
	district = entity.Owner{Tier: entity.TierDistrict, ID: "d-1"}
	center   = entity.Owner{Tier: entity.TierHealthCenter, ID: "hc-1"}
)

type fixture struct {
	store      *memory.Store
	ledgerUC   *ledger.UseCase
	transferUC *transfer.UseCase
	history    *memory.TransferHistoryRepository
}

// newFixture arma el coordinador sobre el store en memoria con la vacuna
// vac-1, el agregado destino sembrado (vacío) y el reloj congelado.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddVaccine(entity.Vaccine{ID: "vac-1", Name: "Pentavalente", Disease: "DTP-HB-Hib"})

	txRunner := memory.NewTxRunner(store)
	aggRepo := memory.NewAggregateStockRepository(store)
	ledgerUC := ledger.NewUseCase(txRunner, memory.NewVaccineRepository(store), aggRepo).
		WithClock(func() time.Time { return testNow })
	transferUC := transfer.NewUseCase(txRunner, ledgerUC, memory.NewTransferRepository(store)).
		WithClock(func() time.Time { return testNow })

	// Las líneas agregadas destino deben existir antes de trasladar.
	for _, owner := range []entity.Owner{district, center} {
		require.NoError(t, aggRepo.Upsert(&entity.AggregateStock{
			VaccineID: "vac-1", Owner: owner, Quantity: decimal.Zero,
		}))
	}

	return &fixture{
		store:      store,
		ledgerUC:   ledgerUC,
		transferUC: transferUC,
		history:    memory.NewTransferHistoryRepository(store),
	}
}

func (f *fixture) seedLot(t *testing.T, owner entity.Owner, qty int64, expiration time.Time) *entity.StockLot {
	t.Helper()
	lot, err := f.ledgerUC.CreateLot(context.Background(), ledger.CreateLotInput{
		VaccineID:  "vac-1",
		Owner:      owner,
		Quantity:   decimal.NewFromInt(qty),
		Expiration: expiration,
	})
	require.NoError(t, err)
	return lot
}

func (f *fixture) quantityOf(t *testing.T, owner entity.Owner) decimal.Decimal {
	t.Helper()
	agg, err := memory.NewAggregateStockRepository(f.store).Get("vac-1", owner)
	require.NoError(t, err)
	require.NotNil(t, agg)
	return agg.Quantity
}

func (f *fixture) initiate(t *testing.T, from, to entity.Owner, qty int64) *entity.PendingStockTransfer {
	t.Helper()
	tr, err := f.transferUC.Initiate(context.Background(), transfer.InitiateInput{
		From: from, To: to, VaccineID: "vac-1", Quantity: decimal.NewFromInt(qty),
	})
	require.NoError(t, err)
	return tr
}

// ──────────────────────────────────────────────────────────────────────────────
// Initiate (fase 1)
// ──────────────────────────────────────────────────────────────────────────────

func TestInitiate_DebitaOrigenSinAcreditarDestino(t *testing.T) {
	f := newFixture(t)
	lot := f.seedLot(t, region, 100, testNow.AddDate(0, 6, 0))

	tr := f.initiate(t, region, district, 30)

	assert.Equal(t, entity.TransferStatusPending, tr.Status)
	require.Len(t, tr.Allocations, 1)
	assert.Equal(t, lot.ID, tr.Allocations[0].SourceLotID)
	assert.True(t, tr.Allocations[0].Quantity.Equal(decimal.NewFromInt(30)))
	assert.True(t, tr.Allocations[0].SnapshotExpiration.Equal(lot.Expiration),
		"la línea fotografía el vencimiento del lote drenado")

	assert.True(t, f.quantityOf(t, region).Equal(decimal.NewFromInt(70)),
		"el origen queda debitado de inmediato")
	assert.True(t, f.quantityOf(t, district).Equal(decimal.Zero),
		"el destino no se acredita hasta confirmar: la cantidad está en vuelo")
}

func TestInitiate_NivelesNoAdyacentes(t *testing.T) {
	f := newFixture(t)
	f.seedLot(t, region, 100, testNow.AddDate(0, 6, 0))

	_, err := f.transferUC.Initiate(context.Background(), transfer.InitiateInput{
		From: region, To: center, VaccineID: "vac-1", Quantity: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput,
		"REGIONAL y HEALTHCENTER no son adyacentes en la jerarquía")
}

func TestInitiate_DestinoSinLineaAgregada(t *testing.T) {
	f := newFixture(t)
	f.seedLot(t, district, 50, testNow.AddDate(0, 6, 0))
	before := f.quantityOf(t, district)

	otherCenter := entity.Owner{Tier: entity.TierHealthCenter, ID: "hc-nuevo"}
	_, err := f.transferUC.Initiate(context.Background(), transfer.InitiateInput{
		From: district, To: otherCenter, VaccineID: "vac-1", Quantity: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, f.quantityOf(t, district).Equal(before), "el fallo no debita el origen")
}

func TestInitiate_StockInsuficienteSinEfecto(t *testing.T) {
	f := newFixture(t)
	f.seedLot(t, region, 20, testNow.AddDate(0, 6, 0))

	_, err := f.transferUC.Initiate(context.Background(), transfer.InitiateInput{
		From: region, To: district, VaccineID: "vac-1", Quantity: decimal.NewFromInt(21),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, f.quantityOf(t, region).Equal(decimal.NewFromInt(20)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Confirm (fase 2)
// ──────────────────────────────────────────────────────────────────────────────

func TestConfirm_AcreditaDestinoConLinaje(t *testing.T) {
	f := newFixture(t)
	lot := f.seedLot(t, region, 100, testNow.AddDate(0, 6, 0))
	tr := f.initiate(t, region, district, 30)

	confirmed, err := f.transferUC.Confirm(context.Background(), tr.ID, district, "user-7")
	require.NoError(t, err)

	assert.Equal(t, entity.TransferStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)
	assert.Equal(t, "user-7", confirmed.ConfirmedByID)

	assert.True(t, f.quantityOf(t, district).Equal(decimal.NewFromInt(30)),
		"el destino se acredita al confirmar")
	assert.True(t, f.quantityOf(t, region).Equal(decimal.NewFromInt(70)))

	// El lote acuñado en el destino referencia al lote origen y conserva su vencimiento.
	lots, err := memory.NewStockLotRepository(f.store).ListActive("vac-1", district)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	require.NotNil(t, lots[0].SourceLotID)
	assert.Equal(t, lot.ID, *lots[0].SourceLotID)
	assert.True(t, lots[0].Expiration.Equal(lot.Expiration))

	// Historial inmutable escrito en la misma transacción.
	history := f.history.History()
	require.Len(t, history, 1)
	assert.Equal(t, tr.ID, history[0].TransferID)
	assert.True(t, history[0].Quantity.Equal(decimal.NewFromInt(30)))
}

func TestConfirm_SoloElDestino(t *testing.T) {
	f := newFixture(t)
	f.seedLot(t, region, 100, testNow.AddDate(0, 6, 0))
	tr := f.initiate(t, region, district, 30)

	_, err := f.transferUC.Confirm(context.Background(), tr.ID, region, "user-1")
	assert.ErrorIs(t, err, domain.ErrForbidden, "el origen no puede confirmar su propio envío")

	assert.True(t, f.quantityOf(t, district).Equal(decimal.Zero),
		"el intento prohibido no acredita nada")
}

func TestConfirm_SegundaTransicionEsConflicto(t *testing.T) {
	f := newFixture(t)
	f.seedLot(t, region, 100, testNow.AddDate(0, 6, 0))
	tr := f.initiate(t, region, district, 30)

	_, err := f.transferUC.Confirm(context.Background(), tr.ID, district, "user-7")
	require.NoError(t, err)

	_, err = f.transferUC.Confirm(context.Background(), tr.ID, district, "user-7")
	assert.ErrorIs(t, err, domain.ErrConflict, "un traslado fuera de PENDING es inmutable")
	assert.True(t, f.quantityOf(t, district).Equal(decimal.NewFromInt(30)),
		"la doble confirmación no duplica el crédito")
}

// ──────────────────────────────────────────────────────────────────────────────
// Reject / Cancel (compensación)
// ──────────────────────────────────────────────────────────────────────────────

func TestReject_DevuelveAlOrigenConLotesCompensatorios(t *testing.T) {
	f := newFixture(t)
	lot := f.seedLot(t, region, 100, testNow.AddDate(0, 6, 0))
	tr := f.initiate(t, region, district, 30)

	rejected, err := f.transferUC.Reject(context.Background(), tr.ID, district)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusRejected, rejected.Status)

	assert.True(t, f.quantityOf(t, region).Equal(decimal.NewFromInt(100)),
		"la cantidad en vuelo vuelve al origen")
	assert.True(t, f.quantityOf(t, district).Equal(decimal.Zero))

	// La devolución acuña un lote nuevo; el histórico drenado no se retoca.
	lots, err := memory.NewStockLotRepository(f.store).ListActive("vac-1", region)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	original, err := memory.NewStockLotRepository(f.store).GetByID(lot.ID)
	require.NoError(t, err)
	assert.True(t, original.RemainingQuantity.Equal(decimal.NewFromInt(70)),
		"el lote original conserva el débito de la fase 1")
}

func TestReject_SoloElDestino(t *testing.T) {
	f := newFixture(t)
	f.seedLot(t, region, 100, testNow.AddDate(0, 6, 0))
	tr := f.initiate(t, region, district, 30)

	_, err := f.transferUC.Reject(context.Background(), tr.ID, region)
	assert.ErrorIs(t, err, domain.ErrForbidden, "rechazar es del destino; el origen cancela")
}

func TestCancel_SoloElOrigen(t *testing.T) {
	f := newFixture(t)
	f.seedLot(t, region, 100, testNow.AddDate(0, 6, 0))
	tr := f.initiate(t, region, district, 30)

	_, err := f.transferUC.Cancel(context.Background(), tr.ID, district)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	cancelled, err := f.transferUC.Cancel(context.Background(), tr.ID, region)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCancelled, cancelled.Status)
	assert.True(t, f.quantityOf(t, region).Equal(decimal.NewFromInt(100)))
}

func TestCancel_DespuesDeConfirmarEsConflicto(t *testing.T) {
	f := newFixture(t)
	f.seedLot(t, region, 100, testNow.AddDate(0, 6, 0))
	tr := f.initiate(t, region, district, 30)

	_, err := f.transferUC.Confirm(context.Background(), tr.ID, district, "user-7")
	require.NoError(t, err)

	_, err = f.transferUC.Cancel(context.Background(), tr.ID, region)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ──────────────────────────────────────────────────────────────────────────────
// ListInbox
// ──────────────────────────────────────────────────────────────────────────────

func TestListInbox_SoloPendientesDelDestino(t *testing.T) {
	f := newFixture(t)
	f.seedLot(t, region, 100, testNow.AddDate(0, 6, 0))
	pending := f.initiate(t, region, district, 10)
	confirmedTr := f.initiate(t, region, district, 5)
	_, err := f.transferUC.Confirm(context.Background(), confirmedTr.ID, district, "user-7")
	require.NoError(t, err)

	inbox, err := f.transferUC.ListInbox(district)
	require.NoError(t, err)
	require.Len(t, inbox, 1, "los confirmados salen de la bandeja")
	assert.Equal(t, pending.ID, inbox[0].ID)

	empty, err := f.transferUC.ListInbox(region)
	require.NoError(t, err)
	assert.Empty(t, empty, "el origen no tiene nada por confirmar")
}
