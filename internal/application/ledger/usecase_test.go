package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/vaxtrack/internal/application/ledger"
	"github.com/tu-usuario/vaxtrack/internal/domain"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
	"github.com/tu-usuario/vaxtrack/internal/infrastructure/memory"
)

var (
	testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hc1     = entity.Owner{Tier: entity.TierHealthCenter, ID: "hc-1"}
)

// newFixture arma el caso de uso sobre el store en memoria con la vacuna
// vac-1 dada de alta y el reloj congelado en testNow.
func newFixture(t *testing.T) (*ledger.UseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.AddVaccine(entity.Vaccine{ID: "vac-1", Name: "Pentavalente", Disease: "DTP-HB-Hib"})

	uc := ledger.NewUseCase(
		memory.NewTxRunner(store),
		memory.NewVaccineRepository(store),
		memory.NewAggregateStockRepository(store),
	).WithClock(func() time.Time { return testNow })
	return uc, store
}

func mustCreateLot(t *testing.T, uc *ledger.UseCase, owner entity.Owner, qty int64, expiration time.Time) *entity.StockLot {
	t.Helper()
	lot, err := uc.CreateLot(context.Background(), ledger.CreateLotInput{
		VaccineID:  "vac-1",
		Owner:      owner,
		Quantity:   decimal.NewFromInt(qty),
		Expiration: expiration,
	})
	require.NoError(t, err, "el alta del lote no debe fallar")
	return lot
}

func aggregateOf(t *testing.T, store *memory.Store, owner entity.Owner) *entity.AggregateStock {
	t.Helper()
	agg, err := memory.NewAggregateStockRepository(store).Get("vac-1", owner)
	require.NoError(t, err)
	return agg
}

// ──────────────────────────────────────────────────────────────────────────────
// CreateLot
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateLot_AltaYAgregado(t *testing.T) {
	uc, store := newFixture(t)

	lot := mustCreateLot(t, uc, hc1, 100, testNow.AddDate(0, 6, 0))

	assert.NotEmpty(t, lot.ID)
	assert.Equal(t, entity.LotStatusValid, lot.Status, "vencimiento futuro: el lote entra VALID")
	assert.True(t, lot.RemainingQuantity.Equal(lot.Quantity), "el lote entra sin consumir")

	agg := aggregateOf(t, store, hc1)
	require.NotNil(t, agg, "el alta debe crear la línea agregada si no existía")
	assert.True(t, agg.Quantity.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, agg.NearestExpiration)
	assert.True(t, agg.NearestExpiration.Equal(lot.Expiration))
	assert.False(t, agg.HasExpiredLot)
}

func TestCreateLot_VencimientoPasadoEntraExpired(t *testing.T) {
	uc, store := newFixture(t)

	lot := mustCreateLot(t, uc, hc1, 10, testNow.AddDate(0, -1, 0))

	assert.Equal(t, entity.LotStatusExpired, lot.Status)
	agg := aggregateOf(t, store, hc1)
	require.NotNil(t, agg)
	assert.True(t, agg.HasExpiredLot, "el agregado debe marcar que hay lote vencido")
	assert.True(t, agg.Quantity.Equal(decimal.NewFromInt(10)),
		"el lote vencido sigue contando en el agregado hasta que se descarte")
}

func TestCreateLot_Validaciones(t *testing.T) {
	uc, _ := newFixture(t)
	ctx := context.Background()

	_, err := uc.CreateLot(ctx, ledger.CreateLotInput{
		VaccineID: "vac-1", Owner: hc1, Quantity: decimal.Zero, Expiration: testNow.AddDate(0, 1, 0),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad cero no es un alta válida")

	_, err = uc.CreateLot(ctx, ledger.CreateLotInput{
		VaccineID: "vac-1", Owner: entity.Owner{Tier: "BODEGA"}, Quantity: decimal.NewFromInt(5), Expiration: testNow.AddDate(0, 1, 0),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "nivel desconocido")

	_, err = uc.CreateLot(ctx, ledger.CreateLotInput{
		VaccineID: "no-existe", Owner: hc1, Quantity: decimal.NewFromInt(5), Expiration: testNow.AddDate(0, 1, 0),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound, "la vacuna debe existir")
}

// ──────────────────────────────────────────────────────────────────────────────
// ConsumeLots
// ──────────────────────────────────────────────────────────────────────────────

func TestConsumeLots_VencePrimeroYAgregado(t *testing.T) {
	uc, store := newFixture(t)
	early := mustCreateLot(t, uc, hc1, 5, testNow.AddDate(0, 1, 0))
	late := mustCreateLot(t, uc, hc1, 10, testNow.AddDate(0, 3, 0))

	consumed, err := uc.ConsumeLots(context.Background(), "vac-1", hc1, decimal.NewFromInt(8))
	require.NoError(t, err)
	require.Len(t, consumed, 2)

	assert.Equal(t, early.ID, consumed[0].LotID, "el de vencimiento más próximo se drena primero")
	assert.True(t, consumed[0].QuantityTaken.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, late.ID, consumed[1].LotID)
	assert.True(t, consumed[1].QuantityTaken.Equal(decimal.NewFromInt(3)))

	agg := aggregateOf(t, store, hc1)
	assert.True(t, agg.Quantity.Equal(decimal.NewFromInt(7)), "15 - 8 = 7")
	require.NotNil(t, agg.NearestExpiration)
	assert.True(t, agg.NearestExpiration.Equal(late.Expiration),
		"con el lote temprano drenado, el vencimiento más próximo pasa al siguiente")
}

func TestConsumeLots_InsuficienteTodoONada(t *testing.T) {
	uc, store := newFixture(t)
	mustCreateLot(t, uc, hc1, 5, testNow.AddDate(0, 1, 0))

	_, err := uc.ConsumeLots(context.Background(), "vac-1", hc1, decimal.NewFromInt(6))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	agg := aggregateOf(t, store, hc1)
	assert.True(t, agg.Quantity.Equal(decimal.NewFromInt(5)),
		"el consumo fallido no debe dejar decremento parcial")
}

func TestConsumeLots_ParejaInexistente(t *testing.T) {
	uc, _ := newFixture(t)

	_, err := uc.ConsumeLots(context.Background(), "vac-1", hc1, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrNotFound, "sin línea agregada no hay nada que consumir")
}

// ──────────────────────────────────────────────────────────────────────────────
// DeleteLotCascade
// ──────────────────────────────────────────────────────────────────────────────

func TestDeleteLotCascade_BorraLinajeCompleto(t *testing.T) {
	uc, store := newFixture(t)
	root := mustCreateLot(t, uc, hc1, 50, testNow.AddDate(0, 6, 0))

	// Lotes derivados en otro dueño, como los que acuña un traslado confirmado.
	district := entity.Owner{Tier: entity.TierDistrict, ID: "d-1"}
	child, err := uc.CreateLot(context.Background(), ledger.CreateLotInput{
		VaccineID:   "vac-1",
		Owner:       district,
		Quantity:    decimal.NewFromInt(20),
		Expiration:  root.Expiration,
		SourceLotID: &root.ID,
	})
	require.NoError(t, err)
	grandchild, err := uc.CreateLot(context.Background(), ledger.CreateLotInput{
		VaccineID:   "vac-1",
		Owner:       hc1,
		Quantity:    decimal.NewFromInt(5),
		Expiration:  root.Expiration,
		SourceLotID: &child.ID,
	})
	require.NoError(t, err)

	deleted, err := uc.DeleteLotCascade(context.Background(), root.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{root.ID, child.ID, grandchild.ID}, deleted,
		"el borrado debe cubrir raíz, hijo y nieto")

	aggHC := aggregateOf(t, store, hc1)
	assert.True(t, aggHC.Quantity.Equal(decimal.Zero), "55 - 50 - 5 = 0")
	aggDistrict := aggregateOf(t, store, district)
	assert.True(t, aggDistrict.Quantity.Equal(decimal.Zero))
}

func TestDeleteLotCascade_NoExiste(t *testing.T) {
	uc, _ := newFixture(t)

	_, err := uc.DeleteLotCascade(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// ExpireDueLots
// ──────────────────────────────────────────────────────────────────────────────

func TestExpireDueLots_BarridoMarcaYRefresca(t *testing.T) {
	uc, store := newFixture(t)
	due := mustCreateLot(t, uc, hc1, 10, testNow.AddDate(0, 1, 0))
	mustCreateLot(t, uc, hc1, 10, testNow.AddDate(0, 6, 0))

	// Avanza el reloj más allá del vencimiento del primer lote.
	later := due.Expiration.AddDate(0, 0, 1)
	uc.WithClock(func() time.Time { return later })

	touched, err := uc.ExpireDueLots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, touched, "una pareja (vacuna, dueño) afectada")

	lot, err := memory.NewStockLotRepository(store).GetByID(due.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LotStatusExpired, lot.Status)

	agg := aggregateOf(t, store, hc1)
	assert.True(t, agg.HasExpiredLot)
	assert.True(t, agg.Quantity.Equal(decimal.NewFromInt(20)),
		"el barrido cambia estados, no cantidades")
}

func TestExpireDueLots_SinVencidosEsNoOp(t *testing.T) {
	uc, _ := newFixture(t)
	mustCreateLot(t, uc, hc1, 10, testNow.AddDate(0, 6, 0))

	touched, err := uc.ExpireDueLots(context.Background())
	require.NoError(t, err)
	assert.Zero(t, touched)
}
