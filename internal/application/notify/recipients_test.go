package notify_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/vaxtrack/internal/application/notify"
	"github.com/tu-usuario/vaxtrack/internal/domain"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
	"github.com/tu-usuario/vaxtrack/internal/infrastructure/memory"
)

func seedLotFor(t *testing.T, store *memory.Store, id string, owner entity.Owner) {
	t.Helper()
	require.NoError(t, memory.NewStockLotRepository(store).Create(&entity.StockLot{
		ID:                id,
		VaccineID:         "vac-1",
		Owner:             owner,
		Quantity:          decimal.NewFromInt(10),
		RemainingQuantity: decimal.NewFromInt(10),
		Expiration:        time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:            entity.LotStatusValid,
	}))
}

func staff(id, email, role string, owner entity.Owner) entity.StaffAccount {
	return entity.StaffAccount{ID: id, Name: id, Email: email, Role: role, Owner: owner, Active: true}
}

func stockResolver(store *memory.Store) *notify.StockRecipientResolver {
	return notify.NewStockRecipientResolver(
		memory.NewStockLotRepository(store),
		memory.NewStaffRepository(store),
	)
}

// ──────────────────────────────────────────────────────────────────────────────
// StockRecipientResolver
// ──────────────────────────────────────────────────────────────────────────────

// Lote en un centro de salud: se notifica a todo el personal activo del centro.
func TestStockResolver_CentroTodoElPersonalActivo(t *testing.T) {
	store := memory.NewStore()
	hc := entity.Owner{Tier: entity.TierHealthCenter, ID: "hc-1"}
	store.AddStaff(staff("ana", "ana@hc1.gov", entity.StaffRoleAdmin, hc))
	store.AddStaff(staff("beto", "beto@hc1.gov", entity.StaffRoleStaff, hc))
	inactive := staff("carla", "carla@hc1.gov", entity.StaffRoleStaff, hc)
	inactive.Active = false
	store.AddStaff(inactive)
	store.AddStaff(staff("ajeno", "otro@hc2.gov", entity.StaffRoleStaff, entity.Owner{Tier: entity.TierHealthCenter, ID: "hc-2"}))
	seedLotFor(t, store, "lot-1", hc)

	recipients, err := stockResolver(store).Resolve(notify.Subject{ID: "lot-1", Kind: "stock-lot"})
	require.NoError(t, err)

	emails := make([]string, 0, len(recipients))
	for _, r := range recipients {
		emails = append(emails, r.Email)
	}
	assert.ElementsMatch(t, []string{"ana@hc1.gov", "beto@hc1.gov"}, emails,
		"inactivos y personal de otros centros quedan fuera")
}

// Lote distrital: administradores del distrito más los ADMIN de sus centros.
func TestStockResolver_DistritoIncluyeAdminsDeSusCentros(t *testing.T) {
	store := memory.NewStore()
	districtOwner := entity.Owner{Tier: entity.TierDistrict, ID: "d-1"}
	hc := entity.Owner{Tier: entity.TierHealthCenter, ID: "hc-1"}
	store.LinkCenterToDistrict("hc-1", "d-1")
	store.AddStaff(staff("diana", "diana@d1.gov", entity.StaffRoleAdmin, districtOwner))
	store.AddStaff(staff("ana", "ana@hc1.gov", entity.StaffRoleAdmin, hc))
	store.AddStaff(staff("beto", "beto@hc1.gov", entity.StaffRoleStaff, hc))
	seedLotFor(t, store, "lot-1", districtOwner)

	recipients, err := stockResolver(store).Resolve(notify.Subject{ID: "lot-1", Kind: "stock-lot"})
	require.NoError(t, err)

	emails := make([]string, 0, len(recipients))
	for _, r := range recipients {
		emails = append(emails, r.Email)
	}
	assert.ElementsMatch(t, []string{"diana@d1.gov", "ana@hc1.gov"}, emails,
		"del centro solo entran los ADMIN")
}

// Lote regional y nacional: solo administradores del dueño correspondiente.
func TestStockResolver_RegionYNacionSoloAdmins(t *testing.T) {
	store := memory.NewStore()
	regionOwner := entity.Owner{Tier: entity.TierRegional, ID: "r-1"}
	store.AddStaff(staff("rosa", "rosa@r1.gov", entity.StaffRoleAdmin, regionOwner))
	store.AddStaff(staff("saul", "saul@r1.gov", entity.StaffRoleStaff, regionOwner))
	store.AddStaff(staff("nico", "nico@nacional.gov", entity.StaffRoleAdmin, entity.NationalOwner()))
	seedLotFor(t, store, "lot-r", regionOwner)
	seedLotFor(t, store, "lot-n", entity.NationalOwner())

	recipients, err := stockResolver(store).Resolve(notify.Subject{ID: "lot-r", Kind: "stock-lot"})
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, "rosa@r1.gov", recipients[0].Email, "STAFF regional no recibe el aviso")

	recipients, err = stockResolver(store).Resolve(notify.Subject{ID: "lot-n", Kind: "stock-lot"})
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, "nico@nacional.gov", recipients[0].Email)
}

func TestStockResolver_DeduplicaPorDireccion(t *testing.T) {
	store := memory.NewStore()
	hc := entity.Owner{Tier: entity.TierHealthCenter, ID: "hc-1"}
	store.AddStaff(staff("ana", "compartida@hc1.gov", entity.StaffRoleAdmin, hc))
	store.AddStaff(staff("ana-bis", "compartida@hc1.gov", entity.StaffRoleStaff, hc))
	seedLotFor(t, store, "lot-1", hc)

	recipients, err := stockResolver(store).Resolve(notify.Subject{ID: "lot-1", Kind: "stock-lot"})
	require.NoError(t, err)
	require.Len(t, recipients, 1, "una entrega por dirección aunque haya dos cuentas")
	assert.Equal(t, "compartida@hc1.gov", recipients[0].Email)
}

func TestStockResolver_LoteInexistente(t *testing.T) {
	store := memory.NewStore()

	_, err := stockResolver(store).Resolve(notify.Subject{ID: "no-existe", Kind: "stock-lot"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// AppointmentRecipientResolver
// ──────────────────────────────────────────────────────────────────────────────

func TestAppointmentResolver_ContactoDelAcudiente(t *testing.T) {
	store := memory.NewStore()
	store.AddAppointment(entity.Appointment{
		ID:             "appt-1",
		HealthCenterID: "hc-1",
		VaccineID:      "vac-1",
		PatientName:    "Luisa",
		GuardianName:   "Marta",
		GuardianEmail:  "marta@familia.com",
		ScheduledAt:    time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Status:         entity.AppointmentStatusScheduled,
	})

	resolver := notify.NewAppointmentRecipientResolver(memory.NewAppointmentRepository(store))
	recipients, err := resolver.Resolve(notify.Subject{ID: "appt-1", Kind: "appointment"})
	require.NoError(t, err)
	require.Len(t, recipients, 1)

	assert.Equal(t, "marta@familia.com", recipients[0].ID,
		"la identidad del acudiente es su dirección de contacto")
	assert.Equal(t, "Marta", recipients[0].Name)
}

func TestAppointmentResolver_SinContactoNoHayDestinatarios(t *testing.T) {
	store := memory.NewStore()
	store.AddAppointment(entity.Appointment{
		ID:          "appt-1",
		PatientName: "Luisa",
		ScheduledAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Status:      entity.AppointmentStatusScheduled,
	})

	resolver := notify.NewAppointmentRecipientResolver(memory.NewAppointmentRepository(store))
	recipients, err := resolver.Resolve(notify.Subject{ID: "appt-1", Kind: "appointment"})
	require.NoError(t, err)
	assert.Empty(t, recipients)
}
