package memory

import (
	"context"
	"sync"

	"github.com/tu-usuario/vaxtrack/internal/application/ledger"
	"github.com/tu-usuario/vaxtrack/internal/application/transfer"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
	"github.com/tu-usuario/vaxtrack/internal/domain/repository"
)

// Store almacén en memoria con todos los datos que el núcleo posee. Respaldo
// de los tests de casos de uso y del modo demo; el TxRunner en memoria
// restaura un snapshot si el callback falla, reproduciendo la semántica
// todo-o-nada de la transacción real.
type Store struct {
	mu sync.Mutex

	lots         map[string]*entity.StockLot
	aggregates   map[aggKey]*entity.AggregateStock
	transfers    map[string]*entity.PendingStockTransfer
	history      []*entity.TransferHistory
	records      map[recordKey]*entity.NotificationRecord
	appointments map[string]*entity.Appointment
	staff        []*entity.StaffAccount
	vaccines     map[string]*entity.Vaccine

	// centro de salud -> distrito (jerarquía geográfica, solo lectura aquí)
	centerDistrict map[string]string
}

type aggKey struct {
	vaccineID string
	owner     entity.Owner
}

type recordKey struct {
	subjectID   string
	recipientID string
	label       string
}

// NewStore construye el almacén vacío.
func NewStore() *Store {
	return &Store{
		lots:           make(map[string]*entity.StockLot),
		aggregates:     make(map[aggKey]*entity.AggregateStock),
		transfers:      make(map[string]*entity.PendingStockTransfer),
		records:        make(map[recordKey]*entity.NotificationRecord),
		appointments:   make(map[string]*entity.Appointment),
		vaccines:       make(map[string]*entity.Vaccine),
		centerDistrict: make(map[string]string),
	}
}

// ── Siembra (seeding) ────────────────────────────────────────────────────────

// AddVaccine registra una vacuna del catálogo.
func (s *Store) AddVaccine(v entity.Vaccine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vaccines[v.ID] = &v
}

// AddStaff registra una cuenta de personal.
func (s *Store) AddStaff(acc entity.StaffAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staff = append(s.staff, &acc)
}

// AddAppointment registra una cita.
func (s *Store) AddAppointment(a entity.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[a.ID] = &a
}

// LinkCenterToDistrict fija la pertenencia de un centro a un distrito.
func (s *Store) LinkCenterToDistrict(centerID, districtID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.centerDistrict[centerID] = districtID
}

// ── Snapshot para rollback ───────────────────────────────────────────────────

type snapshot struct {
	lots       map[string]*entity.StockLot
	aggregates map[aggKey]*entity.AggregateStock
	transfers  map[string]*entity.PendingStockTransfer
	history    []*entity.TransferHistory
}

func (s *Store) takeSnapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		lots:       make(map[string]*entity.StockLot, len(s.lots)),
		aggregates: make(map[aggKey]*entity.AggregateStock, len(s.aggregates)),
		transfers:  make(map[string]*entity.PendingStockTransfer, len(s.transfers)),
		history:    append([]*entity.TransferHistory(nil), s.history...),
	}
	for id, lot := range s.lots {
		c := *lot
		snap.lots[id] = &c
	}
	for k, agg := range s.aggregates {
		c := *agg
		snap.aggregates[k] = &c
	}
	for id, t := range s.transfers {
		c := *t
		c.Allocations = append([]entity.TransferAllocation(nil), t.Allocations...)
		snap.transfers[id] = &c
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots = snap.lots
	s.aggregates = snap.aggregates
	s.transfers = snap.transfers
	s.history = snap.history
}

// ── TxRunner ─────────────────────────────────────────────────────────────────

var _ ledger.TxRunner = (*TxRunner)(nil)
var _ transfer.TxRunner = (*TxRunner)(nil)

// TxRunner simula la transacción: snapshot antes del callback y restauración
// si falla, para que un error no deje efecto parcial observable.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn con repos del almacén; restaura el snapshot si fn falla.
func (r *TxRunner) Run(_ context.Context, fn func(
	lotRepo repository.StockLotRepository,
	aggRepo repository.AggregateStockRepository,
) error) error {
	snap := r.store.takeSnapshot()
	if err := fn(NewStockLotRepository(r.store), NewAggregateStockRepository(r.store)); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

// RunTransfer igual que Run, con los repos de traslados.
func (r *TxRunner) RunTransfer(_ context.Context, fn func(
	lotRepo repository.StockLotRepository,
	aggRepo repository.AggregateStockRepository,
	transferRepo repository.TransferRepository,
	historyRepo repository.TransferHistoryRepository,
) error) error {
	snap := r.store.takeSnapshot()
	err := fn(
		NewStockLotRepository(r.store),
		NewAggregateStockRepository(r.store),
		NewTransferRepository(r.store),
		NewTransferHistoryRepository(r.store),
	)
	if err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}
