package memory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
	"github.com/tu-usuario/vaxtrack/internal/domain/repository"
)

// Verificación de interfaces.
var _ repository.StockLotRepository = (*StockLotRepository)(nil)
var _ repository.AggregateStockRepository = (*AggregateStockRepository)(nil)
var _ repository.TransferRepository = (*TransferRepository)(nil)
var _ repository.TransferHistoryRepository = (*TransferHistoryRepository)(nil)
var _ repository.NotificationRecordRepository = (*NotificationRecordRepository)(nil)
var _ repository.AppointmentRepository = (*AppointmentRepository)(nil)
var _ repository.StaffRepository = (*StaffRepository)(nil)
var _ repository.VaccineRepository = (*VaccineRepository)(nil)

// ── StockLotRepository ───────────────────────────────────────────────────────

// StockLotRepository lotes en memoria.
type StockLotRepository struct{ s *Store }

// NewStockLotRepository construye el repositorio sobre el almacén.
func NewStockLotRepository(s *Store) *StockLotRepository { return &StockLotRepository{s: s} }

func (r *StockLotRepository) Create(lot *entity.StockLot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *lot
	r.s.lots[lot.ID] = &c
	return nil
}

func (r *StockLotRepository) GetByID(id string) (*entity.StockLot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lot, ok := r.s.lots[id]
	if !ok {
		return nil, nil
	}
	c := *lot
	return &c, nil
}

func (r *StockLotRepository) ListForConsumptionForUpdate(vaccineID string, owner entity.Owner) ([]*entity.StockLot, error) {
	return r.listActive(vaccineID, owner)
}

func (r *StockLotRepository) ListActive(vaccineID string, owner entity.Owner) ([]*entity.StockLot, error) {
	return r.listActive(vaccineID, owner)
}

func (r *StockLotRepository) listActive(vaccineID string, owner entity.Owner) ([]*entity.StockLot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var lots []*entity.StockLot
	for _, lot := range r.s.lots {
		if lot.VaccineID == vaccineID && lot.Owner.Equal(owner) && lot.Available() {
			c := *lot
			lots = append(lots, &c)
		}
	}
	sortByExpiration(lots)
	return lots, nil
}

func (r *StockLotRepository) ListWithRemaining() ([]*entity.StockLot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var lots []*entity.StockLot
	for _, lot := range r.s.lots {
		if lot.Available() {
			c := *lot
			lots = append(lots, &c)
		}
	}
	sortByExpiration(lots)
	return lots, nil
}

func (r *StockLotRepository) ListLineage(rootID string) ([]*entity.StockLot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	root, ok := r.s.lots[rootID]
	if !ok {
		return nil, nil
	}
	c := *root
	result := []*entity.StockLot{&c}
	frontier := map[string]struct{}{rootID: {}}
	for len(frontier) > 0 {
		next := make(map[string]struct{})
		for _, lot := range r.s.lots {
			if lot.SourceLotID == nil {
				continue
			}
			if _, ok := frontier[*lot.SourceLotID]; ok {
				cl := *lot
				result = append(result, &cl)
				next[lot.ID] = struct{}{}
			}
		}
		frontier = next
	}
	return result, nil
}

func (r *StockLotRepository) UpdateRemaining(id string, remaining decimal.Decimal, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lot, ok := r.s.lots[id]
	if !ok {
		return nil
	}
	lot.RemainingQuantity = remaining
	lot.UpdatedAt = updatedAt
	return nil
}

func (r *StockLotRepository) DeleteByIDs(ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		delete(r.s.lots, id)
	}
	return nil
}

func (r *StockLotRepository) MarkExpired(now time.Time) ([]entity.StockRef, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[entity.StockRef]struct{})
	var refs []entity.StockRef
	for _, lot := range r.s.lots {
		if lot.Status == entity.LotStatusValid && lot.Expiration.Before(now) {
			lot.Status = entity.LotStatusExpired
			lot.UpdatedAt = now
			ref := entity.StockRef{VaccineID: lot.VaccineID, Owner: lot.Owner}
			if _, ok := seen[ref]; !ok {
				seen[ref] = struct{}{}
				refs = append(refs, ref)
			}
		}
	}
	return refs, nil
}

func sortByExpiration(lots []*entity.StockLot) {
	sort.SliceStable(lots, func(i, j int) bool {
		if lots[i].Expiration.Equal(lots[j].Expiration) {
			return lots[i].ID < lots[j].ID
		}
		return lots[i].Expiration.Before(lots[j].Expiration)
	})
}

// ── AggregateStockRepository ─────────────────────────────────────────────────

// AggregateStockRepository agregados en memoria.
type AggregateStockRepository struct{ s *Store }

// NewAggregateStockRepository construye el repositorio sobre el almacén.
func NewAggregateStockRepository(s *Store) *AggregateStockRepository {
	return &AggregateStockRepository{s: s}
}

func (r *AggregateStockRepository) Get(vaccineID string, owner entity.Owner) (*entity.AggregateStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	agg, ok := r.s.aggregates[aggKey{vaccineID: vaccineID, owner: owner}]
	if !ok {
		return nil, nil
	}
	c := *agg
	return &c, nil
}

func (r *AggregateStockRepository) GetForUpdate(vaccineID string, owner entity.Owner) (*entity.AggregateStock, error) {
	return r.Get(vaccineID, owner)
}

func (r *AggregateStockRepository) Upsert(agg *entity.AggregateStock) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *agg
	r.s.aggregates[aggKey{vaccineID: agg.VaccineID, owner: agg.Owner}] = &c
	return nil
}

func (r *AggregateStockRepository) ListByOwner(owner entity.Owner) ([]*entity.AggregateStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var aggs []*entity.AggregateStock
	for _, agg := range r.s.aggregates {
		if agg.Owner.Equal(owner) {
			c := *agg
			aggs = append(aggs, &c)
		}
	}
	sort.Slice(aggs, func(i, j int) bool { return aggs[i].VaccineID < aggs[j].VaccineID })
	return aggs, nil
}

// ── TransferRepository ───────────────────────────────────────────────────────

// TransferRepository traslados en memoria.
type TransferRepository struct{ s *Store }

// NewTransferRepository construye el repositorio sobre el almacén.
func NewTransferRepository(s *Store) *TransferRepository { return &TransferRepository{s: s} }

func (r *TransferRepository) Create(transfer *entity.PendingStockTransfer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *transfer
	c.Allocations = append([]entity.TransferAllocation(nil), transfer.Allocations...)
	r.s.transfers[transfer.ID] = &c
	return nil
}

func (r *TransferRepository) GetByID(id string) (*entity.PendingStockTransfer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.transfers[id]
	if !ok {
		return nil, nil
	}
	c := *t
	c.Allocations = append([]entity.TransferAllocation(nil), t.Allocations...)
	return &c, nil
}

func (r *TransferRepository) GetByIDForUpdate(id string) (*entity.PendingStockTransfer, error) {
	return r.GetByID(id)
}

func (r *TransferRepository) UpdateStatus(id, status string, confirmedAt *time.Time, confirmedByID string, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.transfers[id]
	if !ok {
		return nil
	}
	t.Status = status
	t.ConfirmedAt = confirmedAt
	t.ConfirmedByID = confirmedByID
	t.UpdatedAt = updatedAt
	return nil
}

func (r *TransferRepository) ListPendingTo(owner entity.Owner) ([]*entity.PendingStockTransfer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var transfers []*entity.PendingStockTransfer
	for _, t := range r.s.transfers {
		if t.Status == entity.TransferStatusPending && t.To.Equal(owner) {
			c := *t
			c.Allocations = append([]entity.TransferAllocation(nil), t.Allocations...)
			transfers = append(transfers, &c)
		}
	}
	sort.Slice(transfers, func(i, j int) bool { return transfers[i].CreatedAt.Before(transfers[j].CreatedAt) })
	return transfers, nil
}

// ── TransferHistoryRepository ────────────────────────────────────────────────

// TransferHistoryRepository historial en memoria.
type TransferHistoryRepository struct{ s *Store }

// NewTransferHistoryRepository construye el repositorio sobre el almacén.
func NewTransferHistoryRepository(s *Store) *TransferHistoryRepository {
	return &TransferHistoryRepository{s: s}
}

func (r *TransferHistoryRepository) Create(h *entity.TransferHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *h
	c.Allocations = append([]entity.TransferAllocation(nil), h.Allocations...)
	r.s.history = append(r.s.history, &c)
	return nil
}

// History copia del historial acumulado (solo tests).
func (r *TransferHistoryRepository) History() []*entity.TransferHistory {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]*entity.TransferHistory(nil), r.s.history...)
}

// ── NotificationRecordRepository ─────────────────────────────────────────────

// NotificationRecordRepository libro de notificaciones en memoria.
type NotificationRecordRepository struct{ s *Store }

// NewNotificationRecordRepository construye el repositorio sobre el almacén.
func NewNotificationRecordRepository(s *Store) *NotificationRecordRepository {
	return &NotificationRecordRepository{s: s}
}

func (r *NotificationRecordRepository) Exists(subjectID, recipientID, thresholdLabel string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.records[recordKey{subjectID: subjectID, recipientID: recipientID, label: thresholdLabel}]
	return ok, nil
}

func (r *NotificationRecordRepository) Create(rec *entity.NotificationRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := recordKey{subjectID: rec.SubjectID, recipientID: rec.RecipientID, label: rec.ThresholdLabel}
	if _, ok := r.s.records[key]; ok {
		// misma semántica que ON CONFLICT DO NOTHING
		return nil
	}
	c := *rec
	r.s.records[key] = &c
	return nil
}

// Count número de registros (solo tests).
func (r *NotificationRecordRepository) Count() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.records)
}

// ── AppointmentRepository ────────────────────────────────────────────────────

// AppointmentRepository citas en memoria.
type AppointmentRepository struct{ s *Store }

// NewAppointmentRepository construye el repositorio sobre el almacén.
func NewAppointmentRepository(s *Store) *AppointmentRepository { return &AppointmentRepository{s: s} }

func (r *AppointmentRepository) GetByID(id string) (*entity.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (r *AppointmentRepository) ListScheduled() ([]*entity.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var appointments []*entity.Appointment
	for _, a := range r.s.appointments {
		if a.Status == entity.AppointmentStatusScheduled {
			c := *a
			appointments = append(appointments, &c)
		}
	}
	sort.Slice(appointments, func(i, j int) bool {
		return appointments[i].ScheduledAt.Before(appointments[j].ScheduledAt)
	})
	return appointments, nil
}

// ── StaffRepository ──────────────────────────────────────────────────────────

// StaffRepository cuentas del personal en memoria.
type StaffRepository struct{ s *Store }

// NewStaffRepository construye el repositorio sobre el almacén.
func NewStaffRepository(s *Store) *StaffRepository { return &StaffRepository{s: s} }

func (r *StaffRepository) ListActiveByCenter(healthCenterID string) ([]*entity.StaffAccount, error) {
	return r.filter(func(acc *entity.StaffAccount) bool {
		return acc.Active && acc.Owner.Tier == entity.TierHealthCenter && acc.Owner.ID == healthCenterID
	})
}

func (r *StaffRepository) ListDistrictAdminStaff(districtID string) ([]*entity.StaffAccount, error) {
	r.s.mu.Lock()
	centers := make(map[string]struct{})
	for centerID, dID := range r.s.centerDistrict {
		if dID == districtID {
			centers[centerID] = struct{}{}
		}
	}
	r.s.mu.Unlock()
	return r.filter(func(acc *entity.StaffAccount) bool {
		if !acc.Active || acc.Role != entity.StaffRoleAdmin || acc.Owner.Tier != entity.TierHealthCenter {
			return false
		}
		_, ok := centers[acc.Owner.ID]
		return ok
	})
}

func (r *StaffRepository) ListAdminsByOwner(owner entity.Owner) ([]*entity.StaffAccount, error) {
	return r.filter(func(acc *entity.StaffAccount) bool {
		return acc.Active && acc.Role == entity.StaffRoleAdmin && acc.Owner.Equal(owner)
	})
}

func (r *StaffRepository) filter(keep func(*entity.StaffAccount) bool) ([]*entity.StaffAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var accounts []*entity.StaffAccount
	for _, acc := range r.s.staff {
		if keep(acc) {
			c := *acc
			accounts = append(accounts, &c)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Email < accounts[j].Email })
	return accounts, nil
}

// ── VaccineRepository ────────────────────────────────────────────────────────

// VaccineRepository catálogo en memoria.
type VaccineRepository struct{ s *Store }

// NewVaccineRepository construye el repositorio sobre el almacén.
func NewVaccineRepository(s *Store) *VaccineRepository { return &VaccineRepository{s: s} }

func (r *VaccineRepository) GetByID(id string) (*entity.Vaccine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vaccines[id]
	if !ok {
		return nil, nil
	}
	c := *v
	return &c, nil
}

func (r *VaccineRepository) List() ([]*entity.Vaccine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var vaccines []*entity.Vaccine
	for _, v := range r.s.vaccines {
		c := *v
		vaccines = append(vaccines, &c)
	}
	sort.Slice(vaccines, func(i, j int) bool { return vaccines[i].Name < vaccines[j].Name })
	return vaccines, nil
}
