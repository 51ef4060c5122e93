package notify

import (
	"github.com/tu-usuario/vaxtrack/internal/domain"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
	"github.com/tu-usuario/vaxtrack/internal/domain/repository"
)

// StockRecipientResolver destinatarios de un lote según el nivel del dueño:
//   - HEALTHCENTER: todo el personal activo del centro.
//   - DISTRICT: administradores del propio distrito más el personal ADMIN de
//     los centros del distrito.
//   - REGIONAL: administradores de la región.
//   - NATIONAL: administradores del nivel nacional.
type StockRecipientResolver struct {
	lotRepo   repository.StockLotRepository
	staffRepo repository.StaffRepository
}

// NewStockRecipientResolver construye el resolutor de stock.
func NewStockRecipientResolver(lotRepo repository.StockLotRepository, staffRepo repository.StaffRepository) *StockRecipientResolver {
	return &StockRecipientResolver{lotRepo: lotRepo, staffRepo: staffRepo}
}

// Resolve relee el lote y consulta las cuentas según el nivel del dueño.
// Deduplica por dirección de contacto antes de devolver.
func (r *StockRecipientResolver) Resolve(subject Subject) ([]Recipient, error) {
	lot, err := r.lotRepo.GetByID(subject.ID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.ErrNotFound
	}

	var accounts []*entity.StaffAccount
	switch lot.Owner.Tier {
	case entity.TierHealthCenter:
		accounts, err = r.staffRepo.ListActiveByCenter(lot.Owner.ID)
	case entity.TierDistrict:
		var admins, centerAdmins []*entity.StaffAccount
		admins, err = r.staffRepo.ListAdminsByOwner(lot.Owner)
		if err == nil {
			centerAdmins, err = r.staffRepo.ListDistrictAdminStaff(lot.Owner.ID)
			accounts = append(admins, centerAdmins...)
		}
	case entity.TierRegional:
		accounts, err = r.staffRepo.ListAdminsByOwner(lot.Owner)
	case entity.TierNational:
		accounts, err = r.staffRepo.ListAdminsByOwner(entity.NationalOwner())
	default:
		return nil, domain.ErrInvalidInput
	}
	if err != nil {
		return nil, err
	}

	recipients := make([]Recipient, 0, len(accounts))
	for _, acc := range accounts {
		recipients = append(recipients, Recipient{ID: acc.ID, Name: acc.Name, Email: acc.Email})
	}
	return dedupeByEmail(recipients), nil
}

// AppointmentRecipientResolver el destinatario de una cita es el único
// contacto del acudiente asociado al sujeto.
type AppointmentRecipientResolver struct {
	apptRepo repository.AppointmentRepository
}

// NewAppointmentRecipientResolver construye el resolutor de citas.
func NewAppointmentRecipientResolver(apptRepo repository.AppointmentRepository) *AppointmentRecipientResolver {
	return &AppointmentRecipientResolver{apptRepo: apptRepo}
}

// Resolve devuelve el contacto del acudiente. La identidad del destinatario
// es su dirección de contacto (los acudientes no tienen cuenta propia).
func (r *AppointmentRecipientResolver) Resolve(subject Subject) ([]Recipient, error) {
	appt, err := r.apptRepo.GetByID(subject.ID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, domain.ErrNotFound
	}
	if appt.GuardianEmail == "" {
		return nil, nil
	}
	return []Recipient{{
		ID:    appt.GuardianEmail,
		Name:  appt.GuardianName,
		Email: appt.GuardianEmail,
	}}, nil
}

// dedupeByEmail conserva la primera aparición de cada dirección.
func dedupeByEmail(recipients []Recipient) []Recipient {
	seen := make(map[string]struct{}, len(recipients))
	out := recipients[:0]
	for _, r := range recipients {
		if _, ok := seen[r.Email]; ok {
			continue
		}
		seen[r.Email] = struct{}{}
		out = append(out, r)
	}
	return out
}

var _ RecipientResolver = (*StockRecipientResolver)(nil)
var _ RecipientResolver = (*AppointmentRecipientResolver)(nil)
