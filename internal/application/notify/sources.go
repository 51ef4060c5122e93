package notify

import (
	"fmt"

	"github.com/tu-usuario/vaxtrack/internal/domain/repository"
)

// LotExpirationSource enumera como sujetos los lotes con cantidad restante
// (el instante objetivo es su vencimiento).
type LotExpirationSource struct {
	lotRepo     repository.StockLotRepository
	vaccineRepo repository.VaccineRepository
}

// NewLotExpirationSource construye la fuente de sujetos de vencimiento.
func NewLotExpirationSource(lotRepo repository.StockLotRepository, vaccineRepo repository.VaccineRepository) *LotExpirationSource {
	return &LotExpirationSource{lotRepo: lotRepo, vaccineRepo: vaccineRepo}
}

// ListSubjects lotes con cantidad restante > 0 y estado VALID o EXPIRED.
func (s *LotExpirationSource) ListSubjects() ([]Subject, error) {
	lots, err := s.lotRepo.ListWithRemaining()
	if err != nil {
		return nil, err
	}
	names, err := s.vaccineNames()
	if err != nil {
		return nil, err
	}
	subjects := make([]Subject, 0, len(lots))
	for _, lot := range lots {
		name := names[lot.VaccineID]
		if name == "" {
			name = lot.VaccineID
		}
		subjects = append(subjects, Subject{
			ID:       lot.ID,
			Kind:     "stock-lot",
			Title:    fmt.Sprintf("Lote de %s en %s (%s dosis)", name, lot.Owner, lot.RemainingQuantity),
			TargetAt: lot.Expiration,
		})
	}
	return subjects, nil
}

func (s *LotExpirationSource) vaccineNames() (map[string]string, error) {
	vaccines, err := s.vaccineRepo.List()
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(vaccines))
	for _, v := range vaccines {
		names[v.ID] = v.Name
	}
	return names, nil
}

// AppointmentSource enumera como sujetos las citas programadas (el instante
// objetivo es la fecha de la cita).
type AppointmentSource struct {
	apptRepo repository.AppointmentRepository
}

// NewAppointmentSource construye la fuente de sujetos de citas.
func NewAppointmentSource(apptRepo repository.AppointmentRepository) *AppointmentSource {
	return &AppointmentSource{apptRepo: apptRepo}
}

// ListSubjects citas en estado SCHEDULED.
func (s *AppointmentSource) ListSubjects() ([]Subject, error) {
	appointments, err := s.apptRepo.ListScheduled()
	if err != nil {
		return nil, err
	}
	subjects := make([]Subject, 0, len(appointments))
	for _, appt := range appointments {
		subjects = append(subjects, Subject{
			ID:       appt.ID,
			Kind:     "appointment",
			Title:    fmt.Sprintf("Cita de vacunación de %s", appt.PatientName),
			TargetAt: appt.ScheduledAt,
		})
	}
	return subjects, nil
}

var _ SubjectSource = (*LotExpirationSource)(nil)
var _ SubjectSource = (*AppointmentSource)(nil)
