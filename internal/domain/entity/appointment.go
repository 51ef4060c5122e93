package entity

import "time"

// Estados de una cita de vacunación.
const (
	AppointmentStatusScheduled = "SCHEDULED"
	AppointmentStatusCompleted = "COMPLETED"
	AppointmentStatusCancelled = "CANCELLED"
)

// Appointment cita de vacunación en un centro de salud. El recordatorio se
// envía al contacto del acudiente (GuardianEmail), único destinatario.
type Appointment struct {
	ID             string
	HealthCenterID string
	VaccineID      string
	PatientName    string
	GuardianName   string
	GuardianEmail  string
	ScheduledAt    time.Time
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
