package repository

import "github.com/tu-usuario/vaxtrack/internal/domain/entity"

// AppointmentRepository define el puerto de lectura de citas de vacunación.
// El alta y gestión de citas vive en otro subsistema; el motor de
// recordatorios solo enumera y relee por ID.
type AppointmentRepository interface {
	GetByID(id string) (*entity.Appointment, error)
	ListScheduled() ([]*entity.Appointment, error)
}
