package repository

import "github.com/tu-usuario/vaxtrack/internal/domain/entity"

// VaccineRepository define el puerto del catálogo de vacunas.
type VaccineRepository interface {
	GetByID(id string) (*entity.Vaccine, error)
	List() ([]*entity.Vaccine, error)
}
