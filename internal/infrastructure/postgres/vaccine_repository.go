package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
	"github.com/tu-usuario/vaxtrack/internal/domain/repository"
)

var _ repository.VaccineRepository = (*VaccineRepo)(nil)

// VaccineRepo catálogo de vacunas.
type VaccineRepo struct {
	q Querier
}

// NewVaccineRepository construye el adaptador. Pasar pool o tx (Querier).
func NewVaccineRepository(q Querier) *VaccineRepo {
	return &VaccineRepo{q: q}
}

// GetByID obtiene una vacuna por ID; nil si no existe.
func (r *VaccineRepo) GetByID(id string) (*entity.Vaccine, error) {
	query := `SELECT id, name, disease, created_at FROM vaccines WHERE id = $1`
	var v entity.Vaccine
	err := r.q.QueryRow(context.Background(), query, id).Scan(&v.ID, &v.Name, &v.Disease, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get vaccine: %w", err)
	}
	return &v, nil
}

// List todas las vacunas del catálogo.
func (r *VaccineRepo) List() ([]*entity.Vaccine, error) {
	rows, err := r.q.Query(context.Background(), `SELECT id, name, disease, created_at FROM vaccines ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list vaccines: %w", err)
	}
	defer rows.Close()

	var vaccines []*entity.Vaccine
	for rows.Next() {
		var v entity.Vaccine
		if err := rows.Scan(&v.ID, &v.Name, &v.Disease, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vaccine: %w", err)
		}
		vaccines = append(vaccines, &v)
	}
	return vaccines, rows.Err()
}
