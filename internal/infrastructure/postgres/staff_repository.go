package postgres

import (
	"context"
	"fmt"

	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
	"github.com/tu-usuario/vaxtrack/internal/domain/repository"
)

var _ repository.StaffRepository = (*StaffRepo)(nil)

// StaffRepo consultas de cuentas del personal para resolver destinatarios.
type StaffRepo struct {
	q Querier
}

// NewStaffRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStaffRepository(q Querier) *StaffRepo {
	return &StaffRepo{q: q}
}

const staffColumns = `id, name, email, role, owner_tier, owner_id, active, created_at`

// ListActiveByCenter todo el personal activo de un centro de salud.
func (r *StaffRepo) ListActiveByCenter(healthCenterID string) ([]*entity.StaffAccount, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_accounts
		WHERE owner_tier = 'HEALTHCENTER' AND owner_id = $1 AND active
		ORDER BY email`
	return r.queryStaff(query, healthCenterID)
}

// ListDistrictAdminStaff personal ADMIN activo de los centros del distrito
// (join con la tabla de centros de la jerarquía geográfica, que este núcleo
// solo lee).
func (r *StaffRepo) ListDistrictAdminStaff(districtID string) ([]*entity.StaffAccount, error) {
	query := `
		SELECT s.id, s.name, s.email, s.role, s.owner_tier, s.owner_id, s.active, s.created_at
		FROM staff_accounts s
		INNER JOIN health_centers hc ON s.owner_tier = 'HEALTHCENTER' AND s.owner_id = hc.id
		WHERE hc.district_id = $1 AND s.role = 'ADMIN' AND s.active
		ORDER BY s.email`
	return r.queryStaff(query, districtID)
}

// ListAdminsByOwner cuentas ADMIN activas adscritas directamente al dueño.
func (r *StaffRepo) ListAdminsByOwner(owner entity.Owner) ([]*entity.StaffAccount, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_accounts
		WHERE owner_tier = $1 AND owner_id = $2 AND role = 'ADMIN' AND active
		ORDER BY email`
	return r.queryStaff(query, string(owner.Tier), owner.ID)
}

func (r *StaffRepo) queryStaff(query string, args ...any) ([]*entity.StaffAccount, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query staff: %w", err)
	}
	defer rows.Close()

	var accounts []*entity.StaffAccount
	for rows.Next() {
		var s entity.StaffAccount
		var tier string
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Role, &tier, &s.Owner.ID, &s.Active, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		s.Owner.Tier = entity.OwnerTier(tier)
		accounts = append(accounts, &s)
	}
	return accounts, rows.Err()
}
