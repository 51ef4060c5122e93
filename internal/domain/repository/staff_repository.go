package repository

import "github.com/tu-usuario/vaxtrack/internal/domain/entity"

// StaffRepository define el puerto de consulta de cuentas del personal para
// resolver destinatarios. Solo cuentas activas; la gestión de usuarios queda
// fuera del núcleo.
type StaffRepository interface {
	// ListActiveByCenter todo el personal activo de un centro de salud.
	ListActiveByCenter(healthCenterID string) ([]*entity.StaffAccount, error)
	// ListDistrictAdminStaff personal ADMIN activo de los centros que
	// pertenecen al distrito (join con la tabla de centros).
	ListDistrictAdminStaff(districtID string) ([]*entity.StaffAccount, error)
	// ListAdminsByOwner cuentas ADMIN activas adscritas directamente al dueño
	// (distrito, región o nivel nacional).
	ListAdminsByOwner(owner entity.Owner) ([]*entity.StaffAccount, error)
}
