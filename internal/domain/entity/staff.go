package entity

import "time"

// Roles de cuentas del personal.
const (
	StaffRoleAdmin = "ADMIN"
	StaffRoleStaff = "STAFF"
)

// StaffAccount cuenta del personal adscrita a una entidad de la jerarquía
// (centro de salud, distrito, región o el nivel nacional). Es la fuente de
// datos del resolutor de destinatarios; la gestión de usuarios en sí queda
// fuera de este núcleo.
type StaffAccount struct {
	ID        string
	Name      string
	Email     string
	Role      string
	Owner     Owner
	Active    bool
	CreatedAt time.Time
}
