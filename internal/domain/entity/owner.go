package entity

// OwnerTier nivel de la jerarquía de distribución de vacunas.
type OwnerTier string

// Niveles de la jerarquía, de arriba hacia abajo.
const (
	TierNational     OwnerTier = "NATIONAL"
	TierRegional     OwnerTier = "REGIONAL"
	TierDistrict     OwnerTier = "DISTRICT"
	TierHealthCenter OwnerTier = "HEALTHCENTER"
)

// rank posición del nivel en la jerarquía (0 = nacional).
func (t OwnerTier) rank() int {
	switch t {
	case TierNational:
		return 0
	case TierRegional:
		return 1
	case TierDistrict:
		return 2
	case TierHealthCenter:
		return 3
	}
	return -1
}

// Valid indica si el nivel es uno de los cuatro conocidos.
func (t OwnerTier) Valid() bool { return t.rank() >= 0 }

// Owner identifica al dueño de una línea de stock: un nivel de la jerarquía
// más el ID de la entidad en ese nivel. Sustituye los cuatro caminos de
// código duplicados por nivel con un único valor parametrizable.
// ID vacío solo es válido en el nivel nacional (hay un único dueño nacional).
type Owner struct {
	Tier OwnerTier
	ID   string
}

// NationalOwner el dueño único del nivel nacional.
func NationalOwner() Owner { return Owner{Tier: TierNational} }

// Valid valida nivel e ID (ID obligatorio salvo en nivel nacional).
func (o Owner) Valid() bool {
	if !o.Tier.Valid() {
		return false
	}
	if o.Tier == TierNational {
		return o.ID == ""
	}
	return o.ID != ""
}

// AdjacentTo indica si los dos dueños están a exactamente un nivel de
// distancia en la jerarquía (requisito para un traslado).
func (o Owner) AdjacentTo(other Owner) bool {
	d := o.Tier.rank() - other.Tier.rank()
	return d == 1 || d == -1
}

// Equal compara nivel e ID.
func (o Owner) Equal(other Owner) bool {
	return o.Tier == other.Tier && o.ID == other.ID
}

// String representación "TIER:id" para logs y mensajes.
func (o Owner) String() string {
	if o.ID == "" {
		return string(o.Tier)
	}
	return string(o.Tier) + ":" + o.ID
}
