package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
)

// StockLotRepository define el puerto de persistencia para lotes de vacunas.
// Los métodos *ForUpdate se usan dentro de transacciones (SELECT FOR UPDATE).
type StockLotRepository interface {
	Create(lot *entity.StockLot) error
	GetByID(id string) (*entity.StockLot, error)
	// ListForConsumptionForUpdate bloquea y devuelve los lotes candidatos a
	// consumo de la pareja (vacuna, dueño): cantidad restante > 0 y estado
	// VALID o EXPIRED. El orden de consumo lo decide el dominio (paquete stock).
	ListForConsumptionForUpdate(vaccineID string, owner entity.Owner) ([]*entity.StockLot, error)
	// ListActive lotes con cantidad restante > 0 y estado VALID o EXPIRED de
	// la pareja, para recomputar el agregado.
	ListActive(vaccineID string, owner entity.Owner) ([]*entity.StockLot, error)
	// ListWithRemaining todos los lotes con cantidad restante > 0 y estado
	// VALID o EXPIRED, de todos los dueños (enumeración del notificador).
	ListWithRemaining() ([]*entity.StockLot, error)
	// ListLineage devuelve el lote raíz y, transitivamente, todo lote cuya
	// cadena SourceLotID lleva hasta él.
	ListLineage(rootID string) ([]*entity.StockLot, error)
	UpdateRemaining(id string, remaining decimal.Decimal, updatedAt time.Time) error
	DeleteByIDs(ids []string) error
	// MarkExpired pasa a EXPIRED los lotes VALID con vencimiento anterior a
	// now y devuelve las parejas (vacuna, dueño) afectadas.
	MarkExpired(now time.Time) ([]entity.StockRef, error)
}
