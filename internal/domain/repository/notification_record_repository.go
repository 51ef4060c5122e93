package repository

import "github.com/tu-usuario/vaxtrack/internal/domain/entity"

// NotificationRecordRepository define el puerto del libro de notificaciones
// enviadas. La clave (subjectID, recipientID, thresholdLabel) es única en BD;
// Create con clave ya existente no es error (ON CONFLICT DO NOTHING), lo que
// hace idempotentes las corridas solapadas del motor.
type NotificationRecordRepository interface {
	Exists(subjectID, recipientID, thresholdLabel string) (bool, error)
	Create(rec *entity.NotificationRecord) error
}
