package postgres

import (
	"context"
	"fmt"

	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
	"github.com/tu-usuario/vaxtrack/internal/domain/repository"
)

var _ repository.NotificationRecordRepository = (*NotificationRecordRepo)(nil)

// NotificationRecordRepo libro append-only de notificaciones enviadas.
type NotificationRecordRepo struct {
	q Querier
}

// NewNotificationRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewNotificationRecordRepository(q Querier) *NotificationRecordRepo {
	return &NotificationRecordRepo{q: q}
}

// Exists indica si ya hay registro para la clave exacta.
func (r *NotificationRecordRepo) Exists(subjectID, recipientID, thresholdLabel string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM notification_records
			WHERE subject_id = $1 AND recipient_id = $2 AND threshold_label = $3)`
	var exists bool
	err := r.q.QueryRow(context.Background(), query, subjectID, recipientID, thresholdLabel).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists notification record: %w", err)
	}
	return exists, nil
}

// Create inserta el registro. Clave ya existente no es error (ON CONFLICT DO
// NOTHING): dos corridas solapadas pueden intentar registrar la misma clave.
func (r *NotificationRecordRepo) Create(rec *entity.NotificationRecord) error {
	query := `
		INSERT INTO notification_records (id, subject_id, recipient_id, threshold_label, sent_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subject_id, recipient_id, threshold_label) DO NOTHING`
	_, err := r.q.Exec(context.Background(), query,
		rec.ID, rec.SubjectID, rec.RecipientID, rec.ThresholdLabel, rec.SentAt)
	if err != nil {
		return fmt.Errorf("create notification record: %w", err)
	}
	return nil
}
