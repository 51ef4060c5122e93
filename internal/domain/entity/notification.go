package entity

import "time"

// NotificationRecord registro de deduplicación del motor de notificaciones.
// Clave: (SubjectID, RecipientID, ThresholdLabel). La existencia del registro
// significa "ya enviado" para esa clave exacta; es append-only, nunca se
// actualiza ni se borra en el flujo normal.
type NotificationRecord struct {
	ID             string
	SubjectID      string
	RecipientID    string
	ThresholdLabel string
	SentAt         time.Time
}
