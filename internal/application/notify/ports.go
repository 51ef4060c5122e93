package notify

import (
	"context"
	"time"
)

// Subject algo con fecha objetivo sobre lo que se puede notificar: un lote
// que vence o una cita programada. El motor no sabe de qué dominio viene;
// los resolutores releen por ID lo que necesiten.
type Subject struct {
	ID       string
	Kind     string // "stock-lot" | "appointment"
	Title    string // texto ya formateado para el mensaje agregado
	TargetAt time.Time
}

// SubjectSource enumera los sujetos vivos de un dominio en cada corrida.
type SubjectSource interface {
	ListSubjects() ([]Subject, error)
}

// Recipient destinatario resuelto. ID entra en la clave de deduplicación;
// Email es la dirección de entrega (los resolutores deduplican por ella).
type Recipient struct {
	ID    string
	Name  string
	Email string
}

// RecipientResolver mapea un sujeto a quiénes deben ser notificados.
type RecipientResolver interface {
	Resolve(subject Subject) ([]Recipient, error)
}

// Message mensaje agregado por destinatario: todos los sujetos que le
// vencieron umbral en esta corrida, en un solo envío.
type Message struct {
	Subject string
	Lines   []string
}

// Notifier canal de entrega (colaborador externo: email, push, realtime).
// El núcleo decide quién y qué; el cómo es del adaptador.
type Notifier interface {
	Send(ctx context.Context, recipient Recipient, msg Message) error
}
