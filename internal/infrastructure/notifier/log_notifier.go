package notifier

import (
	"context"
	"strings"

	"github.com/tu-usuario/vaxtrack/internal/application/notify"
	"github.com/tu-usuario/vaxtrack/pkg/logger"
)

// LogNotifier implementa notify.Notifier escribiendo el mensaje al log estructurado.
// Es el canal de entrega por defecto en development; en producción se reemplaza
// por un adaptador de correo sin tocar el motor de avisos.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier crea el notificador de log.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

var _ notify.Notifier = (*LogNotifier)(nil)

// Send registra el mensaje como entregado. Nunca falla.
func (n *LogNotifier) Send(_ context.Context, recipient notify.Recipient, msg notify.Message) error {
	n.log.Info().
		Str("recipient_id", recipient.ID).
		Str("recipient_email", recipient.Email).
		Str("subject", msg.Subject).
		Str("body", strings.Join(msg.Lines, " | ")).
		Msg("notificación entregada")
	return nil
}
