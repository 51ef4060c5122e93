package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/vaxtrack/internal/application/notify"
	"github.com/tu-usuario/vaxtrack/internal/infrastructure/memory"
	"github.com/tu-usuario/vaxtrack/pkg/logger"
)

var engineNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de test
// ──────────────────────────────────────────────────────────────────────────────

type stubSource struct{ subjects []notify.Subject }

func (s *stubSource) ListSubjects() ([]notify.Subject, error) { return s.subjects, nil }

type stubResolver struct {
	recipients []notify.Recipient
	err        error
}

func (r *stubResolver) Resolve(notify.Subject) ([]notify.Recipient, error) {
	return r.recipients, r.err
}

// recordingNotifier guarda cada entrega; con fail=true rechaza todas.
type recordingNotifier struct {
	mu       sync.Mutex
	fail     bool
	messages []notify.Message
}

func (n *recordingNotifier) Send(_ context.Context, _ notify.Recipient, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("smtp caído")
	}
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func subjectDueAt(id string, target time.Time) notify.Subject {
	return notify.Subject{ID: id, Kind: "stock-lot", Title: "Lote " + id, TargetAt: target}
}

func newEngine(source notify.SubjectSource, resolver notify.RecipientResolver, records *memory.NotificationRecordRepository, sink notify.Notifier) *notify.Engine {
	return notify.NewEngine(
		"stock-expiration",
		"Lotes de vacunas próximos a vencer",
		notify.NewThresholds(30, 14, 7, 2, 0),
		source,
		resolver,
		records,
		sink,
		logger.Nop(),
	).WithClock(func() time.Time { return engineNow })
}

// ──────────────────────────────────────────────────────────────────────────────
// RunThresholdCheck
// ──────────────────────────────────────────────────────────────────────────────

func TestRunThresholdCheck_EnviaYDeduplica(t *testing.T) {
	store := memory.NewStore()
	records := memory.NewNotificationRecordRepository(store)
	sink := &recordingNotifier{}
	// Sujeto a 6.5 días del objetivo: dentro de la ventana del umbral 7.
	engine := newEngine(
		&stubSource{subjects: []notify.Subject{subjectDueAt("lot-1", engineNow.Add(156*time.Hour))}},
		&stubResolver{recipients: []notify.Recipient{{ID: "staff-1", Name: "Ana", Email: "ana@minsalud.gov"}}},
		records, sink,
	)

	summary, err := engine.RunThresholdCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NotificationsSent)
	assert.Zero(t, summary.Errors)
	assert.Equal(t, 1, sink.count())
	assert.Equal(t, 1, records.Count(), "entrega confirmada deja registro")

	// Segunda corrida dentro de la misma ventana: el registro bloquea el reenvío.
	summary, err = engine.RunThresholdCheck(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.NotificationsSent, "mismo sujeto, destinatario y umbral: no se repite")
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, sink.count(), "sin nueva entrega")
}

func TestRunThresholdCheck_FueraDeVentanaSeSalta(t *testing.T) {
	store := memory.NewStore()
	sink := &recordingNotifier{}
	// 5 días: el umbral aplicable es 7 pero su ventana [6, 7] ya pasó.
	engine := newEngine(
		&stubSource{subjects: []notify.Subject{subjectDueAt("lot-1", engineNow.Add(120*time.Hour))}},
		&stubResolver{recipients: []notify.Recipient{{ID: "staff-1", Email: "ana@minsalud.gov"}}},
		memory.NewNotificationRecordRepository(store), sink,
	)

	summary, err := engine.RunThresholdCheck(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.NotificationsSent)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, sink.count())
}

func TestRunThresholdCheck_EntregaFallidaReintentaDespues(t *testing.T) {
	store := memory.NewStore()
	records := memory.NewNotificationRecordRepository(store)
	sink := &recordingNotifier{fail: true}
	engine := newEngine(
		&stubSource{subjects: []notify.Subject{subjectDueAt("lot-1", engineNow.Add(156*time.Hour))}},
		&stubResolver{recipients: []notify.Recipient{{ID: "staff-1", Email: "ana@minsalud.gov"}}},
		records, sink,
	)

	summary, err := engine.RunThresholdCheck(context.Background())
	require.NoError(t, err, "el fallo de entrega se cuenta, no se propaga")
	assert.Zero(t, summary.NotificationsSent)
	assert.Equal(t, 1, summary.Errors)
	assert.Zero(t, records.Count(), "sin entrega confirmada no hay registro")

	// El canal se recupera: el sujeto sigue elegible y ahora sí se entrega.
	sink.fail = false
	summary, err = engine.RunThresholdCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NotificationsSent)
	assert.Equal(t, 1, records.Count())
}

func TestRunThresholdCheck_AgrupaPorDestinatario(t *testing.T) {
	store := memory.NewStore()
	records := memory.NewNotificationRecordRepository(store)
	sink := &recordingNotifier{}
	// Dos lotes en ventana para el mismo destinatario: un solo mensaje con dos líneas.
	engine := newEngine(
		&stubSource{subjects: []notify.Subject{
			subjectDueAt("lot-1", engineNow.Add(156*time.Hour)),
			subjectDueAt("lot-2", engineNow.Add(160*time.Hour)),
		}},
		&stubResolver{recipients: []notify.Recipient{{ID: "staff-1", Email: "ana@minsalud.gov"}}},
		records, sink,
	)

	summary, err := engine.RunThresholdCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.NotificationsSent, "un registro por sujeto cubierto")
	require.Equal(t, 1, sink.count(), "una sola entrega agregada")

	sink.mu.Lock()
	lines := sink.messages[0].Lines
	sink.mu.Unlock()
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[D-7]")

	assert.Equal(t, 2, records.Count())
}

func TestRunThresholdCheck_ErrorDelResolutorNoDetieneLaCorrida(t *testing.T) {
	store := memory.NewStore()
	sink := &recordingNotifier{}
	engine := newEngine(
		&stubSource{subjects: []notify.Subject{subjectDueAt("lot-1", engineNow.Add(156*time.Hour))}},
		&stubResolver{err: errors.New("staff inaccesible")},
		memory.NewNotificationRecordRepository(store), sink,
	)

	summary, err := engine.RunThresholdCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Errors)
	assert.Zero(t, summary.NotificationsSent)
}
