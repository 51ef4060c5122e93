package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
	"github.com/tu-usuario/vaxtrack/internal/domain/repository"
	"github.com/tu-usuario/vaxtrack/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Engine motor genérico de notificaciones por umbral deslizante. Se instancia
// dos veces: vencimiento de lotes y recordatorio de citas. Cada corrida
// enumera sujetos, decide cuáles están en ventana de armado, deduplica contra
// el libro de notificaciones y entrega un mensaje agregado por destinatario.
// La idempotencia entre corridas solapadas la da el libro (clave única), no
// la exclusión de corridas.
type Engine struct {
	name        string // "stock-expiration" | "appointment-reminder"
	title       string // asunto del mensaje agregado
	thresholds  Thresholds
	source      SubjectSource
	resolver    RecipientResolver
	records     repository.NotificationRecordRepository
	notifier    Notifier
	log         *logger.Logger
	now         func() time.Time
	maxParallel int
}

// NewEngine construye una instancia del motor.
func NewEngine(
	name, title string,
	thresholds Thresholds,
	source SubjectSource,
	resolver RecipientResolver,
	records repository.NotificationRecordRepository,
	notifier Notifier,
	log *logger.Logger,
) *Engine {
	return &Engine{
		name:        name,
		title:       title,
		thresholds:  thresholds,
		source:      source,
		resolver:    resolver,
		records:     records,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
		maxParallel: 8,
	}
}

// WithClock sustituye el reloj (tests).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Name nombre de la instancia (para el scheduler y los logs).
func (e *Engine) Name() string { return e.name }

// Summary resultado de una corrida.
type Summary struct {
	NotificationsSent int
	Skipped           int
	Errors            int
}

// dueItem sujeto en ventana de armado pendiente de registro para un
// destinatario concreto.
type dueItem struct {
	subject   Subject
	threshold int
}

// batch todos los items debidos a un mismo destinatario en esta corrida.
type batch struct {
	recipient Recipient
	items     []dueItem
}

// RunThresholdCheck una corrida completa del motor. La entrega se aísla por
// destinatario: un fallo se cuenta y no bloquea ni revierte a los demás. El
// registro de deduplicación se escribe solo tras entrega confirmada, así el
// sujeto vuelve a ser elegible en la próxima corrida mientras su ventana de
// armado siga abierta.
func (e *Engine) RunThresholdCheck(ctx context.Context) (Summary, error) {
	var summary Summary

	subjects, err := e.source.ListSubjects()
	if err != nil {
		return summary, fmt.Errorf("enumerar sujetos (%s): %w", e.name, err)
	}
	now := e.now()

	batches := make(map[string]*batch)
	for _, subject := range subjects {
		d := DaysUntil(subject.TargetAt, now)
		threshold := e.thresholds.Next(d)
		if !Due(d, threshold) {
			summary.Skipped++
			continue
		}

		recipients, err := e.resolver.Resolve(subject)
		if err != nil {
			e.log.Error().Err(err).Str("engine", e.name).Str("subject", subject.ID).
				Msg("resolver destinatarios")
			summary.Errors++
			continue
		}
		label := Label(threshold)
		for _, recipient := range recipients {
			sent, err := e.records.Exists(subject.ID, recipient.ID, label)
			if err != nil {
				summary.Errors++
				continue
			}
			if sent {
				summary.Skipped++
				continue
			}
			b, ok := batches[recipient.ID]
			if !ok {
				b = &batch{recipient: recipient}
				batches[recipient.ID] = b
			}
			b.items = append(b.items, dueItem{subject: subject, threshold: threshold})
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallel)
	for _, b := range batches {
		b := b
		g.Go(func() error {
			sent, errs := e.deliver(gctx, b, now)
			mu.Lock()
			summary.NotificationsSent += sent
			summary.Errors += errs
			mu.Unlock()
			// El fallo queda contado; nunca se propaga para no cancelar la
			// entrega de los demás destinatarios.
			return nil
		})
	}
	_ = g.Wait()

	e.log.Info().Str("engine", e.name).
		Int("sent", summary.NotificationsSent).
		Int("skipped", summary.Skipped).
		Int("errors", summary.Errors).
		Msg("corrida de umbrales completada")
	return summary, nil
}

// deliver envía el mensaje agregado de un destinatario y, solo si la entrega
// fue confirmada, escribe un registro por (sujeto, umbral) cubierto.
func (e *Engine) deliver(ctx context.Context, b *batch, now time.Time) (sent, errs int) {
	lines := make([]string, 0, len(b.items))
	for _, item := range b.items {
		lines = append(lines, fmt.Sprintf("[%s] %s — %s",
			Label(item.threshold), item.subject.Title, item.subject.TargetAt.Format("2006-01-02")))
	}
	msg := Message{Subject: e.title, Lines: lines}

	if err := e.notifier.Send(ctx, b.recipient, msg); err != nil {
		e.log.Warn().Err(err).Str("engine", e.name).Str("recipient", b.recipient.ID).
			Int("items", len(b.items)).Msg("entrega fallida; se reintentará en la próxima corrida")
		return 0, 1
	}

	for _, item := range b.items {
		rec := &entity.NotificationRecord{
			ID:             uuid.New().String(),
			SubjectID:      item.subject.ID,
			RecipientID:    b.recipient.ID,
			ThresholdLabel: Label(item.threshold),
			SentAt:         now,
		}
		if err := e.records.Create(rec); err != nil {
			e.log.Error().Err(err).Str("engine", e.name).Str("subject", item.subject.ID).
				Msg("registrar notificación enviada")
			errs++
			continue
		}
		sent++
	}
	return sent, errs
}
