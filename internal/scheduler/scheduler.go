package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/tu-usuario/vaxtrack/internal/application/ledger"
	"github.com/tu-usuario/vaxtrack/internal/application/notify"
	"github.com/tu-usuario/vaxtrack/pkg/logger"
)

// Scheduler corre periódicamente el barrido de vencimientos y los motores de
// avisos. Cada ciclo es independiente: un fallo se loguea y el siguiente tick
// vuelve a intentar (los avisos ya entregados quedan deduplicados en DB).
type Scheduler struct {
	interval     time.Duration
	cycleTimeout time.Duration
	ledger       *ledger.UseCase
	engines      []*notify.Engine
	log          *logger.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

// New crea el scheduler. Los engines se corren en el orden dado. El tope del
// ciclo es independiente del intervalo: un ciclo lento no pierde sus corridas
// solo porque el siguiente tick ya venció.
func New(interval, cycleTimeout time.Duration, ledgerUC *ledger.UseCase, engines []*notify.Engine, log *logger.Logger) *Scheduler {
	return &Scheduler{
		interval:     interval,
		cycleTimeout: cycleTimeout,
		ledger:       ledgerUC,
		engines:      engines,
		log:          log,
		stop:         make(chan struct{}),
	}
}

// Start lanza el loop en una goroutine. Corre un ciclo inmediato al arrancar.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.runCycle()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runCycle()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop detiene el loop y espera a que termine el ciclo en curso.
func (s *Scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
}

// runCycle ejecuta un ciclo completo: primero marca lotes vencidos para que
// los avisos de ese mismo ciclo vean el estado ya actualizado, luego corre
// cada motor de umbrales.
func (s *Scheduler) runCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cycleTimeout)
	defer cancel()

	touched, err := s.ledger.ExpireDueLots(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduler: barrido de vencimientos falló")
	} else if touched > 0 {
		s.log.Info().Int("lots", touched).Msg("scheduler: lotes marcados como vencidos")
	}

	for _, eng := range s.engines {
		summary, err := eng.RunThresholdCheck(ctx)
		if err != nil {
			s.log.Error().Err(err).Str("engine", eng.Name()).Msg("scheduler: corrida de avisos falló")
			continue
		}
		s.log.Info().
			Str("engine", eng.Name()).
			Int("sent", summary.NotificationsSent).
			Int("skipped", summary.Skipped).
			Int("errors", summary.Errors).
			Msg("scheduler: corrida de avisos completada")
	}

	if ctx.Err() == context.DeadlineExceeded {
		s.log.Warn().
			Dur("cycle_timeout", s.cycleTimeout).
			Msg("scheduler: el ciclo superó su tope de duración; corrida truncada")
	}
}
