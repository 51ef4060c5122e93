package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tu-usuario/vaxtrack/internal/application/ledger"
	"github.com/tu-usuario/vaxtrack/internal/application/notify"
	"github.com/tu-usuario/vaxtrack/internal/application/transfer"
	"github.com/tu-usuario/vaxtrack/internal/infrastructure/notifier"
	"github.com/tu-usuario/vaxtrack/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/vaxtrack/internal/interfaces/http"
	"github.com/tu-usuario/vaxtrack/internal/scheduler"
	"github.com/tu-usuario/vaxtrack/pkg/config"
	"github.com/tu-usuario/vaxtrack/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	lotRepo := postgres.NewStockLotRepository(pool)
	aggRepo := postgres.NewAggregateStockRepository(pool)
	transferRepo := postgres.NewTransferRepository(pool)
	recordRepo := postgres.NewNotificationRecordRepository(pool)
	apptRepo := postgres.NewAppointmentRepository(pool)
	staffRepo := postgres.NewStaffRepository(pool)
	vaccineRepo := postgres.NewVaccineRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	ledgerUC := ledger.NewUseCase(txRunner, vaccineRepo, aggRepo)
	transferUC := transfer.NewUseCase(txRunner, ledgerUC, transferRepo)

	// Motores de avisos: mismo motor genérico, dos instancias.
	sink := notifier.NewLogNotifier(log)
	stockEngine := notify.NewEngine(
		"stock-expiration",
		"Lotes de vacunas próximos a vencer",
		notify.NewThresholds(cfg.Notify.StockThresholds...),
		notify.NewLotExpirationSource(lotRepo, vaccineRepo),
		notify.NewStockRecipientResolver(lotRepo, staffRepo),
		recordRepo,
		sink,
		log,
	)
	apptEngine := notify.NewEngine(
		"appointment-reminder",
		"Recordatorio de citas de vacunación",
		notify.NewThresholds(cfg.Notify.AppointmentThresholds...),
		notify.NewAppointmentSource(apptRepo),
		notify.NewAppointmentRecipientResolver(apptRepo),
		recordRepo,
		sink,
		log,
	)

	sched := scheduler.New(cfg.Notify.Interval, cfg.Notify.CycleTimeout, ledgerUC, []*notify.Engine{stockEngine, apptEngine}, log)
	sched.Start()
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		LedgerUC:   ledgerUC,
		TransferUC: transferUC,
		Engines:    []*notify.Engine{stockEngine, apptEngine},
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
