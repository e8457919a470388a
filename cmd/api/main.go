// @title Pill Reminder API
// @version 1.0
// @description Regímenes de pastillas y recordatorios diarios por dosis.
// @BasePath /
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"pill-reminder/internal/adapters/notify/webhook"
	"pill-reminder/internal/adapters/scheduler/cronjobs"
	"pill-reminder/internal/adapters/storage/memory"
	"pill-reminder/internal/adapters/storage/sqlstore"
	"pill-reminder/internal/domain/regimens"
	"pill-reminder/internal/eventbus"
	"pill-reminder/internal/platform/config"
	"pill-reminder/internal/platform/dateutil"
	"pill-reminder/internal/platform/httpclient"
	"pill-reminder/internal/platform/logger"
	"pill-reminder/internal/platform/metrics"
	"pill-reminder/internal/reminders"
	"pill-reminder/internal/router"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "archivo YAML de configuración (opcional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.App,
	})

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			ServerName:  cfg.App,
		}); err != nil {
			log.Warn("sentry disabled", map[string]any{"err": err.Error()})
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error("server exited", map[string]any{"err": err.Error()})
		sentry.CaptureException(err)
	}
	sentry.Flush(2 * time.Second)
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log logger.Logger) error {
	// "hoy" es siempre el día calendario en la zona del scheduler
	loc := cfg.Location()
	clock := func() time.Time { return time.Now().In(loc) }

	repo, db, err := openRepository(cfg, log, clock)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	bus := eventbus.New()
	gw := cronjobs.New(bus,
		cronjobs.WithLocation(loc),
		cronjobs.WithClock(clock),
		cronjobs.WithLogger(log.With(map[string]any{"component": "scheduler"})),
	)

	m := metrics.New(prometheus.DefaultRegisterer)
	svc := regimens.NewService(repo, gw,
		regimens.WithLogger(log.With(map[string]any{"component": "regimens"})),
		regimens.WithMetrics(m),
		regimens.WithClock(clock),
	)

	// los jobs viven en memoria: al arrancar se recrean desde el store
	if db != nil {
		n, err := svc.RestoreSchedules(ctx)
		if err != nil {
			return fmt.Errorf("restore schedules: %w", err)
		}
		log.Info("dosage jobs restored", map[string]any{"jobs": n})
	}

	remLog := log.With(map[string]any{"component": "reminders"})
	dispatcherOpts := []reminders.Option{
		reminders.WithLogger(remLog),
		reminders.WithMetrics(m),
		reminders.WithRepeater(gw),
	}
	if url := cfg.Notifier.WebhookURL; url != "" {
		n, err := webhook.New(httpclient.New(cfg.Notifier.Timeout, httpclient.WithUserAgent(cfg.App)), url, cfg.Notifier.Headers)
		if err != nil {
			return err
		}
		dispatcherOpts = append(dispatcherOpts, reminders.WithNotifier(n))
		remLog.Info("reminders delivered by webhook", map[string]any{"url": url})
	}
	dispatcher := reminders.NewDispatcher(bus, svc, dispatcherOpts...)

	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: router.NewRouter(router.Options{
			Regimens: svc,
			Jobs:     gw,
			Logger:   log,
		}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Run(gctx)
	})

	g.Go(func() error {
		gw.Start()
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		gw.Stop(shutdownCtx)
		return nil
	})

	g.Go(func() error {
		log.Info("starting server", map[string]any{
			"addr":    cfg.HTTP.Addr,
			"storage": cfg.Storage.Driver,
			"tz":      cfg.Scheduler.Timezone,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openRepository devuelve db nil para el driver memory.
func openRepository(cfg config.Config, log logger.Logger, clock dateutil.Clock) (regimens.Repository, *sql.DB, error) {
	storeLog := log.With(map[string]any{"component": "storage", "driver": cfg.Storage.Driver})

	var (
		db      *sql.DB
		dialect sqlstore.Dialect
		err     error
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		storeLog.Warn("using in-memory storage, regimens are lost on restart", nil)
		return memory.NewRegimensRepo(clock), nil, nil
	case config.DriverPostgres:
		dialect = sqlstore.Postgres
		db, err = sqlstore.OpenPostgres(cfg.Storage.DSN)
	case config.DriverSQLite:
		dialect = sqlstore.SQLite
		db, err = sqlstore.OpenSQLite(cfg.Storage.Path, cfg.Storage.BusyTimeout)
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.Storage.Driver, err)
	}

	if err := sqlstore.Migrate(db, dialect, storeLog); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", cfg.Storage.Driver, err)
	}
	return sqlstore.NewRegimensRepo(db, dialect, clock), db, nil
}
