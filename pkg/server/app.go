package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "github.com/annuu1/autozonexnxt-sub000/internal/domain/repository"
	"github.com/annuu1/autozonexnxt-sub000/internal/service/feed"
	"github.com/annuu1/autozonexnxt-sub000/internal/usecase"
	pmcache "github.com/annuu1/autozonexnxt-sub000/pkg/cache"
	pkgch "github.com/annuu1/autozonexnxt-sub000/pkg/clickhouse"
	"github.com/annuu1/autozonexnxt-sub000/pkg/config"
	xhttp "github.com/annuu1/autozonexnxt-sub000/pkg/http"
	pkgkafka "github.com/annuu1/autozonexnxt-sub000/pkg/kafka"
	applogger "github.com/annuu1/autozonexnxt-sub000/pkg/logger"
	pkgpg "github.com/annuu1/autozonexnxt-sub000/pkg/postgres"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	l         *applogger.Logger
	store     domrepo.ZoneStore
	snapshots *feed.SnapshotTable

	// exactly one of collector / (consumer + ticksHandler) is active,
	// selected by backend.type
	collector    *usecase.FeedCollector
	consumer     *pkgkafka.Consumer
	ticksHandler pkgkafka.MessageHandler

	pgClient    *pkgpg.Client
	chClient    *pkgch.Client
	cacheSvc    pmcache.Service
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	store domrepo.ZoneStore,
	snapshots *feed.SnapshotTable,
	collector *usecase.FeedCollector,
	consumer *pkgkafka.Consumer,
	ticksHandler pkgkafka.MessageHandler,
	pgClient *pkgpg.Client,
	chClient *pkgch.Client,
	cacheSvc pmcache.Service,
) *App {
	return &App{
		cfg:          cfg,
		l:            l,
		store:        store,
		snapshots:    snapshots,
		collector:    collector,
		consumer:     consumer,
		ticksHandler: ticksHandler,
		pgClient:     pgClient,
		chClient:     chClient,
		cacheSvc:     cacheSvc,
	}
}

// SetHTTPHandler allows DI to inject the HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Seed the live snapshot table from persisted instrument state so
	// scans have reference prices before the first tick arrives.
	if snaps, err := a.store.ListSnapshots(ctx); err != nil {
		a.l.Warn("snapshot seed failed", applogger.Error(err))
	} else {
		a.snapshots.Seed(snaps)
		a.l.Info("snapshot table seeded", applogger.Int("instruments", a.snapshots.Len()))
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.l),
	)

	switch {
	case a.collector != nil:
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.l.Error("feed collector error", applogger.Error(err))
			}
		}()
		a.l.Info("feed collector started", applogger.Strings("symbols", a.cfg.Feed.Symbols))
	case a.consumer != nil && a.ticksHandler != nil:
		a.consumer.RegisterHandler(a.ticksHandler)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.ticksHandler.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.l.Warn("feed collector stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if closer, ok := a.cacheSvc.(interface{ Close() error }); ok && closer != nil {
		if err := closer.Close(); err != nil {
			a.l.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.pgClient != nil {
		if err := a.pgClient.Close(); err != nil {
			a.l.Warn("postgres close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
