package di

import (
	"context"
	"fmt"
	"time"

	"github.com/annuu1/autozonexnxt-sub000/internal/auth"
	domrepo "github.com/annuu1/autozonexnxt-sub000/internal/domain/repository"
	"github.com/annuu1/autozonexnxt-sub000/internal/handler/api"
	internalrepo "github.com/annuu1/autozonexnxt-sub000/internal/repository"
	"github.com/annuu1/autozonexnxt-sub000/internal/service/feed"
	"github.com/annuu1/autozonexnxt-sub000/internal/services/lifecycle"
	"github.com/annuu1/autozonexnxt-sub000/internal/usecase"
	pkgcache "github.com/annuu1/autozonexnxt-sub000/pkg/cache"
	pkgch "github.com/annuu1/autozonexnxt-sub000/pkg/clickhouse"
	"github.com/annuu1/autozonexnxt-sub000/pkg/config"
	pkgkafka "github.com/annuu1/autozonexnxt-sub000/pkg/kafka"
	applogger "github.com/annuu1/autozonexnxt-sub000/pkg/logger"
	"github.com/annuu1/autozonexnxt-sub000/pkg/metrics"
	pkgpg "github.com/annuu1/autozonexnxt-sub000/pkg/postgres"
	"github.com/annuu1/autozonexnxt-sub000/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvidePostgresClient creates the Postgres client and ensures schema.
func ProvidePostgresClient(cfg *config.Config) (*pkgpg.Client, error) {
	client, err := pkgpg.NewClient(
		pkgpg.WithHost(cfg.Postgres.Host),
		pkgpg.WithPort(cfg.Postgres.Port),
		pkgpg.WithDatabase(cfg.Postgres.Database),
		pkgpg.WithCredentials(cfg.Postgres.User, cfg.Postgres.Password),
		pkgpg.WithSSLMode(cfg.Postgres.SSLMode),
		pkgpg.WithMaxConnections(cfg.Postgres.MaxConnections, cfg.Postgres.MaxConnections/2),
		pkgpg.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		`CREATE TABLE IF NOT EXISTS zones (
			zone_id TEXT PRIMARY KEY,
			ticker TEXT NOT NULL,
			pattern TEXT NOT NULL DEFAULT '',
			timeframes TEXT[] NOT NULL DEFAULT '{}',
			proximal_line DOUBLE PRECISION NOT NULL,
			distal_line DOUBLE PRECISION NOT NULL,
			freshness DOUBLE PRECISION NOT NULL DEFAULT 3,
			trade_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			alert_time TIMESTAMPTZ,
			entry_time TIMESTAMPTZ,
			breach_time TIMESTAMPTZ,
			last_seen TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_zones_ticker ON zones (ticker)`,
		`CREATE TABLE IF NOT EXISTS instruments (
			symbol TEXT PRIMARY KEY,
			last_traded_price DOUBLE PRECISION,
			day_low DOUBLE PRECISION
		)`,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}

	return client, nil
}

// ProvideClickHouseClient creates the ClickHouse client for the
// transition journal and ensures its table exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", cfg.ClickHouse.Database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.zone_transitions (
			zone_id String, ticker String, stage String,
			price Float64, at DateTime64(3), backfill UInt8
		) ENGINE=MergeTree ORDER BY (zone_id, at)`, cfg.ClickHouse.Database),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideCache creates the Redis report cache.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	c, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideZoneStore creates the Postgres zone store.
func ProvideZoneStore(pg *pkgpg.Client, l *applogger.Logger) domrepo.ZoneStore {
	store := internalrepo.NewPGZoneStore(pg.DB())
	store.SetLogger(l)
	return store
}

// ProvideTransitionJournal creates the ClickHouse transition journal.
func ProvideTransitionJournal(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) domrepo.TransitionJournal {
	j := internalrepo.NewCHTransitionJournal(ch, cfg.ClickHouse.Database+".zone_transitions")
	j.SetLogger(l)
	return j
}

// ProvideSnapshotTable creates the in-memory snapshot table.
func ProvideSnapshotTable() *feed.SnapshotTable {
	return feed.NewSnapshotTable()
}

// ProvideTracker creates the lifecycle tracker.
func ProvideTracker(store domrepo.ZoneStore, journal domrepo.TransitionJournal, m domrepo.Metrics, l *applogger.Logger) *lifecycle.Tracker {
	t := lifecycle.New(store, journal, m)
	t.SetLogger(l)
	return t
}

// ProvideScanService creates the scan use case.
func ProvideScanService(
	store domrepo.ZoneStore,
	snapshots *feed.SnapshotTable,
	tracker *lifecycle.Tracker,
	journal domrepo.TransitionJournal,
	m domrepo.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.ScanService {
	svc := usecase.NewScanService(store, snapshots, tracker, journal, m, l)
	svc.SetDistalThreshold(cfg.Scan.DistalThresholdPct)
	return svc
}

// ProvideReportService creates the report use case.
func ProvideReportService(store domrepo.ZoneStore, c pkgcache.Service, m domrepo.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.ReportService {
	svc := usecase.NewReportService(store, c, m, l)
	svc.SetTTLs(cfg.Report.TodayTTL, cfg.Report.HistoryTTL)
	return svc
}

// ProvideAuthManager creates the JWT manager.
func ProvideAuthManager(cfg *config.Config) *auth.Manager {
	return auth.NewManager(cfg.Auth.Secret, cfg.Auth.TokenDuration)
}

// ProvideRouter creates the HTTP router with all handlers.
func ProvideRouter(l *applogger.Logger, scans *usecase.ScanService, reports *usecase.ReportService, jwt *auth.Manager) *api.Router {
	zones := api.NewZonesEchoHandler(l, scans)
	rep := api.NewReportsEchoHandler(l, reports)
	return api.NewRouter(zones, rep, jwt)
}

// ProvideKafkaConsumer creates a Kafka consumer when the backend is
// kafka; returns nil otherwise.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideTicksHandler registers the ticks topic handler.
func ProvideTicksHandler(snapshots *feed.SnapshotTable, m domrepo.Metrics, cfg *config.Config) pkgkafka.MessageHandler {
	if cfg.Backend.Type != "kafka" {
		return nil
	}
	return usecase.NewTicksHandler(cfg.Kafka.Topic, snapshots, m)
}

// ProvideFeedCollector creates the websocket feed collector when the
// backend is websocket; returns nil otherwise.
func ProvideFeedCollector(cfg *config.Config, snapshots *feed.SnapshotTable, m domrepo.Metrics) *usecase.FeedCollector {
	if cfg.Backend.Type != "websocket" {
		return nil
	}
	stream := feed.NewClient(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		cfg.Feed.Symbols,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
	)
	return usecase.NewFeedCollector(stream, snapshots, m)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	store domrepo.ZoneStore,
	snapshots *feed.SnapshotTable,
	collector *usecase.FeedCollector,
	consumer *pkgkafka.Consumer,
	ticksHandler pkgkafka.MessageHandler,
	pgClient *pkgpg.Client,
	chClient *pkgch.Client,
	cacheSvc pkgcache.Service,
	router *api.Router,
) *server.App {
	app := server.New(cfg, l, store, snapshots, collector, consumer, ticksHandler, pgClient, chClient, cacheSvc)
	app.SetHTTPHandler(router)
	return app
}
