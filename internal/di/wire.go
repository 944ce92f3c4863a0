//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/annuu1/autozonexnxt-sub000/pkg/config"
	"github.com/annuu1/autozonexnxt-sub000/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvidePostgresClient,
		ProvideClickHouseClient,
		ProvideCache,

		// Repositories
		ProvideZoneStore,
		ProvideTransitionJournal,
		ProvideSnapshotTable,

		// Domain services and use cases
		ProvideTracker,
		ProvideScanService,
		ProvideReportService,

		// Feed ingestion (backend-dependent)
		ProvideKafkaConsumer,
		ProvideTicksHandler,
		ProvideFeedCollector,

		// HTTP surface
		ProvideAuthManager,
		ProvideRouter,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
