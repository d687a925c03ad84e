//go:build wireinject

package server

import (
	"github.com/google/wire"

	"github.com/lexand-dev/vid-skool/internal/adapter/db"
	"github.com/lexand-dev/vid-skool/internal/adapter/enrichment/kafka"
	"github.com/lexand-dev/vid-skool/internal/adapter/objectstore/minio"
	adaptertransport "github.com/lexand-dev/vid-skool/internal/adapter/transport"
	"github.com/lexand-dev/vid-skool/internal/core"
	"github.com/lexand-dev/vid-skool/internal/usecase"
)

// InitializeServer sets up the full HTTP server with all dependencies wired.
// The returned cleanup closes the database and the Kafka producer.
func InitializeServer() (*Server, func(), error) {
	wire.Build(
		NewConfig,
		NewLogger,
		NewDatabase,
		wire.Bind(new(core.AssetRepository), new(*db.AssetRepository)),
		db.NewAssetRepository,
		NewProviderGateway,
		wire.Bind(new(core.ObjectStore), new(*minio.Store)),
		NewObjectStore,
		NewKafkaProducer,
		wire.Bind(new(core.EnrichmentDispatcher), new(*kafka.Dispatcher)),
		NewEnrichmentDispatcher,
		NewAssetServiceConfig,
		wire.Bind(new(core.AssetService), new(*usecase.AssetService)),
		usecase.NewAssetService,
		wire.Bind(new(adaptertransport.CallbackIngester), new(*usecase.CallbackService)),
		usecase.NewCallbackService,
		adaptertransport.NewAssetHandler,
		NewCallbackHandlerConfig,
		adaptertransport.NewCallbackHandler,
		NewTokenVerifier,
		NewHTTPHandler,
		NewServer,
	)
	return nil, nil, nil
}
