package server

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/lexand-dev/vid-skool/internal/adapter/enrichment/kafka"
	"github.com/lexand-dev/vid-skool/internal/adapter/media/fake"
	"github.com/lexand-dev/vid-skool/internal/adapter/media/httpprovider"
	"github.com/lexand-dev/vid-skool/internal/adapter/objectstore/minio"
	"github.com/lexand-dev/vid-skool/internal/adapter/transport"
	"github.com/lexand-dev/vid-skool/internal/config"
	"github.com/lexand-dev/vid-skool/internal/core"
	"github.com/lexand-dev/vid-skool/internal/usecase"
)

// NewConfig loads the runtime configuration for dependency injection.
func NewConfig() (config.Config, error) {
	return config.Load()
}

// NewProviderGateway selects the transcoding provider implementation.
func NewProviderGateway(cfg config.Config) (core.ProviderGateway, error) {
	switch cfg.Provider.Driver {
	case "http":
		return httpprovider.NewClient(httpprovider.Options{
			BaseURL:       cfg.Provider.BaseURL,
			TokenID:       cfg.Provider.TokenID,
			TokenSecret:   cfg.Provider.TokenSecret,
			ThumbnailBase: cfg.Provider.ThumbnailBaseURL,
			Timeout:       cfg.Provider.Timeout,
		}, nil), nil
	case "fake":
		return fake.NewProvider("https://upload.local", cfg.Provider.ThumbnailBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported provider driver %q", cfg.Provider.Driver)
	}
}

// NewObjectStore connects to the thumbnail bucket.
func NewObjectStore(cfg config.Config) (*minio.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return minio.New(ctx, minio.Options{
		Endpoint:      cfg.Storage.Endpoint,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		Bucket:        cfg.Storage.Bucket,
		UseSSL:        cfg.Storage.UseSSL,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	})
}

// NewKafkaProducer connects the synchronous producer used for enrichment jobs.
func NewKafkaProducer(cfg config.Config, logger zerolog.Logger) (sarama.SyncProducer, func(), error) {
	producer, err := kafka.NewSyncProducer(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
	if err != nil {
		return nil, nil, err
	}
	return producer, closeProducer(producer, logger), nil
}

func closeProducer(producer sarama.SyncProducer, logger zerolog.Logger) func() {
	return func() {
		if err := producer.Close(); err != nil {
			logger.Warn().Err(err).Msg("close kafka producer")
		}
	}
}

// NewEnrichmentDispatcher publishes enrichment jobs on the configured topic.
func NewEnrichmentDispatcher(cfg config.Config, producer sarama.SyncProducer) *kafka.Dispatcher {
	return kafka.NewDispatcher(producer, cfg.Kafka.EnrichmentTopic)
}

// NewAssetServiceConfig maps provider settings into the asset service.
func NewAssetServiceConfig(cfg config.Config) usecase.AssetServiceConfig {
	return usecase.AssetServiceConfig{
		CORSOrigin:     cfg.Provider.CORSOrigin,
		PublicPlayback: true,
	}
}

// NewTokenVerifier validates caller tokens against the configured secret.
func NewTokenVerifier(cfg config.Config) *transport.TokenVerifier {
	return transport.NewTokenVerifier(cfg.Auth.JWTSecret)
}

// NewCallbackHandlerConfig maps webhook settings into the callback handler.
func NewCallbackHandlerConfig(cfg config.Config) transport.CallbackHandlerConfig {
	return transport.CallbackHandlerConfig{
		Secret:    cfg.Webhook.Secret,
		Tolerance: cfg.Webhook.Tolerance,
	}
}
