package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures the runtime configuration for the service.
type Config struct {
	AppEnv      string
	HTTPAddress string
	LogLevel    string

	Database DatabaseConfig
	Auth     AuthConfig
	Webhook  WebhookConfig
	Provider ProviderConfig
	Storage  StorageConfig
	Kafka    KafkaConfig
}

type DatabaseConfig struct {
	Driver string
	URL    string
}

type AuthConfig struct {
	JWTSecret string
}

type WebhookConfig struct {
	Secret    string
	Tolerance time.Duration
}

type ProviderConfig struct {
	Driver           string
	BaseURL          string
	TokenID          string
	TokenSecret      string
	CORSOrigin       string
	ThumbnailBaseURL string
	Timeout          time.Duration
}

type StorageConfig struct {
	Endpoint      string
	Bucket        string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	PublicBaseURL string
}

type KafkaConfig struct {
	Brokers         []string
	EnrichmentTopic string
	ClientID        string
}

// Development reports whether the service runs on a developer machine.
func (c Config) Development() bool {
	return c.AppEnv == "development"
}

// Load reads configuration from the environment with sensible defaults.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		AppEnv:      strings.ToLower(v.GetString("APP_ENV")),
		HTTPAddress: v.GetString("HTTP_ADDRESS"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
			URL:    v.GetString("DATABASE_URL"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		Webhook: WebhookConfig{
			Secret:    v.GetString("WEBHOOK_SECRET"),
			Tolerance: v.GetDuration("WEBHOOK_TOLERANCE"),
		},
		Provider: ProviderConfig{
			Driver:           strings.ToLower(v.GetString("PROVIDER_DRIVER")),
			BaseURL:          v.GetString("PROVIDER_BASE_URL"),
			TokenID:          v.GetString("PROVIDER_TOKEN_ID"),
			TokenSecret:      v.GetString("PROVIDER_TOKEN_SECRET"),
			CORSOrigin:       v.GetString("PROVIDER_CORS_ORIGIN"),
			ThumbnailBaseURL: v.GetString("PROVIDER_THUMBNAIL_BASE_URL"),
			Timeout:          v.GetDuration("PROVIDER_TIMEOUT"),
		},
		Storage: StorageConfig{
			Endpoint:      v.GetString("STORAGE_ENDPOINT"),
			Bucket:        v.GetString("STORAGE_BUCKET"),
			AccessKey:     v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:     v.GetString("STORAGE_SECRET_KEY"),
			UseSSL:        v.GetBool("STORAGE_USE_SSL"),
			PublicBaseURL: v.GetString("STORAGE_PUBLIC_BASE_URL"),
		},
		Kafka: KafkaConfig{
			Brokers:         splitList(v.GetString("KAFKA_BROKERS")),
			EnrichmentTopic: v.GetString("KAFKA_ENRICHMENT_TOPIC"),
			ClientID:        v.GetString("KAFKA_CLIENT_ID"),
		},
	}

	return cfg, cfg.validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("WEBHOOK_TOLERANCE", 5*time.Minute)
	v.SetDefault("PROVIDER_DRIVER", "http")
	v.SetDefault("PROVIDER_BASE_URL", "https://api.mux.com")
	v.SetDefault("PROVIDER_TIMEOUT", 15*time.Second)
	v.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	v.SetDefault("STORAGE_BUCKET", "studio")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_ENRICHMENT_TOPIC", "studio.enrichment.jobs")
	v.SetDefault("KAFKA_CLIENT_ID", "vid-skool")
}

func (c Config) validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL must be provided"))
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER %q is not supported", c.Database.Driver))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be provided"))
	}
	switch c.Provider.Driver {
	case "http":
		if c.Provider.TokenID == "" || c.Provider.TokenSecret == "" {
			errs = append(errs, errors.New("PROVIDER_TOKEN_ID and PROVIDER_TOKEN_SECRET must be provided for the http provider"))
		}
	case "fake":
	default:
		errs = append(errs, fmt.Errorf("PROVIDER_DRIVER %q is not supported", c.Provider.Driver))
	}
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS must list at least one broker"))
	}
	return errors.Join(errs...)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
