// Package config loads per-binary settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Postgres struct {
	URL    string `envconfig:"POSTGRES_URL" required:"true"`
	Schema string `envconfig:"POSTGRES_SCHEMA" default:"pos"`
}

type Store struct {
	Name           string `envconfig:"STORE_NAME" default:"POS System"`
	CurrencyPrefix string `envconfig:"CURRENCY_PREFIX" default:"Rs."`
	Timezone       string `envconfig:"STORE_TIMEZONE" default:"UTC"`
}

// Location resolves the store time zone used for receipts and daily reports.
func (s Store) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load store timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// Telemetry points tracing at an OTLP/gRPC collector.
type Telemetry struct {
	OTLPEndpoint   string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	ServiceVersion string `envconfig:"SERVICE_VERSION" default:"0.1.0"`
}

type POS struct {
	Postgres
	Store
	Telemetry

	Port string `envconfig:"PORT" default:"8080"`

	KafkaBrokers []string      `envconfig:"KAFKA_BROKERS"`
	RedisAddr    string        `envconfig:"REDIS_ADDR"`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"8h"`

	FirebaseProjectID       string `envconfig:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile string `envconfig:"FIREBASE_CREDENTIALS_FILE"`

	MaxImageBytes int64 `envconfig:"MAX_IMAGE_BYTES" default:"1048576"`
}

func (c POS) AuthEnabled() bool {
	return c.FirebaseProjectID != ""
}

type Worker struct {
	Store
	Telemetry

	KafkaBrokers      []string `envconfig:"KAFKA_BROKERS" required:"true"`
	ConsumerGroup     string   `envconfig:"CONSUMER_GROUP" default:"receipt-printer"`
	PrinterServiceURL string   `envconfig:"PRINTER_SERVICE_URL" required:"true"`
}

type Printer struct {
	Telemetry

	Port string `envconfig:"PORT" default:"8084"`
}

func LoadPOS() (POS, error) {
	var cfg POS
	if err := envconfig.Process("", &cfg); err != nil {
		return POS{}, fmt.Errorf("load pos config: %w", err)
	}
	return cfg, nil
}

func LoadWorker() (Worker, error) {
	var cfg Worker
	if err := envconfig.Process("", &cfg); err != nil {
		return Worker{}, fmt.Errorf("load worker config: %w", err)
	}
	return cfg, nil
}

func LoadPrinter() (Printer, error) {
	var cfg Printer
	if err := envconfig.Process("", &cfg); err != nil {
		return Printer{}, fmt.Errorf("load printer config: %w", err)
	}
	return cfg, nil
}
