package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mcdev12/gavel/go/internal/auction"
	"github.com/mcdev12/gavel/go/internal/dbconfig"
	"github.com/rs/zerolog"
)

const (
	backendMemory   = "memory"
	backendPostgres = "postgres"
	backendMongo    = "mongo"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Where the live session lives: memory, postgres or mongo
	SessionBackend string `env:"SESSION_BACKEND" envDefault:"memory"`
	// Where accounts, teams and players live: memory or postgres
	EntityBackend string `env:"ENTITY_BACKEND" envDefault:"memory"`
	// YAML fixture loaded into the memory entity store
	FixturePath string `env:"FIXTURE_PATH" envDefault:"go/internal/assets/auction_fixture.yaml"`

	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"gavel"`

	// Leave empty to skip the JetStream mirror
	NatsURL string `env:"NATS_URL"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Auction  auction.Config
	Database dbconfig.Config
}

func loadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.SessionBackend {
	case backendMemory, backendPostgres, backendMongo:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	switch c.EntityBackend {
	case backendMemory, backendPostgres:
	default:
		return fmt.Errorf("unknown ENTITY_BACKEND %q", c.EntityBackend)
	}
	if c.EntityBackend == backendMemory && c.FixturePath == "" {
		return fmt.Errorf("FIXTURE_PATH is required with the memory entity backend")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return c.Auction.Validate()
}

func (c *Config) needsPostgres() bool {
	return c.SessionBackend == backendPostgres || c.EntityBackend == backendPostgres
}
