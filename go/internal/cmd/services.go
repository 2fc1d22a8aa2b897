package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/gavel/go/internal/auction"
	"github.com/mcdev12/gavel/go/internal/auction/gateway"
	"github.com/mcdev12/gavel/go/internal/auction/notify"
	"github.com/mcdev12/gavel/go/internal/auction/session"
	"github.com/mcdev12/gavel/go/internal/entities"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Engine      *auction.Engine
	Connections *gateway.ConnectionManager

	closers []func()
}

// Close releases every connection opened by setupServices, newest first.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func setupServices(ctx context.Context, cfg *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Stores → Notifier → Engine
	svc := &Services{}
	fail := func(err error) (*Services, error) {
		svc.Close()
		return nil, err
	}

	var sqlDB *sql.DB
	if cfg.needsPostgres() {
		database, err := setupDatabase(ctx, cfg.Database)
		if err != nil {
			return fail(err)
		}
		sqlDB = database
		svc.closers = append(svc.closers, func() { database.Close() })
	}

	entityStore, err := setupEntities(ctx, cfg, sqlDB)
	if err != nil {
		return fail(err)
	}

	store, err := setupSessionStore(ctx, cfg, svc)
	if err != nil {
		return fail(err)
	}

	svc.Connections = gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	fanout := notify.NewFanout(svc.Connections)

	if cfg.NatsURL != "" {
		jsCfg := notify.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NatsURL
		publisher, err := notify.NewJetStreamPublisher(ctx, jsCfg)
		if err != nil {
			return fail(err)
		}
		fanout.Add(publisher)
		svc.closers = append(svc.closers, func() { publisher.Close() })
	}

	svc.Engine = auction.NewEngine(store, entityStore, fanout, cfg.Auction)
	return svc, nil
}

func setupEntities(ctx context.Context, cfg *Config, sqlDB *sql.DB) (auction.EntityStore, error) {
	if cfg.EntityBackend == backendPostgres {
		repo := entities.NewPostgresRepository(sqlDB)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	}

	fixture, err := entities.LoadFixtureFile(cfg.FixturePath)
	if err != nil {
		return nil, err
	}
	ds, err := fixture.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build fixture: %w", err)
	}
	repo := entities.NewMemoryRepository()
	repo.Seed(ds)
	for _, a := range ds.Accounts {
		log.Info().
			Str("account_id", a.ID.String()).
			Str("name", a.Name).
			Msg("loaded fixture account")
	}
	return repo, nil
}

func setupSessionStore(ctx context.Context, cfg *Config, svc *Services) (session.Store, error) {
	switch cfg.SessionBackend {
	case backendPostgres:
		pool, err := setupPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, pool.Close)
		store := session.NewPostgresStore(pool, clockwork.NewRealClock())
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case backendMongo:
		client, err := setupMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to disconnect mongo")
			}
		})
		return session.NewMongoStore(client.Database(cfg.MongoDatabase), clockwork.NewRealClock()), nil

	default:
		return session.NewMemoryStore(clockwork.NewRealClock()), nil
	}
}
