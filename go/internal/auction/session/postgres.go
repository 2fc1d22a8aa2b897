package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/gavel/go/internal/models"
)

const createSessionTable = `
CREATE TABLE IF NOT EXISTS auction_session (
    id         TEXT PRIMARY KEY,
    version    BIGINT      NOT NULL,
    data       JSONB       NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps the session as one JSONB row guarded by a version column.
type PostgresStore struct {
	pool  *pgxpool.Pool
	clock clockwork.Clock
}

// NewPostgresStore creates a store on an existing pool
func NewPostgresStore(pool *pgxpool.Pool, clock clockwork.Clock) *PostgresStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PostgresStore{pool: pool, clock: clock}
}

// EnsureSchema creates the session table if it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, createSessionTable); err != nil {
		return fmt.Errorf("create auction_session: %w", err)
	}
	return nil
}

func (p *PostgresStore) Load(ctx context.Context) (*models.Session, error) {
	var (
		version int64
		data    []byte
	)
	err := p.pool.QueryRow(ctx,
		`SELECT version, data FROM auction_session WHERE id = $1`, SessionKey,
	).Scan(&version, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewSession(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}

	s := models.NewSession()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	s.Version = version
	return s, nil
}

func (p *PostgresStore) Save(ctx context.Context, s *models.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}

	next := s.Clone()
	next.Version = s.Version + 1
	next.UpdatedAt = p.clock.Now().UTC().Truncate(time.Microsecond)
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	var affected int64
	if s.Version == 0 {
		tag, err := p.pool.Exec(ctx, `
            INSERT INTO auction_session (id, version, data, updated_at)
            VALUES ($1, 1, $2, $3)
            ON CONFLICT (id) DO NOTHING
        `, SessionKey, data, next.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		affected = tag.RowsAffected()
	} else {
		tag, err := p.pool.Exec(ctx, `
            UPDATE auction_session
               SET version = version + 1, data = $2, updated_at = $4
             WHERE id = $1 AND version = $3
        `, SessionKey, data, s.Version, next.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		affected = tag.RowsAffected()
	}

	if affected == 0 {
		return ErrVersionConflict
	}
	s.Version, s.UpdatedAt = next.Version, next.UpdatedAt
	return nil
}

func (p *PostgresStore) Clear(ctx context.Context) (*models.Session, error) {
	data, err := json.Marshal(models.NewSession())
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	now := p.clock.Now().UTC().Truncate(time.Microsecond)
	var version int64
	err = p.pool.QueryRow(ctx, `
        INSERT INTO auction_session (id, version, data, updated_at)
        VALUES ($1, 1, $2, $3)
        ON CONFLICT (id) DO UPDATE
           SET version = auction_session.version + 1,
               data = EXCLUDED.data,
               updated_at = EXCLUDED.updated_at
        RETURNING version
    `, SessionKey, data, now).Scan(&version)
	if err != nil {
		return nil, fmt.Errorf("clear session: %w", err)
	}
	s := cleared(version)
	s.UpdatedAt = now
	return s, nil
}
