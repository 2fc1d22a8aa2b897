// Package session holds the singleton live auction snapshot.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/rs/zerolog/log"
)

// SessionKey is the id of the one stored session document.
const SessionKey = "live"

// maxUpdateAttempts bounds retries of Update after a version conflict.
const maxUpdateAttempts = 5

var (
	// ErrVersionConflict is returned by Save when the stored version moved on.
	ErrVersionConflict = errors.New("session version conflict")
	// ErrConflictRetriesExhausted is returned by Update once every attempt conflicted.
	ErrConflictRetriesExhausted = errors.New("session update retries exhausted")
)

// Store persists the single live session snapshot.
//
// Save is a compare-and-swap on Version: the stored version must equal
// s.Version, the write stores s.Version+1 and updates s in place.
type Store interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) (*models.Session, error)
}

// Update reads the stored session, applies fn to a private copy, validates the
// result against the snapshot it was derived from and CAS-saves it. fn runs
// again on every conflict so it must not have side effects of its own.
func Update(ctx context.Context, st Store, fn func(s *models.Session) error) (*models.Session, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		cur, err := st.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}

		next := cur.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}
		if err := next.ValidateTransition(cur); err != nil {
			return nil, err
		}

		err = st.Save(ctx, next)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, fmt.Errorf("save session: %w", err)
		}

		log.Warn().
			Int("attempt", attempt).
			Int64("version", cur.Version).
			Msg("session version conflict, retrying")
	}
	return nil, ErrConflictRetriesExhausted
}

// cleared builds the NONE session written by Clear on top of version.
func cleared(version int64) *models.Session {
	s := models.NewSession()
	s.Version = version
	return s
}
