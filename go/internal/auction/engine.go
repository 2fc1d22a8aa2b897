// Package auction runs the live timed auction: the session state machine, the
// per-second item clock, bid validation and settlement.
package auction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/gavel/go/internal/auction/events"
	"github.com/mcdev12/gavel/go/internal/auction/notify"
	"github.com/mcdev12/gavel/go/internal/auction/session"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// command runs on the Run goroutine.
type command func(ctx context.Context)

// Engine is the single writer of the auction session. Every mutation and every
// timer firing is executed in order by Run; the session store's version check
// guards against writers outside this process.
type Engine struct {
	store     session.Store
	entities  EntityStore
	notifier  notify.Notifier
	finalizer *Finalizer
	clock     Clock
	cfg       Config

	cmdCh  chan command
	tickCh chan uint64
	done   chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once

	// owned by Run
	timer      clockwork.Timer
	timerStop  chan struct{}
	generation uint64
	iterations int
}

// Option customises an Engine
type Option func(*Engine)

// WithClock replaces the real clock, mostly for tests.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// NewEngine wires an engine. Call Run before any other method.
func NewEngine(store session.Store, entities EntityStore, notifier notify.Notifier, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		entities:  entities,
		notifier:  notifier,
		finalizer: NewFinalizer(entities, cfg.FinalizerBuffer),
		clock:     clockwork.NewRealClock(),
		cfg:       cfg,
		cmdCh:     make(chan command),
		tickCh:    make(chan uint64),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run processes commands and ticks until ctx is cancelled. A session left in
// PROGRESS by a previous process gets its clock re-armed.
func (e *Engine) Run(ctx context.Context) error {
	started := false
	e.startOnce.Do(func() { started = true })
	if !started {
		return errors.New("auction engine already running")
	}

	var wg sync.WaitGroup
	finalizerCtx, cancelFinalizer := context.WithCancel(ctx)
	wg.Add(1)
	go e.finalizer.worker(finalizerCtx, &wg)

	defer func() {
		e.cancelTimer()
		e.stopOnce.Do(func() { close(e.done) })
		cancelFinalizer()
		wg.Wait()
		log.Info().Msg("auction engine stopped")
	}()

	if s, err := e.store.Load(ctx); err != nil {
		log.Error().Err(err).Msg("failed to load session on startup")
	} else if s.State == models.SessionStateProgress {
		log.Info().
			Str("group_id", s.GroupID.String()).
			Int("clock", s.CurrentItem.Clock).
			Msg("resuming clock for auction in progress")
		e.arm()
	}

	log.Info().
		Int("auction_interval_sec", e.cfg.AuctionInterval).
		Dur("tick_interval", e.cfg.TickInterval).
		Bool("auto_advance", e.cfg.AutoAdvance).
		Msg("auction engine started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-e.cmdCh:
			cmd(ctx)
		case gen := <-e.tickCh:
			e.handleTick(ctx, gen)
		}
	}
}

type result[T any] struct {
	val T
	err error
}

// do submits fn to the Run goroutine and waits for its result.
func do[T any](ctx context.Context, e *Engine, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	reply := make(chan result[T], 1)
	cmd := func(runCtx context.Context) {
		v, err := fn(ctx)
		reply <- result[T]{val: v, err: err}
	}

	select {
	case e.cmdCh <- cmd:
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-e.done:
		return zero, ErrEngineStopped
	}

	select {
	case r := <-reply:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// commit applies transition to the stored session and, once saved, acts on its
// outcome: timer, broadcasts, finalizer jobs. Runs on the Run goroutine.
func (e *Engine) commit(ctx context.Context, transition func(s *models.Session, now time.Time) (outcome, error)) (*models.Session, outcome, error) {
	var out outcome
	saved, err := session.Update(ctx, e.store, func(s *models.Session) error {
		o, err := transition(s, e.clock.Now())
		out = o
		return err
	})
	if errors.Is(err, errNoChange) {
		e.applyTimer(out.timer)
		return nil, out, err
	}
	if err != nil {
		return nil, outcome{}, err
	}

	e.applyTimer(out.timer)
	for _, ev := range out.events {
		e.notifier.Publish(ctx, ev.WithSession(saved))
	}
	for _, job := range out.jobs {
		e.finalizer.enqueue(job)
	}
	return saved, out, nil
}

func (e *Engine) handleTick(ctx context.Context, gen uint64) {
	if gen != e.generation {
		log.Debug().
			Uint64("generation", gen).
			Uint64("current", e.generation).
			Msg("dropping stale tick")
		return
	}
	e.timerFired()

	e.iterations++
	if e.iterations > e.cfg.MaxTickIterations {
		log.Warn().
			Int("iterations", e.iterations).
			Int("max", e.cfg.MaxTickIterations).
			Msg("tick iteration cap reached, halting timer")
		return
	}

	saved, out, err := e.commit(ctx, func(s *models.Session, now time.Time) (outcome, error) {
		return tick(s, e.cfg, now)
	})
	if errors.Is(err, errNoChange) {
		log.Debug().Msg("tick with no item on the block")
		return
	}
	if err != nil {
		// fail-stop: a retried tick could compound a bad snapshot
		e.cancelTimer()
		log.Error().Err(err).Msg("tick failed, timer cancelled")
		return
	}

	if len(out.events) > 0 && out.events[0].Type == events.TypePlayerAuctionEnded {
		log.Info().
			Str("state", string(saved.State)).
			Int("round", saved.Round).
			Int("sold", len(saved.SoldQueue)).
			Int("unsold", len(saved.UnsoldQueue)).
			Int("remaining", len(saved.RemainingQueue)).
			Msg("item settled")
	}
}

// Initialize creates a READY session for the account's eligible players and
// ready teams.
func (e *Engine) Initialize(ctx context.Context, groupID uuid.UUID) (*models.Session, error) {
	return do(ctx, e, func(ctx context.Context) (*models.Session, error) {
		if groupID == uuid.Nil {
			return nil, reject(ReasonInvalidPayload, "group_id is required")
		}

		cur, err := e.store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		if cur.State != models.SessionStateNone {
			return nil, reject(ReasonInvalidState, "an auction already exists in state %s", cur.State)
		}

		plan, err := e.plan(ctx, groupID)
		if err != nil {
			return nil, err
		}

		saved, _, err := e.commit(ctx, func(s *models.Session, now time.Time) (outcome, error) {
			return initialize(s, plan, now)
		})
		if err != nil {
			return nil, err
		}

		log.Info().
			Str("group_id", groupID.String()).
			Int("teams", len(saved.Participants)).
			Int("items", len(saved.Items)).
			Msg("auction initialized")
		return saved, nil
	})
}

// plan gathers and checks everything initialize needs from the entity store.
func (e *Engine) plan(ctx context.Context, groupID uuid.UUID) (initPlan, error) {
	account, err := e.entities.GetAccount(ctx, groupID)
	if errors.Is(err, models.ErrNotFound) {
		return initPlan{}, reject(ReasonInvalidGroup, "account %s does not exist", groupID)
	}
	if err != nil {
		return initPlan{}, fmt.Errorf("get account: %w", err)
	}

	teams, err := e.entities.ListTeams(ctx, groupID)
	if err != nil {
		return initPlan{}, fmt.Errorf("list teams: %w", err)
	}
	if len(teams) == 0 {
		return initPlan{}, reject(ReasonNoTeams, "account %s has no teams", groupID)
	}
	owners := make(map[uuid.UUID]bool, len(teams))
	for _, team := range teams {
		if !team.ReadyToBid() {
			return initPlan{}, reject(ReasonTeamNotReady, "team %q has no owner or budget", team.Name)
		}
		owners[team.Owner.PlayerID] = true
	}

	players, err := e.entities.ListEligiblePlayers(ctx, groupID)
	if err != nil {
		return initPlan{}, fmt.Errorf("list players: %w", err)
	}
	var items []uuid.UUID
	for _, p := range players {
		if !p.Biddable() || owners[p.ID] {
			continue
		}
		items = append(items, p.ID)
	}
	if len(items) == 0 {
		return initPlan{}, reject(ReasonNoItems, "account %s has no players to auction", groupID)
	}

	return initPlan{account: *account, teams: teams, items: items}, nil
}

// Start draws the next item and starts its clock.
func (e *Engine) Start(ctx context.Context) (*models.Session, error) {
	return e.transition(ctx, "start", func(s *models.Session, now time.Time) (outcome, error) {
		return start(s, e.cfg, now)
	})
}

// Pause stops the clock, keeping its value.
func (e *Engine) Pause(ctx context.Context) (*models.Session, error) {
	return e.transition(ctx, "pause", func(s *models.Session, now time.Time) (outcome, error) {
		return pause(s, now)
	})
}

// Resume restarts a paused clock from where it stopped.
func (e *Engine) Resume(ctx context.Context) (*models.Session, error) {
	return e.transition(ctx, "resume", func(s *models.Session, now time.Time) (outcome, error) {
		return resume(s, now)
	})
}

// TogglePause pauses a running auction or resumes a paused one.
func (e *Engine) TogglePause(ctx context.Context) (*models.Session, error) {
	return e.transition(ctx, "toggle_pause", func(s *models.Session, now time.Time) (outcome, error) {
		return togglePause(s, now)
	})
}

// EndAuction force-completes the auction.
func (e *Engine) EndAuction(ctx context.Context) (*models.Session, error) {
	return e.transition(ctx, "end", func(s *models.Session, now time.Time) (outcome, error) {
		return endAuction(s, now)
	})
}

func (e *Engine) transition(ctx context.Context, name string, fn func(s *models.Session, now time.Time) (outcome, error)) (*models.Session, error) {
	return do(ctx, e, func(ctx context.Context) (*models.Session, error) {
		saved, _, err := e.commit(ctx, fn)
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("transition", name).
			Str("state", string(saved.State)).
			Msg("auction transition applied")
		return saved, nil
	})
}

// Bid validates and records a bid on the item on the block.
func (e *Engine) Bid(ctx context.Context, req BidRequest) (*models.Bid, error) {
	return do(ctx, e, func(ctx context.Context) (*models.Bid, error) {
		_, out, err := e.commit(ctx, func(s *models.Session, now time.Time) (outcome, error) {
			return placeBid(s, req, e.cfg, now)
		})
		if err != nil {
			if rej, ok := AsRejection(err); ok {
				log.Debug().
					Str("reason", string(rej.Reason)).
					Str("team_id", req.TeamID.String()).
					Str("item_id", req.ItemID.String()).
					Msg("bid rejected")
			}
			return nil, err
		}
		log.Info().
			Str("team_id", out.bid.TeamID.String()).
			Str("item_id", out.bid.ItemID.String()).
			Str("amount", out.bid.Amount.String()).
			Msg("bid accepted")
		return out.bid, nil
	})
}

// Clear wipes the session back to NONE whatever its state.
func (e *Engine) Clear(ctx context.Context) (*models.Session, error) {
	return do(ctx, e, func(ctx context.Context) (*models.Session, error) {
		e.cancelTimer()
		e.iterations = 0

		s, err := e.store.Clear(ctx)
		if err != nil {
			return nil, fmt.Errorf("clear session: %w", err)
		}
		e.notifier.Publish(ctx, events.AccountAuctionCleared(s, e.clock.Now()))
		log.Info().Msg("auction cleared")
		return s, nil
	})
}

// Reset is Clear under the name the control surface also accepts.
func (e *Engine) Reset(ctx context.Context) (*models.Session, error) {
	return e.Clear(ctx)
}

// Data returns the stored snapshot verbatim.
func (e *Engine) Data(ctx context.Context) (*models.Session, error) {
	s, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}
