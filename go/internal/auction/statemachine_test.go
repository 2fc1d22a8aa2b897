package auction

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/gavel/go/internal/auction/events"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AuctionInterval = 3
	cfg.TickInterval = time.Second
	return cfg
}

type fixture struct {
	t1, t2 uuid.UUID
	items  []uuid.UUID
	plan   initPlan
}

func newFixture(budget int64, items int) fixture {
	f := fixture{t1: uuid.New(), t2: uuid.New()}
	for i := 0; i < items; i++ {
		f.items = append(f.items, uuid.New())
	}
	f.plan = initPlan{
		account: models.Account{ID: uuid.New(), Name: "League"},
		teams: []models.Team{
			{ID: f.t1, Name: "T1", Owner: &models.TeamOwner{PlayerID: uuid.New(), UserID: uuid.New(), Budget: decimal.NewFromInt(budget)}},
			{ID: f.t2, Name: "T2", Owner: &models.TeamOwner{PlayerID: uuid.New(), UserID: uuid.New(), Budget: decimal.NewFromInt(budget)}},
		},
		items: f.items,
	}
	return f
}

// apply runs a transition the way the engine does: on a clone, with the
// result validated against its predecessor.
func apply(t *testing.T, s *models.Session, fn func(s *models.Session) (outcome, error)) (*models.Session, outcome) {
	t.Helper()
	next := s.Clone()
	out, err := fn(next)
	assert.NoError(t, err)
	assert.NoError(t, next.Validate())
	assert.NoError(t, next.ValidateTransition(s))
	return next, out
}

func eventTypes(out outcome) []events.Type {
	var types []events.Type
	for _, ev := range out.events {
		types = append(types, ev.Type)
	}
	return types
}

func started(t *testing.T, f fixture, cfg Config) *models.Session {
	t.Helper()
	s, _ := apply(t, models.NewSession(), func(s *models.Session) (outcome, error) { return initialize(s, f.plan, testNow) })
	s, _ = apply(t, s, func(s *models.Session) (outcome, error) { return start(s, cfg, testNow) })
	return s
}

func runClockOut(t *testing.T, s *models.Session, cfg Config) (*models.Session, outcome) {
	t.Helper()
	var out outcome
	for i := 0; i <= cfg.AuctionInterval; i++ {
		s, out = apply(t, s, func(s *models.Session) (outcome, error) { return tick(s, cfg, testNow) })
	}
	return s, out
}

func TestInitialize(t *testing.T) {
	f := newFixture(1000, 2)
	s, out := apply(t, models.NewSession(), func(s *models.Session) (outcome, error) { return initialize(s, f.plan, testNow) })

	check.Equal(t, models.SessionStateReady, s.State)
	check.Equal(t, f.plan.account.ID, s.GroupID)
	check.Equal(t, 0, s.Round)
	check.Equal(t, f.items, s.RemainingQueue)
	check.Equal(t, []uuid.UUID{f.t1, f.t2}, s.Participants)
	check.Equal(t, "1000", s.Budgets[f.t1].String())
	check.Equal(t, []events.Type{events.TypeAuctionInitialized}, eventTypes(out))

	_, err := initialize(s.Clone(), f.plan, testNow)
	check.True(t, errors.Is(err, ErrInvalidState))
}

func TestStartDrawsHeadOfQueue(t *testing.T) {
	cfg := testConfig()
	f := newFixture(1000, 2)
	s := started(t, f, cfg)

	check.Equal(t, models.SessionStateProgress, s.State)
	check.Equal(t, f.items[0], s.CurrentItem.ID)
	check.Equal(t, "100", s.CurrentItem.BidAmount.String())
	check.Equal(t, cfg.AuctionInterval, s.CurrentItem.Clock)
	check.Equal(t, models.ItemStatusOnBlock, s.ItemStatus[f.items[0]])
	check.Equal(t, []uuid.UUID{f.items[1]}, s.RemainingQueue)

	_, err := start(s.Clone(), cfg, testNow)
	check.True(t, errors.Is(err, ErrInvalidState))
}

func TestTickCountsDownThenSettles(t *testing.T) {
	cfg := testConfig()
	f := newFixture(1000, 2)
	s := started(t, f, cfg)

	for want := cfg.AuctionInterval - 1; want >= 0; want-- {
		var out outcome
		s, out = apply(t, s, func(s *models.Session) (outcome, error) { return tick(s, cfg, testNow) })
		check.Equal(t, want, s.CurrentItem.Clock)
		check.Equal(t, timerNext, out.timer)
		check.Equal(t, []events.Type{events.TypeTimerUpdated}, eventTypes(out))
	}

	s, out := apply(t, s, func(s *models.Session) (outcome, error) { return tick(s, cfg, testNow) })
	check.Equal(t, models.SessionStateReady, s.State)
	check.Nil(t, s.CurrentItem)
	check.Equal(t, f.items[0], *s.PreviousItemID)
	check.Equal(t, []uuid.UUID{f.items[0]}, s.UnsoldQueue)
	check.Equal(t, models.ItemStatusUnsold, s.ItemStatus[f.items[0]])
	check.Equal(t, timerCancel, out.timer)
	check.Equal(t, []events.Type{events.TypePlayerAuctionEnded}, eventTypes(out))
	check.Equal(t, 1, len(out.jobs))
	check.Equal(t, models.PlayerAuctionStatusUnsold, out.jobs[0].settlement.Status)
}

func TestTickOutsideProgressChangesNothing(t *testing.T) {
	cfg := testConfig()
	f := newFixture(1000, 1)
	s := started(t, f, cfg)
	s, _ = apply(t, s, func(s *models.Session) (outcome, error) { return pause(s, testNow) })

	out, err := tick(s.Clone(), cfg, testNow)
	check.True(t, errors.Is(err, errNoChange))
	check.Equal(t, timerCancel, out.timer)
	check.Equal(t, 0, len(out.events))
}

func TestSoldItemDebitsWinner(t *testing.T) {
	cfg := testConfig()
	f := newFixture(1000, 2)
	s := started(t, f, cfg)
	item := s.CurrentItem.ID

	s, _ = apply(t, s, func(s *models.Session) (outcome, error) {
		return placeBid(s, BidRequest{ItemID: item, TeamID: f.t1, Amount: decimal.NewFromInt(100)}, cfg, testNow)
	})
	s, _ = apply(t, s, func(s *models.Session) (outcome, error) {
		return placeBid(s, BidRequest{ItemID: item, TeamID: f.t2, Amount: decimal.NewFromInt(200)}, cfg, testNow)
	})

	s, out := runClockOut(t, s, cfg)
	check.Equal(t, models.ItemStatusSold, s.ItemStatus[item])
	check.Equal(t, "800", s.Budgets[f.t2].String())
	check.Equal(t, "1000", s.Budgets[f.t1].String())

	winning, ok := s.WinningBid(item)
	check.True(t, ok)
	check.Equal(t, f.t2, winning.TeamID)

	check.Equal(t, []events.Type{events.TypePlayerAuctionEnded}, eventTypes(out))
	ended := out.events[0].PlayerEnded
	check.Equal(t, models.PlayerAuctionStatusSold, ended.Status)
	check.Equal(t, f.t2, ended.Winning.TeamID)

	settlement := out.jobs[0].settlement
	check.Equal(t, 2, len(settlement.Bids))
	check.Equal(t, winning.ID, settlement.Winning.ID)
}

func TestUnsoldItemsRecycleIntoNextRound(t *testing.T) {
	cfg := testConfig()
	f := newFixture(1000, 2)
	s := started(t, f, cfg)
	first := s.CurrentItem.ID

	// first item sells, second gets no bids
	s, _ = apply(t, s, func(s *models.Session) (outcome, error) {
		return placeBid(s, BidRequest{ItemID: first, TeamID: f.t1, Amount: decimal.NewFromInt(100)}, cfg, testNow)
	})
	s, _ = runClockOut(t, s, cfg)
	s, _ = apply(t, s, func(s *models.Session) (outcome, error) { return start(s, cfg, testNow) })
	second := s.CurrentItem.ID
	s, out := runClockOut(t, s, cfg)

	check.Equal(t, []events.Type{events.TypePlayerAuctionEnded, events.TypeRoundEnded}, eventTypes(out))
	check.Equal(t, 1, s.Round)
	check.Equal(t, []uuid.UUID{second}, s.RemainingQueue)
	check.Equal(t, 0, len(s.UnsoldQueue))
	check.Equal(t, models.ItemStatusQueued, s.ItemStatus[second])
	check.Equal(t, models.SessionStateReady, s.State)
	check.Equal(t, 1, out.events[1].RoundEnded.Recycled)
}

func TestLastItemSoldCompletes(t *testing.T) {
	cfg := testConfig()
	f := newFixture(1000, 1)
	s := started(t, f, cfg)
	item := s.CurrentItem.ID

	s, _ = apply(t, s, func(s *models.Session) (outcome, error) {
		return placeBid(s, BidRequest{ItemID: item, TeamID: f.t1, Amount: decimal.NewFromInt(300)}, cfg, testNow)
	})
	s, out := runClockOut(t, s, cfg)

	check.Equal(t, models.SessionStateCompleted, s.State)
	check.Equal(t, []events.Type{events.TypePlayerAuctionEnded, events.TypeAccountAuctionCompleted}, eventTypes(out))
	check.Equal(t, timerCancel, out.timer)
	check.Equal(t, 2, len(out.jobs))

	done := out.jobs[1].completion
	check.NotNil(t, done)
	check.Equal(t, f.plan.account.ID, done.accountID)
	check.Equal(t, []uuid.UUID{item}, done.summary.Sold)
	check.Equal(t, 1, done.summary.TotalBids)
	check.Equal(t, "700", done.summary.Budgets[f.t1].String())
}

func TestAutoAdvanceDrawsNextItem(t *testing.T) {
	cfg := testConfig()
	cfg.AutoAdvance = true
	f := newFixture(1000, 2)
	s := started(t, f, cfg)

	s, out := runClockOut(t, s, cfg)
	check.Equal(t, models.SessionStateProgress, s.State)
	check.Equal(t, f.items[1], s.CurrentItem.ID)
	check.Equal(t, cfg.AuctionInterval, s.CurrentItem.Clock)
	check.Equal(t, timerArm, out.timer)
	check.Equal(t, []events.Type{events.TypePlayerAuctionEnded, events.TypeTimerUpdated}, eventTypes(out))
}

func TestPauseResumeKeepsClock(t *testing.T) {
	cfg := testConfig()
	f := newFixture(1000, 1)
	s := started(t, f, cfg)
	s, _ = apply(t, s, func(s *models.Session) (outcome, error) { return tick(s, cfg, testNow) })
	clock := s.CurrentItem.Clock

	s, out := apply(t, s, func(s *models.Session) (outcome, error) { return togglePause(s, testNow) })
	check.Equal(t, models.SessionStatePaused, s.State)
	check.Equal(t, timerCancel, out.timer)
	check.Equal(t, clock, s.CurrentItem.Clock)

	_, err := pause(s.Clone(), testNow)
	check.True(t, errors.Is(err, ErrInvalidState))

	s, out = apply(t, s, func(s *models.Session) (outcome, error) { return togglePause(s, testNow) })
	check.Equal(t, models.SessionStateProgress, s.State)
	check.Equal(t, timerArm, out.timer)
	check.Equal(t, clock, s.CurrentItem.Clock)

	_, err = resume(s.Clone(), testNow)
	check.True(t, errors.Is(err, ErrInvalidState))
}

func TestTogglePauseOutsideAuction(t *testing.T) {
	_, err := togglePause(models.NewSession(), testNow)
	check.True(t, errors.Is(err, ErrInvalidState))
}

func TestEndAuctionSettlesEverything(t *testing.T) {
	cfg := testConfig()
	f := newFixture(1000, 3)
	s := started(t, f, cfg)
	item := s.CurrentItem.ID

	s, _ = apply(t, s, func(s *models.Session) (outcome, error) {
		return placeBid(s, BidRequest{ItemID: item, TeamID: f.t2, Amount: decimal.NewFromInt(250)}, cfg, testNow)
	})
	s, out := apply(t, s, func(s *models.Session) (outcome, error) { return endAuction(s, testNow) })

	check.Equal(t, models.SessionStateCompleted, s.State)
	check.Nil(t, s.CurrentItem)
	check.Equal(t, []uuid.UUID{item}, s.SoldQueue)
	check.Equal(t, []uuid.UUID{f.items[1], f.items[2]}, s.UnsoldQueue)
	check.Equal(t, 0, len(s.RemainingQueue))
	check.Equal(t, "750", s.Budgets[f.t2].String())
	check.Equal(t, []events.Type{events.TypePlayerAuctionEnded, events.TypeAccountAuctionCompleted}, eventTypes(out))
	// one sold settlement, two unsold settlements, one completion
	check.Equal(t, 4, len(out.jobs))

	_, err := endAuction(s.Clone(), testNow)
	check.True(t, errors.Is(err, ErrInvalidState))
}

func TestEndAuctionFromReady(t *testing.T) {
	f := newFixture(1000, 2)
	s, _ := apply(t, models.NewSession(), func(s *models.Session) (outcome, error) { return initialize(s, f.plan, testNow) })

	s, out := apply(t, s, func(s *models.Session) (outcome, error) { return endAuction(s, testNow) })
	check.Equal(t, models.SessionStateCompleted, s.State)
	check.Equal(t, f.items, s.UnsoldQueue)
	check.Equal(t, []events.Type{events.TypeAccountAuctionCompleted}, eventTypes(out))
}
