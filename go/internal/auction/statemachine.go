package auction

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/gavel/go/internal/auction/events"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/shopspring/decimal"
)

// timerAction tells the engine what to do with the tick timer after a commit.
type timerAction int

const (
	timerKeep   timerAction = iota
	timerNext               // schedule the following tick
	timerArm                // fresh schedule, iteration count reset
	timerCancel             // stop ticking
)

func (a timerAction) String() string {
	switch a {
	case timerNext:
		return "next"
	case timerArm:
		return "arm"
	case timerCancel:
		return "cancel"
	default:
		return "keep"
	}
}

// outcome is everything a transition wants done once its snapshot is saved.
// Events are built without a snapshot and stamped with the committed one.
type outcome struct {
	events []events.Event
	timer  timerAction
	jobs   []finalizeJob
	bid    *models.Bid
}

func (o *outcome) emit(ev events.Event) {
	o.events = append(o.events, ev)
}

// initPlan is the entity data initialize builds a session from.
type initPlan struct {
	account models.Account
	teams   []models.Team
	items   []uuid.UUID
}

func initialize(s *models.Session, plan initPlan, now time.Time) (outcome, error) {
	var out outcome
	if s.State != models.SessionStateNone {
		return out, reject(ReasonInvalidState, "an auction already exists in state %s", s.State)
	}

	s.State = models.SessionStateReady
	s.GroupID = plan.account.ID
	s.Round = 0
	for _, team := range plan.teams {
		s.Participants = append(s.Participants, team.ID)
		s.Budgets[team.ID] = models.RoundMoney(team.Owner.Budget)
	}
	for _, id := range plan.items {
		s.Items = append(s.Items, id)
		s.RemainingQueue = append(s.RemainingQueue, id)
		s.ItemStatus[id] = models.ItemStatusQueued
	}

	out.emit(events.AuctionInitialized(nil, now))
	out.timer = timerCancel
	return out, nil
}

func start(s *models.Session, cfg Config, now time.Time) (outcome, error) {
	var out outcome
	if s.State != models.SessionStateReady {
		return out, reject(ReasonInvalidState, "auction is %s, not READY", s.State)
	}
	if len(s.RemainingQueue) == 0 {
		return out, reject(ReasonInvalidState, "no items left to draw")
	}

	drawNext(s, cfg)
	s.State = models.SessionStateProgress
	out.emit(events.TimerUpdated(nil, now))
	out.timer = timerArm
	return out, nil
}

func pause(s *models.Session, now time.Time) (outcome, error) {
	var out outcome
	if s.State != models.SessionStateProgress {
		return out, reject(ReasonInvalidState, "auction is %s, not PROGRESS", s.State)
	}
	s.State = models.SessionStatePaused
	out.emit(events.TimerUpdated(nil, now))
	out.timer = timerCancel
	return out, nil
}

// resume keeps the clock value the item was paused with.
func resume(s *models.Session, now time.Time) (outcome, error) {
	var out outcome
	if s.State != models.SessionStatePaused {
		return out, reject(ReasonInvalidState, "auction is %s, not PAUSED", s.State)
	}
	s.State = models.SessionStateProgress
	out.emit(events.TimerUpdated(nil, now))
	out.timer = timerArm
	return out, nil
}

func togglePause(s *models.Session, now time.Time) (outcome, error) {
	switch s.State {
	case models.SessionStateProgress:
		return pause(s, now)
	case models.SessionStatePaused:
		return resume(s, now)
	default:
		return outcome{}, reject(ReasonInvalidState, "auction is %s, neither PROGRESS nor PAUSED", s.State)
	}
}

// tick advances the clock of the item on the block by one step, settling it
// once the clock has run out.
func tick(s *models.Session, cfg Config, now time.Time) (outcome, error) {
	var out outcome
	if s.State != models.SessionStateProgress || s.CurrentItem == nil {
		out.timer = timerCancel
		return out, errNoChange
	}

	if s.CurrentItem.Clock > 0 {
		s.CurrentItem.Clock--
		out.emit(events.TimerUpdated(nil, now))
		out.timer = timerNext
		return out, nil
	}

	settleCurrent(s, &out, now)
	rotate(s, cfg, &out, now)
	return out, nil
}

// endAuction settles the item on the block as if its clock ran out and closes
// the session, leaving every undrawn item unsold.
func endAuction(s *models.Session, now time.Time) (outcome, error) {
	var out outcome
	switch s.State {
	case models.SessionStateReady, models.SessionStateProgress, models.SessionStatePaused:
	default:
		return out, reject(ReasonInvalidState, "cannot end an auction in state %s", s.State)
	}

	if s.CurrentItem != nil {
		settleCurrent(s, &out, now)
	}
	for _, id := range s.RemainingQueue {
		s.UnsoldQueue = append(s.UnsoldQueue, id)
		s.ItemStatus[id] = models.ItemStatusUnsold
		out.jobs = append(out.jobs, finalizeJob{settlement: &models.Settlement{
			AccountID: s.GroupID,
			PlayerID:  id,
			Status:    models.PlayerAuctionStatusUnsold,
		}})
	}
	s.RemainingQueue = []uuid.UUID{}

	complete(s, &out, now)
	return out, nil
}

func drawNext(s *models.Session, cfg Config) {
	id := s.RemainingQueue[0]
	s.RemainingQueue = s.RemainingQueue[1:]
	s.ItemStatus[id] = models.ItemStatusOnBlock
	s.CurrentItem = &models.CurrentItem{
		ID:         id,
		BidAmount:  models.RoundMoney(cfg.StartingBid),
		BidIndices: []int{},
		Clock:      cfg.AuctionInterval,
	}
}

// settleCurrent resolves the item on the block: sold to the last bidder, or
// unsold when nobody bid.
func settleCurrent(s *models.Session, out *outcome, now time.Time) {
	item := s.CurrentItem
	settlement := models.Settlement{
		AccountID: s.GroupID,
		PlayerID:  item.ID,
		Bids:      s.BidsFor(item.ID),
	}
	payload := events.PlayerAuctionEndedPayload{PlayerID: item.ID}

	if len(item.BidIndices) == 0 {
		s.UnsoldQueue = append(s.UnsoldQueue, item.ID)
		s.ItemStatus[item.ID] = models.ItemStatusUnsold
		settlement.Status = models.PlayerAuctionStatusUnsold
	} else {
		last := item.BidIndices[len(item.BidIndices)-1]
		winning := s.Bids[last]
		s.Budgets[winning.TeamID] = models.RoundMoney(s.Budgets[winning.TeamID].Sub(winning.Amount))
		s.SoldQueue = append(s.SoldQueue, item.ID)
		s.ItemLastBidIndex[item.ID] = last
		s.ItemStatus[item.ID] = models.ItemStatusSold
		settlement.Status = models.PlayerAuctionStatusSold
		settlement.Winning = &winning
		payload.Winning = &winning
	}
	payload.Status = settlement.Status

	prev := item.ID
	s.PreviousItemID = &prev
	s.CurrentItem = nil

	out.emit(events.PlayerAuctionEnded(nil, payload, now))
	out.jobs = append(out.jobs, finalizeJob{settlement: &settlement})
}

// rotate picks what follows a settlement: the next queued item, a recycled
// round of unsold items, or completion.
func rotate(s *models.Session, cfg Config, out *outcome, now time.Time) {
	if len(s.RemainingQueue) == 0 && len(s.UnsoldQueue) > 0 {
		recycled := len(s.UnsoldQueue)
		for _, id := range s.UnsoldQueue {
			s.ItemStatus[id] = models.ItemStatusQueued
		}
		s.RemainingQueue = s.UnsoldQueue
		s.UnsoldQueue = []uuid.UUID{}
		s.Round++
		out.emit(events.RoundEnded(nil, events.RoundEndedPayload{Round: s.Round, Recycled: recycled}, now))
	}

	if len(s.RemainingQueue) == 0 {
		complete(s, out, now)
		return
	}

	if cfg.AutoAdvance {
		drawNext(s, cfg)
		s.State = models.SessionStateProgress
		out.emit(events.TimerUpdated(nil, now))
		out.timer = timerArm
		return
	}

	s.State = models.SessionStateReady
	out.timer = timerCancel
}

func complete(s *models.Session, out *outcome, now time.Time) {
	s.State = models.SessionStateCompleted
	s.CurrentItem = nil

	budgets := make(map[uuid.UUID]decimal.Decimal, len(s.Budgets))
	for team, b := range s.Budgets {
		budgets[team] = b
	}
	out.emit(events.AccountAuctionCompleted(nil, now))
	out.jobs = append(out.jobs, finalizeJob{completion: &completionJob{
		accountID: s.GroupID,
		summary: models.AuctionSummary{
			Rounds:      s.Round,
			Sold:        append([]uuid.UUID{}, s.SoldQueue...),
			Unsold:      append([]uuid.UUID{}, s.UnsoldQueue...),
			Budgets:     budgets,
			TotalBids:   len(s.Bids),
			CompletedAt: now.UTC(),
		},
	}})
	out.timer = timerCancel
}
