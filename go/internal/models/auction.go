package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the precision every amount and budget is compared at.
const MoneyPlaces = 2

// ErrInvalidSession is wrapped by every invariant violation reported by Validate.
var ErrInvalidSession = errors.New("invalid auction session")

// SessionState represents the lifecycle state of the live auction
type SessionState string

const (
	SessionStateNone      SessionState = "NONE"
	SessionStateReady     SessionState = "READY"
	SessionStateProgress  SessionState = "PROGRESS"
	SessionStatePaused    SessionState = "PAUSED"
	SessionStateCompleted SessionState = "COMPLETED"
)

// ItemStatus is the explicit per-item position within a session
type ItemStatus string

const (
	ItemStatusQueued  ItemStatus = "QUEUED"
	ItemStatusOnBlock ItemStatus = "ON_BLOCK"
	ItemStatusSold    ItemStatus = "SOLD"
	ItemStatusUnsold  ItemStatus = "UNSOLD"
)

// Bid is one entry of the append-only bid log
type Bid struct {
	ID        uuid.UUID       `json:"id"`
	ItemID    uuid.UUID       `json:"item_id"`
	TeamID    uuid.UUID       `json:"team_id"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// Equal compares bids by value; decimals are compared numerically.
func (b Bid) Equal(o Bid) bool {
	return b.ID == o.ID &&
		b.ItemID == o.ItemID &&
		b.TeamID == o.TeamID &&
		b.Amount.Equal(o.Amount) &&
		b.Timestamp.Equal(o.Timestamp)
}

// CurrentItem is the item on the block
type CurrentItem struct {
	ID         uuid.UUID       `json:"id"`
	BidAmount  decimal.Decimal `json:"bid_amount"`
	BidIndices []int           `json:"bid_indices"`
	Clock      int             `json:"clock"`
}

// Session is the singleton live auction snapshot
type Session struct {
	Version int64        `json:"version"`
	State   SessionState `json:"state"`
	GroupID uuid.UUID    `json:"group_id"`
	Round   int          `json:"round"`

	Participants []uuid.UUID                   `json:"participants"`
	Budgets      map[uuid.UUID]decimal.Decimal `json:"budgets"`
	Items        []uuid.UUID                   `json:"items"`

	RemainingQueue []uuid.UUID `json:"remaining_queue"`
	UnsoldQueue    []uuid.UUID `json:"unsold_queue"`
	SoldQueue      []uuid.UUID `json:"sold_queue"`

	CurrentItem    *CurrentItem `json:"current_item"`
	PreviousItemID *uuid.UUID   `json:"previous_item_id"`

	Bids             []Bid                    `json:"bids"`
	ItemLastBidIndex map[uuid.UUID]int        `json:"item_last_bid_index"`
	ItemStatus       map[uuid.UUID]ItemStatus `json:"item_status"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns an empty session in state NONE.
func NewSession() *Session {
	return &Session{
		State:            SessionStateNone,
		Participants:     []uuid.UUID{},
		Budgets:          map[uuid.UUID]decimal.Decimal{},
		Items:            []uuid.UUID{},
		RemainingQueue:   []uuid.UUID{},
		UnsoldQueue:      []uuid.UUID{},
		SoldQueue:        []uuid.UUID{},
		Bids:             []Bid{},
		ItemLastBidIndex: map[uuid.UUID]int{},
		ItemStatus:       map[uuid.UUID]ItemStatus{},
	}
}

// RoundMoney rounds an amount to MoneyPlaces.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Clone returns a deep copy so a mutation never aliases a stored snapshot.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Participants = cloneIDs(s.Participants)
	c.Items = cloneIDs(s.Items)
	c.RemainingQueue = cloneIDs(s.RemainingQueue)
	c.UnsoldQueue = cloneIDs(s.UnsoldQueue)
	c.SoldQueue = cloneIDs(s.SoldQueue)
	c.Bids = append([]Bid{}, s.Bids...)

	c.Budgets = make(map[uuid.UUID]decimal.Decimal, len(s.Budgets))
	for k, v := range s.Budgets {
		c.Budgets[k] = v
	}
	c.ItemLastBidIndex = make(map[uuid.UUID]int, len(s.ItemLastBidIndex))
	for k, v := range s.ItemLastBidIndex {
		c.ItemLastBidIndex[k] = v
	}
	c.ItemStatus = make(map[uuid.UUID]ItemStatus, len(s.ItemStatus))
	for k, v := range s.ItemStatus {
		c.ItemStatus[k] = v
	}

	if s.CurrentItem != nil {
		ci := *s.CurrentItem
		ci.BidIndices = append([]int{}, s.CurrentItem.BidIndices...)
		c.CurrentItem = &ci
	}
	if s.PreviousItemID != nil {
		id := *s.PreviousItemID
		c.PreviousItemID = &id
	}
	return &c
}

func cloneIDs(ids []uuid.UUID) []uuid.UUID {
	return append([]uuid.UUID{}, ids...)
}

// IsParticipant reports whether the team may bid in this session.
func (s *Session) IsParticipant(teamID uuid.UUID) bool {
	for _, id := range s.Participants {
		if id == teamID {
			return true
		}
	}
	return false
}

// LeadingBid returns the currently winning bid on the block, if any.
func (s *Session) LeadingBid() *Bid {
	if s.CurrentItem == nil || len(s.CurrentItem.BidIndices) == 0 {
		return nil
	}
	idx := s.CurrentItem.BidIndices[len(s.CurrentItem.BidIndices)-1]
	if idx < 0 || idx >= len(s.Bids) {
		return nil
	}
	b := s.Bids[idx]
	return &b
}

// WinningBid returns the bid that bought a sold item.
func (s *Session) WinningBid(itemID uuid.UUID) (*Bid, bool) {
	idx, ok := s.ItemLastBidIndex[itemID]
	if !ok || idx < 0 || idx >= len(s.Bids) {
		return nil, false
	}
	b := s.Bids[idx]
	return &b, true
}

// BidsFor returns the log entries for one item in log order.
func (s *Session) BidsFor(itemID uuid.UUID) []Bid {
	var out []Bid
	for _, b := range s.Bids {
		if b.ItemID == itemID {
			out = append(out, b)
		}
	}
	return out
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSession, fmt.Sprintf(format, args...))
}

// Validate checks the structural invariants of a single snapshot.
func (s *Session) Validate() error {
	switch s.State {
	case SessionStateNone, SessionStateReady, SessionStateProgress, SessionStatePaused, SessionStateCompleted:
	default:
		return invalid("unknown state %q", s.State)
	}

	onBlock := s.State == SessionStateProgress || s.State == SessionStatePaused
	if onBlock != (s.CurrentItem != nil) {
		return invalid("current item presence does not match state %s", s.State)
	}

	if s.State == SessionStateNone {
		if len(s.Items) > 0 || len(s.Bids) > 0 || len(s.Participants) > 0 {
			return invalid("session in state NONE carries auction data")
		}
		return nil
	}

	for team, budget := range s.Budgets {
		if budget.IsNegative() {
			return invalid("team %s budget is negative", team)
		}
	}

	if err := s.validatePartition(); err != nil {
		return err
	}
	if s.State == SessionStateCompleted && len(s.RemainingQueue) > 0 {
		return invalid("completed session still has queued items")
	}

	for item, idx := range s.ItemLastBidIndex {
		if idx < 0 || idx >= len(s.Bids) || s.Bids[idx].ItemID != item {
			return invalid("winning bid index %d does not belong to item %s", idx, item)
		}
	}

	if s.CurrentItem != nil {
		prevTeam := uuid.Nil
		for _, idx := range s.CurrentItem.BidIndices {
			if idx < 0 || idx >= len(s.Bids) {
				return invalid("bid index %d out of range", idx)
			}
			b := s.Bids[idx]
			if b.ItemID != s.CurrentItem.ID {
				return invalid("bid index %d belongs to another item", idx)
			}
			if b.TeamID == prevTeam {
				return invalid("team %s outbid itself", b.TeamID)
			}
			prevTeam = b.TeamID
		}
		if s.CurrentItem.Clock < 0 {
			return invalid("negative clock")
		}
	}
	return nil
}

func (s *Session) validatePartition() error {
	seen := make(map[uuid.UUID]ItemStatus, len(s.Items))
	place := func(ids []uuid.UUID, status ItemStatus) error {
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				return invalid("item %s appears more than once", id)
			}
			if got := s.ItemStatus[id]; got != status {
				return invalid("item %s has status %s but sits in the %s position", id, got, status)
			}
			seen[id] = status
		}
		return nil
	}

	if err := place(s.RemainingQueue, ItemStatusQueued); err != nil {
		return err
	}
	if err := place(s.UnsoldQueue, ItemStatusUnsold); err != nil {
		return err
	}
	if err := place(s.SoldQueue, ItemStatusSold); err != nil {
		return err
	}
	if s.CurrentItem != nil {
		if err := place([]uuid.UUID{s.CurrentItem.ID}, ItemStatusOnBlock); err != nil {
			return err
		}
	}

	if len(seen) != len(s.Items) {
		return invalid("queues hold %d items, session has %d", len(seen), len(s.Items))
	}
	for _, id := range s.Items {
		if _, ok := seen[id]; !ok {
			return invalid("item %s is missing from every queue", id)
		}
	}
	for _, id := range s.SoldQueue {
		if _, ok := s.ItemLastBidIndex[id]; !ok {
			return invalid("sold item %s has no winning bid", id)
		}
	}
	return nil
}

// ValidateTransition checks the invariants that relate a snapshot to its predecessor.
// A wipe to NONE and the first initialize are unconstrained.
func (s *Session) ValidateTransition(prev *Session) error {
	if prev == nil || prev.State == SessionStateNone || s.State == SessionStateNone {
		return nil
	}

	if len(s.Bids) < len(prev.Bids) {
		return invalid("bid log shrank from %d to %d", len(prev.Bids), len(s.Bids))
	}
	for i := range prev.Bids {
		if !s.Bids[i].Equal(prev.Bids[i]) {
			return invalid("bid %d was rewritten", i)
		}
	}

	for team, before := range prev.Budgets {
		after, ok := s.Budgets[team]
		if !ok {
			return invalid("team %s dropped from budgets", team)
		}
		if after.GreaterThan(before) {
			return invalid("team %s budget increased from %s to %s", team, before, after)
		}
	}
	return nil
}
