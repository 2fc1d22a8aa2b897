package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func readySession(items ...uuid.UUID) *Session {
	s := NewSession()
	s.State = SessionStateReady
	s.GroupID = uuid.New()
	t1, t2 := uuid.New(), uuid.New()
	s.Participants = []uuid.UUID{t1, t2}
	s.Budgets[t1] = decimal.NewFromInt(1000)
	s.Budgets[t2] = decimal.NewFromInt(1000)
	s.Items = append(s.Items, items...)
	s.RemainingQueue = append(s.RemainingQueue, items...)
	for _, id := range items {
		s.ItemStatus[id] = ItemStatusQueued
	}
	return s
}

func TestNewSessionIsValid(t *testing.T) {
	s := NewSession()
	check.Equal(t, SessionStateNone, s.State)
	check.NoError(t, s.Validate())
}

func TestValidateCurrentItemMatchesState(t *testing.T) {
	p1 := uuid.New()
	s := readySession(p1)
	check.NoError(t, s.Validate())

	s.State = SessionStateProgress
	err := s.Validate()
	check.True(t, errors.Is(err, ErrInvalidSession))

	s.RemainingQueue = []uuid.UUID{}
	s.ItemStatus[p1] = ItemStatusOnBlock
	s.CurrentItem = &CurrentItem{ID: p1, BidAmount: decimal.NewFromInt(100), Clock: 10}
	check.NoError(t, s.Validate())

	s.State = SessionStateReady
	check.Error(t, s.Validate())
}

func TestValidatePartition(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()

	t.Run("duplicate across queues", func(t *testing.T) {
		s := readySession(p1, p2)
		s.UnsoldQueue = []uuid.UUID{p1}
		check.Error(t, s.Validate())
	})

	t.Run("missing item", func(t *testing.T) {
		s := readySession(p1, p2)
		s.RemainingQueue = []uuid.UUID{p1}
		check.Error(t, s.Validate())
	})

	t.Run("status disagrees with queue", func(t *testing.T) {
		s := readySession(p1, p2)
		s.ItemStatus[p2] = ItemStatusSold
		check.Error(t, s.Validate())
	})

	t.Run("sold item needs a winning bid", func(t *testing.T) {
		s := readySession(p1, p2)
		s.RemainingQueue = []uuid.UUID{p2}
		s.SoldQueue = []uuid.UUID{p1}
		s.ItemStatus[p1] = ItemStatusSold
		check.Error(t, s.Validate())

		s.Bids = append(s.Bids, Bid{ID: uuid.New(), ItemID: p1, TeamID: s.Participants[0], Amount: decimal.NewFromInt(100)})
		s.ItemLastBidIndex[p1] = 0
		check.NoError(t, s.Validate())
	})
}

func TestValidateConsecutiveSelfOutbid(t *testing.T) {
	p1 := uuid.New()
	s := readySession(p1)
	team := s.Participants[0]
	s.State = SessionStateProgress
	s.RemainingQueue = []uuid.UUID{}
	s.ItemStatus[p1] = ItemStatusOnBlock
	s.Bids = []Bid{
		{ID: uuid.New(), ItemID: p1, TeamID: team, Amount: decimal.NewFromInt(100)},
		{ID: uuid.New(), ItemID: p1, TeamID: team, Amount: decimal.NewFromInt(150)},
	}
	s.CurrentItem = &CurrentItem{ID: p1, BidAmount: decimal.NewFromInt(200), BidIndices: []int{0, 1}, Clock: 10}
	check.Error(t, s.Validate())

	s.Bids[1].TeamID = s.Participants[1]
	check.NoError(t, s.Validate())
}

func TestValidateNegativeBudget(t *testing.T) {
	s := readySession(uuid.New())
	s.Budgets[s.Participants[0]] = decimal.NewFromInt(-1)
	check.Error(t, s.Validate())
}

func TestValidateTransition(t *testing.T) {
	p1 := uuid.New()
	prev := readySession(p1)
	prev.Bids = append(prev.Bids, Bid{ID: uuid.New(), ItemID: p1, TeamID: prev.Participants[0], Amount: decimal.NewFromInt(100), Timestamp: time.Now()})

	next := prev.Clone()
	check.NoError(t, next.ValidateTransition(prev))

	next.Budgets[prev.Participants[0]] = decimal.NewFromInt(1001)
	check.Error(t, next.ValidateTransition(prev))

	next = prev.Clone()
	next.Bids = next.Bids[:0]
	check.Error(t, next.ValidateTransition(prev))

	next = prev.Clone()
	next.Bids[0].Amount = decimal.NewFromInt(5)
	check.Error(t, next.ValidateTransition(prev))

	// wiping is always allowed
	check.NoError(t, NewSession().ValidateTransition(prev))
}

func TestCloneDoesNotAlias(t *testing.T) {
	p1 := uuid.New()
	s := readySession(p1)
	s.CurrentItem = &CurrentItem{ID: p1, BidIndices: []int{0}}

	c := s.Clone()
	c.RemainingQueue[0] = uuid.New()
	c.Budgets[s.Participants[0]] = decimal.Zero
	c.CurrentItem.BidIndices[0] = 7
	c.ItemStatus[p1] = ItemStatusSold

	check.Equal(t, p1, s.RemainingQueue[0])
	check.Equal(t, "1000", s.Budgets[s.Participants[0]].String())
	check.Equal(t, 0, s.CurrentItem.BidIndices[0])
	check.Equal(t, ItemStatusQueued, s.ItemStatus[p1])
}

func TestSessionJSONKeepsBidLog(t *testing.T) {
	p1 := uuid.New()
	s := readySession(p1)
	s.Bids = append(s.Bids, Bid{ID: uuid.New(), ItemID: p1, TeamID: s.Participants[1], Amount: decimal.RequireFromString("150.50"), Timestamp: time.Now().UTC()})

	raw, err := json.Marshal(s)
	assert.NoError(t, err)

	var out Session
	assert.NoError(t, json.Unmarshal(raw, &out))
	check.NoError(t, out.Validate())
	check.NoError(t, out.ValidateTransition(s))
	check.Equal(t, "1000", out.Budgets[s.Participants[0]].String())
	check.True(t, out.Bids[0].Equal(s.Bids[0]))
}

func TestTeamReadyToBid(t *testing.T) {
	team := Team{ID: uuid.New(), Name: "T1"}
	check.False(t, team.ReadyToBid())

	team.Owner = &TeamOwner{PlayerID: uuid.New(), UserID: uuid.New(), Budget: decimal.Zero}
	check.False(t, team.ReadyToBid())

	team.Owner.Budget = decimal.NewFromInt(1000)
	check.True(t, team.ReadyToBid())
}

func TestPlayerBiddable(t *testing.T) {
	p := Player{ID: uuid.New()}
	check.True(t, p.Biddable())

	for status, want := range map[PlayerAuctionStatus]bool{
		PlayerAuctionStatusSold:   false,
		PlayerAuctionStatusOwner:  false,
		PlayerAuctionStatusUnsold: true,
	} {
		st := status
		p.AuctionStatus = &st
		check.Equal(t, want, p.Biddable())
	}
}
