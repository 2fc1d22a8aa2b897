package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is the group whose players are auctioned in a session
type Account struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	TotalCount  *int      `json:"total_count,omitempty"`
	IsAuctioned bool      `json:"is_auctioned"`

	AuctionSummary *AuctionSummary `json:"auction_summary,omitempty"`
}

// AuctionSummary is written onto the account once its auction completes.
type AuctionSummary struct {
	Rounds      int                           `json:"rounds"`
	Sold        []uuid.UUID                   `json:"sold"`
	Unsold      []uuid.UUID                   `json:"unsold"`
	Budgets     map[uuid.UUID]decimal.Decimal `json:"budgets"`
	TotalBids   int                           `json:"total_bids"`
	CompletedAt time.Time                     `json:"completed_at"`
}

// Settlement is the durable outcome of one item leaving the block.
type Settlement struct {
	AccountID uuid.UUID           `json:"account_id"`
	PlayerID  uuid.UUID           `json:"player_id"`
	Status    PlayerAuctionStatus `json:"status"`
	// Bids placed on the player during this pass, oldest first
	Bids []Bid `json:"bids"`
	// Winning is nil for unsold players
	Winning *Bid `json:"winning,omitempty"`
}

// ErrNotFound is returned by entity lookups that match nothing.
var ErrNotFound = errors.New("entity not found")
