package models

import (
	"github.com/google/uuid"
)

// PlayerAuctionStatus is the auction outcome recorded on a player entity.
type PlayerAuctionStatus string

const (
	PlayerAuctionStatusSold   PlayerAuctionStatus = "SOLD"
	PlayerAuctionStatusUnsold PlayerAuctionStatus = "UNSOLD"
	PlayerAuctionStatusOwner  PlayerAuctionStatus = "OWNER"
)

// Player is an auctionable entity belonging to an account
type Player struct {
	ID         uuid.UUID `json:"id"`
	AccountID  uuid.UUID `json:"account_id"`
	Name       string    `json:"name"`
	EmployeeID *int      `json:"employee_id,omitempty"`
	Email      *string   `json:"email,omitempty"`
	Skill      *string   `json:"skill,omitempty"`
	Bio        *string   `json:"bio,omitempty"`
	ImageURL   *string   `json:"image_url,omitempty"`

	// Set once the player has been through an auction
	TeamID        *uuid.UUID           `json:"team_id,omitempty"`
	LastBidID     *uuid.UUID           `json:"last_bid_id,omitempty"`
	AuctionStatus *PlayerAuctionStatus `json:"auction_status,omitempty"`
}

// Biddable reports whether the player can be put on the block.
// Owners are never auctioned and sold players keep their team.
func (p Player) Biddable() bool {
	if p.AuctionStatus == nil {
		return true
	}
	return *p.AuctionStatus == PlayerAuctionStatusUnsold
}
