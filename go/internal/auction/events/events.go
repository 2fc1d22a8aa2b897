// Package events defines the closed set of real-time auction events.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/gavel/go/internal/models"
)

// Type names an auction event
type Type string

const (
	TypeAuctionInitialized      Type = "AUCTION_INITIALIZED"
	TypeTimerUpdated            Type = "TIMER_UPDATED"
	TypeBid                     Type = "BID"
	TypePlayerAuctionEnded      Type = "PLAYER_AUCTION_ENDED"
	TypeRoundEnded              Type = "ROUND_ENDED"
	TypeAccountAuctionCompleted Type = "ACCOUNT_AUCTION_COMPLETED"
	TypeAccountAuctionCleared   Type = "ACCOUNT_AUCTION_CLEARED"
)

var allTypes = []Type{
	TypeAuctionInitialized,
	TypeTimerUpdated,
	TypeBid,
	TypePlayerAuctionEnded,
	TypeRoundEnded,
	TypeAccountAuctionCompleted,
	TypeAccountAuctionCleared,
}

// Valid reports whether t is one of the declared event types.
func (t Type) Valid() bool {
	for _, k := range allTypes {
		if k == t {
			return true
		}
	}
	return false
}

// PlayerAuctionEndedPayload describes the item that just left the block
type PlayerAuctionEndedPayload struct {
	PlayerID uuid.UUID                  `json:"player_id"`
	Status   models.PlayerAuctionStatus `json:"status"`
	Winning  *models.Bid                `json:"winning,omitempty"`
}

// RoundEndedPayload is emitted when the unsold queue is recycled
type RoundEndedPayload struct {
	Round    int `json:"round"`
	Recycled int `json:"recycled"`
}

// Event is one broadcast. Every event carries the full committed snapshot;
// at most one of the payload fields is set and only for its own type.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Session    *models.Session `json:"session"`

	Bid         *models.Bid                `json:"bid,omitempty"`
	PlayerEnded *PlayerAuctionEndedPayload `json:"player_ended,omitempty"`
	RoundEnded  *RoundEndedPayload         `json:"round_ended,omitempty"`
}

func newEvent(t Type, s *models.Session, at time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		OccurredAt: at.UTC(),
		Session:    s.Clone(),
	}
}

func AuctionInitialized(s *models.Session, at time.Time) Event {
	return newEvent(TypeAuctionInitialized, s, at)
}

func TimerUpdated(s *models.Session, at time.Time) Event {
	return newEvent(TypeTimerUpdated, s, at)
}

func BidPlaced(s *models.Session, bid models.Bid, at time.Time) Event {
	ev := newEvent(TypeBid, s, at)
	ev.Bid = &bid
	return ev
}

func PlayerAuctionEnded(s *models.Session, p PlayerAuctionEndedPayload, at time.Time) Event {
	ev := newEvent(TypePlayerAuctionEnded, s, at)
	ev.PlayerEnded = &p
	return ev
}

func RoundEnded(s *models.Session, p RoundEndedPayload, at time.Time) Event {
	ev := newEvent(TypeRoundEnded, s, at)
	ev.RoundEnded = &p
	return ev
}

func AccountAuctionCompleted(s *models.Session, at time.Time) Event {
	return newEvent(TypeAccountAuctionCompleted, s, at)
}

func AccountAuctionCleared(s *models.Session, at time.Time) Event {
	return newEvent(TypeAccountAuctionCleared, s, at)
}

// WithSession returns a copy of ev carrying snapshot s instead. Events built
// inside a mutation are re-stamped with the committed snapshot.
func (e Event) WithSession(s *models.Session) Event {
	e.Session = s.Clone()
	return e
}
