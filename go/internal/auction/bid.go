package auction

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/gavel/go/internal/auction/events"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/shopspring/decimal"
)

// BidRequest is a team's offer for the item on the block
type BidRequest struct {
	ItemID uuid.UUID       `json:"item_id"`
	TeamID uuid.UUID       `json:"team_id"`
	Amount decimal.Decimal `json:"amount"`

	// set when the offered amount was not a number
	malformed bool
}

// NewBidRequest builds a request from an amount still in its wire form.
// An amount that does not parse as a number is kept and rejected as too low
// once the state, item and team checks have passed.
func NewBidRequest(itemID, teamID uuid.UUID, amount json.RawMessage) BidRequest {
	req := BidRequest{ItemID: itemID, TeamID: teamID}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(amount); err != nil || string(amount) == "null" {
		req.malformed = true
		return req
	}
	req.Amount = d
	return req
}

// validateBid applies the bid rules in order and returns the first violation.
func validateBid(s *models.Session, req BidRequest) error {
	if s.State != models.SessionStateProgress || s.CurrentItem == nil {
		return reject(ReasonNotInProgress, "no item is being auctioned")
	}
	if req.ItemID != s.CurrentItem.ID {
		return reject(ReasonItemMismatch, "player %s is not on the block, refresh and check again", req.ItemID)
	}

	if !s.IsParticipant(req.TeamID) {
		return reject(ReasonTeamUnauthorized, "team %s is not part of this auction", req.TeamID)
	}

	if req.malformed {
		return reject(ReasonBidTooLow, "bid amount is not a number")
	}
	amount := models.RoundMoney(req.Amount)
	if !amount.IsPositive() || amount.LessThan(s.CurrentItem.BidAmount) {
		return reject(ReasonBidTooLow, "bid %s is below the minimum of %s", amount, s.CurrentItem.BidAmount)
	}

	if amount.GreaterThan(s.Budgets[req.TeamID]) {
		return reject(ReasonInsufficientBudget, "bid %s exceeds remaining budget %s", amount, s.Budgets[req.TeamID])
	}

	if lead := s.LeadingBid(); lead != nil && lead.TeamID == req.TeamID {
		return reject(ReasonConsecutiveSelfOutbid, "team %s already holds the winning bid", req.TeamID)
	}
	return nil
}

// placeBid records an accepted bid and resets the item clock.
func placeBid(s *models.Session, req BidRequest, cfg Config, now time.Time) (outcome, error) {
	var out outcome
	if err := validateBid(s, req); err != nil {
		return out, err
	}

	bid := models.Bid{
		ID:        uuid.New(),
		ItemID:    req.ItemID,
		TeamID:    req.TeamID,
		Amount:    models.RoundMoney(req.Amount),
		Timestamp: now.UTC(),
	}
	s.Bids = append(s.Bids, bid)
	s.CurrentItem.BidIndices = append(s.CurrentItem.BidIndices, len(s.Bids)-1)
	s.CurrentItem.BidAmount = models.RoundMoney(bid.Amount.Add(cfg.BidIncrement))
	s.CurrentItem.Clock = cfg.AuctionInterval

	out.emit(events.BidPlaced(nil, bid, now))
	out.timer = timerArm
	out.bid = &bid
	return out, nil
}
