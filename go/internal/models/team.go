package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is the login behind a team owner
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// TeamOwner is the representative assigned to bid on behalf of a team
type TeamOwner struct {
	PlayerID uuid.UUID       `json:"player_id"`
	UserID   uuid.UUID       `json:"user_id"`
	Budget   decimal.Decimal `json:"budget"`
}

// Team is a bidding participant within an account
type Team struct {
	ID        uuid.UUID  `json:"id"`
	AccountID uuid.UUID  `json:"account_id"`
	Name      string     `json:"name"`
	ImageURL  *string    `json:"image_url,omitempty"`
	Owner     *TeamOwner `json:"team_owner,omitempty"`
}

// ReadyToBid reports whether the team has a representative and a positive budget.
func (t Team) ReadyToBid() bool {
	if t.Owner == nil {
		return false
	}
	if t.Owner.PlayerID == uuid.Nil || t.Owner.UserID == uuid.Nil {
		return false
	}
	return t.Owner.Budget.IsPositive()
}
