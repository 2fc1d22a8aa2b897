package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"
)

type Account struct {
	ID             uuid.UUID             `json:"id"`
	Name           string                `json:"name"`
	TotalCount     sql.NullInt32         `json:"total_count"`
	IsAuctioned    bool                  `json:"is_auctioned"`
	AuctionSummary pqtype.NullRawMessage `json:"auction_summary"`
}

type Team struct {
	ID            uuid.UUID           `json:"id"`
	AccountID     uuid.UUID           `json:"account_id"`
	Name          string              `json:"name"`
	ImageUrl      sql.NullString      `json:"image_url"`
	OwnerPlayerID uuid.NullUUID       `json:"owner_player_id"`
	OwnerUserID   uuid.NullUUID       `json:"owner_user_id"`
	OwnerBudget   decimal.NullDecimal `json:"owner_budget"`
}

type Player struct {
	ID            uuid.UUID      `json:"id"`
	AccountID     uuid.UUID      `json:"account_id"`
	Name          string         `json:"name"`
	EmployeeID    sql.NullInt32  `json:"employee_id"`
	Email         sql.NullString `json:"email"`
	Skill         sql.NullString `json:"skill"`
	Bio           sql.NullString `json:"bio"`
	ImageUrl      sql.NullString `json:"image_url"`
	TeamID        uuid.NullUUID  `json:"team_id"`
	LastBidID     uuid.NullUUID  `json:"last_bid_id"`
	AuctionStatus sql.NullString `json:"auction_status"`
}

type Bid struct {
	ID        uuid.UUID       `json:"id"`
	PlayerID  uuid.UUID       `json:"player_id"`
	TeamID    uuid.UUID       `json:"team_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}
