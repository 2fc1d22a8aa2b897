package auction

import (
	"context"

	"github.com/google/uuid"
	"github.com/mcdev12/gavel/go/internal/models"
)

// EntityStore defines what the engine needs from the account/team/player stores
type EntityStore interface {
	GetAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error)
	ListTeams(ctx context.Context, accountID uuid.UUID) ([]models.Team, error)
	// ListEligiblePlayers returns the account's players that may go on the block
	ListEligiblePlayers(ctx context.Context, accountID uuid.UUID) ([]models.Player, error)
	SettlePlayer(ctx context.Context, settlement models.Settlement) error
	MarkAccountAuctioned(ctx context.Context, accountID uuid.UUID, summary models.AuctionSummary) error
}
