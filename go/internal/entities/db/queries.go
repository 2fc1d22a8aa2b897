package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"
)

const getAccount = `SELECT id, name, total_count, is_auctioned, auction_summary
FROM accounts
WHERE id = $1`

func (q *Queries) GetAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccount, id)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.TotalCount,
		&i.IsAuctioned,
		&i.AuctionSummary,
	)
	return i, err
}

const listTeamsByAccount = `SELECT id, account_id, name, image_url, owner_player_id, owner_user_id, owner_budget
FROM teams
WHERE account_id = $1
ORDER BY name, id`

func (q *Queries) ListTeamsByAccount(ctx context.Context, accountID uuid.UUID) ([]Team, error) {
	rows, err := q.db.QueryContext(ctx, listTeamsByAccount, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Team
	for rows.Next() {
		var i Team
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Name,
			&i.ImageUrl,
			&i.OwnerPlayerID,
			&i.OwnerUserID,
			&i.OwnerBudget,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listEligiblePlayers = `SELECT p.id, p.account_id, p.name, p.employee_id, p.email, p.skill, p.bio, p.image_url,
       p.team_id, p.last_bid_id, p.auction_status
FROM players p
WHERE p.account_id = $1
  AND (p.auction_status IS NULL OR p.auction_status = 'UNSOLD')
  AND NOT EXISTS (
      SELECT 1 FROM teams t
      WHERE t.account_id = p.account_id AND t.owner_player_id = p.id
  )
ORDER BY p.name, p.id`

func (q *Queries) ListEligiblePlayers(ctx context.Context, accountID uuid.UUID) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx, listEligiblePlayers, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Player
	for rows.Next() {
		var i Player
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Name,
			&i.EmployeeID,
			&i.Email,
			&i.Skill,
			&i.Bio,
			&i.ImageUrl,
			&i.TeamID,
			&i.LastBidID,
			&i.AuctionStatus,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPlayer = `SELECT id, account_id, name, employee_id, email, skill, bio, image_url,
       team_id, last_bid_id, auction_status
FROM players
WHERE id = $1`

func (q *Queries) GetPlayer(ctx context.Context, id uuid.UUID) (Player, error) {
	row := q.db.QueryRowContext(ctx, getPlayer, id)
	var i Player
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.Name,
		&i.EmployeeID,
		&i.Email,
		&i.Skill,
		&i.Bio,
		&i.ImageUrl,
		&i.TeamID,
		&i.LastBidID,
		&i.AuctionStatus,
	)
	return i, err
}

const insertBid = `INSERT INTO bids (id, player_id, team_id, amount, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING`

type InsertBidParams struct {
	ID        uuid.UUID       `json:"id"`
	PlayerID  uuid.UUID       `json:"player_id"`
	TeamID    uuid.UUID       `json:"team_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

func (q *Queries) InsertBid(ctx context.Context, arg InsertBidParams) error {
	_, err := q.db.ExecContext(ctx, insertBid,
		arg.ID,
		arg.PlayerID,
		arg.TeamID,
		arg.Amount,
		arg.CreatedAt,
	)
	return err
}

const updatePlayerAuctionResult = `UPDATE players
SET team_id = $2, last_bid_id = $3, auction_status = $4
WHERE id = $1`

type UpdatePlayerAuctionResultParams struct {
	ID            uuid.UUID      `json:"id"`
	TeamID        uuid.NullUUID  `json:"team_id"`
	LastBidID     uuid.NullUUID  `json:"last_bid_id"`
	AuctionStatus sql.NullString `json:"auction_status"`
}

func (q *Queries) UpdatePlayerAuctionResult(ctx context.Context, arg UpdatePlayerAuctionResultParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updatePlayerAuctionResult,
		arg.ID,
		arg.TeamID,
		arg.LastBidID,
		arg.AuctionStatus,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markAccountAuctioned = `UPDATE accounts
SET is_auctioned = TRUE, auction_summary = $2
WHERE id = $1`

type MarkAccountAuctionedParams struct {
	ID             uuid.UUID             `json:"id"`
	AuctionSummary pqtype.NullRawMessage `json:"auction_summary"`
}

func (q *Queries) MarkAccountAuctioned(ctx context.Context, arg MarkAccountAuctionedParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markAccountAuctioned, arg.ID, arg.AuctionSummary)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
