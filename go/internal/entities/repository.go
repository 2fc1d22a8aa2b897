// Package entities reads accounts, teams and players for the auction and
// records its outcomes on them.
package entities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/gavel/go/internal/entities/db"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/mcdev12/gavel/go/internal/sqlutil"
)

// PostgresRepository implements the auction entity store on Postgres
type PostgresRepository struct {
	sqlDB   *sql.DB
	queries *db.Queries
}

// NewPostgresRepository creates a repository over an open lib/pq connection
func NewPostgresRepository(sqlDB *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		sqlDB:   sqlDB,
		queries: db.New(sqlDB),
	}
}

// EnsureSchema creates the entity tables if they are missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.sqlDB.ExecContext(ctx, db.Schema); err != nil {
		return fmt.Errorf("failed to create entity schema: %w", err)
	}
	return nil
}

// GetAccount retrieves an account by ID
func (r *PostgresRepository) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	row, err := r.queries.GetAccount(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return dbAccountToModel(row)
}

// ListTeams retrieves every team of an account
func (r *PostgresRepository) ListTeams(ctx context.Context, accountID uuid.UUID) ([]models.Team, error) {
	rows, err := r.queries.ListTeamsByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	teams := make([]models.Team, len(rows))
	for i, row := range rows {
		teams[i] = dbTeamToModel(row)
	}
	return teams, nil
}

// ListEligiblePlayers retrieves the account's players that are not owners and not already sold
func (r *PostgresRepository) ListEligiblePlayers(ctx context.Context, accountID uuid.UUID) ([]models.Player, error) {
	rows, err := r.queries.ListEligiblePlayers(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible players: %w", err)
	}
	players := make([]models.Player, len(rows))
	for i, row := range rows {
		players[i] = dbPlayerToModel(row)
	}
	return players, nil
}

// GetPlayer retrieves a player by ID
func (r *PostgresRepository) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	row, err := r.queries.GetPlayer(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	p := dbPlayerToModel(row)
	return &p, nil
}

// SettlePlayer appends the item's bids to the bid log and records the result
// on the player, in one transaction.
func (r *PostgresRepository) SettlePlayer(ctx context.Context, s models.Settlement) error {
	params := db.UpdatePlayerAuctionResultParams{
		ID:            s.PlayerID,
		AuctionStatus: sql.NullString{String: string(s.Status), Valid: true},
	}
	if s.Winning != nil {
		params.TeamID = sqlutil.ToNullUUID(&s.Winning.TeamID)
		params.LastBidID = sqlutil.ToNullUUID(&s.Winning.ID)
	}

	return sqlutil.Run(ctx, r.sqlDB,
		func(tx *sql.Tx) *db.Queries { return r.queries.WithTx(tx) },
		func(q *db.Queries) error {
			for _, b := range s.Bids {
				if err := q.InsertBid(ctx, db.InsertBidParams{
					ID:        b.ID,
					PlayerID:  b.ItemID,
					TeamID:    b.TeamID,
					Amount:    b.Amount,
					CreatedAt: b.Timestamp,
				}); err != nil {
					return fmt.Errorf("failed to insert bid %s: %w", b.ID, err)
				}
			}

			n, err := q.UpdatePlayerAuctionResult(ctx, params)
			if err != nil {
				return fmt.Errorf("failed to update player: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("player %s: %w", s.PlayerID, models.ErrNotFound)
			}
			return nil
		},
	)
}

// MarkAccountAuctioned flags the account and stores the auction summary
func (r *PostgresRepository) MarkAccountAuctioned(ctx context.Context, accountID uuid.UUID, summary models.AuctionSummary) error {
	raw, err := sqlutil.ToNullJSON(summary)
	if err != nil {
		return fmt.Errorf("failed to encode auction summary: %w", err)
	}
	n, err := r.queries.MarkAccountAuctioned(ctx, db.MarkAccountAuctionedParams{
		ID:             accountID,
		AuctionSummary: raw,
	})
	if err != nil {
		return fmt.Errorf("failed to mark account auctioned: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %s: %w", accountID, models.ErrNotFound)
	}
	return nil
}

func dbAccountToModel(row db.Account) (*models.Account, error) {
	account := &models.Account{
		ID:          row.ID,
		Name:        row.Name,
		TotalCount:  sqlutil.FromSqlInt32(row.TotalCount),
		IsAuctioned: row.IsAuctioned,
	}
	summary, err := sqlutil.FromNullJSON[models.AuctionSummary](row.AuctionSummary)
	if err != nil {
		return nil, fmt.Errorf("failed to decode auction summary: %w", err)
	}
	account.AuctionSummary = summary
	return account, nil
}

func dbTeamToModel(row db.Team) models.Team {
	team := models.Team{
		ID:        row.ID,
		AccountID: row.AccountID,
		Name:      row.Name,
		ImageURL:  sqlutil.FromSqlStringPtr(row.ImageUrl),
	}
	if row.OwnerPlayerID.Valid && row.OwnerUserID.Valid && row.OwnerBudget.Valid {
		team.Owner = &models.TeamOwner{
			PlayerID: row.OwnerPlayerID.UUID,
			UserID:   row.OwnerUserID.UUID,
			Budget:   row.OwnerBudget.Decimal,
		}
	}
	return team
}

func dbPlayerToModel(row db.Player) models.Player {
	p := models.Player{
		ID:         row.ID,
		AccountID:  row.AccountID,
		Name:       row.Name,
		EmployeeID: sqlutil.FromSqlInt32(row.EmployeeID),
		Email:      sqlutil.FromSqlStringPtr(row.Email),
		Skill:      sqlutil.FromSqlStringPtr(row.Skill),
		Bio:        sqlutil.FromSqlStringPtr(row.Bio),
		ImageURL:   sqlutil.FromSqlStringPtr(row.ImageUrl),
		TeamID:     sqlutil.FromNullUUID(row.TeamID),
		LastBidID:  sqlutil.FromNullUUID(row.LastBidID),
	}
	if row.AuctionStatus.Valid {
		status := models.PlayerAuctionStatus(row.AuctionStatus.String)
		p.AuctionStatus = &status
	}
	return p
}
