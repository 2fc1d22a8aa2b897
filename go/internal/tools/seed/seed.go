package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/gavel/go/internal/dbconfig"
	"github.com/mcdev12/gavel/go/internal/entities"
	"github.com/mcdev12/gavel/go/internal/entities/db"
)

type counts struct {
	total, inserted, skipped, errs int
}

func (c *counts) record(rows int64, err error) {
	c.total++
	switch {
	case err != nil:
		c.errs++
	case rows == 1:
		c.inserted++
	default:
		c.skipped++
	}
}

func (c counts) String() string {
	return fmt.Sprintf("total=%d inserted=%d skipped=%d errors=%d", c.total, c.inserted, c.skipped, c.errs)
}

func main() {
	path := flag.String("fixture", "go/internal/assets/auction_fixture.yaml", "YAML fixture to load")
	flag.Parse()
	ctx := context.Background()

	// 1) Load the fixture
	fixture, err := entities.LoadFixtureFile(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		os.Exit(1)
	}
	ds, err := fixture.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build fixture: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect to DB
	cfg, err := dbconfig.NewConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		fmt.Fprintf(os.Stderr, "apply schema: %v\n", err)
		os.Exit(1)
	}

	// 3) Seed accounts
	var c counts
	for _, a := range ds.Accounts {
		tag, err := pool.Exec(ctx, `
            INSERT INTO accounts (id, name, total_count)
            VALUES ($1,$2,$3)
            ON CONFLICT (id) DO NOTHING
        `, a.ID, a.Name, a.TotalCount)
		c.record(tag.RowsAffected(), err)
	}
	fmt.Printf("Accounts seed: %s\n", c)

	// 4) Seed users
	c = counts{}
	for _, u := range ds.Users {
		tag, err := pool.Exec(ctx, `
            INSERT INTO users (id, username, email)
            VALUES ($1,$2,$3)
            ON CONFLICT (id) DO NOTHING
        `, u.ID, u.Username, u.Email)
		c.record(tag.RowsAffected(), err)
	}
	fmt.Printf("Users seed: %s\n", c)

	// 5) Seed teams
	c = counts{}
	for _, t := range ds.Teams {
		var ownerPlayer, ownerUser any
		var budget any
		if t.Owner != nil {
			ownerPlayer, ownerUser, budget = t.Owner.PlayerID, t.Owner.UserID, t.Owner.Budget
		}
		tag, err := pool.Exec(ctx, `
            INSERT INTO teams (
              id, account_id, name, image_url,
              owner_player_id, owner_user_id, owner_budget
            ) VALUES ($1,$2,$3,$4,$5,$6,$7)
            ON CONFLICT (id) DO NOTHING
        `, t.ID, t.AccountID, t.Name, t.ImageURL, ownerPlayer, ownerUser, budget)
		c.record(tag.RowsAffected(), err)
	}
	fmt.Printf("Teams seed: %s\n", c)

	// 6) Seed players
	c = counts{}
	for _, p := range ds.Players {
		var status *string
		if p.AuctionStatus != nil {
			s := string(*p.AuctionStatus)
			status = &s
		}
		tag, err := pool.Exec(ctx, `
            INSERT INTO players (
              id, account_id, name, employee_id, email,
              skill, bio, image_url, auction_status
            ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
            ON CONFLICT (id) DO NOTHING
        `, p.ID, p.AccountID, p.Name, p.EmployeeID, p.Email, p.Skill, p.Bio, p.ImageURL, status)
		c.record(tag.RowsAffected(), err)
	}
	fmt.Printf("Players seed: %s\n", c)
}
