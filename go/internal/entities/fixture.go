package entities

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// fixtureNamespace seeds the name-based ids so a fixture loads to the same ids every time.
var fixtureNamespace = uuid.MustParse("6f1d2c4e-8a7b-4c1d-9e2f-3a4b5c6d7e8f")

// Fixture is a YAML description of accounts with their teams and players
type Fixture struct {
	Accounts []FixtureAccount `yaml:"accounts"`
}

type FixtureAccount struct {
	Name       string          `yaml:"name"`
	TotalCount *int            `yaml:"total_count"`
	Teams      []FixtureTeam   `yaml:"teams"`
	Players    []FixturePlayer `yaml:"players"`
}

type FixtureTeam struct {
	Name     string        `yaml:"name"`
	ImageURL *string       `yaml:"image_url"`
	Owner    *FixtureOwner `yaml:"owner"`
}

type FixtureOwner struct {
	// Player is the name of one of the account's players
	Player string `yaml:"player"`
	Email  string `yaml:"email"`
	Budget string `yaml:"budget"`
}

type FixturePlayer struct {
	Name       string  `yaml:"name"`
	EmployeeID *int    `yaml:"employee_id"`
	Email      *string `yaml:"email"`
	Skill      *string `yaml:"skill"`
	Bio        *string `yaml:"bio"`
	ImageURL   *string `yaml:"image_url"`
}

// Dataset is a fixture resolved into entity models
type Dataset struct {
	Accounts []models.Account
	Teams    []models.Team
	Players  []models.Player
	Users    []models.User
}

// LoadFixture decodes a YAML fixture.
func LoadFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	return &f, nil
}

// LoadFixtureFile decodes the YAML fixture at path.
func LoadFixtureFile(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer file.Close()
	return LoadFixture(file)
}

func fixtureID(kind string, parts ...string) uuid.UUID {
	name := kind
	for _, p := range parts {
		name += "/" + p
	}
	return uuid.NewSHA1(fixtureNamespace, []byte(name))
}

// Build resolves names to ids and marks team owners.
func (f *Fixture) Build() (*Dataset, error) {
	ds := &Dataset{}
	users := make(map[string]bool)

	for _, fa := range f.Accounts {
		if fa.Name == "" {
			return nil, fmt.Errorf("account without a name")
		}
		account := models.Account{
			ID:         fixtureID("account", fa.Name),
			Name:       fa.Name,
			TotalCount: fa.TotalCount,
		}
		ds.Accounts = append(ds.Accounts, account)

		playerIDs := make(map[string]uuid.UUID, len(fa.Players))
		owners := make(map[uuid.UUID]bool)
		for _, fp := range fa.Players {
			if _, dup := playerIDs[fp.Name]; dup {
				return nil, fmt.Errorf("account %q: duplicate player %q", fa.Name, fp.Name)
			}
			playerIDs[fp.Name] = fixtureID("player", fa.Name, fp.Name)
		}

		for _, ft := range fa.Teams {
			team := models.Team{
				ID:        fixtureID("team", fa.Name, ft.Name),
				AccountID: account.ID,
				Name:      ft.Name,
				ImageURL:  ft.ImageURL,
			}
			if ft.Owner != nil {
				playerID, ok := playerIDs[ft.Owner.Player]
				if !ok {
					return nil, fmt.Errorf("team %q: owner %q is not a player of %q", ft.Name, ft.Owner.Player, fa.Name)
				}
				budget, err := decimal.NewFromString(ft.Owner.Budget)
				if err != nil {
					return nil, fmt.Errorf("team %q: invalid budget %q: %w", ft.Name, ft.Owner.Budget, err)
				}
				userID := fixtureID("user", ft.Owner.Email)
				if !users[ft.Owner.Email] {
					users[ft.Owner.Email] = true
					ds.Users = append(ds.Users, models.User{ID: userID, Username: ft.Owner.Player, Email: ft.Owner.Email})
				}
				team.Owner = &models.TeamOwner{
					PlayerID: playerID,
					UserID:   userID,
					Budget:   models.RoundMoney(budget),
				}
				owners[playerID] = true
			}
			ds.Teams = append(ds.Teams, team)
		}

		for _, fp := range fa.Players {
			p := models.Player{
				ID:         playerIDs[fp.Name],
				AccountID:  account.ID,
				Name:       fp.Name,
				EmployeeID: fp.EmployeeID,
				Email:      fp.Email,
				Skill:      fp.Skill,
				Bio:        fp.Bio,
				ImageURL:   fp.ImageURL,
			}
			if owners[p.ID] {
				status := models.PlayerAuctionStatusOwner
				p.AuctionStatus = &status
			}
			ds.Players = append(ds.Players, p)
		}
	}
	return ds, nil
}

// Seed loads a dataset into the repository.
func (m *MemoryRepository) Seed(ds *Dataset) {
	for _, a := range ds.Accounts {
		m.PutAccount(a)
	}
	for _, t := range ds.Teams {
		m.PutTeam(t)
	}
	for _, p := range ds.Players {
		m.PutPlayer(p)
	}
}
