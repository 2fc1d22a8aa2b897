package entities

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/gavel/go/internal/models"
)

// MemoryRepository is an in-process entity store for development and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*models.Account
	teams    []models.Team
	players  []models.Player
	bids     []models.Bid
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[uuid.UUID]*models.Account)}
}

// PutAccount inserts or replaces an account.
func (m *MemoryRepository) PutAccount(a models.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = &a
}

// PutTeam inserts or replaces a team.
func (m *MemoryRepository) PutTeam(t models.Team) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.teams {
		if m.teams[i].ID == t.ID {
			m.teams[i] = t
			return
		}
	}
	m.teams = append(m.teams, t)
}

// PutPlayer inserts or replaces a player.
func (m *MemoryRepository) PutPlayer(p models.Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.players {
		if m.players[i].ID == p.ID {
			m.players[i] = p
			return
		}
	}
	m.players = append(m.players, p)
}

func (m *MemoryRepository) GetAccount(_ context.Context, id uuid.UUID) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, models.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryRepository) ListTeams(_ context.Context, accountID uuid.UUID) ([]models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Team
	for _, t := range m.teams {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MemoryRepository) ListEligiblePlayers(_ context.Context, accountID uuid.UUID) ([]models.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	owners := make(map[uuid.UUID]bool)
	for _, t := range m.teams {
		if t.AccountID == accountID && t.Owner != nil {
			owners[t.Owner.PlayerID] = true
		}
	}

	var out []models.Player
	for _, p := range m.players {
		if p.AccountID != accountID || owners[p.ID] || !p.Biddable() {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// GetPlayer returns a player by ID
func (m *MemoryRepository) GetPlayer(_ context.Context, id uuid.UUID) (*models.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.players {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("player %s: %w", id, models.ErrNotFound)
}

func (m *MemoryRepository) SettlePlayer(_ context.Context, s models.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i := range m.players {
		if m.players[i].ID == s.PlayerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("player %s: %w", s.PlayerID, models.ErrNotFound)
	}

	known := make(map[uuid.UUID]bool, len(m.bids))
	for _, b := range m.bids {
		known[b.ID] = true
	}
	for _, b := range s.Bids {
		if !known[b.ID] {
			m.bids = append(m.bids, b)
		}
	}

	status := s.Status
	p := &m.players[idx]
	p.AuctionStatus = &status
	p.TeamID, p.LastBidID = nil, nil
	if s.Winning != nil {
		team, bid := s.Winning.TeamID, s.Winning.ID
		p.TeamID, p.LastBidID = &team, &bid
	}
	return nil
}

func (m *MemoryRepository) MarkAccountAuctioned(_ context.Context, accountID uuid.UUID, summary models.AuctionSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %s: %w", accountID, models.ErrNotFound)
	}
	a.IsAuctioned = true
	a.AuctionSummary = &summary
	return nil
}

// Bids returns the persisted bid log.
func (m *MemoryRepository) Bids() []models.Bid {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Bid(nil), m.bids...)
}
