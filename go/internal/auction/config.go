package auction

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

// Config tunes the auction engine. Every field can be set from the environment.
type Config struct {
	// Seconds an item stays on the block without a new bid
	AuctionInterval int `env:"AUCTION_INTERVAL_SEC" envDefault:"10"`
	// Period of one clock tick
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	// Timer firings allowed since the last arm before ticking halts
	MaxTickIterations int `env:"MAX_TICK_ITERATIONS" envDefault:"1000"`

	StartingBid  decimal.Decimal `env:"STARTING_BID" envDefault:"100"`
	BidIncrement decimal.Decimal `env:"BID_INCREMENT" envDefault:"50"`

	// Draw the next item straight after settlement instead of waiting in READY
	AutoAdvance bool `env:"AUTO_ADVANCE" envDefault:"false"`

	FinalizerBuffer int `env:"FINALIZER_BUFFER" envDefault:"256"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		AuctionInterval:   10,
		TickInterval:      time.Second,
		MaxTickIterations: 1000,
		StartingBid:       decimal.NewFromInt(100),
		BidIncrement:      decimal.NewFromInt(50),
		FinalizerBuffer:   256,
	}
}

// LoadConfig parses Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse auction env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.AuctionInterval <= 0 {
		return fmt.Errorf("AUCTION_INTERVAL_SEC must be positive, got %d", c.AuctionInterval)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL must be positive, got %s", c.TickInterval)
	}
	if c.MaxTickIterations <= 0 {
		return fmt.Errorf("MAX_TICK_ITERATIONS must be positive, got %d", c.MaxTickIterations)
	}
	if !c.StartingBid.IsPositive() {
		return fmt.Errorf("STARTING_BID must be positive, got %s", c.StartingBid)
	}
	if !c.BidIncrement.IsPositive() {
		return fmt.Errorf("BID_INCREMENT must be positive, got %s", c.BidIncrement)
	}
	if c.FinalizerBuffer <= 0 {
		return fmt.Errorf("FINALIZER_BUFFER must be positive, got %d", c.FinalizerBuffer)
	}
	return nil
}
