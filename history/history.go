// Package history persists generated signals, newest first and capped to a
// fixed number of entries.
package history

import (
	"context"
	"errors"

	"github.com/rustyeddy/tradesense/market"
	"github.com/rustyeddy/tradesense/signals"
)

const (
	DefaultMaxItems = 200
	DefaultLimit    = 50
)

var ErrNotFound = errors.New("history: signal not found")

// Repository stores signals keyed by their ID. Saving a signal whose ID is
// already stored replaces it.
type Repository interface {
	Save(ctx context.Context, s signals.Signal) error
	SaveMany(ctx context.Context, sigs []signals.Signal) error
	// Recent returns up to limit signals, newest first. limit <= 0 means
	// DefaultLimit.
	Recent(ctx context.Context, limit int) ([]signals.Signal, error)
	ByPair(ctx context.Context, pair market.Pair, limit int) ([]signals.Signal, error)
	Get(ctx context.Context, id string) (signals.Signal, error)
	Clear(ctx context.Context) error
	Close() error
}

func normLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
