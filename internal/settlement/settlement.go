package settlement

import (
	"context"
	"time"

	"auction-house/internal/clock"
	"auction-house/internal/registry"
	"auction-house/internal/repository"
	"auction-house/utils"
)

// Sweeper periodically finalizes auctions whose end time has passed. Each
// settlement goes through the registry and therefore acquires the same
// per-auction exclusivity as a bid, so a bid arriving in the last instant
// cannot race past settlement.
type Sweeper struct {
	registry *registry.Registry
	store    repository.AuctionStore
	clock    clock.Clock
	interval time.Duration
}

// NewSweeper creates a Sweeper that scans every interval.
func NewSweeper(reg *registry.Registry, store repository.AuctionStore, clk clock.Clock, interval time.Duration) *Sweeper {
	return &Sweeper{
		registry: reg,
		store:    store,
		clock:    clk,
		interval: interval,
	}
}

// Run sweeps until the context is cancelled. It is intended to run in its own
// goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce settles every expired auction once and returns the number of
// auctions transitioned. Re-running it is a no-op for already-ended auctions.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	now := s.clock.Now()

	ids, err := s.store.ListExpired(ctx, now)
	if err != nil {
		utils.Error("settlement sweep: failed to list expired auctions", map[string]any{"error": err.Error()})
		return 0
	}

	settled := 0
	for _, id := range ids {
		transitioned, err := s.registry.Settle(ctx, id, now)
		if err != nil {
			utils.Error("settlement sweep: failed to settle auction", map[string]any{
				"auction_id": id,
				"error":      err.Error(),
			})
			continue
		}
		if transitioned {
			settled++
			utils.Info("settlement sweep: auction settled", map[string]any{"auction_id": id})
		}
	}
	return settled
}
