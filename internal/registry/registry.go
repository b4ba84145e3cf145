package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/clock"
	"auction-house/internal/fanout"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/internal/validation"
	"auction-house/utils"

	"github.com/shopspring/decimal"
)

// commitRetries bounds internal retries on store-level conflicts before the
// failure is surfaced to the caller as transient.
const commitRetries = 3

// Registry owns the authoritative state of each auction. All mutations of one
// auction id are serialized through a per-auction lock table; operations on
// different auctions run fully in parallel. Snapshot reads never take the
// per-auction lock, so display reads never block writers.
//
// Fanout notification happens strictly after the store commit and outside the
// critical section.
type Registry struct {
	store repository.AuctionStore
	hub   *fanout.Hub
	clock clock.Clock

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// New creates a Registry over the given store. hub may handle zero
// subscribers but must not be nil.
func New(store repository.AuctionStore, hub *fanout.Hub, clk clock.Clock) *Registry {
	return &Registry{
		store: store,
		hub:   hub,
		clock: clk,
		locks: make(map[string]*sync.Mutex),
	}
}

// lockAuction acquires the per-auction mutex, creating it on first use.
// Mutexes are tiny and auctions finite, so entries are kept for the process
// lifetime rather than refcounted.
func (r *Registry) lockAuction(auctionID string) func() {
	r.lockMu.Lock()
	mu, ok := r.locks[auctionID]
	if !ok {
		mu = &sync.Mutex{}
		r.locks[auctionID] = mu
	}
	r.lockMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// CreateAuction registers a new active auction owned by ownerID. The current
// price starts at the starting price.
func (r *Registry) CreateAuction(ctx context.Context, ownerID, title, description, imageURL string, startingPrice decimal.Decimal, endTime time.Time) (model.Auction, error) {
	if ownerID == "" || title == "" {
		return model.Auction{}, fmt.Errorf("registry: %w - missing owner ID or title", auctionerrors.ErrInvalidAmount)
	}
	if !startingPrice.IsPositive() {
		return model.Auction{}, fmt.Errorf("registry: %w - starting price must be positive", auctionerrors.ErrInvalidAmount)
	}
	now := r.clock.Now()
	if !endTime.After(now) {
		return model.Auction{}, fmt.Errorf("registry: %w - end time %s is not in the future", auctionerrors.ErrInvalidAmount, endTime)
	}

	a := model.Auction{
		AuctionID:     utils.GenerateID(),
		OwnerID:       ownerID,
		Title:         title,
		Description:   description,
		ImageURL:      imageURL,
		StartingPrice: startingPrice,
		CurrentPrice:  startingPrice,
		EndTime:       endTime.UTC(),
		Status:        model.StatusActive,
		CreatedAt:     now,
	}
	if err := r.store.CreateAuction(ctx, a); err != nil {
		return model.Auction{}, fmt.Errorf("registry: failed to create auction: %w", err)
	}
	return a, nil
}

// Snapshot returns a display view of the auction. It reads without the
// per-auction lock and may be slightly stale.
func (r *Registry) Snapshot(ctx context.Context, auctionID string) (model.Snapshot, error) {
	a, err := r.store.GetAuction(ctx, auctionID)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("registry: failed to get snapshot for auction %s: %w", auctionID, err)
	}
	return model.Snapshot{
		AuctionID:    a.AuctionID,
		OwnerID:      a.OwnerID,
		CurrentPrice: a.CurrentPrice,
		Status:       a.Status,
		EndTime:      a.EndTime,
		BidCount:     a.BidCount,
	}, nil
}

// TryApplyBid validates and applies a bid as one indivisible unit per auction
// id: the read of the current price, the comparison, the ledger append and
// the price update all happen under the auction's lock. Rejections have no
// side effects.
//
// If the auction's end time has passed when the bid arrives, settlement wins:
// the auction is finalized first and the bid is rejected as ended.
func (r *Registry) TryApplyBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal, now time.Time) (model.Bid, error) {
	unlock := r.lockAuction(auctionID)

	accepted, events, err := r.applyBidLocked(ctx, auctionID, bidderID, amount, now)
	unlock()

	for _, ev := range events {
		r.hub.Publish(ev)
	}
	if err != nil {
		return model.Bid{}, err
	}
	return accepted, nil
}

// applyBidLocked runs the acceptance decision under the per-auction lock and
// returns the events to publish once the lock is released.
func (r *Registry) applyBidLocked(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal, now time.Time) (model.Bid, []fanout.Event, error) {
	var events []fanout.Event

	for attempt := 0; attempt < commitRetries; attempt++ {
		a, err := r.store.GetAuction(ctx, auctionID)
		if err != nil {
			return model.Bid{}, events, fmt.Errorf("registry: %w", err)
		}

		if a.Status == model.StatusActive && !a.EndTime.After(now) {
			settled, settleErr := r.settleLocked(ctx, a)
			if settleErr != nil {
				return model.Bid{}, events, fmt.Errorf("registry: settling expired auction %s: %w", auctionID, settleErr)
			}
			if settled != nil {
				events = append(events, *settled)
			}
			return model.Bid{}, events, fmt.Errorf("registry: %w", auctionerrors.ErrAuctionEnded)
		}

		if err := validation.ValidateBid(amount, a.CurrentPrice, bidderID, a.OwnerID, a.Status); err != nil {
			return model.Bid{}, events, fmt.Errorf("registry: %w", err)
		}

		bid := model.Bid{
			BidID:      utils.GenerateID(),
			AuctionID:  auctionID,
			BidderID:   bidderID,
			Amount:     amount,
			AcceptedAt: now,
		}
		stamped, err := r.store.CommitBid(ctx, bid, amount)
		if errors.Is(err, auctionerrors.ErrConflict) {
			// A writer outside this process moved the row; re-read and
			// re-validate against the fresh state.
			continue
		}
		if err != nil {
			return model.Bid{}, events, fmt.Errorf("registry: failed to commit bid: %w", err)
		}

		events = append(events, fanout.Event{
			Type:         fanout.EventBidAccepted,
			AuctionID:    auctionID,
			Bid:          &stamped,
			CurrentPrice: stamped.Amount,
			OccurredAt:   now,
		})
		return stamped, events, nil
	}

	return model.Bid{}, events, fmt.Errorf("registry: auction %s: %w after %d attempts", auctionID, auctionerrors.ErrConflict, commitRetries)
}

// Settle finalizes the auction if its end time has passed. It is idempotent:
// settling an already-ended auction reports false with no error. The returned
// bool is true only for the call that performed the Active to Ended
// transition.
func (r *Registry) Settle(ctx context.Context, auctionID string, now time.Time) (bool, error) {
	unlock := r.lockAuction(auctionID)

	a, err := r.store.GetAuction(ctx, auctionID)
	if err != nil {
		unlock()
		return false, fmt.Errorf("registry: %w", err)
	}
	if a.Status != model.StatusActive {
		unlock()
		return false, nil
	}
	if a.EndTime.After(now) {
		unlock()
		return false, nil
	}

	ev, err := r.settleLocked(ctx, a)
	unlock()

	if err != nil {
		return false, fmt.Errorf("registry: settling auction %s: %w", auctionID, err)
	}
	if ev != nil {
		r.hub.Publish(*ev)
	}
	return ev != nil, nil
}

// settleLocked performs the Active to Ended transition. Callers hold the
// per-auction lock. It returns the settlement event to publish after the lock
// is released, or nil when another caller already settled the auction.
func (r *Registry) settleLocked(ctx context.Context, a model.Auction) (*fanout.Event, error) {
	transitioned, err := r.store.MarkEnded(ctx, a.AuctionID)
	if err != nil {
		return nil, err
	}
	if !transitioned {
		return nil, nil
	}

	ev := fanout.Event{
		Type:         fanout.EventAuctionSettled,
		AuctionID:    a.AuctionID,
		CurrentPrice: a.CurrentPrice,
		OccurredAt:   r.clock.Now(),
	}
	winner, err := r.store.WinningBid(ctx, a.AuctionID)
	switch {
	case err == nil:
		ev.Winner = &winner
	case errors.Is(err, auctionerrors.ErrNoBids):
		// Ended with no winner.
	default:
		return nil, err
	}
	return &ev, nil
}

// DeleteAuction removes an auction on the owner's request. Deletion is
// forbidden once any bid exists, preserving ledger integrity.
func (r *Registry) DeleteAuction(ctx context.Context, auctionID, callerID string) error {
	unlock := r.lockAuction(auctionID)
	defer unlock()

	a, err := r.store.GetAuction(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	if a.OwnerID != callerID {
		return fmt.Errorf("registry: %w - caller %s", auctionerrors.ErrNotOwner, callerID)
	}
	if err := r.store.DeleteAuction(ctx, auctionID); err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	return nil
}

// History returns the accepted bids for an auction in acceptance order.
func (r *Registry) History(ctx context.Context, auctionID string) ([]model.Bid, error) {
	bids, err := r.store.BidHistory(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to get history for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// WinningBid returns the current leader: the last-appended ledger entry.
func (r *Registry) WinningBid(ctx context.Context, auctionID string) (model.Bid, error) {
	bid, err := r.store.WinningBid(ctx, auctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("registry: failed to get winning bid for auction %s: %w", auctionID, err)
	}
	return bid, nil
}
