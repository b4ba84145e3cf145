package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/ledger"
	model "auction-house/internal/models"

	"github.com/shopspring/decimal"
)

// AuctionStore defines the persistence contract for the auction core. The
// price update and the ledger append in CommitBid must commit or fail as one
// unit; an implementation may never leave the current price and the bid
// history inconsistent with each other.
//
// The store is not the concurrency authority. Callers serialize mutations per
// auction id (the registry's keyed lock); implementations backed by shared
// storage additionally guard CommitBid and MarkEnded so a second process
// cannot slip a stale write through, surfacing such races as ErrConflict.
type AuctionStore interface {
	CreateAuction(ctx context.Context, a model.Auction) error
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	// ListExpired returns ids of active auctions whose end time has passed.
	ListExpired(ctx context.Context, now time.Time) ([]string, error)
	// CommitBid atomically appends the bid and raises the current price,
	// returning the bid stamped with its per-auction sequence number.
	CommitBid(ctx context.Context, bid model.Bid, newPrice decimal.Decimal) (model.Bid, error)
	// MarkEnded transitions an auction to ended. It reports false without
	// error when the auction is already ended (idempotent settlement).
	MarkEnded(ctx context.Context, auctionID string) (bool, error)
	// DeleteAuction removes an auction that has no bids.
	DeleteAuction(ctx context.Context, auctionID string) error
	BidHistory(ctx context.Context, auctionID string) ([]model.Bid, error)
	WinningBid(ctx context.Context, auctionID string) (model.Bid, error)
}

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore.
// Bids live in an append-only ledger.Book; auction rows are plain values
// copied on read so callers never alias internal state.
type MemoryStore struct {
	mu       sync.RWMutex
	auctions map[string]model.Auction
	book     *ledger.Book
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions: make(map[string]model.Auction),
		book:     ledger.NewBook(),
	}
}

// CreateAuction inserts a new auction row.
func (s *MemoryStore) CreateAuction(ctx context.Context, a model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[a.AuctionID]; ok {
		return fmt.Errorf("create auction %s: %w", a.AuctionID, auctionerrors.ErrConflict)
	}
	s.auctions[a.AuctionID] = a
	return nil
}

// GetAuction returns a copy of the auction row.
func (s *MemoryStore) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return a, nil
}

// ListExpired returns ids of active auctions past their end time.
func (s *MemoryStore) ListExpired(ctx context.Context, now time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, a := range s.auctions {
		if a.Status == model.StatusActive && !a.EndTime.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// CommitBid appends the bid to the ledger and raises the current price under
// one lock acquisition, so readers never observe one without the other.
func (s *MemoryStore) CommitBid(ctx context.Context, bid model.Bid, newPrice decimal.Decimal) (model.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[bid.AuctionID]
	if !ok {
		return model.Bid{}, fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if a.Status != model.StatusActive || newPrice.Cmp(a.CurrentPrice) <= 0 {
		// The registry validated against a fresher row than this one; only a
		// competing writer outside the keyed lock can get here.
		return model.Bid{}, fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrConflict)
	}

	stamped := s.book.Append(bid)
	a.CurrentPrice = newPrice
	a.BidCount = stamped.Sequence
	s.auctions[bid.AuctionID] = a
	return stamped, nil
}

// MarkEnded flips an active auction to ended. Already-ended auctions report
// false with no error.
func (s *MemoryStore) MarkEnded(ctx context.Context, auctionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return false, fmt.Errorf("mark ended %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if a.Status == model.StatusEnded {
		return false, nil
	}
	a.Status = model.StatusEnded
	s.auctions[auctionID] = a
	return true, nil
}

// DeleteAuction removes an auction row while it has no bids.
func (s *MemoryStore) DeleteAuction(ctx context.Context, auctionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return fmt.Errorf("delete auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if a.BidCount > 0 {
		return fmt.Errorf("delete auction %s: %w", auctionID, auctionerrors.ErrHasBids)
	}
	delete(s.auctions, auctionID)
	return nil
}

// BidHistory returns the accepted bids for an auction in sequence order.
func (s *MemoryStore) BidHistory(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if _, err := s.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	var bids []model.Bid
	for bid := range s.book.History(auctionID) {
		bids = append(bids, bid)
	}
	return bids, nil
}

// WinningBid returns the last-appended (highest) bid for an auction.
func (s *MemoryStore) WinningBid(ctx context.Context, auctionID string) (model.Bid, error) {
	if _, err := s.GetAuction(ctx, auctionID); err != nil {
		return model.Bid{}, err
	}
	bid, ok := s.book.Last(auctionID)
	if !ok {
		return model.Bid{}, fmt.Errorf("winning bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	return bid, nil
}
