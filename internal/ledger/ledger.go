package ledger

import (
	"iter"
	"sync"

	"auction-house/internal/models"
)

// Book is an append-only, in-memory record of accepted bids keyed by auction.
// Within one auction, bids are totally ordered by a monotonic sequence counter
// assigned at append time; wall-clock timestamps are informational only, so
// ordering holds even under clock skew. Entries are never edited or deleted.
//
// Book does not enforce business rules: callers must already hold per-auction
// exclusivity when appending, which is why Append cannot fail.
type Book struct {
	mu        sync.RWMutex
	byAuction map[string][]models.Bid
	lastSeq   map[string]int64
}

// NewBook creates an empty ledger.
func NewBook() *Book {
	return &Book{
		byAuction: make(map[string][]models.Bid),
		lastSeq:   make(map[string]int64),
	}
}

// Append stamps the bid with the next per-auction sequence number and records
// it. It returns the stamped bid.
func (b *Book) Append(bid models.Bid) models.Bid {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSeq[bid.AuctionID]++
	bid.Sequence = b.lastSeq[bid.AuctionID]
	b.byAuction[bid.AuctionID] = append(b.byAuction[bid.AuctionID], bid)
	return bid
}

// History returns the accepted bids for an auction in sequence order as a
// lazy, restartable iterator. The iterator ranges over a snapshot taken at
// call time, so appends racing with iteration are never visible mid-range.
func (b *Book) History(auctionID string) iter.Seq[models.Bid] {
	b.mu.RLock()
	snapshot := append([]models.Bid(nil), b.byAuction[auctionID]...)
	b.mu.RUnlock()

	return func(yield func(models.Bid) bool) {
		for _, bid := range snapshot {
			if !yield(bid) {
				return
			}
		}
	}
}

// Last returns the most recently appended bid for an auction, which by the
// acceptance rule is also the highest. The second return is false when the
// ledger holds no bids for the auction.
func (b *Book) Last(auctionID string) (models.Bid, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bids := b.byAuction[auctionID]
	if len(bids) == 0 {
		return models.Bid{}, false
	}
	return bids[len(bids)-1], true
}

// Count returns the number of accepted bids recorded for an auction.
func (b *Book) Count(auctionID string) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastSeq[auctionID]
}
