package fanout

import (
	"sync"
	"time"

	"auction-house/internal/models"

	"github.com/shopspring/decimal"
)

// Event types pushed to subscribers.
const (
	EventBidAccepted    = "bid_accepted"
	EventAuctionSettled = "auction_settled"
)

// Event is a single notification about one auction.
type Event struct {
	Type         string          `json:"type"`
	AuctionID    string          `json:"auction_id"`
	Bid          *models.Bid     `json:"bid,omitempty"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Winner       *models.Bid     `json:"winner,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// Subscriber receives events for one auction on a buffered channel. Delivery
// is best-effort, at-most-once: when the buffer is full the event is dropped
// for that subscriber, who reconciles by re-fetching the auction snapshot.
type Subscriber struct {
	AuctionID string
	C         <-chan Event

	ch chan Event
}

// Hub maps auction ids to their current subscribers. Subscription and
// unsubscription are explicit operations tied to a client's viewing session.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscriber]struct{}
	buffer int
}

// NewHub creates a Hub whose subscribers buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[string]map[*Subscriber]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers interest in one auction and returns the subscription.
func (h *Hub) Subscribe(auctionID string) *Subscriber {
	sub := &Subscriber{AuctionID: auctionID, ch: make(chan Event, h.buffer)}
	sub.C = sub.ch

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[auctionID]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.subs[auctionID] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Unsubscribe removes the subscription and closes its channel. Calling it
// twice is harmless.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[sub.AuctionID]
	if !ok {
		return
	}
	if _, registered := set[sub]; !registered {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.AuctionID)
	}
	close(sub.ch)
}

// Publish pushes the event to every current subscriber of its auction without
// blocking. Publish is called after the accepting transaction commits; a slow
// subscriber never stalls or rolls back a bid.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[ev.AuctionID] {
		select {
		case sub.ch <- ev:
		default:
			// Buffer full: drop for this subscriber.
		}
	}
}

// SubscriberCount reports the number of active subscriptions for an auction.
func (h *Hub) SubscriberCount(auctionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[auctionID])
}
