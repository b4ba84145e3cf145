package fanout

import (
	"fmt"
	"testing"
	"time"

	model "auction-house/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func bidEvent(auctionID string, amount int64) Event {
	bid := model.Bid{
		BidID:     "bid1",
		AuctionID: auctionID,
		BidderID:  "bidder1",
		Amount:    decimal.NewFromInt(amount),
	}
	return Event{
		Type:         EventBidAccepted,
		AuctionID:    auctionID,
		Bid:          &bid,
		CurrentPrice: bid.Amount,
		OccurredAt:   time.Now().UTC(),
	}
}

// Test Subscribe / Publish
func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	t.Parallel()
	hub := NewHub(8)

	sub1 := hub.Subscribe("auction1")
	sub2 := hub.Subscribe("auction1")
	other := hub.Subscribe("auction2")
	defer hub.Unsubscribe(sub1)
	defer hub.Unsubscribe(sub2)
	defer hub.Unsubscribe(other)

	hub.Publish(bidEvent("auction1", 150))

	for _, sub := range []*Subscriber{sub1, sub2} {
		select {
		case ev := <-sub.C:
			require.Equal(t, EventBidAccepted, ev.Type)
			require.Equal(t, "auction1", ev.AuctionID)
			require.True(t, ev.CurrentPrice.Equal(decimal.NewFromInt(150)))
		default:
			t.Fatal("subscriber did not receive the event")
		}
	}

	// Subscribers of other auctions receive nothing.
	select {
	case <-other.C:
		t.Fatal("subscriber of another auction received the event")
	default:
	}
}

// Test Unsubscribe
func TestHub_Unsubscribe(t *testing.T) {
	t.Parallel()
	hub := NewHub(8)

	sub := hub.Subscribe("auction1")
	require.Equal(t, 1, hub.SubscriberCount("auction1"))

	hub.Unsubscribe(sub)
	require.Equal(t, 0, hub.SubscriberCount("auction1"))

	// The channel is closed so consumers can exit their range loop.
	_, open := <-sub.C
	require.False(t, open)

	// Double unsubscribe is harmless.
	hub.Unsubscribe(sub)

	// Events after unsubscription go nowhere.
	hub.Publish(bidEvent("auction1", 150))
}

// A full subscriber buffer drops events instead of blocking the publisher.
func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	t.Parallel()
	hub := NewHub(2)

	slow := hub.Subscribe("auction1")
	defer hub.Unsubscribe(slow)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Publish(bidEvent("auction1", int64(100+i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// Only the buffered events arrived; the rest were dropped.
	received := 0
	for {
		select {
		case <-slow.C:
			received++
			continue
		default:
		}
		break
	}
	require.Equal(t, 2, received)
}

func TestHub_SubscriberCountPerAuction(t *testing.T) {
	t.Parallel()
	hub := NewHub(8)

	var subs []*Subscriber
	for i := 0; i < 3; i++ {
		subs = append(subs, hub.Subscribe(fmt.Sprintf("auction%d", i%2)))
	}

	require.Equal(t, 2, hub.SubscriberCount("auction0"))
	require.Equal(t, 1, hub.SubscriberCount("auction1"))
	require.Equal(t, 0, hub.SubscriberCount("auction9"))

	for _, sub := range subs {
		hub.Unsubscribe(sub)
	}
	require.Equal(t, 0, hub.SubscriberCount("auction0"))
}
