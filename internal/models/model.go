package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus is the lifecycle state of an auction.
type AuctionStatus string

const (
	StatusActive AuctionStatus = "active"
	StatusEnded  AuctionStatus = "ended"
)

// User represents a participant in the marketplace. Bidder and owner
// identifiers are weak references into an external user directory.
type User struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Auction represents a timed sale of one artwork with a rising current price.
// CurrentPrice is monotonically non-decreasing while the auction is active and
// never drops below StartingPrice.
type Auction struct {
	AuctionID     string          `json:"auction_id" db:"auction_id"`
	OwnerID       string          `json:"owner_id" db:"owner_id"`
	Title         string          `json:"title" db:"title"`
	Description   string          `json:"description" db:"description"`
	ImageURL      string          `json:"image_url" db:"image_url"`
	StartingPrice decimal.Decimal `json:"starting_price" db:"starting_price"`
	CurrentPrice  decimal.Decimal `json:"current_price" db:"current_price"`
	EndTime       time.Time       `json:"end_time" db:"end_time"`
	Status        AuctionStatus   `json:"status" db:"status"`
	BidCount      int64           `json:"bid_count" db:"bid_count"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Bid represents an accepted price offer tied to one auction and one bidder.
// Bids are immutable once appended to the ledger. Sequence is a per-auction
// monotonic counter assigned at append time and is the ordering authority;
// AcceptedAt alone is never used for tie-breaking.
type Bid struct {
	BidID      string          `json:"bid_id" db:"bid_id"`
	AuctionID  string          `json:"auction_id" db:"auction_id"`
	BidderID   string          `json:"bidder_id" db:"bidder_id"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Sequence   int64           `json:"sequence" db:"sequence"`
	AcceptedAt time.Time       `json:"accepted_at" db:"accepted_at"`
}

// Snapshot is a read-only view of auction state served to display paths.
// It may be slightly stale; acceptance decisions never use it.
type Snapshot struct {
	AuctionID    string          `json:"auction_id"`
	OwnerID      string          `json:"owner_id"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Status       AuctionStatus   `json:"status"`
	EndTime      time.Time       `json:"end_time"`
	BidCount     int64           `json:"bid_count"`
}
