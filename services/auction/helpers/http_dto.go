package helpers

import (
	"github.com/shopspring/decimal"
)

// Request/Response DTOs

// CreateAuctionRequest is the payload for POST /auctions. Amounts travel as
// strings so malformed values fail decimal parsing instead of being silently
// coerced through a float.
type CreateAuctionRequest struct {
	OwnerID       string `json:"owner_id" binding:"required"`
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	ImageURL      string `json:"image_url"`
	StartingPrice string `json:"starting_price" binding:"required"`
	EndTime       string `json:"end_time" binding:"required"` // RFC 3339
}

// PlaceBidRequest is the payload for POST /auctions/:auction_id/bids.
type PlaceBidRequest struct {
	BidderID string `json:"bidder_id" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
}

// DeleteAuctionRequest identifies the caller for DELETE /auctions/:auction_id.
type DeleteAuctionRequest struct {
	OwnerID string `json:"owner_id" binding:"required"`
}

// AuctionResponse mirrors a created auction back to the client.
type AuctionResponse struct {
	AuctionID     string `json:"auction_id"`
	OwnerID       string `json:"owner_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	ImageURL      string `json:"image_url"`
	StartingPrice string `json:"starting_price"`
	CurrentPrice  string `json:"current_price"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

// BidAcceptedResponse reports an accepted bid.
type BidAcceptedResponse struct {
	Status   string `json:"status"` // always "accepted"
	BidID    string `json:"bid_id"`
	NewPrice string `json:"new_price"`
	Sequence int64  `json:"sequence"`
}

// BidResponse mirrors a single ledger entry.
type BidResponse struct {
	BidID      string `json:"bid_id"`
	AuctionID  string `json:"auction_id"`
	BidderID   string `json:"bidder_id"`
	Amount     string `json:"amount"`
	Sequence   int64  `json:"sequence"`
	AcceptedAt string `json:"accepted_at"`
}

// SnapshotResponse is the display view of one auction.
type SnapshotResponse struct {
	AuctionID    string `json:"auction_id"`
	CurrentPrice string `json:"current_price"`
	Status       string `json:"status"`
	EndTime      string `json:"end_time"`
	BidCount     int64  `json:"bid_count"`
}

// FormatAmount renders a decimal for the wire.
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}
