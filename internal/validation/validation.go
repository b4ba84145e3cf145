package validation

import (
	"fmt"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"

	"github.com/shopspring/decimal"
)

// ValidateBid is the pure acceptance predicate for a candidate bid. It
// performs no I/O: the caller supplies the auction state it observed, and the
// caller is responsible for observing that state under per-auction
// exclusivity.
//
// Checks run in order: amount well-formedness, auction status, self-bid,
// then price comparison. An equal amount is rejected — acceptance requires
// strictly greater, so simultaneous equal bids can never both land.
func ValidateBid(amount, currentPrice decimal.Decimal, bidderID, ownerID string, status models.AuctionStatus) error {
	if bidderID == "" {
		return fmt.Errorf("validate: %w - missing bidder ID", auctionerrors.ErrInvalidAmount)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("validate: %w - amount must be positive, got %s", auctionerrors.ErrInvalidAmount, amount)
	}
	if status != models.StatusActive {
		return fmt.Errorf("validate: %w", auctionerrors.ErrAuctionEnded)
	}
	if bidderID == ownerID {
		return fmt.Errorf("validate: %w - bidder %s owns the auction", auctionerrors.ErrSelfBid, bidderID)
	}
	if amount.Cmp(currentPrice) <= 0 {
		return fmt.Errorf("validate: %w - current price is %s", auctionerrors.ErrBidTooLow, currentPrice)
	}
	return nil
}

// ParseAmount converts a client-supplied amount string into a decimal,
// rejecting anything non-numeric before it reaches a comparison.
func ParseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", raw, auctionerrors.ErrInvalidAmount)
	}
	return d, nil
}
