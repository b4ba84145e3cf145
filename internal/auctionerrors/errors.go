package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrNoBids          = errors.New("no bids found for auction")
	ErrHasBids         = errors.New("auction has bids and cannot be deleted")
	ErrConflict        = errors.New("concurrent update conflict")
)

// business rule errors
var (
	ErrInvalidAmount = errors.New("invalid bid amount")
	ErrBidTooLow     = errors.New("bid amount too low")
	ErrSelfBid       = errors.New("owner cannot bid on own auction")
	ErrAuctionEnded  = errors.New("auction has ended")
	ErrNotOwner      = errors.New("caller does not own auction")
)
