package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-house/internal/auctionerrors"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// Rejection reason codes exposed on the wire.
const (
	ReasonNotFound      = "not_found"
	ReasonEnded         = "ended"
	ReasonSelfBid       = "self_bid"
	ReasonTooLow        = "too_low"
	ReasonInvalidAmount = "invalid_amount"
	ReasonConflict      = "conflict"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// RejectionReason maps a bid-rejection error to its wire reason code and HTTP
// status. The second return is false for errors that are system failures
// rather than rejections.
func RejectionReason(err error) (string, int, bool) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return ReasonNotFound, http.StatusNotFound, true
	case errors.Is(err, auctionerrors.ErrAuctionEnded):
		return ReasonEnded, http.StatusConflict, true
	case errors.Is(err, auctionerrors.ErrSelfBid):
		return ReasonSelfBid, http.StatusConflict, true
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return ReasonTooLow, http.StatusConflict, true
	case errors.Is(err, auctionerrors.ErrInvalidAmount):
		return ReasonInvalidAmount, http.StatusBadRequest, true
	case errors.Is(err, auctionerrors.ErrConflict):
		// Transient: the caller should refetch the snapshot and retry.
		return ReasonConflict, http.StatusServiceUnavailable, true
	default:
		return "", 0, false
	}
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid request details"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrAuctionEnded):
		return http.StatusConflict, "auction has ended"
	case errors.Is(err, auctionerrors.ErrSelfBid):
		return http.StatusConflict, "owner cannot bid on own auction"
	case errors.Is(err, auctionerrors.ErrHasBids):
		return http.StatusConflict, "auction has bids and cannot be deleted"
	case errors.Is(err, auctionerrors.ErrNotOwner):
		return http.StatusForbidden, "caller does not own auction"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusNotFound, "no bids found for auction"
	case errors.Is(err, auctionerrors.ErrConflict):
		return http.StatusServiceUnavailable, "transient conflict, retry"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
