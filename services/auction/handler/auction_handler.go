package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"auction-house/internal/clock"
	model "auction-house/internal/models"
	"auction-house/internal/validation"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AuctionServiceInterface is the registry surface consumed by the HTTP layer.
type AuctionServiceInterface interface {
	CreateAuction(ctx context.Context, ownerID, title, description, imageURL string, startingPrice decimal.Decimal, endTime time.Time) (model.Auction, error)
	Snapshot(ctx context.Context, auctionID string) (model.Snapshot, error)
	TryApplyBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal, now time.Time) (model.Bid, error)
	History(ctx context.Context, auctionID string) ([]model.Bid, error)
	WinningBid(ctx context.Context, auctionID string) (model.Bid, error)
	DeleteAuction(ctx context.Context, auctionID, callerID string) error
}

type AuctionHandler struct {
	service AuctionServiceInterface
	clock   clock.Clock
}

func NewAuctionHandler(service AuctionServiceInterface, clk clock.Clock) *AuctionHandler {
	return &AuctionHandler{service: service, clock: clk}
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	startingPrice, err := validation.ParseAmount(req.StartingPrice)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, err, "invalid starting price")
		return
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, fmt.Errorf("invalid end time: %w", err), "invalid end time")
		return
	}

	a, err := h.service.CreateAuction(c.Request.Context(), req.OwnerID, req.Title, req.Description, req.ImageURL, startingPrice, endTime)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreateAuctionHandler: failed to create auction", map[string]any{
			"owner_id": req.OwnerID,
			"error":    err.Error(),
		})
		return
	}

	resp := helpers.AuctionResponse{
		AuctionID:     a.AuctionID,
		OwnerID:       a.OwnerID,
		Title:         a.Title,
		Description:   a.Description,
		ImageURL:      a.ImageURL,
		StartingPrice: helpers.FormatAmount(a.StartingPrice),
		CurrentPrice:  helpers.FormatAmount(a.CurrentPrice),
		EndTime:       a.EndTime.UTC().Format(time.RFC3339),
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": a.AuctionID,
		"owner_id":   a.OwnerID,
	})
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	amount, err := validation.ParseAmount(req.Amount)
	if err != nil {
		utils.JSONRejection(c, http.StatusBadRequest, helpers.ReasonInvalidAmount, "bid amount is not a valid number")
		return
	}

	bid, err := h.service.TryApplyBid(c.Request.Context(), auctionID, req.BidderID, amount, h.clock.Now())
	if err != nil {
		if reason, status, ok := helpers.RejectionReason(err); ok {
			utils.JSONRejection(c, status, reason, err.Error())
			// Business rejections are expected outcomes, not system errors.
			utils.Info("PlaceBidHandler: bid rejected", map[string]any{
				"auction_id": auctionID,
				"bidder_id":  req.BidderID,
				"reason":     reason,
			})
			return
		}
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("PlaceBidHandler: failed to place bid", map[string]any{
			"auction_id": auctionID,
			"bidder_id":  req.BidderID,
			"error":      err.Error(),
		})
		return
	}

	resp := helpers.BidAcceptedResponse{
		Status:   "accepted",
		BidID:    bid.BidID,
		NewPrice: helpers.FormatAmount(bid.Amount),
		Sequence: bid.Sequence,
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid accepted")
	helpers.LogSuccess("PlaceBidHandler", "bid accepted", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": auctionID,
		"bidder_id":  req.BidderID,
		"amount":     helpers.FormatAmount(bid.Amount),
	})
}

// SnapshotHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) SnapshotHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	snap, err := h.service.Snapshot(c.Request.Context(), auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("SnapshotHandler: error retrieving snapshot", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := helpers.SnapshotResponse{
		AuctionID:    snap.AuctionID,
		CurrentPrice: helpers.FormatAmount(snap.CurrentPrice),
		Status:       string(snap.Status),
		EndTime:      snap.EndTime.UTC().Format(time.RFC3339),
		BidCount:     snap.BidCount,
	}

	utils.JSONResponse(c, http.StatusOK, resp, "snapshot retrieved successfully")
}

// GetBidsHandler handles GET /auctions/:auction_id/bids
func (h *AuctionHandler) GetBidsHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	bids, err := h.service.History(c.Request.Context(), auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetBidsHandler: error retrieving bids", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, bid := range bids {
		resp = append(resp, helpers.BidResponse{
			BidID:      bid.BidID,
			AuctionID:  bid.AuctionID,
			BidderID:   bid.BidderID,
			Amount:     helpers.FormatAmount(bid.Amount),
			Sequence:   bid.Sequence,
			AcceptedAt: bid.AcceptedAt.UTC().Format(time.RFC3339),
		})
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(resp),
	})
}

// GetWinnerHandler handles GET /auctions/:auction_id/winner
func (h *AuctionHandler) GetWinnerHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	bid, err := h.service.WinningBid(c.Request.Context(), auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetWinnerHandler: winning bid error", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := helpers.BidResponse{
		BidID:      bid.BidID,
		AuctionID:  bid.AuctionID,
		BidderID:   bid.BidderID,
		Amount:     helpers.FormatAmount(bid.Amount),
		Sequence:   bid.Sequence,
		AcceptedAt: bid.AcceptedAt.UTC().Format(time.RFC3339),
	}

	utils.JSONResponse(c, http.StatusOK, resp, "winning bid retrieved successfully")
	helpers.LogSuccess("GetWinnerHandler", "winning bid retrieved successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": auctionID,
	})
}

// DeleteAuctionHandler handles DELETE /auctions/:auction_id
func (h *AuctionHandler) DeleteAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.DeleteAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "DeleteAuctionHandler", err)
		return
	}

	if err := h.service.DeleteAuction(c.Request.Context(), auctionID, req.OwnerID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("DeleteAuctionHandler: error deleting auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"auction_id": auctionID}, "auction deleted successfully")
	helpers.LogSuccess("DeleteAuctionHandler", "auction deleted successfully", map[string]any{
		"auction_id": auctionID,
		"owner_id":   req.OwnerID,
	})
}
