package server

import (
	"auction-house/internal/clock"
	"auction-house/internal/fanout"
	"auction-house/internal/registry"
	handler "auction-house/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(reg *registry.Registry, hub *fanout.Hub, clk clock.Clock) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(reg, clk)
	liveHandler := NewLiveHandler(reg, hub)

	auctions := router.Group("/auctions")
	{
		auctions.POST("", auctionHandler.CreateAuctionHandler)
		auctions.GET("/:auction_id", auctionHandler.SnapshotHandler)
		auctions.DELETE("/:auction_id", auctionHandler.DeleteAuctionHandler)
		auctions.POST("/:auction_id/bids", auctionHandler.PlaceBidHandler)
		auctions.GET("/:auction_id/bids", auctionHandler.GetBidsHandler)
		auctions.GET("/:auction_id/winner", auctionHandler.GetWinnerHandler)
		auctions.GET("/:auction_id/live", liveHandler.SubscribeHandler)
	}

	return router
}
