package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-house/internal/clock"
	"auction-house/internal/fanout"
	"auction-house/internal/registry"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	"auction-house/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// SetupTestRouter initializes the router with the in-memory store. The
// returned mock clock drives bid acceptance and settlement time.
func SetupTestRouter() (*gin.Engine, *clock.Mock) {
	gin.SetMode(gin.TestMode)
	clk := &clock.Mock{T: baseTime}
	store := repository.NewMemoryStore()
	hub := fanout.NewHub(16)
	reg := registry.New(store, hub, clk)
	return server.SetupRouter(reg, hub, clk), clk
}

// ExecuteRequest executes an HTTP request and returns the response recorder.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case []byte:
		reqBody = v
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		if err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}

// CreateAuction creates an auction over the API and returns its id.
func CreateAuction(t *testing.T, router *gin.Engine, ownerID, title, startingPrice string, endTime time.Time) string {
	t.Helper()

	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/auctions", helpers.CreateAuctionRequest{
		OwnerID:       ownerID,
		Title:         title,
		StartingPrice: startingPrice,
		EndTime:       endTime.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	data := resp["data"].(map[string]any)
	auctionID := data["auction_id"].(string)
	require.NotEmpty(t, auctionID)
	return auctionID
}

// PlaceBid submits a bid over the API and returns the parsed response body.
func PlaceBid(t *testing.T, router *gin.Engine, auctionID, bidderID, amount string) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	return ExecuteRequestAndParse(t, router, http.MethodPost, "/auctions/"+auctionID+"/bids", helpers.PlaceBidRequest{
		BidderID: bidderID,
		Amount:   amount,
	})
}
