package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/fanout"
	"auction-house/internal/registry"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	pingPeriod   = 30 * time.Second
	readDeadline = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The surrounding application layer owns origin policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveHandler bridges fanout subscriptions onto websocket connections.
type LiveHandler struct {
	registry *registry.Registry
	hub      *fanout.Hub
}

func NewLiveHandler(reg *registry.Registry, hub *fanout.Hub) *LiveHandler {
	return &LiveHandler{registry: reg, hub: hub}
}

// SubscribeHandler handles GET /auctions/:auction_id/live. The client first
// receives the current snapshot, then accepted-bid and settlement events as
// they happen. Delivery is best-effort: a client that disconnects misses
// events and reconciles by re-fetching the snapshot on reconnect.
func (h *LiveHandler) SubscribeHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	snap, err := h.registry.Snapshot(c.Request.Context(), auctionID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrAuctionNotFound) {
			utils.JSONError(c, http.StatusNotFound, err, "auction not found")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, err, "internal server error")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		utils.Warn("SubscribeHandler: websocket upgrade failed", map[string]any{"error": err.Error()})
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(auctionID)
	defer h.hub.Unsubscribe(sub)

	utils.Info("SubscribeHandler: client subscribed", map[string]any{"auction_id": auctionID})

	// Initial snapshot so the client does not wait for the first event.
	if payload, err := json.Marshal(gin.H{"type": "snapshot", "snapshot": snap}); err == nil {
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}

	// Writer: pump fanout events and pings until the subscription or the
	// connection dies.
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				payload, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader: nothing inbound is expected; the loop exists to notice a closed
	// connection and to service pongs.
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.hub.Unsubscribe(sub)
	<-done
	utils.Info("SubscribeHandler: client disconnected", map[string]any{"auction_id": auctionID})
}
