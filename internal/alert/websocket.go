package alert

import (
	"log"
	"net/http"
	"time"

	"mailtrack-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// WSHandler streams the alert feed to WebSocket listeners. Every listener
// polls the feed on its own ticker until it disconnects.
type WSHandler struct {
	feed     *Feed
	interval time.Duration
}

func NewWSHandler(feed *Feed, interval time.Duration) *WSHandler {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &WSHandler{feed: feed, interval: interval}
}

// Serve handles GET /ws/alerts
func (h *WSHandler) Serve(c *gin.Context) {
	h.ServeHTTP(c.Writer, c.Request)
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("[AlertFeed] Accept failed: %v", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "alert feed stopped")

	metrics.AlertListeners.Inc()
	defer metrics.AlertListeners.Dec()

	// Listeners never send; CloseRead cancels ctx when they hang up.
	ctx := conn.CloseRead(r.Context())

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		alerts, err := h.feed.Recent()
		if err != nil {
			log.Printf("[AlertFeed] Error reading recent alerts: %v", err)
		}
		for _, a := range alerts {
			if err := wsjson.Write(ctx, conn, a); err != nil {
				return
			}
		}

		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-ticker.C:
		}
	}
}
