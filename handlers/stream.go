package handlers

import (
	"io"
	"time"

	"cafe-order-api/broadcast"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

// AdminStream holds a Server-Sent Events connection open for the admin
// dashboard. Every order lifecycle event in the system is delivered here.
func (h *OrderHandler) AdminStream(c *gin.Context) {
	sub := h.hub.SubscribeAdmin()
	defer h.hub.UnsubscribeAdmin(sub)
	h.stream(c, sub)
}

// OrderStream holds an SSE connection for a single order, used by the
// customer-facing tracking page. The order id is not checked for
// existence: a subscriber simply sees no events until one is published.
func (h *OrderHandler) OrderStream(c *gin.Context) {
	orderID := c.Param("id")
	sub := h.hub.SubscribeOrder(orderID)
	defer h.hub.UnsubscribeOrder(orderID, sub)
	h.stream(c, sub)
}

func (h *OrderHandler) stream(c *gin.Context, sub *broadcast.Subscriber) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	// heartbeat lives exactly as long as this connection
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return false
			}
			sse.Encode(w, ev)
			return true
		case <-ticker.C:
			sse.Encode(w, broadcast.Ping())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
