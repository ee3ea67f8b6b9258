package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SSE event names sent on the lead stream.
const (
	EventSnapshot  = "snapshot"
	EventChange    = "change"
	EventHeartbeat = "heartbeat"
	EventClosed    = "closed"
)

// Stream handles GET /api/v1/leads/stream.
// It sends the session's current listing, then every change to it until
// the client disconnects or the session ends.
func (h *LeadHandler) Stream(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}

	changes, stop := view.Watch()
	defer stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	list := view.List()
	c.SSEvent(EventSnapshot, LeadsResponse{Leads: list, Count: len(list)})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ch, open := <-changes:
			if !open {
				c.SSEvent(EventClosed, gin.H{"reason": "session ended"})
				c.Writer.Flush()
				return
			}
			c.SSEvent(EventChange, ch)
		case t := <-ticker.C:
			c.SSEvent(EventHeartbeat, gin.H{"at": t.UTC()})
		}
		c.Writer.Flush()
	}
}
