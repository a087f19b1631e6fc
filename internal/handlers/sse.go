package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/topiclens/topiclens-backend/internal/sse"
)

type SSEHandler struct {
	hub *sse.SSEHub
}

func NewSSEHandler(hub *sse.SSEHub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// GET /api/events?collection_id=<uuid>
//
// Streams job events for the named collection until the client disconnects.
func (h *SSEHandler) Stream(c *gin.Context) {
	channel := c.Query("collection_id")
	if channel == "" {
		RespondError(c, http.StatusBadRequest, "missing_collection_id",
			fmt.Errorf("collection_id query parameter is required"))
		return
	}

	client := h.hub.NewSSEClient()
	h.hub.AddChannel(client, channel)
	defer h.hub.RemoveClient(client)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
