package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/services"
)

type TopicHandler struct {
	topics services.TopicService
}

func NewTopicHandler(topics services.TopicService) *TopicHandler {
	return &TopicHandler{topics: topics}
}

// GET /api/collections/:id/topics
func (h *TopicHandler) ListByCollection(c *gin.Context) {
	collectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_collection_id", err)
		return
	}
	topics, err := h.topics.ListByCollection(c.Request.Context(), collectionID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"topics": topics})
}

// GET /api/collections/:id/topics/graph
func (h *TopicHandler) Graph(c *gin.Context) {
	collectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_collection_id", err)
		return
	}
	graph, err := h.topics.Graph(c.Request.Context(), collectionID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "graph_failed", err)
		return
	}
	RespondOK(c, graph)
}

// GET /api/topics/:id
func (h *TopicHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_topic_id", err)
		return
	}
	detail, err := h.topics.Detail(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	if detail == nil {
		RespondError(c, http.StatusNotFound, "topic_not_found", fmt.Errorf("topic %s not found", id))
		return
	}
	RespondOK(c, detail)
}

type topicQARequest struct {
	Question string `json:"question"`
}

// POST /api/topics/:id/qa
func (h *TopicHandler) Answer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_topic_id", err)
		return
	}
	var req topicQARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	answer, err := h.topics.Answer(c.Request.Context(), id, req.Question)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "qa_failed", err)
		return
	}
	RespondOK(c, answer)
}
