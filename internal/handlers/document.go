package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/services"
)

type DocumentHandler struct {
	documents services.DocumentService
	discovery services.DiscoveryService
}

func NewDocumentHandler(documents services.DocumentService, discovery services.DiscoveryService) *DocumentHandler {
	return &DocumentHandler{documents: documents, discovery: discovery}
}

// addDocumentsRequest accepts either a single document body or a batch.
// TriggerDiscovery defaults to true when absent.
type addDocumentsRequest struct {
	Content          string                   `json:"content"`
	Title            string                   `json:"title"`
	Documents        []services.DocumentInput `json:"documents"`
	TriggerDiscovery *bool                    `json:"trigger_discovery"`
}

// POST /api/collections/:id/documents
func (h *DocumentHandler) Add(c *gin.Context) {
	collectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_collection_id", err)
		return
	}
	var req addDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	inputs := req.Documents
	if len(inputs) == 0 {
		if req.Content == "" {
			RespondError(c, http.StatusBadRequest, "empty_request",
				fmt.Errorf("provide content or a documents array"))
			return
		}
		inputs = []services.DocumentInput{{Content: req.Content, Title: req.Title}}
	}

	docs, err := h.documents.AddBatch(c.Request.Context(), collectionID, inputs)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "add_failed", err)
		return
	}

	resp := gin.H{"documents": docs, "count": len(docs)}
	if req.TriggerDiscovery == nil || *req.TriggerDiscovery {
		job, jobErr := h.discovery.Enqueue(c.Request.Context(), collectionID, true)
		if jobErr != nil {
			RespondError(c, http.StatusInternalServerError, "enqueue_failed", jobErr)
			return
		}
		resp["job"] = job
	}
	RespondCreated(c, resp)
}

// GET /api/collections/:id/documents
func (h *DocumentHandler) ListByCollection(c *gin.Context) {
	collectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_collection_id", err)
		return
	}
	docs, err := h.documents.ListByCollection(c.Request.Context(), collectionID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"documents": docs})
}

// GET /api/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	doc, err := h.documents.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	if doc == nil {
		RespondError(c, http.StatusNotFound, "document_not_found", fmt.Errorf("document %s not found", id))
		return
	}
	RespondOK(c, gin.H{"document": doc})
}
