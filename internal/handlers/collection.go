package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/services"
)

type CollectionHandler struct {
	collections services.CollectionService
	discovery   services.DiscoveryService
}

func NewCollectionHandler(collections services.CollectionService, discovery services.DiscoveryService) *CollectionHandler {
	return &CollectionHandler{collections: collections, discovery: discovery}
}

type createCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// POST /api/collections
func (h *CollectionHandler) Create(c *gin.Context) {
	var req createCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	coll, err := h.collections.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "create_failed", err)
		return
	}
	RespondCreated(c, gin.H{"collection": coll})
}

// GET /api/collections
func (h *CollectionHandler) List(c *gin.Context) {
	colls, err := h.collections.List(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"collections": colls})
}

// GET /api/collections/:id
func (h *CollectionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_collection_id", err)
		return
	}
	coll, err := h.collections.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	if coll == nil {
		RespondError(c, http.StatusNotFound, "collection_not_found", fmt.Errorf("collection %s not found", id))
		return
	}
	count, err := h.collections.DocumentCount(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	RespondOK(c, gin.H{"collection": coll, "document_count": count})
}

// DELETE /api/collections/:id
func (h *CollectionHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_collection_id", err)
		return
	}
	if err := h.collections.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": id})
}

// POST /api/collections/:id/discover
func (h *CollectionHandler) Discover(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_collection_id", err)
		return
	}
	job, err := h.discovery.Enqueue(c.Request.Context(), id, false)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "enqueue_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}
