package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/services"
)

type JobsHandler struct {
	discovery services.DiscoveryService
}

func NewJobsHandler(discovery services.DiscoveryService) *JobsHandler {
	return &JobsHandler{discovery: discovery}
}

// GET /api/jobs/:id
func (h *JobsHandler) GetJobByID(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.discovery.GetJob(c.Request.Context(), jobID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	if job == nil {
		RespondError(c, http.StatusNotFound, "job_not_found", fmt.Errorf("job %s not found", jobID))
		return
	}
	RespondOK(c, gin.H{"job": job})
}

// GET /api/collections/:id/jobs/latest
func (h *JobsHandler) GetLatestForCollection(c *gin.Context) {
	collectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_collection_id", err)
		return
	}
	job, err := h.discovery.LatestJob(c.Request.Context(), collectionID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	if job == nil {
		RespondError(c, http.StatusNotFound, "job_not_found",
			fmt.Errorf("no discovery runs for collection %s", collectionID))
		return
	}
	RespondOK(c, gin.H{"job": job})
}
