package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/policywatch/policywatch-backend/internal/common"
	"github.com/policywatch/policywatch-backend/internal/domain"
	"github.com/policywatch/policywatch-backend/internal/queue"
	"github.com/policywatch/policywatch-backend/internal/service"
	"github.com/policywatch/policywatch-backend/pkg/cache"
)

// AnalysisHandler handles analysis result endpoints
type AnalysisHandler struct {
	analysis     *service.AnalysisService
	jobs         *queue.Queue
	cacheService cache.Service
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(analysis *service.AnalysisService, jobs *queue.Queue, cacheService cache.Service) *AnalysisHandler {
	return &AnalysisHandler{
		analysis:     analysis,
		jobs:         jobs,
		cacheService: cacheService,
	}
}

// GetCurrent handles GET /api/v1/versions/:id/analysis
func (h *AnalysisHandler) GetCurrent(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid version ID", err)
		return
	}

	ctx := c.Request.Context()
	if h.cacheService != nil {
		var cached domain.AnalysisResult
		if err := h.cacheService.GetAnalysis(ctx, id, &cached); err == nil {
			common.SuccessResponse(c, cached)
			return
		}
	}

	result, err := h.analysis.CurrentForVersion(id)
	if err != nil {
		if errors.Is(err, common.ErrAnalysisNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "No completed analysis for this version", nil)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to load analysis", err)
		return
	}

	if h.cacheService != nil {
		_ = h.cacheService.SetAnalysis(ctx, id, result)
	}
	common.SuccessResponse(c, result)
}

// History handles GET /api/v1/versions/:id/analyses
func (h *AnalysisHandler) History(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid version ID", err)
		return
	}

	results, err := h.analysis.History(id)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to load analysis history", err)
		return
	}
	common.SuccessResponse(c, results)
}

// Reanalyze handles POST /api/v1/versions/:id/analyses
// It queues a fresh run; the previous current result stays visible until
// the new one completes and supersedes it.
func (h *AnalysisHandler) Reanalyze(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid version ID", err)
		return
	}

	ctx := c.Request.Context()
	err = h.jobs.Enqueue(ctx, queue.Job{
		Type:      queue.JobAnalyzeVersion,
		VersionID: id,
	})
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to queue analysis", err)
		return
	}

	if h.cacheService != nil {
		_ = h.cacheService.InvalidateAnalysis(ctx, id)
	}
	c.JSON(http.StatusAccepted, common.APIResponse{
		Success: true,
		Data:    gin.H{"queued": true, "version_id": id},
	})
}
