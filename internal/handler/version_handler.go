package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/policywatch/policywatch-backend/internal/common"
	"github.com/policywatch/policywatch-backend/internal/service"
	"github.com/policywatch/policywatch-backend/internal/timing"
	"github.com/policywatch/policywatch-backend/pkg/cache"
)

// VersionHandler handles version history, comparison and timing endpoints
type VersionHandler struct {
	versions     *service.VersionService
	timingSvc    *service.TimingService
	cacheService cache.Service
}

// NewVersionHandler creates a new VersionHandler
func NewVersionHandler(versions *service.VersionService, timingSvc *service.TimingService, cacheService cache.Service) *VersionHandler {
	return &VersionHandler{
		versions:     versions,
		timingSvc:    timingSvc,
		cacheService: cacheService,
	}
}

// ListByDocument handles GET /api/v1/documents/:id/versions
func (h *VersionHandler) ListByDocument(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid document ID", err)
		return
	}

	versions, err := h.versions.Versions(id)
	if err != nil {
		if errors.Is(err, common.ErrDocumentNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "Document not found", nil)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to list versions", err)
		return
	}
	common.SuccessResponse(c, versions)
}

// Get handles GET /api/v1/versions/:id
func (h *VersionHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid version ID", err)
		return
	}

	version, err := h.versions.Version(id)
	if err != nil {
		if errors.Is(err, common.ErrVersionNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "Version not found", nil)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to load version", err)
		return
	}
	common.SuccessResponse(c, version)
}

// ComparisonsByDocument handles GET /api/v1/documents/:id/comparisons
func (h *VersionHandler) ComparisonsByDocument(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid document ID", err)
		return
	}

	cmps, err := h.versions.Comparisons(id)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to list comparisons", err)
		return
	}
	common.SuccessResponse(c, cmps)
}

// GetComparison handles GET /api/v1/comparisons/:id
func (h *VersionHandler) GetComparison(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid comparison ID", err)
		return
	}

	cmp, err := h.versions.Comparison(id)
	if err != nil {
		if errors.Is(err, common.ErrComparisonNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "Comparison not found", nil)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to load comparison", err)
		return
	}
	common.SuccessResponse(c, cmp)
}

// TimingReport handles GET /api/v1/versions/:id/timing
// Reports depend on the version's siblings too, so cache entries are
// keyed under the document and dropped when a new version arrives.
func (h *VersionHandler) TimingReport(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid version ID", err)
		return
	}

	version, err := h.versions.Version(id)
	if err != nil {
		if errors.Is(err, common.ErrVersionNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "Version not found", nil)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to load version", err)
		return
	}

	ctx := c.Request.Context()
	if h.cacheService != nil {
		var cached timing.Report
		if err := h.cacheService.GetTimingReport(ctx, version.DocumentID, id, &cached); err == nil {
			common.SuccessResponse(c, cached)
			return
		}
	}

	report, err := h.timingSvc.ReportForVersion(id)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to evaluate timing", err)
		return
	}

	if h.cacheService != nil {
		_ = h.cacheService.SetTimingReport(ctx, version.DocumentID, id, report)
	}
	common.SuccessResponse(c, report)
}

// TimingPatterns handles GET /api/v1/documents/:id/timing-patterns
func (h *VersionHandler) TimingPatterns(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid document ID", err)
		return
	}

	signals, err := h.timingSvc.PatternsForDocument(id)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to detect patterns", err)
		return
	}
	if signals == nil {
		signals = []timing.Signal{}
	}
	common.SuccessResponse(c, signals)
}
