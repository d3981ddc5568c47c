package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/policywatch/policywatch-backend/internal/common"
	"github.com/policywatch/policywatch-backend/internal/domain"
	"github.com/policywatch/policywatch-backend/internal/service"
)

// DocumentHandler handles tracked document endpoints
type DocumentHandler struct {
	documents *service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// List handles GET /api/v1/documents
func (h *DocumentHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	docs, total, err := h.documents.List(page, limit)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}
	common.SuccessWithMeta(c, docs, common.NewMeta(page, limit, total))
}

// Get handles GET /api/v1/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid document ID", err)
		return
	}

	doc, err := h.documents.Get(id)
	if err != nil {
		if errors.Is(err, common.ErrDocumentNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "Document not found", nil)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to load document", err)
		return
	}
	common.SuccessResponse(c, doc)
}

// Register handles POST /api/v1/documents
func (h *DocumentHandler) Register(c *gin.Context) {
	var doc domain.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.documents.Register(&doc); err != nil {
		if errors.Is(err, common.ErrInvalidInput) {
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid document fields", err)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to register document", err)
		return
	}
	common.SuccessResponse(c, doc)
}

// Ingest handles POST /api/v1/documents/:id/scrapes
// The scraper posts extracted content; a new version is created only
// when the content hash changed.
func (h *DocumentHandler) Ingest(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid document ID", err)
		return
	}

	var scraped domain.ScrapedContent
	if err := c.ShouldBindJSON(&scraped); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid scrape payload", err)
		return
	}

	version, err := h.documents.Ingest(c.Request.Context(), id, &scraped)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrDocumentNotFound):
			common.ErrorResponse(c, http.StatusNotFound, "Document not found", nil)
		case errors.Is(err, common.ErrEmptyContent), errors.Is(err, common.ErrInvalidInput):
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid scrape payload", err)
		default:
			common.ErrorResponse(c, http.StatusInternalServerError, "Failed to ingest content", err)
		}
		return
	}

	if version == nil {
		common.SuccessResponse(c, gin.H{"changed": false})
		return
	}
	common.SuccessResponse(c, gin.H{"changed": true, "version": version})
}

func parseID(c *gin.Context, param string) (uint64, error) {
	return strconv.ParseUint(c.Param(param), 10, 64)
}
