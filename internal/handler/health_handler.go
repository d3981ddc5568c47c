package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/policywatch/policywatch-backend/pkg/cache"
	"gorm.io/gorm"
)

// HealthHandler reports service liveness and dependency status
type HealthHandler struct {
	db           *gorm.DB
	cacheService cache.Service
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *gorm.DB, cacheService cache.Service) *HealthHandler {
	return &HealthHandler{db: db, cacheService: cacheService}
}

// Check handles GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK
	dbStatus := "ok"
	redisStatus := "ok"

	if h.db != nil {
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.Ping() != nil {
			dbStatus = "down"
			status = http.StatusServiceUnavailable
		}
	} else {
		dbStatus = "not configured"
	}

	if h.cacheService != nil && h.cacheService.IsAvailable() {
		if err := h.cacheService.Ping(c.Request.Context()); err != nil {
			redisStatus = "down"
		}
	} else {
		redisStatus = "not configured"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status": overall,
		"db":     dbStatus,
		"redis":  redisStatus,
	})
}
