// Package routes wires handlers onto the gin router.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/policywatch/policywatch-backend/internal/handler"
	"github.com/policywatch/policywatch-backend/internal/middleware"
	"github.com/policywatch/policywatch-backend/pkg/jwt"
)

// Handlers bundles everything Setup needs.
type Handlers struct {
	Documents *handler.DocumentHandler
	Versions  *handler.VersionHandler
	Analyses  *handler.AnalysisHandler
	Health    *handler.HealthHandler
}

// Setup configures the v1 API routes. Read endpoints are public; ingest
// and re-analysis mutate pipeline state and require a token.
func Setup(router *gin.Engine, h Handlers, jwtManager *jwt.Manager) {
	router.GET("/health", h.Health.Check)

	api := router.Group("/api/v1")
	auth := middleware.JWTAuth(jwtManager)

	docs := api.Group("/documents")
	docs.GET("", h.Documents.List)
	docs.GET("/:id", h.Documents.Get)
	docs.POST("", auth, h.Documents.Register)
	docs.POST("/:id/scrapes", auth, h.Documents.Ingest)
	docs.GET("/:id/versions", h.Versions.ListByDocument)
	docs.GET("/:id/comparisons", h.Versions.ComparisonsByDocument)
	docs.GET("/:id/timing-patterns", h.Versions.TimingPatterns)

	versions := api.Group("/versions")
	versions.GET("/:id", h.Versions.Get)
	versions.GET("/:id/analysis", h.Analyses.GetCurrent)
	versions.GET("/:id/analyses", h.Analyses.History)
	versions.POST("/:id/analyses", auth, h.Analyses.Reanalyze)
	versions.GET("/:id/timing", h.Versions.TimingReport)

	comparisons := api.Group("/comparisons")
	comparisons.GET("/:id", h.Versions.GetComparison)
}
