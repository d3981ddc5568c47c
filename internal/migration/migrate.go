// Package migration creates the pipeline schema.
package migration

import (
	"github.com/policywatch/policywatch-backend/internal/domain"
	"gorm.io/gorm"
)

// Run executes AutoMigrate for every pipeline table.
func Run(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Document{},
		&domain.DocumentVersion{},
		&domain.VersionComparison{},
		&domain.AnalysisResult{},
	)
}
