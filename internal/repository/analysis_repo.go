package repository

import (
	"time"

	"github.com/policywatch/policywatch-backend/internal/domain"
	"gorm.io/gorm"
)

// AnalysisRepository handles analysis result data access
type AnalysisRepository interface {
	Create(result *domain.AnalysisResult) error
	FindByID(id uint64) (*domain.AnalysisResult, error)
	FindCurrent(versionID uint64, analysisType string) (*domain.AnalysisResult, error)
	FindByVersion(versionID uint64) ([]*domain.AnalysisResult, error)
	// CompleteAndMarkCurrent persists the finished fields and reassigns
	// the current flag from any prior result of the same (version, type)
	// in one transaction.
	CompleteAndMarkCurrent(result *domain.AnalysisResult) error
	MarkFailed(id uint64, errMsg string) error
}

type analysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository creates a new AnalysisRepository
func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Create(result *domain.AnalysisResult) error {
	return r.db.Create(result).Error
}

func (r *analysisRepository) FindByID(id uint64) (*domain.AnalysisResult, error) {
	var res domain.AnalysisResult
	if err := r.db.First(&res, id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *analysisRepository) FindCurrent(versionID uint64, analysisType string) (*domain.AnalysisResult, error) {
	var res domain.AnalysisResult
	err := r.db.Where("version_id = ? AND analysis_type = ? AND is_current = ?",
		versionID, analysisType, true).First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *analysisRepository) FindByVersion(versionID uint64) ([]*domain.AnalysisResult, error) {
	var results []*domain.AnalysisResult
	err := r.db.Where("version_id = ?", versionID).
		Order("id DESC").Find(&results).Error
	return results, err
}

func (r *analysisRepository) CompleteAndMarkCurrent(result *domain.AnalysisResult) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.AnalysisResult{}).
			Where("version_id = ? AND analysis_type = ? AND is_current = ?",
				result.VersionID, result.AnalysisType, true).
			UpdateColumn("is_current", false).Error; err != nil {
			return err
		}
		now := time.Now()
		result.Status = domain.AnalysisStatusCompleted
		result.CompletedAt = &now
		result.IsCurrent = true
		return tx.Save(result).Error
	})
}

func (r *analysisRepository) MarkFailed(id uint64, errMsg string) error {
	now := time.Now()
	return r.db.Model(&domain.AnalysisResult{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        domain.AnalysisStatusFailed,
			"error_message": errMsg,
			"completed_at":  now,
		}).Error
}
