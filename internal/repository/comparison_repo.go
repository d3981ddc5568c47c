package repository

import (
	"time"

	"github.com/policywatch/policywatch-backend/internal/domain"
	"gorm.io/gorm"
)

// ComparisonRepository handles version comparison data access
type ComparisonRepository interface {
	Create(cmp *domain.VersionComparison) error
	FindByID(id uint64) (*domain.VersionComparison, error)
	FindByPair(oldVersionID, newVersionID uint64) (*domain.VersionComparison, error)
	FindByDocument(documentID uint64) ([]*domain.VersionComparison, error)
	// FindUnanalyzed returns pending comparisons, including previously
	// errored ones that have not exhausted their retry attempts.
	FindUnanalyzed(limit int) ([]*domain.VersionComparison, error)
	// SaveAnalysis writes the AI-derived fields and flips is_analyzed in
	// one update; it refuses to annotate an already-analyzed comparison.
	SaveAnalysis(id uint64, fields AnalysisFields) error
	MarkFailed(id uint64, errMsg string) error
}

// maxAnalysisAttempts bounds how often the sweep retries an errored
// comparison before giving up on it.
const maxAnalysisAttempts = 3

// AnalysisFields is the AI-derived portion of a comparison.
type AnalysisFields struct {
	ChangeSummary    string
	ImpactDelta      int
	ChangeFlags      string
	SuspiciousTiming bool
	TimingScore      int
}

type comparisonRepository struct {
	db *gorm.DB
}

// NewComparisonRepository creates a new ComparisonRepository
func NewComparisonRepository(db *gorm.DB) ComparisonRepository {
	return &comparisonRepository{db: db}
}

func (r *comparisonRepository) Create(cmp *domain.VersionComparison) error {
	return r.db.Create(cmp).Error
}

func (r *comparisonRepository) FindByID(id uint64) (*domain.VersionComparison, error) {
	var cmp domain.VersionComparison
	if err := r.db.First(&cmp, id).Error; err != nil {
		return nil, err
	}
	return &cmp, nil
}

func (r *comparisonRepository) FindByPair(oldVersionID, newVersionID uint64) (*domain.VersionComparison, error) {
	var cmp domain.VersionComparison
	err := r.db.Where("old_version_id = ? AND new_version_id = ?", oldVersionID, newVersionID).
		First(&cmp).Error
	if err != nil {
		return nil, err
	}
	return &cmp, nil
}

func (r *comparisonRepository) FindByDocument(documentID uint64) ([]*domain.VersionComparison, error) {
	var cmps []*domain.VersionComparison
	err := r.db.Where("document_id = ?", documentID).
		Order("id DESC").Find(&cmps).Error
	return cmps, err
}

func (r *comparisonRepository) FindUnanalyzed(limit int) ([]*domain.VersionComparison, error) {
	var cmps []*domain.VersionComparison
	err := r.db.Where("is_analyzed = ? AND analysis_attempts < ?", false, maxAnalysisAttempts).
		Order("id").Limit(limit).Find(&cmps).Error
	return cmps, err
}

func (r *comparisonRepository) SaveAnalysis(id uint64, fields AnalysisFields) error {
	now := time.Now()
	result := r.db.Model(&domain.VersionComparison{}).
		Where("id = ? AND is_analyzed = ?", id, false).
		Updates(map[string]interface{}{
			"change_summary":    fields.ChangeSummary,
			"impact_delta":      fields.ImpactDelta,
			"change_flags":      fields.ChangeFlags,
			"suspicious_timing": fields.SuspiciousTiming,
			"timing_score":      fields.TimingScore,
			"is_analyzed":       true,
			"analyzed_at":       now,
			"analysis_error":    "",
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *comparisonRepository) MarkFailed(id uint64, errMsg string) error {
	return r.db.Model(&domain.VersionComparison{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"analysis_error":    errMsg,
			"analysis_attempts": gorm.Expr("analysis_attempts + 1"),
		}).Error
}
