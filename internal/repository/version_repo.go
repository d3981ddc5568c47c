package repository

import (
	"time"

	"github.com/policywatch/policywatch-backend/internal/domain"
	"gorm.io/gorm"
)

// VersionRepository handles document version data access
type VersionRepository interface {
	FindByID(id uint64) (*domain.DocumentVersion, error)
	FindCurrent(documentID uint64) (*domain.DocumentVersion, error)
	FindByDocument(documentID uint64) ([]*domain.DocumentVersion, error)
	CountByDocument(documentID uint64) (int64, error)
	// CreateAsCurrent inserts the version and flips the current flag from
	// the previous current version in one transaction, so exactly one
	// version per document is ever current.
	CreateAsCurrent(version *domain.DocumentVersion) error
	// RecentTimestamps returns effective timestamps of versions scraped
	// within the trailing window before ts, excluding excludeID.
	RecentTimestamps(documentID uint64, before time.Time, window time.Duration, excludeID uint64) ([]time.Time, error)
}

type versionRepository struct {
	db *gorm.DB
}

// NewVersionRepository creates a new VersionRepository
func NewVersionRepository(db *gorm.DB) VersionRepository {
	return &versionRepository{db: db}
}

func (r *versionRepository) FindByID(id uint64) (*domain.DocumentVersion, error) {
	var v domain.DocumentVersion
	if err := r.db.First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *versionRepository) FindCurrent(documentID uint64) (*domain.DocumentVersion, error) {
	var v domain.DocumentVersion
	err := r.db.Where("document_id = ? AND is_current = ?", documentID, true).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *versionRepository) FindByDocument(documentID uint64) ([]*domain.DocumentVersion, error) {
	var versions []*domain.DocumentVersion
	err := r.db.Where("document_id = ?", documentID).
		Order("id DESC").Find(&versions).Error
	return versions, err
}

func (r *versionRepository) CountByDocument(documentID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&domain.DocumentVersion{}).
		Where("document_id = ?", documentID).Count(&count).Error
	return count, err
}

func (r *versionRepository) CreateAsCurrent(version *domain.DocumentVersion) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.DocumentVersion{}).
			Where("document_id = ? AND is_current = ?", version.DocumentID, true).
			UpdateColumn("is_current", false).Error; err != nil {
			return err
		}
		version.IsCurrent = true
		return tx.Create(version).Error
	})
}

func (r *versionRepository) RecentTimestamps(documentID uint64, before time.Time, window time.Duration, excludeID uint64) ([]time.Time, error) {
	var versions []*domain.DocumentVersion
	err := r.db.Select("scraped_at", "effective_date").
		Where("document_id = ? AND id <> ? AND scraped_at >= ? AND scraped_at <= ?",
			documentID, excludeID, before.Add(-window), before).
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(versions))
	for _, v := range versions {
		out = append(out, v.EffectiveTimestamp())
	}
	return out, nil
}
