package repository

import (
	"time"

	"github.com/policywatch/policywatch-backend/internal/domain"
	"gorm.io/gorm"
)

// DocumentRepository handles tracked-document data access
type DocumentRepository interface {
	Create(doc *domain.Document) error
	FindByID(id uint64) (*domain.Document, error)
	FindAll(page, limit int) ([]*domain.Document, int64, error)
	FindActive() ([]*domain.Document, error)
	TouchLastChecked(id uint64, at time.Time) error
	Update(doc *domain.Document) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(doc *domain.Document) error {
	return r.db.Create(doc).Error
}

func (r *documentRepository) FindByID(id uint64) (*domain.Document, error) {
	var doc domain.Document
	if err := r.db.First(&doc, id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) FindAll(page, limit int) ([]*domain.Document, int64, error) {
	var docs []*domain.Document
	var total int64
	if err := r.db.Model(&domain.Document{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	err := r.db.Order("company_name, document_type").
		Offset((page - 1) * limit).Limit(limit).
		Find(&docs).Error
	return docs, total, err
}

func (r *documentRepository) FindActive() ([]*domain.Document, error) {
	var docs []*domain.Document
	err := r.db.Where("is_active = ?", true).Find(&docs).Error
	return docs, err
}

// TouchLastChecked updates only the check timestamp; used when a scrape
// produced no new version.
func (r *documentRepository) TouchLastChecked(id uint64, at time.Time) error {
	return r.db.Model(&domain.Document{}).Where("id = ?", id).
		UpdateColumn("last_checked_at", at).Error
}

func (r *documentRepository) Update(doc *domain.Document) error {
	return r.db.Save(doc).Error
}
