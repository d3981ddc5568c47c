package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/policywatch/policywatch-backend/internal/common"
	"github.com/policywatch/policywatch-backend/internal/domain"
	"github.com/policywatch/policywatch-backend/internal/queue"
	"github.com/policywatch/policywatch-backend/internal/repository"
	"github.com/policywatch/policywatch-backend/pkg/cache"
	"github.com/policywatch/policywatch-backend/pkg/logger"
	"github.com/policywatch/policywatch-backend/pkg/metrics"
)

// DocumentService handles tracked document CRUD and the ingest entry
// point that feeds scraped content into the versioning coordinator.
type DocumentService struct {
	docRepo        repository.DocumentRepository
	versionService *VersionService
	jobs           *queue.Queue
	cacheService   cache.Service
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	docRepo repository.DocumentRepository,
	versionService *VersionService,
	jobs *queue.Queue,
	cacheService cache.Service,
) *DocumentService {
	return &DocumentService{
		docRepo:        docRepo,
		versionService: versionService,
		jobs:           jobs,
		cacheService:   cacheService,
	}
}

// List returns a page of tracked documents with the total count.
func (s *DocumentService) List(page, limit int) ([]*domain.Document, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.docRepo.FindAll(page, limit)
}

// Get loads one document.
func (s *DocumentService) Get(id uint64) (*domain.Document, error) {
	doc, err := s.docRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Register starts tracking a new document.
func (s *DocumentService) Register(doc *domain.Document) error {
	if strings.TrimSpace(doc.URL) == "" || strings.TrimSpace(doc.CompanyName) == "" {
		return fmt.Errorf("%w: company_name and url are required", common.ErrInvalidInput)
	}
	if doc.DocumentType == "" {
		doc.DocumentType = domain.DocTypeOther
	}
	doc.IsActive = true
	return s.docRepo.Create(doc)
}

// Ingest feeds one scrape result into change detection. A nil version
// means the content was unchanged. A new version invalidates the
// document's cache entries and queues a background analysis.
func (s *DocumentService) Ingest(ctx context.Context, documentID uint64, scraped *domain.ScrapedContent) (*domain.DocumentVersion, error) {
	doc, err := s.Get(documentID)
	if err != nil {
		return nil, err
	}

	version, err := s.versionService.ConsiderNewVersion(doc, scraped)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, nil
	}

	metrics.VersionsCreated.Inc()
	log := logger.WithDocumentID(doc.ID)
	if s.cacheService != nil {
		if cerr := s.cacheService.InvalidateDocument(ctx, doc.ID); cerr != nil {
			log.Warn().Err(cerr).Msg("cache invalidation failed")
		}
	}

	if s.jobs != nil {
		err := s.jobs.Enqueue(ctx, queue.Job{
			Type:      queue.JobAnalyzeVersion,
			VersionID: version.ID,
		})
		if err != nil {
			// The sweep over unanalyzed work picks this up later.
			log.Warn().Err(err).Msg("enqueue analysis failed")
		}
	}

	return version, nil
}
