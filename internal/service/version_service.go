package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/policywatch/policywatch-backend/internal/common"
	"github.com/policywatch/policywatch-backend/internal/diff"
	"github.com/policywatch/policywatch-backend/internal/domain"
	"github.com/policywatch/policywatch-backend/internal/repository"
	"github.com/policywatch/policywatch-backend/pkg/logger"
	"gorm.io/gorm"
)

// VersionService decides whether new scraped content constitutes a new
// version and eagerly wires the diff engine output into a comparison
// record. AI annotation of that comparison happens asynchronously.
type VersionService struct {
	docRepo     repository.DocumentRepository
	versionRepo repository.VersionRepository
	cmpRepo     repository.ComparisonRepository
}

// NewVersionService creates a new VersionService
func NewVersionService(
	docRepo repository.DocumentRepository,
	versionRepo repository.VersionRepository,
	cmpRepo repository.ComparisonRepository,
) *VersionService {
	return &VersionService{
		docRepo:     docRepo,
		versionRepo: versionRepo,
		cmpRepo:     cmpRepo,
	}
}

// ContentHash returns the stable hash used for change detection. It is
// computed over extracted plain text, not raw HTML, so markup-only
// changes never trigger a version.
func ContentHash(plainText string) string {
	sum := sha256.Sum256([]byte(plainText))
	return hex.EncodeToString(sum[:])
}

// ConsiderNewVersion hashes the scraped text against the current version.
// Same hash: only the document's last-checked timestamp moves and nil is
// returned. New hash: a version is created with the current flag flipped
// atomically, and a comparison record is created when a predecessor
// exists.
func (s *VersionService) ConsiderNewVersion(document *domain.Document, scraped *domain.ScrapedContent) (*domain.DocumentVersion, error) {
	if document == nil {
		return nil, fmt.Errorf("%w: document is nil", common.ErrInvalidInput)
	}
	if strings.TrimSpace(scraped.PlainText) == "" {
		return nil, common.ErrEmptyContent
	}

	now := time.Now()
	hash := ContentHash(scraped.PlainText)

	previous, err := s.versionRepo.FindCurrent(document.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load current version: %w", err)
	}

	if previous != nil && previous.ContentHash == hash {
		if err := s.docRepo.TouchLastChecked(document.ID, now); err != nil {
			return nil, fmt.Errorf("touch last checked: %w", err)
		}
		return nil, nil
	}

	version := &domain.DocumentVersion{
		DocumentID:    document.ID,
		VersionNumber: s.nextVersionNumber(previous),
		RawContent:    scraped.RawHTML,
		PlainContent:  scraped.PlainText,
		Markdown:      scraped.Markdown,
		ContentHash:   hash,
		WordCount:     len(strings.Fields(scraped.PlainText)),
		CharCount:     len(scraped.PlainText),
		Language:      scraped.Language,
		ScrapedAt:     now,
		EffectiveDate: scraped.EffectiveDate,
	}
	if err := s.versionRepo.CreateAsCurrent(version); err != nil {
		return nil, fmt.Errorf("create version: %w", err)
	}
	if err := s.docRepo.TouchLastChecked(document.ID, now); err != nil {
		return nil, fmt.Errorf("touch last checked: %w", err)
	}

	log := logger.WithDocumentID(document.ID)
	log.Info().
		Str("version", version.VersionNumber).
		Str("hash", hash[:12]).
		Msg("new document version detected")

	if previous != nil {
		if err := s.createComparison(previous, version); err != nil {
			// The version exists; a failed comparison is recoverable and
			// must not roll it back.
			log.Error().Err(err).Msg("failed to create version comparison")
		}
	}
	return version, nil
}

// nextVersionNumber increments the minor counter of a major.minor pair.
// Version numbers are per document; no global ordering is implied.
func (s *VersionService) nextVersionNumber(previous *domain.DocumentVersion) string {
	if previous == nil {
		return "1.0"
	}
	var major, minor int
	if _, err := fmt.Sscanf(previous.VersionNumber, "%d.%d", &major, &minor); err != nil {
		return "1.0"
	}
	return fmt.Sprintf("%d.%d", major, minor+1)
}

// createComparison runs the diff engine synchronously; it is cheap
// relative to a scrape and gives the UI immediate change statistics.
func (s *VersionService) createComparison(oldV, newV *domain.DocumentVersion) error {
	result := diff.Compute(oldV.PlainContent, newV.PlainContent)
	similarity := diff.Similarity(oldV.PlainContent, newV.PlainContent)

	blocksJSON, err := json.Marshal(result.Blocks)
	if err != nil {
		return fmt.Errorf("marshal diff blocks: %w", err)
	}

	cmp := &domain.VersionComparison{
		DocumentID:       newV.DocumentID,
		OldVersionID:     oldV.ID,
		NewVersionID:     newV.ID,
		LinesAdded:       result.Stats.LinesAdded,
		LinesRemoved:     result.Stats.LinesRemoved,
		LinesModified:    min(result.Stats.LinesAdded, result.Stats.LinesRemoved),
		ChangePercentage: result.Stats.ChangePercentage,
		Similarity:       similarity,
		Severity:         diff.SeverityFor(similarity),
		DiffBlocks:       string(blocksJSON),
	}
	return s.cmpRepo.Create(cmp)
}

// Versions lists a document's version history, newest first.
func (s *VersionService) Versions(documentID uint64) ([]*domain.DocumentVersion, error) {
	if _, err := s.docRepo.FindByID(documentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrDocumentNotFound
		}
		return nil, err
	}
	return s.versionRepo.FindByDocument(documentID)
}

// Version loads one version.
func (s *VersionService) Version(id uint64) (*domain.DocumentVersion, error) {
	v, err := s.versionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrVersionNotFound
		}
		return nil, err
	}
	return v, nil
}

// Comparisons lists a document's version comparisons, newest first.
func (s *VersionService) Comparisons(documentID uint64) ([]*domain.VersionComparison, error) {
	return s.cmpRepo.FindByDocument(documentID)
}

// Comparison loads one comparison.
func (s *VersionService) Comparison(id uint64) (*domain.VersionComparison, error) {
	cmp, err := s.cmpRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrComparisonNotFound
		}
		return nil, err
	}
	return cmp, nil
}
