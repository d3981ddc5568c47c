package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/policywatch/policywatch-backend/internal/common"
	"github.com/policywatch/policywatch-backend/internal/domain"
	"github.com/policywatch/policywatch-backend/internal/repository"
)

func setupVersionService(t *testing.T) (*VersionService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Document{},
		&domain.DocumentVersion{},
		&domain.VersionComparison{},
		&domain.AnalysisResult{},
	))

	svc := NewVersionService(
		repository.NewDocumentRepository(db),
		repository.NewVersionRepository(db),
		repository.NewComparisonRepository(db),
	)
	return svc, db
}

func seedDocument(t *testing.T, db *gorm.DB) *domain.Document {
	t.Helper()
	doc := &domain.Document{
		CompanyName:  "Acme",
		DocumentType: domain.DocTypeTerms,
		URL:          "https://acme.example/terms",
		IsActive:     true,
	}
	require.NoError(t, db.Create(doc).Error)
	return doc
}

func TestConsiderNewVersion_FirstScrapeCreatesV1(t *testing.T) {
	svc, db := setupVersionService(t)
	doc := seedDocument(t, db)

	version, err := svc.ConsiderNewVersion(doc, &domain.ScrapedContent{
		PlainText: "We collect your email address.\n\nYou may delete your account.",
	})
	require.NoError(t, err)
	require.NotNil(t, version)

	assert.Equal(t, "1.0", version.VersionNumber)
	assert.True(t, version.IsCurrent)
	assert.Len(t, version.ContentHash, 64)

	// No predecessor, so no comparison.
	var cmpCount int64
	db.Model(&domain.VersionComparison{}).Count(&cmpCount)
	assert.EqualValues(t, 0, cmpCount)

	fresh := &domain.Document{}
	require.NoError(t, db.First(fresh, doc.ID).Error)
	assert.NotNil(t, fresh.LastCheckedAt)
}

func TestConsiderNewVersion_UnchangedContentOnlyTouches(t *testing.T) {
	svc, db := setupVersionService(t)
	doc := seedDocument(t, db)

	scraped := &domain.ScrapedContent{PlainText: "Same text."}
	_, err := svc.ConsiderNewVersion(doc, scraped)
	require.NoError(t, err)

	version, err := svc.ConsiderNewVersion(doc, scraped)
	require.NoError(t, err)
	assert.Nil(t, version, "unchanged content must not create a version")

	var count int64
	db.Model(&domain.DocumentVersion{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestConsiderNewVersion_ChangedContentCreatesComparison(t *testing.T) {
	svc, db := setupVersionService(t)
	doc := seedDocument(t, db)

	_, err := svc.ConsiderNewVersion(doc, &domain.ScrapedContent{
		PlainText: "Old terms.\nYou keep your data.",
	})
	require.NoError(t, err)

	v2, err := svc.ConsiderNewVersion(doc, &domain.ScrapedContent{
		PlainText: "New terms.\nWe keep your data for 10 years.\nDisputes go to arbitration.",
	})
	require.NoError(t, err)
	require.NotNil(t, v2)
	assert.Equal(t, "1.1", v2.VersionNumber)

	var cmp domain.VersionComparison
	require.NoError(t, db.Where("new_version_id = ?", v2.ID).First(&cmp).Error)
	assert.Equal(t, doc.ID, cmp.DocumentID)
	assert.Positive(t, cmp.LinesAdded)
	assert.NotEmpty(t, cmp.Severity)
	assert.NotEmpty(t, cmp.DiffBlocks)
	assert.False(t, cmp.IsAnalyzed)
}

func TestConsiderNewVersion_MarkupOnlyChangeIsNotAVersion(t *testing.T) {
	svc, _ := setupVersionService(t)
	doc := &domain.Document{ID: 1, CompanyName: "Acme", URL: "https://acme.example/terms"}

	first, err := svc.ConsiderNewVersion(doc, &domain.ScrapedContent{
		RawHTML:   "<p>Hello</p>",
		PlainText: "Hello",
	})
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.ConsiderNewVersion(doc, &domain.ScrapedContent{
		RawHTML:   "<div class=\"new\"><p>Hello</p></div>",
		PlainText: "Hello",
	})
	require.NoError(t, err)
	assert.Nil(t, second, "hash covers plain text only")
}

func TestConsiderNewVersion_EmptyContentRejected(t *testing.T) {
	svc, db := setupVersionService(t)
	doc := seedDocument(t, db)

	_, err := svc.ConsiderNewVersion(doc, &domain.ScrapedContent{PlainText: "   \n\t "})
	assert.ErrorIs(t, err, common.ErrEmptyContent)
}

func TestConsiderNewVersion_EffectiveTimestampPrefersEffectiveDate(t *testing.T) {
	effective := time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)
	v := &domain.DocumentVersion{ScrapedAt: time.Now(), EffectiveDate: &effective}
	assert.Equal(t, effective, v.EffectiveTimestamp())

	v.EffectiveDate = nil
	assert.Equal(t, v.ScrapedAt, v.EffectiveTimestamp())
}

func TestVersionNumbering_IncrementsMinor(t *testing.T) {
	svc, db := setupVersionService(t)
	doc := seedDocument(t, db)

	texts := []string{"one", "two", "three"}
	var last *domain.DocumentVersion
	for _, txt := range texts {
		v, err := svc.ConsiderNewVersion(doc, &domain.ScrapedContent{PlainText: txt})
		require.NoError(t, err)
		last = v
	}
	assert.Equal(t, "1.2", last.VersionNumber)
}
