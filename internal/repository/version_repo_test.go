package repository

import (
	"testing"
	"time"

	"github.com/policywatch/policywatch-backend/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	err = db.AutoMigrate(
		&domain.Document{},
		&domain.DocumentVersion{},
		&domain.VersionComparison{},
		&domain.AnalysisResult{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestVersionRepository_CreateAsCurrentFlipsFlag(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVersionRepository(db)

	v1 := &domain.DocumentVersion{DocumentID: 1, VersionNumber: "1.0", ContentHash: "aaa", ScrapedAt: time.Now()}
	if err := repo.CreateAsCurrent(v1); err != nil {
		t.Fatalf("CreateAsCurrent v1 failed: %v", err)
	}

	v2 := &domain.DocumentVersion{DocumentID: 1, VersionNumber: "1.1", ContentHash: "bbb", ScrapedAt: time.Now()}
	if err := repo.CreateAsCurrent(v2); err != nil {
		t.Fatalf("CreateAsCurrent v2 failed: %v", err)
	}

	var currentCount int64
	db.Model(&domain.DocumentVersion{}).
		Where("document_id = ? AND is_current = ?", 1, true).
		Count(&currentCount)
	if currentCount != 1 {
		t.Errorf("exactly one version must be current, got %d", currentCount)
	}

	current, err := repo.FindCurrent(1)
	if err != nil {
		t.Fatalf("FindCurrent failed: %v", err)
	}
	if current.ContentHash != "bbb" {
		t.Errorf("expected newest version current, got hash %s", current.ContentHash)
	}
}

func TestVersionRepository_CurrentFlagScopedToDocument(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVersionRepository(db)

	repo.CreateAsCurrent(&domain.DocumentVersion{DocumentID: 1, VersionNumber: "1.0", ContentHash: "a", ScrapedAt: time.Now()})
	repo.CreateAsCurrent(&domain.DocumentVersion{DocumentID: 2, VersionNumber: "1.0", ContentHash: "b", ScrapedAt: time.Now()})

	if _, err := repo.FindCurrent(1); err != nil {
		t.Errorf("document 1 lost its current version: %v", err)
	}
	if _, err := repo.FindCurrent(2); err != nil {
		t.Errorf("document 2 lost its current version: %v", err)
	}
}

func TestVersionRepository_RecentTimestamps(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVersionRepository(db)

	now := time.Now()
	repo.CreateAsCurrent(&domain.DocumentVersion{DocumentID: 1, VersionNumber: "1.0", ContentHash: "a", ScrapedAt: now.AddDate(0, 0, -120)})
	repo.CreateAsCurrent(&domain.DocumentVersion{DocumentID: 1, VersionNumber: "1.1", ContentHash: "b", ScrapedAt: now.AddDate(0, 0, -40)})
	repo.CreateAsCurrent(&domain.DocumentVersion{DocumentID: 1, VersionNumber: "1.2", ContentHash: "c", ScrapedAt: now.AddDate(0, 0, -10)})
	newest := &domain.DocumentVersion{DocumentID: 1, VersionNumber: "1.3", ContentHash: "d", ScrapedAt: now}
	repo.CreateAsCurrent(newest)

	timestamps, err := repo.RecentTimestamps(1, now, 90*24*time.Hour, newest.ID)
	if err != nil {
		t.Fatalf("RecentTimestamps failed: %v", err)
	}
	if len(timestamps) != 2 {
		t.Errorf("expected 2 siblings in the 90-day window, got %d", len(timestamps))
	}
}

func TestAnalysisRepository_CompleteAndMarkCurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAnalysisRepository(db)

	first := &domain.AnalysisResult{
		VersionID: 5, DocumentID: 1, AnalysisType: domain.AnalysisTypeDocument,
		Status: domain.AnalysisStatusRunning, StartedAt: time.Now(),
	}
	if err := repo.Create(first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.CompleteAndMarkCurrent(first); err != nil {
		t.Fatalf("CompleteAndMarkCurrent failed: %v", err)
	}

	second := &domain.AnalysisResult{
		VersionID: 5, DocumentID: 1, AnalysisType: domain.AnalysisTypeDocument,
		Status: domain.AnalysisStatusRunning, StartedAt: time.Now(),
	}
	repo.Create(second)
	if err := repo.CompleteAndMarkCurrent(second); err != nil {
		t.Fatalf("CompleteAndMarkCurrent (second) failed: %v", err)
	}

	var currentCount int64
	db.Model(&domain.AnalysisResult{}).
		Where("version_id = ? AND analysis_type = ? AND is_current = ?", 5, domain.AnalysisTypeDocument, true).
		Count(&currentCount)
	if currentCount != 1 {
		t.Errorf("exactly one result must be current, got %d", currentCount)
	}

	current, err := repo.FindCurrent(5, domain.AnalysisTypeDocument)
	if err != nil {
		t.Fatalf("FindCurrent failed: %v", err)
	}
	if current.ID != second.ID {
		t.Errorf("expected re-analysis to supersede, current is %d", current.ID)
	}
	if current.Status != domain.AnalysisStatusCompleted {
		t.Errorf("expected completed status, got %s", current.Status)
	}
}

func TestAnalysisRepository_MarkFailed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAnalysisRepository(db)

	res := &domain.AnalysisResult{
		VersionID: 9, DocumentID: 2, AnalysisType: domain.AnalysisTypeDocument,
		Status: domain.AnalysisStatusRunning, StartedAt: time.Now(),
	}
	repo.Create(res)
	if err := repo.MarkFailed(res.ID, "deadline exceeded"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	reloaded, _ := repo.FindByID(res.ID)
	if reloaded.Status != domain.AnalysisStatusFailed {
		t.Errorf("expected failed status, got %s", reloaded.Status)
	}
	if reloaded.ErrorMessage != "deadline exceeded" {
		t.Errorf("expected error message persisted, got %q", reloaded.ErrorMessage)
	}
	if reloaded.CompletedAt == nil {
		t.Error("a failed run must not be left without a completion time")
	}
}

func TestComparisonRepository_SaveAnalysisOnlyOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewComparisonRepository(db)

	cmp := &domain.VersionComparison{DocumentID: 1, OldVersionID: 1, NewVersionID: 2, Severity: domain.SeverityModerate}
	if err := repo.Create(cmp); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	fields := AnalysisFields{ChangeSummary: "retention extended", ImpactDelta: -8, SuspiciousTiming: true, TimingScore: -15}
	if err := repo.SaveAnalysis(cmp.ID, fields); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	// is_analyzed transitions false->true exactly once.
	if err := repo.SaveAnalysis(cmp.ID, fields); err == nil {
		t.Error("second SaveAnalysis on the same comparison must fail")
	}

	reloaded, _ := repo.FindByID(cmp.ID)
	if !reloaded.IsAnalyzed || reloaded.ChangeSummary != "retention extended" {
		t.Errorf("analysis fields not persisted: %+v", reloaded)
	}
}

func TestComparisonRepository_FindUnanalyzedRetriesUntilCap(t *testing.T) {
	db := setupTestDB(t)
	repo := NewComparisonRepository(db)

	cmp := &domain.VersionComparison{DocumentID: 1, OldVersionID: 1, NewVersionID: 2, Severity: domain.SeverityMinor}
	if err := repo.Create(cmp); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Errored rows stay eligible until the attempt cap is reached.
	for attempt := 1; attempt <= maxAnalysisAttempts; attempt++ {
		pending, err := repo.FindUnanalyzed(10)
		if err != nil {
			t.Fatalf("FindUnanalyzed failed: %v", err)
		}
		if len(pending) != 1 {
			t.Fatalf("attempt %d: expected comparison still eligible, got %d rows", attempt, len(pending))
		}
		if err := repo.MarkFailed(cmp.ID, "provider unavailable"); err != nil {
			t.Fatalf("MarkFailed failed: %v", err)
		}
	}

	pending, err := repo.FindUnanalyzed(10)
	if err != nil {
		t.Fatalf("FindUnanalyzed failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("comparison at the attempt cap must leave the sweep, got %d rows", len(pending))
	}

	reloaded, _ := repo.FindByID(cmp.ID)
	if reloaded.AnalysisAttempts != maxAnalysisAttempts {
		t.Errorf("expected %d recorded attempts, got %d", maxAnalysisAttempts, reloaded.AnalysisAttempts)
	}
}

func TestComparisonRepository_SaveAnalysisClearsError(t *testing.T) {
	db := setupTestDB(t)
	repo := NewComparisonRepository(db)

	cmp := &domain.VersionComparison{DocumentID: 1, OldVersionID: 3, NewVersionID: 4, Severity: domain.SeverityMinor}
	if err := repo.Create(cmp); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.MarkFailed(cmp.ID, "timeout"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	if err := repo.SaveAnalysis(cmp.ID, AnalysisFields{ChangeSummary: "minor edit"}); err != nil {
		t.Fatalf("SaveAnalysis after a failure must succeed: %v", err)
	}

	reloaded, _ := repo.FindByID(cmp.ID)
	if !reloaded.IsAnalyzed {
		t.Error("retried comparison must end up analyzed")
	}
	if reloaded.AnalysisError != "" {
		t.Errorf("stale error must be cleared on success, got %q", reloaded.AnalysisError)
	}
}
