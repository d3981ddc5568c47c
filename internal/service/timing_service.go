package service

import (
	"time"

	"github.com/policywatch/policywatch-backend/internal/repository"
	"github.com/policywatch/policywatch-backend/internal/timing"
)

// rapidWindow is the trailing period of sibling versions fed to the
// behavioral checks.
const rapidWindow = 90 * 24 * time.Hour

// TimingService computes timing reports on demand. Reports are derived
// data; nothing here is persisted.
type TimingService struct {
	versionRepo repository.VersionRepository
}

// NewTimingService creates a new TimingService
func NewTimingService(versionRepo repository.VersionRepository) *TimingService {
	return &TimingService{versionRepo: versionRepo}
}

// ReportForVersion evaluates one version's publish time against its
// document's recent history.
func (s *TimingService) ReportForVersion(versionID uint64) (*timing.Report, error) {
	version, err := s.versionRepo.FindByID(versionID)
	if err != nil {
		return nil, err
	}
	ts := version.EffectiveTimestamp()

	recent, err := s.versionRepo.RecentTimestamps(version.DocumentID, ts, rapidWindow, version.ID)
	if err != nil {
		return nil, err
	}

	report := timing.Evaluate(ts, recent)
	return &report, nil
}

// PatternsForDocument inspects the full version history of a document for
// habitual timing behavior.
func (s *TimingService) PatternsForDocument(documentID uint64) ([]timing.Signal, error) {
	versions, err := s.versionRepo.FindByDocument(documentID)
	if err != nil {
		return nil, err
	}
	timestamps := make([]time.Time, 0, len(versions))
	for _, v := range versions {
		timestamps = append(timestamps, v.EffectiveTimestamp())
	}
	return timing.DetectPatterns(timestamps), nil
}
