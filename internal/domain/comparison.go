package domain

import "time"

// VersionComparison pairs an old and new version of the same document with
// diff statistics and, once the change analysis has run, AI-derived fields.
// Unique per (old_version_id, new_version_id); is_analyzed flips false→true
// exactly once.
type VersionComparison struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	DocumentID   uint64 `gorm:"column:document_id;index" json:"document_id"`
	OldVersionID uint64 `gorm:"column:old_version_id;uniqueIndex:uniq_version_pair" json:"old_version_id"`
	NewVersionID uint64 `gorm:"column:new_version_id;uniqueIndex:uniq_version_pair" json:"new_version_id"`

	// Diff statistics, filled eagerly by the versioning coordinator.
	LinesAdded       int     `gorm:"column:lines_added" json:"lines_added"`
	LinesRemoved     int     `gorm:"column:lines_removed" json:"lines_removed"`
	LinesModified    int     `gorm:"column:lines_modified" json:"lines_modified"`
	ChangePercentage float64 `gorm:"column:change_percentage" json:"change_percentage"`
	Similarity       float64 `gorm:"column:similarity" json:"similarity"`
	Severity         string  `gorm:"column:severity;size:16" json:"severity"`
	DiffBlocks       string  `gorm:"column:diff_blocks;type:json" json:"diff_blocks,omitempty"`

	// AI change analysis, filled asynchronously. A failed attempt records
	// the error and bumps the counter; the sweep retries until the cap.
	ChangeSummary    string `gorm:"column:change_summary;type:text" json:"change_summary,omitempty"`
	ImpactDelta      int    `gorm:"column:impact_delta" json:"impact_delta"`
	ChangeFlags      string `gorm:"column:change_flags;type:json" json:"change_flags,omitempty"`
	SuspiciousTiming bool   `gorm:"column:suspicious_timing" json:"suspicious_timing"`
	TimingScore      int    `gorm:"column:timing_score" json:"timing_score"`
	IsAnalyzed       bool   `gorm:"column:is_analyzed;index" json:"is_analyzed"`
	AnalysisError    string `gorm:"column:analysis_error;type:text" json:"analysis_error,omitempty"`
	AnalysisAttempts int    `gorm:"column:analysis_attempts" json:"analysis_attempts,omitempty"`

	CreatedAt  time.Time  `gorm:"column:created_at" json:"created_at"`
	AnalyzedAt *time.Time `gorm:"column:analyzed_at" json:"analyzed_at,omitempty"`
}

// TableName returns the table name
func (VersionComparison) TableName() string {
	return "pw_version_comparisons"
}

// Severity buckets for a comparison, by descending similarity.
const (
	SeverityMinor    = "minor"
	SeverityModerate = "moderate"
	SeverityMajor    = "major"
	SeverityCritical = "critical"
)
