package domain

import "time"

// AnalysisResult is the output of a full-document analysis run for one
// version. One result per (version, analysis_type) is current at a time;
// a re-analysis supersedes the prior current result, it never mutates it.
type AnalysisResult struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	VersionID    uint64 `gorm:"column:version_id;index" json:"version_id"`
	DocumentID   uint64 `gorm:"column:document_id;index" json:"document_id"`
	AnalysisType string `gorm:"column:analysis_type;size:32" json:"analysis_type"`
	RunID        string `gorm:"column:run_id;size:36" json:"run_id"`

	Score int    `gorm:"column:score" json:"score"`
	Grade string `gorm:"column:grade;size:2" json:"grade"`

	Flags           string `gorm:"column:flags;type:json" json:"flags,omitempty"`
	DimensionScores string `gorm:"column:dimension_scores;type:json" json:"dimension_scores,omitempty"`
	Summary         string `gorm:"column:summary;type:text" json:"summary,omitempty"`
	Concerns        string `gorm:"column:concerns;type:text" json:"concerns,omitempty"`
	Positives       string `gorm:"column:positives;type:text" json:"positives,omitempty"`
	FAQ             string `gorm:"column:faq;type:json" json:"faq,omitempty"`

	ChunkCount   int     `gorm:"column:chunk_count" json:"chunk_count"`
	InputTokens  int     `gorm:"column:input_tokens" json:"input_tokens"`
	OutputTokens int     `gorm:"column:output_tokens" json:"output_tokens"`
	CostUSD      float64 `gorm:"column:cost_usd" json:"cost_usd"`
	Model        string  `gorm:"column:model" json:"model"`
	Repaired     bool    `gorm:"column:repaired" json:"repaired"`

	Status       string `gorm:"column:status;size:16;index" json:"status"`
	ErrorMessage string `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	IsCurrent    bool   `gorm:"column:is_current;index" json:"is_current"`

	StartedAt   time.Time  `gorm:"column:started_at" json:"started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the table name
func (AnalysisResult) TableName() string {
	return "pw_analysis_results"
}

// Analysis run states. A run must end in completed or failed; it is never
// left running indefinitely.
const (
	AnalysisStatusPending   = "pending"
	AnalysisStatusRunning   = "running"
	AnalysisStatusCompleted = "completed"
	AnalysisStatusFailed    = "failed"
)

// Analysis types
const (
	AnalysisTypeDocument = "document"
	AnalysisTypeDiff     = "diff"
)

// FAQEntry is one generated question/answer pair shown alongside a result.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
