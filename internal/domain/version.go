package domain

import "time"

// DocumentVersion is one captured snapshot of a document's content.
// Versions are immutable once written; only is_current is ever flipped,
// and exactly one version per document carries it.
type DocumentVersion struct {
	ID            uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	DocumentID    uint64     `gorm:"column:document_id;index" json:"document_id"`
	VersionNumber string     `gorm:"column:version_number" json:"version_number"`
	RawContent    string     `gorm:"column:raw_content;type:longtext" json:"raw_content,omitempty"`
	PlainContent  string     `gorm:"column:plain_content;type:longtext" json:"plain_content,omitempty"`
	Markdown      string     `gorm:"column:markdown;type:longtext" json:"markdown,omitempty"`
	ContentHash   string     `gorm:"column:content_hash;size:64;index" json:"content_hash"`
	WordCount     int        `gorm:"column:word_count" json:"word_count"`
	CharCount     int        `gorm:"column:char_count" json:"char_count"`
	Language      string     `gorm:"column:language;size:8" json:"language"`
	ScrapedAt     time.Time  `gorm:"column:scraped_at" json:"scraped_at"`
	EffectiveDate *time.Time `gorm:"column:effective_date" json:"effective_date,omitempty"`
	IsCurrent     bool       `gorm:"column:is_current;index" json:"is_current"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the table name
func (DocumentVersion) TableName() string {
	return "pw_document_versions"
}

// EffectiveTimestamp resolves the timestamp the timing engine should judge:
// the document-stated effective date when one was extracted, else the
// scrape time.
func (v *DocumentVersion) EffectiveTimestamp() time.Time {
	if v.EffectiveDate != nil {
		return *v.EffectiveDate
	}
	return v.ScrapedAt
}
