package domain

import "time"

// Document represents a tracked legal/policy document (Terms of Service,
// Privacy Policy, ...) belonging to a company.
type Document struct {
	ID            uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CompanyName   string     `gorm:"column:company_name;index" json:"company_name"`
	DocumentType  string     `gorm:"column:document_type" json:"document_type"`
	URL           string     `gorm:"column:url;size:2048" json:"url"`
	Title         string     `gorm:"column:title" json:"title"`
	IsActive      bool       `gorm:"column:is_active;default:true" json:"is_active"`
	LastCheckedAt *time.Time `gorm:"column:last_checked_at" json:"last_checked_at,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName returns the table name
func (Document) TableName() string {
	return "pw_documents"
}

// Document type constants
const (
	DocTypeTerms   = "terms_of_service"
	DocTypePrivacy = "privacy_policy"
	DocTypeCookie  = "cookie_policy"
	DocTypeEULA    = "eula"
	DocTypeOther   = "other"
)

// ScrapedContent is what the external scraper hands to the versioning
// coordinator. Fetching, rendering and HTML extraction happen upstream;
// the pipeline only consumes extracted text.
type ScrapedContent struct {
	RawHTML    string `json:"raw_html"`
	PlainText  string `json:"plain_text" binding:"required"`
	Markdown   string `json:"markdown"`
	HTTPStatus int    `json:"http_status"`
	FinalURL   string `json:"final_url"`
	Language   string `json:"language"`
	// EffectiveDate is the date the document says it takes effect, when
	// the scraper managed to extract one. The timing engine prefers it
	// over the scrape time.
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
}
