package website

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Site statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Domain provisioning states
const (
	DomainPending    = "pending_validation"
	DomainIssued     = "issued"
	DomainActive     = "active"
	DomainFailed     = "failed"
)

// Section is one block of a generated site
type Section struct {
	ID      string `json:"id"`
	Heading string `json:"heading"`
	Body    string `json:"body"`
	CTA     string `json:"cta,omitempty"`
}

// Palette is the site's color scheme
type Palette struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Background string `json:"background"`
	Text       string `json:"text"`
}

// SEO holds search metadata for the generated page
type SEO struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Document is the typed shape the model is asked to emit for a website.
// Validated after recovery so structurally broken replies fail loudly
// instead of rendering half a page.
type Document struct {
	Title    string    `json:"title"`
	Tagline  string    `json:"tagline"`
	Sections []Section `json:"sections"`
	Palette  Palette   `json:"palette"`
	SEO      SEO       `json:"seo"`
}

// Validate checks the fields a rendered site cannot do without
func (d *Document) Validate() error {
	if d.Title == "" {
		return fmt.Errorf("missing title")
	}
	if len(d.Sections) == 0 {
		return fmt.Errorf("missing sections")
	}
	for i, sec := range d.Sections {
		if sec.Heading == "" && sec.Body == "" {
			return fmt.Errorf("section %d is empty", i)
		}
	}
	return nil
}

// Value implements driver.Valuer so a Document persists as JSONB
func (d Document) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner
func (d *Document) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(b, d)
}

// Site is a stored website document with version history
type Site struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Slug           string    `json:"slug" db:"slug"`
	Version        int       `json:"version" db:"version"`
	Status         string    `json:"status" db:"status"`
	Document       Document  `json:"document" db:"document"`
	FromFallback   bool      `json:"from_fallback" db:"from_fallback"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// SiteDomain tracks a custom domain being provisioned for a site
type SiteDomain struct {
	ID               uuid.UUID `json:"id" db:"id"`
	OrganizationID   uuid.UUID `json:"organization_id" db:"organization_id"`
	SiteID           uuid.UUID `json:"site_id" db:"site_id"`
	Domain           string    `json:"domain" db:"domain"`
	CertificateARN   string    `json:"certificate_arn" db:"certificate_arn"`
	CloudFrontID     string    `json:"cloudfront_id" db:"cloudfront_id"`
	CloudFrontDomain string    `json:"cloudfront_domain" db:"cloudfront_domain"`
	Status           string    `json:"status" db:"status"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// BriefRequest is the structured input a site is generated from
type BriefRequest struct {
	BusinessName string   `json:"business_name"`
	Industry     string   `json:"industry"`
	Description  string   `json:"description"`
	Tone         string   `json:"tone"`
	Goals        []string `json:"goals,omitempty"`
}
