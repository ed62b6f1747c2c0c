package campaign

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Campaign statuses
const (
	StatusDraft   = "draft"
	StatusSending = "sending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// StringSlice is a JSONB column of strings
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(b, s)
}

// Document is the typed shape the model is asked to emit for a campaign
type Document struct {
	Subject     string   `json:"subject"`
	PreviewText string   `json:"preview_text"`
	HTML        string   `json:"html"`
	Text        string   `json:"text"`
	CTAs        []string `json:"ctas"`
}

// Validate checks the fields a deliverable campaign cannot do without
func (d *Document) Validate() error {
	if d.Subject == "" {
		return fmt.Errorf("missing subject")
	}
	if d.HTML == "" && d.Text == "" {
		return fmt.Errorf("missing body")
	}
	return nil
}

// Campaign is a stored email campaign
type Campaign struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	OrganizationID uuid.UUID   `json:"organization_id" db:"organization_id"`
	Name           string      `json:"name" db:"name"`
	Subject        string      `json:"subject" db:"subject"`
	PreviewText    string      `json:"preview_text" db:"preview_text"`
	HTML           string      `json:"html" db:"html"`
	Text           string      `json:"text" db:"text"`
	CTAs           StringSlice `json:"ctas" db:"ctas"`
	Status         string      `json:"status" db:"status"`
	Source         string      `json:"source" db:"source"` // "generated", "rss"
	FromFallback   bool        `json:"from_fallback" db:"from_fallback"`
	SentCount      int         `json:"sent_count" db:"sent_count"`
	SentAt         *time.Time  `json:"sent_at,omitempty" db:"sent_at"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// SubjectSuggestion is one subject-line variant with its rationale
type SubjectSuggestion struct {
	Subject   string `json:"subject"`
	Tone      string `json:"tone"`
	Reasoning string `json:"reasoning"`
}

// BriefRequest is the structured input a campaign is generated from
type BriefRequest struct {
	Product  string   `json:"product"`
	Audience string   `json:"audience"`
	Tone     string   `json:"tone"`
	Goal     string   `json:"goal"`
	Points   []string `json:"points,omitempty"`
}

// Feed is an RSS source that drafts a campaign per new item
type Feed struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	Name           string     `json:"name" db:"name"`
	FeedURL        string     `json:"feed_url" db:"feed_url"`
	Active         bool       `json:"active" db:"active"`
	LastPolledAt   *time.Time `json:"last_polled_at,omitempty" db:"last_polled_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// FeedItem is a normalized entry from a polled feed
type FeedItem struct {
	GUID        string     `json:"guid"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Description string     `json:"description"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}
