package lead

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Lifecycle stages, ordered by funnel position
const (
	StageSubscriber  = "subscriber"
	StageLead        = "lead"
	StageMQL         = "mql"
	StageSQL         = "sql"
	StageOpportunity = "opportunity"
	StageCustomer    = "customer"
)

// ValidStage reports whether s names a lifecycle stage
func ValidStage(s string) bool {
	switch s {
	case StageSubscriber, StageLead, StageMQL, StageSQL, StageOpportunity, StageCustomer:
		return true
	}
	return false
}

// Lead statuses
const (
	StatusActive       = "active"
	StatusUnsubscribed = "unsubscribed"
	StatusBounced      = "bounced"
	StatusArchived     = "archived"
)

// Activity kinds
const (
	ActivityEmailSent     = "email_sent"
	ActivityEmailOpened   = "email_opened"
	ActivityLinkClicked   = "link_clicked"
	ActivityFormSubmitted = "form_submitted"
	ActivityPageVisited   = "page_visited"
	ActivityPurchase      = "purchase"
	ActivityCall          = "call"
	ActivityMeeting       = "meeting"
	ActivityNoteAdded     = "note_added"
	ActivityStatusChange  = "status_change"
	ActivityStageChange   = "stage_change"
	ActivityImport        = "import"
	ActivityManualAdd     = "manual_add"
)

// Trend classifications for short-term score movement
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// JSON is a JSONB column helper
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(b, j)
}

// Activity is a timestamped, typed event recorded against a lead
type Activity struct {
	ID          uuid.UUID `json:"id" db:"id"`
	LeadID      uuid.UUID `json:"lead_id" db:"lead_id"`
	Kind        string    `json:"kind" db:"kind"`
	Description string    `json:"description" db:"description"`
	Metadata    JSON      `json:"metadata" db:"metadata"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}

// ScoreSample is one point of engagement score history
type ScoreSample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ScoreHistory is a JSONB column of score samples, oldest first
type ScoreHistory []ScoreSample

func (h ScoreHistory) Value() (driver.Value, error) {
	return json.Marshal(h)
}

func (h *ScoreHistory) Scan(value interface{}) error {
	if value == nil {
		*h = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(b, h)
}

// Lead is a contact moving through the sales funnel. Engagement counters and
// score are mutated only through RecordActivity.
type Lead struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	Email          string     `json:"email" db:"email"`
	FirstName      string     `json:"first_name" db:"first_name"`
	LastName       string     `json:"last_name" db:"last_name"`
	Phone          string     `json:"phone" db:"phone"`
	Company        string     `json:"company" db:"company"`
	JobTitle       string     `json:"job_title" db:"job_title"`
	Stage          string     `json:"stage" db:"stage"`
	Status         string     `json:"status" db:"status"`
	Source         string     `json:"source" db:"source"`
	Metadata       JSON       `json:"metadata,omitempty" db:"metadata"`

	TotalEmailsSent   int        `json:"total_emails_sent" db:"total_emails_sent"`
	EmailsOpened      int        `json:"emails_opened" db:"emails_opened"`
	LinksClicked      int        `json:"links_clicked" db:"links_clicked"`
	LastEmailOpenedAt *time.Time `json:"last_email_opened_at,omitempty" db:"last_email_opened_at"`
	EngagementScore   float64    `json:"engagement_score" db:"engagement_score"`
	ScoreHistory      ScoreHistory `json:"score_history" db:"score_history"`

	LastActivityAt *time.Time `json:"last_activity_at,omitempty" db:"last_activity_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// StageSummary is an aggregate row for analytics dashboards
type StageSummary struct {
	Stage    string  `json:"stage"`
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
}
