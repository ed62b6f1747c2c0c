package analytics

import (
	"time"

	"github.com/google/uuid"

	"github.com/launchkit/launchkit/internal/lead"
)

// Report is the full engagement report for an organization over a window.
type Report struct {
	OrganizationID uuid.UUID           `json:"organization_id"`
	From           time.Time           `json:"from"`
	To             time.Time           `json:"to"`
	Totals         Totals              `json:"totals"`
	Stages         []lead.StageSummary `json:"stages"`
	TopLeads       []LeadHighlight     `json:"top_leads"`
	Narrative      string              `json:"narrative"`
	NarrativeMeta  NarrativeMeta       `json:"narrative_meta"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

// Totals are the aggregate counters for the reporting window.
type Totals struct {
	Leads          int     `json:"leads"`
	EmailsSent     int     `json:"emails_sent"`
	EmailsOpened   int     `json:"emails_opened"`
	LinksClicked   int     `json:"links_clicked"`
	CampaignsSent  int     `json:"campaigns_sent"`
	AvgScore       float64 `json:"avg_score"`
	OpenRate       float64 `json:"open_rate"`
	ClickRate      float64 `json:"click_rate"`
}

// LeadHighlight is one high-engagement lead with its score trend.
type LeadHighlight struct {
	LeadID   uuid.UUID `json:"lead_id"`
	Email    string    `json:"email"`
	Company  string    `json:"company"`
	Score    float64   `json:"score"`
	Trend    string    `json:"trend"`
}

// NarrativeMeta records how the narrative paragraph was produced.
type NarrativeMeta struct {
	FromFallback bool   `json:"from_fallback"`
	Provider     string `json:"provider,omitempty"`
}
