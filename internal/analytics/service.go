package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/launchkit/launchkit/internal/ai"
	"github.com/launchkit/launchkit/internal/lead"
)

const topLeadCount = 5

// ReportService builds engagement reports from the lead and campaign tables
// and asks a text provider for the narrative summary.
type ReportService struct {
	db        *sql.DB
	leadStore *lead.Store
	generator ai.TextGenerator
	archive   *Archive
}

// NewReportService creates a report service. archive may be nil when report
// archival is disabled.
func NewReportService(db *sql.DB, leadStore *lead.Store, generator ai.TextGenerator, archive *Archive) *ReportService {
	return &ReportService{db: db, leadStore: leadStore, generator: generator, archive: archive}
}

// BuildReport assembles the report for a window, generates the narrative, and
// archives the result when an archive is configured. Archival failures are
// logged, not returned; the report itself is still good.
func (s *ReportService) BuildReport(ctx context.Context, orgID uuid.UUID, from, to time.Time) (*Report, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("report window end must be after start")
	}

	totals, err := s.totals(ctx, orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate totals: %w", err)
	}

	stages, err := s.leadStore.StageSummaries(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize stages: %w", err)
	}

	highlights, err := s.topLeads(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load top leads: %w", err)
	}

	report := &Report{
		OrganizationID: orgID,
		From:           from,
		To:             to,
		Totals:         totals,
		Stages:         stages,
		TopLeads:       highlights,
		GeneratedAt:    time.Now().UTC(),
	}
	report.Narrative, report.NarrativeMeta = s.narrative(ctx, report)

	if s.archive != nil {
		if err := s.archive.SaveReport(ctx, report); err != nil {
			log.Printf("Analytics: failed to archive report for %s: %v", orgID, err)
		}
	}
	return report, nil
}

func (s *ReportService) totals(ctx context.Context, orgID uuid.UUID, from, to time.Time) (Totals, error) {
	var t Totals

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(total_emails_sent), 0),
			COALESCE(SUM(emails_opened), 0),
			COALESCE(SUM(links_clicked), 0),
			COALESCE(AVG(engagement_score), 0)
		FROM leads
		WHERE organization_id = $1 AND status != 'archived'`,
		orgID).Scan(&t.Leads, &t.EmailsSent, &t.EmailsOpened, &t.LinksClicked, &t.AvgScore)
	if err != nil {
		return t, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM campaigns
		WHERE organization_id = $1 AND status = 'sent' AND sent_at BETWEEN $2 AND $3`,
		orgID, from, to).Scan(&t.CampaignsSent)
	if err != nil {
		return t, err
	}

	if t.EmailsSent > 0 {
		t.OpenRate = float64(t.EmailsOpened) / float64(t.EmailsSent)
	}
	if t.EmailsOpened > 0 {
		t.ClickRate = float64(t.LinksClicked) / float64(t.EmailsOpened)
	}
	return t, nil
}

func (s *ReportService) topLeads(ctx context.Context, orgID uuid.UUID) ([]LeadHighlight, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, company, engagement_score, score_history
		FROM leads
		WHERE organization_id = $1 AND status != 'archived'
		ORDER BY engagement_score DESC LIMIT $2`, orgID, topLeadCount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var highlights []LeadHighlight
	for rows.Next() {
		var h LeadHighlight
		var history lead.ScoreHistory
		if err := rows.Scan(&h.LeadID, &h.Email, &h.Company, &h.Score, &history); err != nil {
			return nil, err
		}
		h.Trend = lead.ClassifyTrend(history)
		highlights = append(highlights, h)
	}
	return highlights, rows.Err()
}

// narrative asks the model for a summary paragraph. Anything unusable falls
// back to a templated sentence built from the numbers, flagged in the meta.
func (s *ReportService) narrative(ctx context.Context, report *Report) (string, NarrativeMeta) {
	if s.generator == nil {
		return staticNarrative(report), NarrativeMeta{FromFallback: true}
	}

	raw, err := s.generator.Generate(ctx, ai.Request{
		System:      "You are a marketing analyst. Always respond with valid JSON.",
		Prompt:      buildNarrativePrompt(report),
		MaxTokens:   1000,
		Temperature: 0.4,
	})
	if err != nil {
		log.Printf("Analytics: narrative generation failed: %v", err)
		return staticNarrative(report), NarrativeMeta{FromFallback: true}
	}

	res := ai.Recover(raw, map[string]interface{}{"narrative": staticNarrative(report)})
	var parsed struct {
		Narrative string `json:"narrative"`
	}
	if err := ai.Decode(res, &parsed); err != nil || strings.TrimSpace(parsed.Narrative) == "" {
		return staticNarrative(report), NarrativeMeta{FromFallback: true}
	}
	return parsed.Narrative, NarrativeMeta{FromFallback: res.Fallback, Provider: s.generator.Name()}
}

func buildNarrativePrompt(report *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize this email marketing report in 2-4 sentences for a business owner:\n\n")
	fmt.Fprintf(&b, "Window: %s to %s\n", report.From.Format("2006-01-02"), report.To.Format("2006-01-02"))
	fmt.Fprintf(&b, "Leads: %d (avg score %.1f)\n", report.Totals.Leads, report.Totals.AvgScore)
	fmt.Fprintf(&b, "Campaigns sent: %d\n", report.Totals.CampaignsSent)
	fmt.Fprintf(&b, "Emails: %d sent, %d opened (%.0f%%), %d clicks (%.0f%%)\n",
		report.Totals.EmailsSent, report.Totals.EmailsOpened, report.Totals.OpenRate*100,
		report.Totals.LinksClicked, report.Totals.ClickRate*100)
	for _, stage := range report.Stages {
		fmt.Fprintf(&b, "Stage %s: %d leads, avg score %.1f\n", stage.Stage, stage.Count, stage.AvgScore)
	}
	for _, h := range report.TopLeads {
		fmt.Fprintf(&b, "Top lead %s: score %.1f, trend %s\n", h.Email, h.Score, h.Trend)
	}
	b.WriteString(`
Respond with ONLY valid JSON in this exact format:
{"narrative": "..."}`)
	return b.String()
}

func staticNarrative(report *Report) string {
	return fmt.Sprintf(
		"Between %s and %s you sent %d campaigns covering %d emails. %d were opened (%.0f%% open rate) with %d link clicks. Average lead score is %.1f across %d leads.",
		report.From.Format("Jan 2"), report.To.Format("Jan 2"),
		report.Totals.CampaignsSent, report.Totals.EmailsSent,
		report.Totals.EmailsOpened, report.Totals.OpenRate*100,
		report.Totals.LinksClicked, report.Totals.AvgScore, report.Totals.Leads)
}
