package lead

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/launchkit/launchkit/internal/pkg/distlock"
)

// lockTTL bounds how long a crashed writer can hold a lead lock
const lockTTL = 10 * time.Second

// Store provides database operations for leads and their activities.
// Activity recording serializes per lead through a distributed lock, since
// the in-memory engine is not safe against concurrent mutation.
type Store struct {
	db    *sql.DB
	redis *redis.Client
}

// NewStore creates a lead store. redisClient may be nil; locking then falls
// back to Postgres advisory locks.
func NewStore(db *sql.DB, redisClient *redis.Client) *Store {
	return &Store{db: db, redis: redisClient}
}

// Create inserts a new lead and records its origin activity.
func (s *Store) Create(ctx context.Context, l *Lead) error {
	l.ID = uuid.New()
	l.Email = strings.ToLower(strings.TrimSpace(l.Email))
	l.CreatedAt = time.Now().UTC()
	l.UpdatedAt = l.CreatedAt
	if l.Stage == "" {
		l.Stage = StageSubscriber
	}
	if l.Status == "" {
		l.Status = StatusActive
	}
	if l.Source == "" {
		l.Source = ActivityManualAdd
	}

	query := `INSERT INTO leads (id, organization_id, email, first_name, last_name, phone,
		company, job_title, stage, status, source, metadata, total_emails_sent, emails_opened,
		links_clicked, engagement_score, score_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := s.db.ExecContext(ctx, query, l.ID, l.OrganizationID, l.Email, l.FirstName,
		l.LastName, l.Phone, l.Company, l.JobTitle, l.Stage, l.Status, l.Source, l.Metadata,
		l.TotalEmailsSent, l.EmailsOpened, l.LinksClicked, l.EngagementScore,
		l.ScoreHistory, l.CreatedAt, l.UpdatedAt)
	return err
}

const leadColumns = `id, organization_id, email, first_name, last_name, phone, company,
	job_title, stage, status, source, metadata, total_emails_sent, emails_opened, links_clicked,
	last_email_opened_at, engagement_score, score_history, last_activity_at, created_at, updated_at`

func scanLead(row interface{ Scan(...interface{}) error }) (*Lead, error) {
	l := &Lead{}
	err := row.Scan(&l.ID, &l.OrganizationID, &l.Email, &l.FirstName, &l.LastName,
		&l.Phone, &l.Company, &l.JobTitle, &l.Stage, &l.Status, &l.Source, &l.Metadata,
		&l.TotalEmailsSent, &l.EmailsOpened, &l.LinksClicked, &l.LastEmailOpenedAt,
		&l.EngagementScore, &l.ScoreHistory, &l.LastActivityAt, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, err
}

// Get retrieves a lead by ID
func (s *Store) Get(ctx context.Context, orgID, leadID uuid.UUID) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1 AND organization_id = $2`
	return scanLead(s.db.QueryRowContext(ctx, query, leadID, orgID))
}

// GetByEmail retrieves a lead by normalized email
func (s *Store) GetByEmail(ctx context.Context, orgID uuid.UUID, email string) (*Lead, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	query := `SELECT ` + leadColumns + ` FROM leads WHERE organization_id = $1 AND email = $2`
	return scanLead(s.db.QueryRowContext(ctx, query, orgID, email))
}

// List retrieves active leads for an organization, most recently active first
func (s *Store) List(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Lead, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT ` + leadColumns + ` FROM leads
		WHERE organization_id = $1 AND status != 'archived'
		ORDER BY last_activity_at DESC NULLS LAST, created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// UpdateProfile updates the contact fields that feed the completeness
// component of the engagement score
func (s *Store) UpdateProfile(ctx context.Context, l *Lead) error {
	l.UpdatedAt = time.Now().UTC()
	query := `UPDATE leads SET first_name = $1, last_name = $2, phone = $3, company = $4,
		job_title = $5, updated_at = $6 WHERE id = $7 AND organization_id = $8`
	_, err := s.db.ExecContext(ctx, query, l.FirstName, l.LastName, l.Phone, l.Company,
		l.JobTitle, l.UpdatedAt, l.ID, l.OrganizationID)
	return err
}

// Archive soft-deletes a lead
func (s *Store) Archive(ctx context.Context, orgID, leadID uuid.UUID) error {
	query := `UPDATE leads SET status = 'archived', updated_at = NOW()
		WHERE id = $1 AND organization_id = $2`
	_, err := s.db.ExecContext(ctx, query, leadID, orgID)
	return err
}

// RecordActivity loads the lead, runs the engagement engine, and persists
// the updated counters together with the activity row. A per-lead
// distributed lock serializes concurrent writers so score updates are not
// lost.
func (s *Store) RecordActivity(ctx context.Context, orgID, leadID uuid.UUID, kind, description string, metadata JSON) (*Lead, error) {
	lock := distlock.NewLock(s.redis, s.db, "lead:activity:"+leadID.String(), lockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lead lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("lead %s is locked by another writer", leadID)
	}
	defer lock.Release(ctx)

	l, err := s.Get(ctx, orgID, leadID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("lead %s not found", leadID)
	}

	activity := RecordActivity(l, kind, description, metadata)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `UPDATE leads SET total_emails_sent = $1, emails_opened = $2,
		links_clicked = $3, last_email_opened_at = $4, engagement_score = $5,
		score_history = $6, last_activity_at = $7, updated_at = $8
		WHERE id = $9 AND organization_id = $10`,
		l.TotalEmailsSent, l.EmailsOpened, l.LinksClicked, l.LastEmailOpenedAt,
		l.EngagementScore, l.ScoreHistory, l.LastActivityAt, l.UpdatedAt, l.ID, l.OrganizationID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO lead_activities (id, lead_id, kind, description,
		metadata, timestamp) VALUES ($1, $2, $3, $4, $5, $6)`,
		activity.ID, activity.LeadID, activity.Kind, activity.Description,
		activity.Metadata, activity.Timestamp)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return l, nil
}

// ChangeStage moves a lead through the funnel and records a stage_change
// activity
func (s *Store) ChangeStage(ctx context.Context, orgID, leadID uuid.UUID, stage string) (*Lead, error) {
	_, err := s.db.ExecContext(ctx, `UPDATE leads SET stage = $1, updated_at = NOW()
		WHERE id = $2 AND organization_id = $3`, stage, leadID, orgID)
	if err != nil {
		return nil, err
	}
	return s.RecordActivity(ctx, orgID, leadID, ActivityStageChange,
		"moved to "+stage, JSON{"stage": stage})
}

// Activities retrieves a lead's activity log, newest first
func (s *Store) Activities(ctx context.Context, leadID uuid.UUID, limit int) ([]*Activity, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT id, lead_id, kind, description, metadata, timestamp
		FROM lead_activities WHERE lead_id = $1 ORDER BY timestamp DESC LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*Activity
	for rows.Next() {
		a := &Activity{}
		if err := rows.Scan(&a.ID, &a.LeadID, &a.Kind, &a.Description, &a.Metadata, &a.Timestamp); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// StageSummaries aggregates lead counts and average scores by funnel stage
// for analytics
func (s *Store) StageSummaries(ctx context.Context, orgID uuid.UUID) ([]StageSummary, error) {
	query := `SELECT stage, COUNT(*), COALESCE(AVG(engagement_score), 0)
		FROM leads WHERE organization_id = $1 AND status != 'archived'
		GROUP BY stage ORDER BY stage`

	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []StageSummary
	for rows.Next() {
		var sum StageSummary
		if err := rows.Scan(&sum.Stage, &sum.Count, &sum.AvgScore); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
