package campaign

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Store provides database operations for campaigns and RSS feeds
type Store struct {
	db *sql.DB
}

// NewStore creates a campaign store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new campaign
func (s *Store) Create(ctx context.Context, c *Campaign) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	if c.Status == "" {
		c.Status = StatusDraft
	}
	if c.Source == "" {
		c.Source = "generated"
	}

	query := `INSERT INTO campaigns (id, organization_id, name, subject, preview_text, html,
		text, ctas, status, source, from_fallback, sent_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := s.db.ExecContext(ctx, query, c.ID, c.OrganizationID, c.Name, c.Subject,
		c.PreviewText, c.HTML, c.Text, c.CTAs, c.Status, c.Source, c.FromFallback,
		c.SentCount, c.CreatedAt, c.UpdatedAt)
	return err
}

const campaignColumns = `id, organization_id, name, subject, preview_text, html, text, ctas,
	status, source, from_fallback, sent_count, sent_at, created_at, updated_at`

func scanCampaign(row interface{ Scan(...interface{}) error }) (*Campaign, error) {
	c := &Campaign{}
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Subject, &c.PreviewText, &c.HTML,
		&c.Text, &c.CTAs, &c.Status, &c.Source, &c.FromFallback, &c.SentCount, &c.SentAt,
		&c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// Get retrieves a campaign by ID
func (s *Store) Get(ctx context.Context, orgID, campaignID uuid.UUID) (*Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1 AND organization_id = $2`
	return scanCampaign(s.db.QueryRowContext(ctx, query, campaignID, orgID))
}

// List retrieves campaigns for an organization, newest first
func (s *Store) List(ctx context.Context, orgID uuid.UUID, limit int) ([]*Campaign, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT ` + campaignColumns + ` FROM campaigns
		WHERE organization_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []*Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// MarkSending flips a draft to sending
func (s *Store) MarkSending(ctx context.Context, campaignID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE campaigns SET status = 'sending', updated_at = NOW() WHERE id = $1`, campaignID)
	return err
}

// MarkSent records delivery completion
func (s *Store) MarkSent(ctx context.Context, campaignID uuid.UUID, sentCount int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE campaigns SET status = 'sent', sent_count = $1, sent_at = NOW(), updated_at = NOW()
		WHERE id = $2`, sentCount, campaignID)
	return err
}

// CreateFeed registers an RSS feed for campaign drafting
func (s *Store) CreateFeed(ctx context.Context, f *Feed) error {
	f.ID = uuid.New()
	f.CreatedAt = time.Now().UTC()
	f.Active = true

	query := `INSERT INTO campaign_feeds (id, organization_id, name, feed_url, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.ExecContext(ctx, query, f.ID, f.OrganizationID, f.Name, f.FeedURL,
		f.Active, f.CreatedAt)
	return err
}

// ActiveFeeds retrieves feeds due for polling
func (s *Store) ActiveFeeds(ctx context.Context) ([]*Feed, error) {
	query := `SELECT id, organization_id, name, feed_url, active, last_polled_at, created_at
		FROM campaign_feeds WHERE active = true ORDER BY last_polled_at NULLS FIRST`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feeds []*Feed
	for rows.Next() {
		f := &Feed{}
		if err := rows.Scan(&f.ID, &f.OrganizationID, &f.Name, &f.FeedURL, &f.Active,
			&f.LastPolledAt, &f.CreatedAt); err != nil {
			return nil, err
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

// ItemSeen reports whether a feed item was already drafted into a campaign
func (s *Store) ItemSeen(ctx context.Context, feedID uuid.UUID, guid string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM campaign_feed_items WHERE feed_id = $1 AND guid = $2)`,
		feedID, guid).Scan(&exists)
	return exists, err
}

// MarkItemSeen records a drafted feed item for dedupe
func (s *Store) MarkItemSeen(ctx context.Context, feedID uuid.UUID, guid string, campaignID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO campaign_feed_items (id, feed_id, guid, campaign_id, created_at)
		VALUES ($1, $2, $3, $4, NOW()) ON CONFLICT (feed_id, guid) DO NOTHING`,
		uuid.New(), feedID, guid, campaignID)
	return err
}

// TouchFeed updates the last-polled timestamp
func (s *Store) TouchFeed(ctx context.Context, feedID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE campaign_feeds SET last_polled_at = NOW() WHERE id = $1`, feedID)
	return err
}
