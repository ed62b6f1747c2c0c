package website

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store provides database operations for sites and their custom domains
type Store struct {
	db *sql.DB
}

// NewStore creates a website store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateSite inserts a new site as the next version for its slug
func (s *Store) CreateSite(ctx context.Context, site *Site) error {
	site.ID = uuid.New()
	site.Slug = slugify(site.Slug)
	site.CreatedAt = time.Now().UTC()
	site.UpdatedAt = site.CreatedAt
	if site.Status == "" {
		site.Status = StatusDraft
	}

	var maxVersion sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM websites WHERE organization_id = $1 AND slug = $2`,
		site.OrganizationID, site.Slug).Scan(&maxVersion)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	site.Version = int(maxVersion.Int64) + 1

	query := `INSERT INTO websites (id, organization_id, slug, version, status, document,
		from_fallback, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = s.db.ExecContext(ctx, query, site.ID, site.OrganizationID, site.Slug,
		site.Version, site.Status, site.Document, site.FromFallback, site.CreatedAt, site.UpdatedAt)
	return err
}

const siteColumns = `id, organization_id, slug, version, status, document, from_fallback,
	created_at, updated_at`

func scanSite(row interface{ Scan(...interface{}) error }) (*Site, error) {
	site := &Site{}
	err := row.Scan(&site.ID, &site.OrganizationID, &site.Slug, &site.Version, &site.Status,
		&site.Document, &site.FromFallback, &site.CreatedAt, &site.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return site, err
}

// GetSite retrieves a site by ID
func (s *Store) GetSite(ctx context.Context, orgID, siteID uuid.UUID) (*Site, error) {
	query := `SELECT ` + siteColumns + ` FROM websites WHERE id = $1 AND organization_id = $2`
	return scanSite(s.db.QueryRowContext(ctx, query, siteID, orgID))
}

// GetLatestSite retrieves the newest version for a slug
func (s *Store) GetLatestSite(ctx context.Context, orgID uuid.UUID, slug string) (*Site, error) {
	query := `SELECT ` + siteColumns + ` FROM websites
		WHERE organization_id = $1 AND slug = $2 ORDER BY version DESC LIMIT 1`
	return scanSite(s.db.QueryRowContext(ctx, query, orgID, slugify(slug)))
}

// ListSites retrieves the latest version of each site for an organization
func (s *Store) ListSites(ctx context.Context, orgID uuid.UUID) ([]*Site, error) {
	query := `SELECT DISTINCT ON (slug) ` + siteColumns + ` FROM websites
		WHERE organization_id = $1 AND status != 'archived'
		ORDER BY slug, version DESC`

	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []*Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// PublishSite marks a site version published
func (s *Store) PublishSite(ctx context.Context, orgID, siteID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE websites SET status = 'published', updated_at = NOW()
		WHERE id = $1 AND organization_id = $2`, siteID, orgID)
	return err
}

// SaveDomain inserts a custom domain record
func (s *Store) SaveDomain(ctx context.Context, d *SiteDomain) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now().UTC()
	d.UpdatedAt = d.CreatedAt

	query := `INSERT INTO website_domains (id, organization_id, site_id, domain,
		certificate_arn, cloudfront_id, cloudfront_domain, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query, d.ID, d.OrganizationID, d.SiteID, d.Domain,
		d.CertificateARN, d.CloudFrontID, d.CloudFrontDomain, d.Status, d.CreatedAt, d.UpdatedAt)
	return err
}

// UpdateDomainStatus advances a domain through provisioning states
func (s *Store) UpdateDomainStatus(ctx context.Context, domainID uuid.UUID, status, cloudFrontID, cloudFrontDomain string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE website_domains SET status = $1, cloudfront_id = $2, cloudfront_domain = $3,
		updated_at = NOW() WHERE id = $4`,
		status, cloudFrontID, cloudFrontDomain, domainID)
	return err
}

// GetDomain retrieves a domain record by ID
func (s *Store) GetDomain(ctx context.Context, orgID, domainID uuid.UUID) (*SiteDomain, error) {
	query := `SELECT id, organization_id, site_id, domain, certificate_arn, cloudfront_id,
		cloudfront_domain, status, created_at, updated_at
		FROM website_domains WHERE id = $1 AND organization_id = $2`

	d := &SiteDomain{}
	err := s.db.QueryRowContext(ctx, query, domainID, orgID).Scan(
		&d.ID, &d.OrganizationID, &d.SiteID, &d.Domain, &d.CertificateARN,
		&d.CloudFrontID, &d.CloudFrontDomain, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

// slugify normalizes a slug to lowercase alphanumerics and hyphens
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastHyphen := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
