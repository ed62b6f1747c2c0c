package website

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	acmtypes "github.com/aws/aws-sdk-go-v2/service/acm/types"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/google/uuid"
)

// DomainService provisions custom domains for published sites: an ACM
// certificate validated through Route53, then a CloudFront distribution in
// front of the rendered-site bucket.
type DomainService struct {
	store        *Store
	acmClient    *acm.Client
	cfClient     *cloudfront.Client
	r53Client    *route53.Client
	hostedZoneID string
	siteBucket   string
}

// NewDomainService creates a domain provisioner. ACM and CloudFront clients
// must be configured for us-east-1; CloudFront only accepts certificates
// from that region.
func NewDomainService(store *Store, acmClient *acm.Client, cfClient *cloudfront.Client, r53Client *route53.Client, hostedZoneID, siteBucket string) *DomainService {
	return &DomainService{
		store:        store,
		acmClient:    acmClient,
		cfClient:     cfClient,
		r53Client:    r53Client,
		hostedZoneID: hostedZoneID,
		siteBucket:   siteBucket,
	}
}

// Provision requests a certificate, publishes its validation records, and
// stores the domain as pending. The CloudFront distribution is created once
// the certificate is issued (see Activate).
func (s *DomainService) Provision(ctx context.Context, orgID, siteID uuid.UUID, domain string) (*SiteDomain, error) {
	certOut, err := s.acmClient.RequestCertificate(ctx, &acm.RequestCertificateInput{
		DomainName:       aws.String(domain),
		ValidationMethod: acmtypes.ValidationMethodDns,
		Tags: []acmtypes.Tag{
			{Key: aws.String("OrgID"), Value: aws.String(orgID.String())},
			{Key: aws.String("ManagedBy"), Value: aws.String("launchkit")},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("requesting ACM certificate: %w", err)
	}
	certARN := aws.ToString(certOut.CertificateArn)

	if err := s.createValidationRecords(ctx, certARN); err != nil {
		// Certificate exists; validation records can be retried from status polling
		log.Printf("Domains: validation records for %s not created yet: %v", domain, err)
	}

	d := &SiteDomain{
		OrganizationID: orgID,
		SiteID:         siteID,
		Domain:         domain,
		CertificateARN: certARN,
		Status:         DomainPending,
	}
	if err := s.store.SaveDomain(ctx, d); err != nil {
		return nil, fmt.Errorf("saving domain record: %w", err)
	}
	return d, nil
}

// createValidationRecords upserts the DNS records ACM needs to validate the
// certificate
func (s *DomainService) createValidationRecords(ctx context.Context, certARN string) error {
	descOut, err := s.acmClient.DescribeCertificate(ctx, &acm.DescribeCertificateInput{
		CertificateArn: aws.String(certARN),
	})
	if err != nil {
		return fmt.Errorf("describing certificate: %w", err)
	}

	var changes []r53types.Change
	for _, opt := range descOut.Certificate.DomainValidationOptions {
		if opt.ResourceRecord != nil {
			changes = append(changes, r53types.Change{
				Action: r53types.ChangeActionUpsert,
				ResourceRecordSet: &r53types.ResourceRecordSet{
					Name: opt.ResourceRecord.Name,
					Type: r53types.RRType(opt.ResourceRecord.Type),
					TTL:  aws.Int64(300),
					ResourceRecords: []r53types.ResourceRecord{
						{Value: opt.ResourceRecord.Value},
					},
				},
			})
		}
	}
	if len(changes) == 0 {
		return fmt.Errorf("no validation records available yet")
	}

	_, err = s.r53Client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(s.hostedZoneID),
		ChangeBatch: &r53types.ChangeBatch{
			Changes: changes,
			Comment: aws.String("ACM validation records"),
		},
	})
	if err != nil {
		return fmt.Errorf("creating Route53 validation records: %w", err)
	}
	return nil
}

// Status re-checks the certificate and, once it is issued, creates the
// CloudFront distribution and the alias record. Returns the updated record.
func (s *DomainService) Status(ctx context.Context, orgID, domainID uuid.UUID) (*SiteDomain, error) {
	d, err := s.store.GetDomain(ctx, orgID, domainID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("domain %s not found", domainID)
	}
	if d.Status == DomainActive {
		return d, nil
	}

	descOut, err := s.acmClient.DescribeCertificate(ctx, &acm.DescribeCertificateInput{
		CertificateArn: aws.String(d.CertificateARN),
	})
	if err != nil {
		return nil, fmt.Errorf("describing certificate: %w", err)
	}

	switch descOut.Certificate.Status {
	case acmtypes.CertificateStatusIssued:
		if d.CloudFrontID == "" {
			if err := s.activate(ctx, d); err != nil {
				return nil, err
			}
		}
	case acmtypes.CertificateStatusFailed, acmtypes.CertificateStatusValidationTimedOut:
		d.Status = DomainFailed
		if err := s.store.UpdateDomainStatus(ctx, d.ID, d.Status, d.CloudFrontID, d.CloudFrontDomain); err != nil {
			return nil, err
		}
	default:
		// Still pending; retry validation records in case the first pass ran
		// before ACM published them
		if err := s.createValidationRecords(ctx, d.CertificateARN); err != nil {
			log.Printf("Domains: validation records for %s still unavailable: %v", d.Domain, err)
		}
	}
	return d, nil
}

// activate creates the distribution for an issued certificate and points the
// domain at it
func (s *DomainService) activate(ctx context.Context, d *SiteDomain) error {
	callerRef := fmt.Sprintf("site-%s-%d", d.ID, time.Now().Unix())
	originDomain := fmt.Sprintf("%s.s3.amazonaws.com", s.siteBucket)
	originPath := "/" + d.SiteID.String()

	out, err := s.cfClient.CreateDistribution(ctx, &cloudfront.CreateDistributionInput{
		DistributionConfig: &cftypes.DistributionConfig{
			CallerReference: aws.String(callerRef),
			Comment:         aws.String(fmt.Sprintf("Site distribution for %s", d.Domain)),
			Enabled:         aws.Bool(true),
			Aliases: &cftypes.Aliases{
				Quantity: aws.Int32(1),
				Items:    []string{d.Domain},
			},
			DefaultCacheBehavior: &cftypes.DefaultCacheBehavior{
				TargetOriginId:       aws.String("site-origin"),
				ViewerProtocolPolicy: cftypes.ViewerProtocolPolicyRedirectToHttps,
				AllowedMethods: &cftypes.AllowedMethods{
					Quantity: aws.Int32(2),
					Items:    []cftypes.Method{cftypes.MethodGet, cftypes.MethodHead},
				},
				CachePolicyId: aws.String("658327ea-f89d-4fab-a63d-7e88639e58f6"), // CachingOptimized
				Compress:      aws.Bool(true),
			},
			Origins: &cftypes.Origins{
				Quantity: aws.Int32(1),
				Items: []cftypes.Origin{
					{
						Id:         aws.String("site-origin"),
						DomainName: aws.String(originDomain),
						OriginPath: aws.String(originPath),
						S3OriginConfig: &cftypes.S3OriginConfig{
							OriginAccessIdentity: aws.String(""),
						},
					},
				},
			},
			ViewerCertificate: &cftypes.ViewerCertificate{
				ACMCertificateArn:      aws.String(d.CertificateARN),
				SSLSupportMethod:       cftypes.SSLSupportMethodSniOnly,
				MinimumProtocolVersion: cftypes.MinimumProtocolVersionTLSv122021,
			},
			PriceClass: cftypes.PriceClassPriceClass100,
		},
	})
	if err != nil {
		return fmt.Errorf("creating CloudFront distribution: %w", err)
	}

	d.CloudFrontID = aws.ToString(out.Distribution.Id)
	d.CloudFrontDomain = aws.ToString(out.Distribution.DomainName)
	d.Status = DomainActive

	// Alias the custom domain to the distribution
	_, err = s.r53Client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(s.hostedZoneID),
		ChangeBatch: &r53types.ChangeBatch{
			Comment: aws.String("Site alias record"),
			Changes: []r53types.Change{
				{
					Action: r53types.ChangeActionUpsert,
					ResourceRecordSet: &r53types.ResourceRecordSet{
						Name: aws.String(d.Domain),
						Type: r53types.RRTypeCname,
						TTL:  aws.Int64(300),
						ResourceRecords: []r53types.ResourceRecord{
							{Value: aws.String(d.CloudFrontDomain)},
						},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating alias record: %w", err)
	}

	return s.store.UpdateDomainStatus(ctx, d.ID, d.Status, d.CloudFrontID, d.CloudFrontDomain)
}
