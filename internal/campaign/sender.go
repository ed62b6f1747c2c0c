package campaign

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/google/uuid"

	"github.com/launchkit/launchkit/internal/lead"
)

// Sender delivers finished campaigns through AWS SES and records an
// email_sent activity on each lead, which feeds the engagement score.
type Sender struct {
	client    *sesv2.Client
	store     *Store
	leadStore *lead.Store
	fromEmail string
	fromName  string
}

// NewSender creates a campaign sender. client may be nil when delivery is
// disabled; Send then fails cleanly.
func NewSender(client *sesv2.Client, store *Store, leadStore *lead.Store, fromEmail, fromName string) *Sender {
	return &Sender{
		client:    client,
		store:     store,
		leadStore: leadStore,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// Send delivers a campaign to the given leads. Per-recipient failures are
// logged and skipped; the campaign is marked sent with the delivered count.
func (s *Sender) Send(ctx context.Context, orgID, campaignID uuid.UUID) (int, error) {
	if s.client == nil {
		return 0, fmt.Errorf("email delivery not configured")
	}

	campaign, err := s.store.Get(ctx, orgID, campaignID)
	if err != nil {
		return 0, err
	}
	if campaign == nil {
		return 0, fmt.Errorf("campaign %s not found", campaignID)
	}
	if campaign.Status == StatusSent {
		return 0, fmt.Errorf("campaign %s already sent", campaignID)
	}

	leads, err := s.leadStore.List(ctx, orgID, 500, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to load leads: %w", err)
	}

	if err := s.store.MarkSending(ctx, campaignID); err != nil {
		return 0, err
	}

	sent := 0
	for _, l := range leads {
		if l.Status != lead.StatusActive {
			continue
		}
		if err := s.sendOne(ctx, campaign, l.Email); err != nil {
			log.Printf("Sender: failed to send %s to %s: %v", campaignID, l.Email, err)
			continue
		}
		sent++

		if _, err := s.leadStore.RecordActivity(ctx, orgID, l.ID, lead.ActivityEmailSent,
			"sent campaign: "+campaign.Name, lead.JSON{"campaign_id": campaignID.String()}); err != nil {
			log.Printf("Sender: failed to record activity for %s: %v", l.Email, err)
		}
	}

	if err := s.store.MarkSent(ctx, campaignID, sent); err != nil {
		return sent, err
	}
	log.Printf("Sender: campaign %s delivered to %d leads", campaignID, sent)
	return sent, nil
}

// buildEmail assembles the SES input. Campaigns may be HTML-only,
// text-only, or both; only the parts present are attached.
func (s *Sender) buildEmail(c *Campaign, email string) *sesv2.SendEmailInput {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)),
		Destination:      &types.Destination{ToAddresses: []string{email}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(c.Subject), Charset: aws.String("UTF-8")},
				Body:    &types.Body{},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("campaign_id"), Value: aws.String(c.ID.String())},
		},
	}
	if c.HTML != "" {
		input.Content.Simple.Body.Html = &types.Content{Data: aws.String(c.HTML), Charset: aws.String("UTF-8")}
	}
	if c.Text != "" {
		input.Content.Simple.Body.Text = &types.Content{Data: aws.String(c.Text), Charset: aws.String("UTF-8")}
	}
	return input
}

func (s *Sender) sendOne(ctx context.Context, c *Campaign, email string) error {
	_, err := s.client.SendEmail(ctx, s.buildEmail(c, email))
	return err
}
