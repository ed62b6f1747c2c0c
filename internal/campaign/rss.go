package campaign

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mmcdole/gofeed"
)

// maxItemsPerPoll bounds how many campaigns one poll can draft
const maxItemsPerPoll = 5

// RSSService polls registered feeds and drafts one campaign per new item.
type RSSService struct {
	store      *Store
	generator  *Generator
	feedParser *gofeed.Parser
}

// NewRSSService creates an RSS campaign service
func NewRSSService(store *Store, generator *Generator) *RSSService {
	return &RSSService{
		store:      store,
		generator:  generator,
		feedParser: gofeed.NewParser(),
	}
}

// Poll fetches a feed and drafts campaigns for items not seen before.
// Returns the drafted campaigns.
func (s *RSSService) Poll(ctx context.Context, feed *Feed) ([]*Campaign, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	parsed, err := s.feedParser.ParseURLWithContext(feed.FeedURL, fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", feed.FeedURL, err)
	}

	var drafted []*Campaign
	for _, item := range parsed.Items {
		if len(drafted) >= maxItemsPerPoll {
			break
		}

		feedItem := parseFeedItem(item)
		seen, err := s.store.ItemSeen(ctx, feed.ID, feedItem.GUID)
		if err != nil {
			log.Printf("RSS: dedupe check failed for %s: %v", feedItem.GUID, err)
			continue
		}
		if seen {
			continue
		}

		campaign, err := s.draftFromItem(ctx, feed, feedItem)
		if err != nil {
			log.Printf("RSS: failed to draft campaign for %q: %v", feedItem.Title, err)
			continue
		}
		if err := s.store.MarkItemSeen(ctx, feed.ID, feedItem.GUID, campaign.ID); err != nil {
			log.Printf("RSS: failed to record item %s: %v", feedItem.GUID, err)
		}
		drafted = append(drafted, campaign)
	}

	if err := s.store.TouchFeed(ctx, feed.ID); err != nil {
		log.Printf("RSS: failed to update last_polled_at for %s: %v", feed.ID, err)
	}

	log.Printf("RSS: polled %s, %d items, %d drafted", feed.FeedURL, len(parsed.Items), len(drafted))
	return drafted, nil
}

// PollAll polls every active feed
func (s *RSSService) PollAll(ctx context.Context) error {
	feeds, err := s.store.ActiveFeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active feeds: %w", err)
	}

	for _, feed := range feeds {
		if _, err := s.Poll(ctx, feed); err != nil {
			log.Printf("RSS: poll failed for %s: %v", feed.FeedURL, err)
		}
	}
	return nil
}

// Run polls all feeds on an interval until the context is done
func (s *RSSService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("RSS: polling loop started (interval %s)", interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("RSS: polling loop stopped")
			return
		case <-ticker.C:
			if err := s.PollAll(ctx); err != nil {
				log.Printf("RSS: poll cycle failed: %v", err)
			}
		}
	}
}

func (s *RSSService) draftFromItem(ctx context.Context, feed *Feed, item FeedItem) (*Campaign, error) {
	doc, fromFallback, err := s.generator.Generate(ctx, BriefRequest{
		Product: item.Title,
		Goal:    "announce this update: " + item.Description,
		Points:  []string{"link to the full article: " + item.Link},
	})
	if err != nil {
		return nil, err
	}

	campaign := &Campaign{
		OrganizationID: feed.OrganizationID,
		Name:           "RSS: " + item.Title,
		Subject:        doc.Subject,
		PreviewText:    doc.PreviewText,
		HTML:           doc.HTML,
		Text:           doc.Text,
		CTAs:           doc.CTAs,
		Source:         "rss",
		FromFallback:   fromFallback,
	}
	if err := s.store.Create(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func parseFeedItem(item *gofeed.Item) FeedItem {
	guid := item.GUID
	if guid == "" {
		guid = item.Link
	}
	return FeedItem{
		GUID:        guid,
		Title:       item.Title,
		Link:        item.Link,
		Description: item.Description,
		PublishedAt: item.PublishedParsed,
	}
}
