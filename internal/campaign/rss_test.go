package campaign

import (
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
)

func TestParseFeedItem(t *testing.T) {
	published := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	item := parseFeedItem(&gofeed.Item{
		GUID:            "tag:example.com,2026:post-1",
		Title:           "Release 2.0",
		Link:            "https://example.com/blog/release-2",
		Description:     "The big one",
		PublishedParsed: &published,
	})

	assert.Equal(t, "tag:example.com,2026:post-1", item.GUID)
	assert.Equal(t, "Release 2.0", item.Title)
	assert.Equal(t, "https://example.com/blog/release-2", item.Link)
	assert.Equal(t, &published, item.PublishedAt)
}

func TestParseFeedItemGUIDFallsBackToLink(t *testing.T) {
	item := parseFeedItem(&gofeed.Item{
		Title: "No GUID here",
		Link:  "https://example.com/blog/no-guid",
	})

	assert.Equal(t, "https://example.com/blog/no-guid", item.GUID)
}
