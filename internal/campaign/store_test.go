package campaign

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreateDefaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO campaigns").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewStore(db)
	c := &Campaign{
		OrganizationID: uuid.New(),
		Name:           "Launch",
		Subject:        "We're live",
		HTML:           "<p>hi</p>",
	}
	require.NoError(t, store.Create(context.Background(), c))

	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Equal(t, StatusDraft, c.Status)
	assert.Equal(t, "generated", c.Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orgID := uuid.New()
	campaignID := uuid.New()
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "organization_id", "name", "subject", "preview_text",
		"html", "text", "ctas", "status", "source", "from_fallback", "sent_count", "sent_at",
		"created_at", "updated_at"}).
		AddRow(campaignID, orgID, "Launch", "We're live", "preview", "<p>hi</p>", "hi",
			[]byte(`["Learn More"]`), StatusDraft, "generated", false, 0, nil, now, now)

	mock.ExpectQuery("SELECT (.+) FROM campaigns WHERE id").
		WithArgs(campaignID, orgID).
		WillReturnRows(rows)

	store := NewStore(db)
	c, err := store.Get(context.Background(), orgID, campaignID)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "We're live", c.Subject)
	assert.Equal(t, StringSlice{"Learn More"}, c.CTAs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM campaigns WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	store := NewStore(db)
	c, err := store.Get(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestStoreMarkSent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	campaignID := uuid.New()
	mock.ExpectExec("UPDATE campaigns SET status = 'sent'").
		WithArgs(42, campaignID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewStore(db)
	require.NoError(t, store.MarkSent(context.Background(), campaignID, 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreItemSeen(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	feedID := uuid.New()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(feedID, "guid-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	store := NewStore(db)
	seen, err := store.ItemSeen(context.Background(), feedID, "guid-1")
	require.NoError(t, err)
	assert.True(t, seen)
}
