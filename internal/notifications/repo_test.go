package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/muniworks/maintenance-backend/pkg/db/models"
	"github.com/muniworks/maintenance-backend/pkg/enums"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  reference TEXT,
  read_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec("DELETE FROM notifications").Error)

	return db
}

func seedNotification(t *testing.T, db *gorm.DB, createdAt time.Time) *models.Notification {
	t.Helper()
	row := &models.Notification{
		ID:        uuid.New(),
		Kind:      enums.NotificationKindLowStock,
		Title:     "Low stock: PVC pipe 50mm",
		Message:   "PIPE-050 is down to 4 (minimum 5)",
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

func TestRepositoryListUnreadOnlyAndPagination(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	var rows []*models.Notification
	for i := 0; i < 4; i++ {
		rows = append(rows, seedNotification(t, db, base.Add(time.Duration(i)*time.Minute)))
	}

	readAt := base.Add(time.Hour)
	require.NoError(t, db.Model(rows[0]).UpdateColumn("read_at", readAt).Error)

	unread, cursor, err := repo.List(ctx, listNotificationsParams{Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 3)
	assert.Nil(t, cursor)

	page, cursor, err := repo.List(ctx, listNotificationsParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, cursor)
	assert.Equal(t, rows[3].ID, page[0].ID)
	assert.Equal(t, rows[2].ID, page[1].ID)

	rest, cursor, err := repo.List(ctx, listNotificationsParams{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Nil(t, cursor)
	assert.Equal(t, rows[1].ID, rest[0].ID)
	assert.Equal(t, rows[0].ID, rest[1].ID)
}

func TestRepositoryMarkRead(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	row := seedNotification(t, db, time.Now().UTC())
	now := time.Now().UTC()

	mark, err := repo.MarkRead(ctx, row.ID, now)
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.True(t, mark.Updated)

	// Second call finds the row but has nothing to update.
	mark, err = repo.MarkRead(ctx, row.ID, now)
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.False(t, mark.Updated)

	mark, err = repo.MarkRead(ctx, uuid.New(), now)
	require.NoError(t, err)
	assert.False(t, mark.Found)
}

func TestRepositoryMarkAllRead(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC()
	seedNotification(t, db, base)
	seedNotification(t, db, base.Add(time.Minute))

	count, err := repo.MarkAllRead(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.MarkAllRead(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, count)
}
