package audit

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openshelf/openshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()
	dbPath := "./test_audit_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditLog{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_LogEvent_SetsCreatedAt(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	event := &entities.AuditLog{UserID: 1, Action: "issue_loan", EntityTable: "loans", RecordID: "7"}
	require.NoError(t, repo.LogEvent(event))
	assert.False(t, event.CreatedAt.IsZero())
}

func TestRepository_GetEvents_FiltersAndOrder(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Now().Add(-time.Hour)
	require.NoError(t, repo.LogEvent(&entities.AuditLog{UserID: 1, Action: "issue_loan", CreatedAt: base}))
	require.NoError(t, repo.LogEvent(&entities.AuditLog{UserID: 1, Action: "return_loan", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.LogEvent(&entities.AuditLog{UserID: 2, Action: "issue_loan", CreatedAt: base.Add(2 * time.Minute)}))

	events, total, err := repo.GetEvents(0, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, events, 3)
	assert.Equal(t, uint(2), events[0].UserID)

	events, total, err = repo.GetEvents(1, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	events, total, err = repo.GetEvents(0, "issue_loan", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, e := range events {
		assert.Equal(t, "issue_loan", e.Action)
	}
}

func TestRepository_GetEvents_Pagination(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.LogEvent(&entities.AuditLog{UserID: 1, Action: "login", CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	page, total, err := repo.GetEvents(0, "", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page, 2)
}

func TestRepository_GetEventsForRecord(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.LogEvent(&entities.AuditLog{UserID: 1, Action: "update_book", EntityTable: "books", RecordID: "978-1"}))
	require.NoError(t, repo.LogEvent(&entities.AuditLog{UserID: 1, Action: "update_book", EntityTable: "books", RecordID: "978-2"}))

	history, err := repo.GetEventsForRecord("books", "978-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "978-1", history[0].RecordID)
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	old := time.Now().Add(-100 * 24 * time.Hour)
	require.NoError(t, repo.LogEvent(&entities.AuditLog{UserID: 1, Action: "login", CreatedAt: old}))
	require.NoError(t, repo.LogEvent(&entities.AuditLog{UserID: 1, Action: "login"}))

	deleted, err := repo.DeleteOldEvents(time.Now().Add(-90 * 24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := repo.GetRecentEvents(0, time.Time{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
