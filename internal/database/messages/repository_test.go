package messages

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openshelf/openshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, func()) {
	t.Helper()
	dbPath := "./test_messages_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Message{}, &entities.User{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, db, cleanup
}

func createUser(t *testing.T, db *gorm.DB, username string, role entities.UserRole) *entities.User {
	t.Helper()
	user := &entities.User{Username: username, Role: role, Name: username}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestRepository_SendAndInbox(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	librarian := createUser(t, db, "lib", entities.RoleLibrarian)
	student := createUser(t, db, "stu", entities.RoleStudent)

	_, err := repo.Send(SendParams{
		FromUserID: &librarian.ID,
		ToUserID:   &student.ID,
		Subject:    "Overdue notice",
		Body:       "Please return your book.",
		Type:       entities.MessageTypeGeneral,
	})
	require.NoError(t, err)

	inbox, err := repo.Inbox(student.ID, entities.RoleStudent, "")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "Overdue notice", inbox[0].Subject)
	assert.False(t, inbox[0].IsRead)
	require.NotNil(t, inbox[0].Sender)
	assert.Equal(t, "lib", inbox[0].Sender.Username)

	// The librarian's own inbox stays empty.
	inbox, err = repo.Inbox(librarian.ID, entities.RoleLibrarian, "")
	require.NoError(t, err)
	assert.Empty(t, inbox)
}

func TestRepository_Inbox_TypeFilter(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	student := createUser(t, db, "stu", entities.RoleStudent)

	_, err := repo.Send(SendParams{ToUserID: &student.ID, Subject: "a", Body: "b", Type: entities.MessageTypeLibrarianReply})
	require.NoError(t, err)
	_, err = repo.Send(SendParams{ToUserID: &student.ID, Subject: "c", Body: "d", Type: entities.MessageTypeReturnConfirmation})
	require.NoError(t, err)

	replies, err := repo.Inbox(student.ID, entities.RoleStudent, entities.MessageTypeLibrarianReply)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "a", replies[0].Subject)
}

func TestRepository_Broadcast_FansOutPerLibrarian(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	student := createUser(t, db, "stu", entities.RoleStudent)
	lib1 := createUser(t, db, "lib1", entities.RoleLibrarian)
	lib2 := createUser(t, db, "lib2", entities.RoleLibrarian)

	sent, err := repo.Broadcast(SendParams{
		FromUserID: &student.ID,
		Subject:    "Book Request",
		Body:       "Please order Dune.",
		Type:       entities.MessageTypeBookRequest,
	}, entities.RoleLibrarian)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	// One private row per librarian, not a shared one.
	var total int64
	require.NoError(t, db.Model(&entities.Message{}).Count(&total).Error)
	assert.Equal(t, int64(2), total)

	for _, lib := range []*entities.User{lib1, lib2} {
		inbox, err := repo.Inbox(lib.ID, entities.RoleLibrarian, "")
		require.NoError(t, err)
		require.Len(t, inbox, 1)
		assert.Equal(t, entities.MessageTypeBookRequest, inbox[0].Type)
	}
}

func TestRepository_Broadcast_NoRecipients(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	student := createUser(t, db, "stu", entities.RoleStudent)

	_, err := repo.Broadcast(SendParams{
		FromUserID: &student.ID,
		Subject:    "anyone there",
		Body:       "hello",
	}, entities.RoleLibrarian)
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestRepository_MarkRead_Idempotent(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	student := createUser(t, db, "stu", entities.RoleStudent)
	msg, err := repo.Send(SendParams{ToUserID: &student.ID, Subject: "s", Body: "b"})
	require.NoError(t, err)

	require.NoError(t, repo.MarkRead(msg.ID))
	require.NoError(t, repo.MarkRead(msg.ID))

	got, err := repo.GetByID(msg.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)

	assert.ErrorIs(t, repo.MarkRead(9999), ErrNotFound)
}

func TestRepository_UnreadCount(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	student := createUser(t, db, "stu", entities.RoleStudent)

	first, err := repo.Send(SendParams{ToUserID: &student.ID, Subject: "1", Body: "x"})
	require.NoError(t, err)
	_, err = repo.Send(SendParams{ToUserID: &student.ID, Subject: "2", Body: "y"})
	require.NoError(t, err)

	count, err := repo.UnreadCount(student.ID, entities.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, repo.MarkRead(first.ID))

	count, err = repo.UnreadCount(student.ID, entities.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
