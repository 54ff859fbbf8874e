package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*Database, func()) {
	t.Helper()
	dbPath := "./test_database_" + t.Name() + ".db"

	db, err := NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func TestNewDatabase_SeedsTiers(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	var tiers []entities.MemberTier
	err := db.DB.Order("name").Find(&tiers).Error
	require.NoError(t, err)
	require.Len(t, tiers, 3)

	byName := make(map[string]entities.MemberTier)
	for _, tier := range tiers {
		byName[tier.Name] = tier
	}

	assert.Equal(t, 14, byName["Standard"].LoanPeriodDays)
	assert.Equal(t, 0.50, byName["Standard"].FinePerDay)
	assert.Equal(t, 5, byName["Premium"].MaxBooks)
	assert.Equal(t, 30, byName["Student"].LoanPeriodDays)
}

func TestNewDatabase_SeedsCategories(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	var count int64
	err := db.DB.Model(&entities.BookCategory{}).Count(&count).Error
	require.NoError(t, err)
	assert.Equal(t, int64(len(defaultCategories)), count)
}

func TestNewDatabase_SeedsSettings(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	var loanPeriod entities.Setting
	err := db.DB.Where("key = ?", entities.SettingKeyDefaultLoanPeriod).First(&loanPeriod).Error
	require.NoError(t, err)
	assert.Equal(t, "14", loanPeriod.Value)

	var holdDays entities.Setting
	err = db.DB.Where("key = ?", entities.SettingKeyReservationHoldDays).First(&holdDays).Error
	require.NoError(t, err)
	assert.Equal(t, "3", holdDays.Value)
}

func TestNewDatabase_SeedingIsIdempotent(t *testing.T) {
	dbPath := "./test_database_idempotent.db"
	defer os.Remove(dbPath)

	db, err := NewDatabase(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening must not duplicate reference rows.
	db, err = NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	var tierCount, settingCount int64
	require.NoError(t, db.DB.Model(&entities.MemberTier{}).Count(&tierCount).Error)
	require.NoError(t, db.DB.Model(&entities.Setting{}).Count(&settingCount).Error)

	assert.Equal(t, int64(3), tierCount)
	assert.Equal(t, int64(len(defaultSettings)), settingCount)
}
