package settingsstore

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openshelf/openshelf/internal/database/settings"
	"github.com/openshelf/openshelf/internal/entities"
)

func setupStore(t *testing.T) (*SettingsStore, *settings.Repository, func()) {
	t.Helper()
	dbPath := "./test_settingsstore_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Setting{}))

	repo := settings.NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return New(repo), repo, cleanup
}

func TestSettingsStore_Defaults(t *testing.T) {
	store, _, cleanup := setupStore(t)
	defer cleanup()

	assert.Equal(t, DefaultLoanPeriodDays, store.DefaultLoanPeriod())
	assert.Equal(t, DefaultMaxRenewals, store.MaxRenewals())
	assert.Equal(t, DefaultFinePerDay, store.FinePerDay())
	assert.Equal(t, DefaultMaxBooksPerMember, store.MaxBooksPerMember())
	assert.Equal(t, DefaultReservationHoldDays, store.ReservationHoldDays())
	assert.Equal(t, DefaultLibraryName, store.LibraryName())
	assert.Empty(t, store.LibraryEmail())
}

func TestSettingsStore_DatabaseTakesPriority(t *testing.T) {
	store, repo, cleanup := setupStore(t)
	defer cleanup()

	require.NoError(t, repo.SetSetting(entities.SettingKeyDefaultLoanPeriod, "21", ""))
	require.NoError(t, repo.SetSetting(entities.SettingKeyFinePerDay, "1.25", ""))
	require.NoError(t, repo.SetSetting(entities.SettingKeyLibraryName, "Riverside Library", ""))

	assert.Equal(t, 21, store.DefaultLoanPeriod())
	assert.Equal(t, 1.25, store.FinePerDay())
	assert.Equal(t, "Riverside Library", store.LibraryName())
}

func TestSettingsStore_UnparsableFallsBack(t *testing.T) {
	store, repo, cleanup := setupStore(t)
	defer cleanup()

	require.NoError(t, repo.SetSetting(entities.SettingKeyMaxRenewals, "lots", ""))
	require.NoError(t, repo.SetSetting(entities.SettingKeyFinePerDay, "-3", ""))

	assert.Equal(t, DefaultMaxRenewals, store.MaxRenewals())
	assert.Equal(t, DefaultFinePerDay, store.FinePerDay())
}

func TestSettingsStore_ReflectsUpdates(t *testing.T) {
	store, repo, cleanup := setupStore(t)
	defer cleanup()

	require.NoError(t, repo.SetSetting(entities.SettingKeyMaxRenewals, "1", ""))
	assert.Equal(t, 1, store.MaxRenewals())

	require.NoError(t, repo.SetSetting(entities.SettingKeyMaxRenewals, "4", ""))
	assert.Equal(t, 4, store.MaxRenewals())
}
