package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openshelf/openshelf/internal/entities"
)

var defaultTiers = []entities.MemberTier{
	{Name: "Standard", MaxBooks: 3, LoanPeriodDays: 14, FinePerDay: 0.50, Description: "Standard membership with basic privileges"},
	{Name: "Premium", MaxBooks: 5, LoanPeriodDays: 21, FinePerDay: 0.25, Description: "Premium membership with extended privileges"},
	{Name: "Student", MaxBooks: 4, LoanPeriodDays: 30, FinePerDay: 0.10, Description: "Student membership with educational benefits"},
}

var defaultCategories = []string{
	"Fiction", "Non-Fiction", "Science", "Technology", "History", "Biography",
	"Romance", "Mystery", "Fantasy", "Educational", "Reference", "Children",
}

var defaultSettings = []entities.Setting{
	{Key: entities.SettingKeyDefaultLoanPeriod, Value: "14", Description: "Default loan period in days"},
	{Key: entities.SettingKeyMaxRenewals, Value: "2", Description: "Maximum number of renewals allowed"},
	{Key: entities.SettingKeyFinePerDay, Value: "0.50", Description: "Fine amount per day for overdue books"},
	{Key: entities.SettingKeyMaxBooksPerMember, Value: "3", Description: "Maximum books a member can borrow"},
	{Key: entities.SettingKeyReservationHoldDays, Value: "3", Description: "Days to hold a reserved book"},
	{Key: entities.SettingKeyLibraryName, Value: "City Library", Description: "Name of the library"},
	{Key: entities.SettingKeyLibraryEmail, Value: "info@citylibrary.com", Description: "Library contact email"},
	{Key: entities.SettingKeyLibraryPhone, Value: "(555) 123-4567", Description: "Library contact phone"},
}

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.MemberTier{},
		&entities.BookCategory{},
		&entities.Book{},
		&entities.Member{},
		&entities.User{},
		&entities.Loan{},
		&entities.Fine{},
		&entities.Reservation{},
		&entities.Message{},
		&entities.Announcement{},
		&entities.Setting{},
		&entities.AuditLog{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.seedReferenceData(); err != nil {
		return nil, fmt.Errorf("failed to seed reference data: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// seedReferenceData inserts the tier, category and setting rows the rest
// of the system assumes exist. Idempotent: existing rows are left alone.
func (d *Database) seedReferenceData() error {
	for _, tier := range defaultTiers {
		var existing entities.MemberTier
		result := d.DB.Where("name = ?", tier.Name).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := d.DB.Create(&tier).Error; err != nil {
				return fmt.Errorf("failed to create tier %s: %w", tier.Name, err)
			}
		}
	}

	for _, name := range defaultCategories {
		var existing entities.BookCategory
		result := d.DB.Where("name = ?", name).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			category := entities.BookCategory{Name: name}
			if err := d.DB.Create(&category).Error; err != nil {
				return fmt.Errorf("failed to create category %s: %w", name, err)
			}
		}
	}

	for _, setting := range defaultSettings {
		var existing entities.Setting
		result := d.DB.Where("key = ?", setting.Key).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := d.DB.Create(&setting).Error; err != nil {
				return fmt.Errorf("failed to create setting %s: %w", setting.Key, err)
			}
		}
	}

	return nil
}
