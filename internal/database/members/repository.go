// Package members provides database operations for borrower records.
package members

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

var (
	ErrNotFound     = errors.New("member not found")
	ErrTierNotFound = errors.New("membership tier not found")
)

// Repository handles all member database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new members repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// RegisterParams describes a new member. TierID zero means the default
// (first seeded) tier.
type RegisterParams struct {
	Name        string
	ContactInfo string
	Address     string
	DateOfBirth *time.Time
	TierID      uint
}

// Register inserts a new active member.
func (r *Repository) Register(params RegisterParams) (*entities.Member, error) {
	tierID := params.TierID
	if tierID == 0 {
		tierID = 1
	}

	var tier entities.MemberTier
	if err := r.db.First(&tier, tierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, err
	}

	member := &entities.Member{
		Name:             params.Name,
		ContactInfo:      params.ContactInfo,
		Address:          params.Address,
		DateOfBirth:      params.DateOfBirth,
		RegistrationDate: time.Now(),
		TierID:           tierID,
		Status:           entities.MemberStatusActive,
	}

	if err := r.db.Create(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

// GetByID retrieves a member with its tier loaded.
func (r *Repository) GetByID(id uint) (*entities.Member, error) {
	var member entities.Member
	err := r.db.Preload("Tier").First(&member, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &member, nil
}

// List returns members ordered by name. Inactive members are excluded
// unless includeInactive is set.
func (r *Repository) List(includeInactive bool) ([]entities.Member, error) {
	query := r.db.Preload("Tier").Order("name")
	if !includeInactive {
		query = query.Where("status = ?", entities.MemberStatusActive)
	}

	var members []entities.Member
	err := query.Find(&members).Error
	return members, err
}

// UpdateTier moves a member to another membership tier.
func (r *Repository) UpdateTier(memberID, tierID uint) error {
	var tier entities.MemberTier
	if err := r.db.First(&tier, tierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTierNotFound
		}
		return err
	}

	result := r.db.Model(&entities.Member{}).Where("id = ?", memberID).Update("tier_id", tierID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTiers returns all membership tiers ordered by name.
func (r *Repository) ListTiers() ([]entities.MemberTier, error) {
	var tiers []entities.MemberTier
	err := r.db.Order("name").Find(&tiers).Error
	return tiers, err
}
