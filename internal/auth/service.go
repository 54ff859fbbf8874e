package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/entities"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameRequired   = errors.New("username is required")
	ErrUsernameInvalid    = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrPasswordRequired   = errors.New("password is required")
	ErrNameRequired       = errors.New("name is required")
)

// Service handles authentication and account management.
type Service struct {
	db     *gorm.DB
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// Authenticate validates credentials and returns the user. Failed
// attempts are counted and the account locks after too many of them.
// Inactive student accounts cannot sign in at all.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	var user entities.User
	err := s.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.Role.Valid() {
		return nil, ErrInvalidCredentials
	}

	if user.LockedUntil != nil && time.Now().Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailedLogin(&user)
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	s.db.Model(&user).Updates(map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	})

	return &user, nil
}

// recordFailedLogin increments the failed login counter and locks the
// account once the threshold is reached.
func (s *Service) recordFailedLogin(user *entities.User) {
	user.FailedLoginCount++

	updates := map[string]any{
		"failed_login_count": user.FailedLoginCount,
	}

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if user.FailedLoginCount >= maxAttempts {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration == 0 {
			lockoutDuration = 30 * time.Minute
		}
		updates["locked_until"] = time.Now().Add(lockoutDuration)
	}

	s.db.Model(user).Updates(updates)
}

// RegisterStudentParams describes a self-service student signup.
type RegisterStudentParams struct {
	Username string
	Password string
	Name     string
	Email    string
	Address  string
}

// RegisterStudent creates a student login together with the member
// record its loans will be booked against, in one transaction.
func (s *Service) RegisterStudent(params RegisterStudentParams) (*entities.User, error) {
	if err := s.validateNewAccount(params.Username, params.Password, params.Name); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(params.Password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	var user *entities.User
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing entities.User
		err := tx.Where("username = ?", params.Username).First(&existing).Error
		if err == nil {
			return ErrUserExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check existing user: %w", err)
		}

		member := &entities.Member{
			Name:             params.Name,
			ContactInfo:      params.Email,
			Address:          params.Address,
			RegistrationDate: time.Now(),
			TierID:           1,
			Status:           entities.MemberStatusActive,
		}
		if err := tx.Create(member).Error; err != nil {
			return fmt.Errorf("failed to create member: %w", err)
		}

		user = &entities.User{
			Username:     params.Username,
			PasswordHash: passwordHash,
			Role:         entities.RoleStudent,
			Name:         params.Name,
			Email:        params.Email,
			MemberID:     &member.ID,
		}
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateLibrarian creates a librarian login. Librarians have no member
// record of their own.
func (s *Service) CreateLibrarian(username, password, name, email string) (*entities.User, error) {
	if err := s.validateNewAccount(username, password, name); err != nil {
		return nil, err
	}

	var existing entities.User
	err := s.db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         entities.RoleLibrarian,
		Name:         name,
		Email:        email,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *Service) validateNewAccount(username, password, name string) error {
	if username == "" {
		return ErrUsernameRequired
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if name == "" {
		return ErrNameRequired
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := s.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ChangePassword updates a user's password after verifying the old one.
func (s *Service) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if err := CheckPassword(oldPassword, user.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}

	return s.db.Model(user).Update("password_hash", newHash).Error
}

// HasUsers returns true if any users exist in the database.
func (s *Service) HasUsers() (bool, error) {
	var count int64
	err := s.db.Model(&entities.User{}).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
