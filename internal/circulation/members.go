package circulation

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

// RemoveMember deactivates a member. Removal is blocked while the
// member still has books out or fines owing. The member row is kept
// with status inactive so loan and fine history stays queryable; a
// linked student login is demoted to inactive_student and can no longer
// sign in.
func (s *Service) RemoveMember(memberID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var member entities.Member
		if err := tx.First(&member, memberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}

		var activeLoans int64
		err := tx.Model(&entities.Loan{}).
			Where("member_id = ? AND return_date IS NULL", memberID).
			Count(&activeLoans).Error
		if err != nil {
			return err
		}
		if activeLoans > 0 {
			return ErrHasActiveLoans
		}

		var unpaidFines int64
		err = tx.Model(&entities.Fine{}).
			Where("member_id = ? AND status = ?", memberID, entities.FineStatusUnpaid).
			Count(&unpaidFines).Error
		if err != nil {
			return err
		}
		if unpaidFines > 0 {
			return ErrHasUnpaidFines
		}

		err = tx.Model(&entities.Member{}).Where("id = ?", memberID).
			Update("status", entities.MemberStatusInactive).Error
		if err != nil {
			return fmt.Errorf("failed to deactivate member: %w", err)
		}

		return tx.Model(&entities.User{}).
			Where("member_id = ? AND role = ?", memberID, entities.RoleStudent).
			Update("role", entities.RoleInactiveStudent).Error
	})
}
