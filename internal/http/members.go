package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/audit"
	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/circulation"
	"github.com/openshelf/openshelf/internal/database/members"
)

type MembersController struct {
	repo        *members.Repository
	circulation *circulation.Service
	auditor     *audit.Service
}

func NewMembersController(repo *members.Repository, circ *circulation.Service, auditor *audit.Service) *MembersController {
	return &MembersController{
		repo:        repo,
		circulation: circ,
		auditor:     auditor,
	}
}

type registerMemberRequest struct {
	Name        string `json:"name" binding:"required"`
	ContactInfo string `json:"contact_info"`
	Address     string `json:"address"`
	DateOfBirth string `json:"date_of_birth"` // YYYY-MM-DD
	TierID      uint   `json:"tier_id"`
}

// RegisterMember creates a walk-in member without a login account.
func (controller *MembersController) RegisterMember(c *gin.Context) {
	var req registerMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	params := members.RegisterParams{
		Name:        req.Name,
		ContactInfo: req.ContactInfo,
		Address:     req.Address,
		TierID:      req.TierID,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			respondBadRequest(c, "date_of_birth must be YYYY-MM-DD")
			return
		}
		params.DateOfBirth = &dob
	}

	member, err := controller.repo.Register(params)
	if err != nil {
		if errors.Is(err, members.ErrTierNotFound) {
			respondBadRequest(c, err.Error())
			return
		}
		respondInternalError(c, err, "register member")
		return
	}

	controller.auditor.LogChange(auth.GetUserID(c), "register_member", "members", strconv.FormatUint(uint64(member.ID), 10), nil, member, c.ClientIP())
	respondCreated(c, member)
}

// ListMembers returns active members, or all members with ?include_inactive=true.
func (controller *MembersController) ListMembers(c *gin.Context) {
	list, err := controller.repo.List(parseQueryBool(c, "include_inactive"))
	if err != nil {
		respondInternalError(c, err, "list members")
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": list, "count": len(list)})
}

// GetMember returns a single member with its tier.
func (controller *MembersController) GetMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	member, err := controller.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, members.ErrNotFound) {
			respondNotFound(c, "member")
			return
		}
		respondInternalError(c, err, "get member")
		return
	}
	c.JSON(http.StatusOK, member)
}

type updateTierRequest struct {
	TierID uint `json:"tier_id" binding:"required"`
}

// UpdateMemberTier moves a member to a different membership tier.
func (controller *MembersController) UpdateMemberTier(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "tier_id is required")
		return
	}

	if err := controller.repo.UpdateTier(id, req.TierID); err != nil {
		switch {
		case errors.Is(err, members.ErrNotFound):
			respondNotFound(c, "member")
		case errors.Is(err, members.ErrTierNotFound):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "update member tier")
		}
		return
	}

	controller.auditor.LogChange(auth.GetUserID(c), "update_member_tier", "members", strconv.FormatUint(uint64(id), 10), nil, req, c.ClientIP())
	respondSuccess(c, "tier updated")
}

// RemoveMember deactivates a member. Blocked while the member holds
// outstanding loans or unpaid fines.
func (controller *MembersController) RemoveMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.circulation.RemoveMember(id); err != nil {
		switch {
		case errors.Is(err, circulation.ErrMemberNotFound):
			respondNotFound(c, "member")
		case errors.Is(err, circulation.ErrHasActiveLoans),
			errors.Is(err, circulation.ErrHasUnpaidFines):
			respondConflict(c, err.Error())
		default:
			respondInternalError(c, err, "remove member")
		}
		return
	}

	controller.auditor.LogChange(auth.GetUserID(c), "remove_member", "members", strconv.FormatUint(uint64(id), 10), nil, nil, c.ClientIP())
	respondSuccess(c, "member removed")
}

// ListTiers returns the membership tier reference data.
func (controller *MembersController) ListTiers(c *gin.Context) {
	tiers, err := controller.repo.ListTiers()
	if err != nil {
		respondInternalError(c, err, "list tiers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tiers": tiers, "count": len(tiers)})
}

// MemberLoans returns a member's loan history or only outstanding loans.
func (controller *MembersController) MemberLoans(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	loans, err := controller.circulation.MemberLoans(id, parseQueryBool(c, "include_returned"))
	if err != nil {
		respondInternalError(c, err, "member loans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans, "count": len(loans)})
}

// MemberFines returns a member's fines, each with the book title joined in.
func (controller *MembersController) MemberFines(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fines, err := controller.circulation.MemberFines(id)
	if err != nil {
		respondInternalError(c, err, "member fines")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fines": fines, "count": len(fines)})
}

// MemberReservations returns a member's reservations, newest first.
func (controller *MembersController) MemberReservations(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reservations, err := controller.circulation.MemberReservations(id)
	if err != nil {
		respondInternalError(c, err, "member reservations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": reservations, "count": len(reservations)})
}
