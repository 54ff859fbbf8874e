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
	"github.com/openshelf/openshelf/internal/entities"
)

type LoansController struct {
	circulation *circulation.Service
	auditor     *audit.Service
}

func NewLoansController(circ *circulation.Service, auditor *audit.Service) *LoansController {
	return &LoansController{
		circulation: circ,
		auditor:     auditor,
	}
}

type issueLoanRequest struct {
	ISBN     string `json:"isbn" binding:"required"`
	MemberID uint   `json:"member_id" binding:"required"`
}

// IssueLoan checks a book out to a member.
func (controller *LoansController) IssueLoan(c *gin.Context) {
	var req issueLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "isbn and member_id are required")
		return
	}

	loan, err := controller.circulation.IssueLoan(req.ISBN, req.MemberID)
	if err != nil {
		switch {
		case errors.Is(err, circulation.ErrBookNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, circulation.ErrMemberNotFound):
			respondNotFound(c, "member")
		case errors.Is(err, circulation.ErrBookUnavailable),
			errors.Is(err, circulation.ErrMemberInactive),
			errors.Is(err, circulation.ErrLoanLimitReached):
			respondConflict(c, err.Error())
		default:
			respondInternalError(c, err, "issue loan")
		}
		return
	}

	controller.auditor.LogChange(auth.GetUserID(c), "issue_loan", "loans", strconv.FormatUint(uint64(loan.ID), 10), nil, loan, c.ClientIP())
	respondCreated(c, loan)
}

// ReturnLoan checks a book back in.
func (controller *LoansController) ReturnLoan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	loan, err := controller.circulation.ReturnLoan(id)
	if err != nil {
		if errors.Is(err, circulation.ErrLoanNotFound) {
			respondNotFound(c, "outstanding loan")
			return
		}
		respondInternalError(c, err, "return loan")
		return
	}

	controller.auditor.LogChange(auth.GetUserID(c), "return_loan", "loans", strconv.FormatUint(uint64(id), 10), nil, loan, c.ClientIP())
	c.JSON(http.StatusOK, loan)
}

// RenewLoan extends an outstanding loan by one loan period.
func (controller *LoansController) RenewLoan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	controller.renew(c, id)
}

func (controller *LoansController) renew(c *gin.Context, id uint) {
	loan, err := controller.circulation.RenewLoan(id)
	if err != nil {
		switch {
		case errors.Is(err, circulation.ErrLoanNotFound):
			respondNotFound(c, "outstanding loan")
		case errors.Is(err, circulation.ErrLoanOverdue),
			errors.Is(err, circulation.ErrRenewalLimitReached):
			respondConflict(c, err.Error())
		default:
			respondInternalError(c, err, "renew loan")
		}
		return
	}

	controller.auditor.LogChange(auth.GetUserID(c), "renew_loan", "loans", strconv.FormatUint(uint64(id), 10), nil, loan, c.ClientIP())
	c.JSON(http.StatusOK, loan)
}

// ListLoans returns all outstanding loans, or only overdue ones with
// ?overdue=true.
func (controller *LoansController) ListLoans(c *gin.Context) {
	var (
		loans []entities.Loan
		err   error
	)
	if parseQueryBool(c, "overdue") {
		loans, err = controller.circulation.OverdueLoans(time.Now())
	} else {
		loans, err = controller.circulation.OutstandingLoans()
	}
	if err != nil {
		respondInternalError(c, err, "list loans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans, "count": len(loans)})
}
