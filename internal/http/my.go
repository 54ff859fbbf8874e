package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/audit"
	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/circulation"
	"github.com/openshelf/openshelf/internal/entities"
)

// MyController serves the logged-in student's own records. Every handler
// resolves the member from the session and refuses accounts without a
// member link.
type MyController struct {
	circulation *circulation.Service
	auditor     *audit.Service
	loans       *LoansController
	reservation *ReservationsController
}

func NewMyController(circ *circulation.Service, auditor *audit.Service) *MyController {
	return &MyController{
		circulation: circ,
		auditor:     auditor,
		loans:       NewLoansController(circ, auditor),
		reservation: NewReservationsController(circ, auditor),
	}
}

// memberID resolves the session's member link, responding 403 when the
// account has none.
func (controller *MyController) memberID(c *gin.Context) (uint, bool) {
	id := auth.GetMemberID(c)
	if id == 0 {
		respondError(c, http.StatusForbidden, "account has no member record")
		return 0, false
	}
	return id, true
}

// MyLoans returns the student's outstanding loans, or full history with
// ?include_returned=true.
func (controller *MyController) MyLoans(c *gin.Context) {
	memberID, ok := controller.memberID(c)
	if !ok {
		return
	}

	loans, err := controller.circulation.MemberLoans(memberID, parseQueryBool(c, "include_returned"))
	if err != nil {
		respondInternalError(c, err, "my loans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans, "count": len(loans)})
}

// RenewMyLoan renews one of the student's own loans.
func (controller *MyController) RenewMyLoan(c *gin.Context) {
	memberID, ok := controller.memberID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if !controller.ownsLoan(c, memberID, id) {
		return
	}
	controller.loans.renew(c, id)
}

// MyFines returns the student's fines with book titles joined in.
func (controller *MyController) MyFines(c *gin.Context) {
	memberID, ok := controller.memberID(c)
	if !ok {
		return
	}

	fines, err := controller.circulation.MemberFines(memberID)
	if err != nil {
		respondInternalError(c, err, "my fines")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fines": fines, "count": len(fines)})
}

// MyReservations returns the student's reservations, newest first.
func (controller *MyController) MyReservations(c *gin.Context) {
	memberID, ok := controller.memberID(c)
	if !ok {
		return
	}

	reservations, err := controller.circulation.MemberReservations(memberID)
	if err != nil {
		respondInternalError(c, err, "my reservations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": reservations, "count": len(reservations)})
}

type reserveBookRequest struct {
	ISBN string `json:"isbn" binding:"required"`
}

// ReserveBook places a hold on a book for the student.
func (controller *MyController) ReserveBook(c *gin.Context) {
	memberID, ok := controller.memberID(c)
	if !ok {
		return
	}

	var req reserveBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "isbn is required")
		return
	}

	reservation, err := controller.circulation.CreateReservation(req.ISBN, memberID)
	if err != nil {
		controller.reservation.respondReservationError(c, err, "reserve book")
		return
	}

	controller.auditor.LogChange(auth.GetUserID(c), "create_reservation", "book_reservations", strconv.FormatUint(uint64(reservation.ID), 10), nil, reservation, c.ClientIP())
	respondCreated(c, reservation)
}

// CancelMyReservation cancels one of the student's own active holds.
func (controller *MyController) CancelMyReservation(c *gin.Context) {
	memberID, ok := controller.memberID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if !controller.ownsReservation(c, memberID, id) {
		return
	}
	controller.reservation.CancelReservation(c)
}

// ownsLoan checks that the loan is outstanding and belongs to the member.
func (controller *MyController) ownsLoan(c *gin.Context, memberID, loanID uint) bool {
	loans, err := controller.circulation.MemberLoans(memberID, false)
	if err != nil {
		respondInternalError(c, err, "check loan ownership")
		return false
	}
	for _, loan := range loans {
		if loan.ID == loanID {
			return true
		}
	}
	respondNotFound(c, "outstanding loan")
	return false
}

// ownsReservation checks that the active reservation belongs to the member.
func (controller *MyController) ownsReservation(c *gin.Context, memberID, reservationID uint) bool {
	reservations, err := controller.circulation.MemberReservations(memberID)
	if err != nil {
		respondInternalError(c, err, "check reservation ownership")
		return false
	}
	for _, reservation := range reservations {
		if reservation.ID == reservationID && reservation.Status == entities.ReservationStatusActive {
			return true
		}
	}
	respondNotFound(c, "active reservation")
	return false
}
