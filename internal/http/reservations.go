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
)

type ReservationsController struct {
	circulation *circulation.Service
	auditor     *audit.Service
}

func NewReservationsController(circ *circulation.Service, auditor *audit.Service) *ReservationsController {
	return &ReservationsController{
		circulation: circ,
		auditor:     auditor,
	}
}

type createReservationRequest struct {
	ISBN     string `json:"isbn" binding:"required"`
	MemberID uint   `json:"member_id" binding:"required"`
}

// CreateReservation places a hold on a book for a member.
func (controller *ReservationsController) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "isbn and member_id are required")
		return
	}

	reservation, err := controller.circulation.CreateReservation(req.ISBN, req.MemberID)
	if err != nil {
		controller.respondReservationError(c, err, "create reservation")
		return
	}

	controller.auditor.LogChange(auth.GetUserID(c), "create_reservation", "book_reservations", strconv.FormatUint(uint64(reservation.ID), 10), nil, reservation, c.ClientIP())
	respondCreated(c, reservation)
}

// CancelReservation cancels an active reservation.
func (controller *ReservationsController) CancelReservation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.circulation.CancelReservation(id); err != nil {
		if errors.Is(err, circulation.ErrReservationNotFound) {
			respondNotFound(c, "active reservation")
			return
		}
		respondInternalError(c, err, "cancel reservation")
		return
	}

	controller.auditor.LogChange(auth.GetUserID(c), "cancel_reservation", "book_reservations", strconv.FormatUint(uint64(id), 10), nil, nil, c.ClientIP())
	respondSuccess(c, "reservation cancelled")
}

// ListActiveReservations returns every active hold with book details.
func (controller *ReservationsController) ListActiveReservations(c *gin.Context) {
	reservations, err := controller.circulation.ActiveReservations()
	if err != nil {
		respondInternalError(c, err, "list reservations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": reservations, "count": len(reservations)})
}

// ExpireReservations sweeps holds past their expiry date immediately.
func (controller *ReservationsController) ExpireReservations(c *gin.Context) {
	expired, err := controller.circulation.ExpireReservations(time.Now())
	if err != nil {
		respondInternalError(c, err, "expire reservations")
		return
	}

	controller.auditor.LogAction(auth.GetUserID(c), "expire_reservations", c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"reservations_expired": expired})
}

func (controller *ReservationsController) respondReservationError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, circulation.ErrBookNotFound):
		respondNotFound(c, "book")
	case errors.Is(err, circulation.ErrMemberNotFound):
		respondNotFound(c, "member")
	case errors.Is(err, circulation.ErrMemberInactive),
		errors.Is(err, circulation.ErrAlreadyReserved):
		respondConflict(c, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}
