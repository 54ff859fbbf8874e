package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/audit"
	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/circulation"
)

type FinesController struct {
	circulation *circulation.Service
	auditor     *audit.Service
}

func NewFinesController(circ *circulation.Service, auditor *audit.Service) *FinesController {
	return &FinesController{
		circulation: circ,
		auditor:     auditor,
	}
}

// ListUnpaidFines returns every unpaid fine with book titles joined in.
func (controller *FinesController) ListUnpaidFines(c *gin.Context) {
	fines, err := controller.circulation.UnpaidFines()
	if err != nil {
		respondInternalError(c, err, "list unpaid fines")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fines": fines, "count": len(fines)})
}

// CalculateFines runs the overdue fine batch immediately. The nightly
// scheduler runs the same batch; both are idempotent.
func (controller *FinesController) CalculateFines(c *gin.Context) {
	created, err := controller.circulation.CalculateOverdueFines()
	if err != nil {
		respondInternalError(c, err, "calculate fines")
		return
	}

	controller.auditor.LogAction(auth.GetUserID(c), "calculate_fines", c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"fines_created": created})
}

// PayFine settles an unpaid fine.
func (controller *FinesController) PayFine(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fine, err := controller.circulation.PayFine(id)
	if err != nil {
		switch {
		case errors.Is(err, circulation.ErrFineNotFound):
			respondNotFound(c, "fine")
		case errors.Is(err, circulation.ErrFineAlreadyPaid):
			respondConflict(c, err.Error())
		default:
			respondInternalError(c, err, "pay fine")
		}
		return
	}

	controller.auditor.LogChange(auth.GetUserID(c), "pay_fine", "fines", strconv.FormatUint(uint64(id), 10), nil, fine, c.ClientIP())
	c.JSON(http.StatusOK, fine)
}
