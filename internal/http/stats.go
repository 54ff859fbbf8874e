package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

// StatsController serves the librarian dashboard counters.
type StatsController struct {
	db *gorm.DB
}

func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

type DashboardStats struct {
	TotalBooks         int64   `json:"total_books"`
	AvailableBooks     int64   `json:"available_books"`
	ActiveMembers      int64   `json:"active_members"`
	OutstandingLoans   int64   `json:"outstanding_loans"`
	OverdueLoans       int64   `json:"overdue_loans"`
	ActiveReservations int64   `json:"active_reservations"`
	UnpaidFineCount    int64   `json:"unpaid_fine_count"`
	UnpaidFineTotal    float64 `json:"unpaid_fine_total"`
}

// Dashboard aggregates library-wide counters in one round trip per
// counter.
func (controller *StatsController) Dashboard(c *gin.Context) {
	var stats DashboardStats
	now := time.Now()

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalBooks, controller.db.Model(&entities.Book{})},
		{&stats.AvailableBooks, controller.db.Model(&entities.Book{}).Where("status = ?", entities.BookStatusAvailable)},
		{&stats.ActiveMembers, controller.db.Model(&entities.Member{}).Where("status = ?", entities.MemberStatusActive)},
		{&stats.OutstandingLoans, controller.db.Model(&entities.Loan{}).Where("return_date IS NULL")},
		{&stats.OverdueLoans, controller.db.Model(&entities.Loan{}).Where("return_date IS NULL AND due_date < ?", now)},
		{&stats.ActiveReservations, controller.db.Model(&entities.Reservation{}).Where("status = ?", entities.ReservationStatusActive)},
		{&stats.UnpaidFineCount, controller.db.Model(&entities.Fine{}).Where("status = ?", entities.FineStatusUnpaid)},
	}
	for _, count := range counts {
		if err := count.query.Count(count.dest).Error; err != nil {
			respondInternalError(c, err, "dashboard stats")
			return
		}
	}

	err := controller.db.Model(&entities.Fine{}).
		Where("status = ?", entities.FineStatusUnpaid).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.UnpaidFineTotal).Error
	if err != nil {
		respondInternalError(c, err, "dashboard stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}
