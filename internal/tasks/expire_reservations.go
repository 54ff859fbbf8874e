package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// ReservationExpirer sweeps reservations past their expiry date.
type ReservationExpirer interface {
	ExpireReservations(now time.Time) (int64, error)
}

// ExpireReservationsTask marks active reservations whose hold window has
// lapsed as expired.
type ExpireReservationsTask struct{}

// Config returns the queue configuration for reservation expiry tasks.
func (t ExpireReservationsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "expire_reservations",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ExpireReservationsProcessor creates a processor function for ExpireReservationsTask.
func ExpireReservationsProcessor(expirer ReservationExpirer) backlite.QueueProcessor[ExpireReservationsTask] {
	return func(ctx context.Context, task ExpireReservationsTask) error {
		if expirer == nil {
			return fmt.Errorf("reservation expirer not configured")
		}

		expired, err := expirer.ExpireReservations(time.Now())
		if err != nil {
			return fmt.Errorf("expire reservations: %w", err)
		}

		log.Printf("[TASK] Expired %d lapsed reservations", expired)
		return nil
	}
}

// NewExpireReservationsQueue creates a backlite queue for reservation expiry tasks.
func NewExpireReservationsQueue(expirer ReservationExpirer) backlite.Queue {
	return backlite.NewQueue(ExpireReservationsProcessor(expirer))
}
