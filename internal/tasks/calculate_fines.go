package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// FineCalculator provides the overdue fine batch run.
type FineCalculator interface {
	CalculateOverdueFines() (int, error)
}

// CalculateFinesTask assesses fines for every overdue loan that does not
// have one yet. Safe to enqueue repeatedly.
type CalculateFinesTask struct{}

// Config returns the queue configuration for fine calculation tasks.
func (t CalculateFinesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "calculate_fines",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CalculateFinesProcessor creates a processor function for CalculateFinesTask.
func CalculateFinesProcessor(calculator FineCalculator) backlite.QueueProcessor[CalculateFinesTask] {
	return func(ctx context.Context, task CalculateFinesTask) error {
		if calculator == nil {
			return fmt.Errorf("fine calculator not configured")
		}

		created, err := calculator.CalculateOverdueFines()
		if err != nil {
			return fmt.Errorf("calculate overdue fines: %w", err)
		}

		if created > 0 {
			log.Printf("[TASK] Assessed %d new overdue fines", created)
		} else {
			log.Printf("[TASK] Fine run complete: no new overdue loans")
		}
		return nil
	}
}

// NewCalculateFinesQueue creates a backlite queue for fine calculation tasks.
func NewCalculateFinesQueue(calculator FineCalculator) backlite.Queue {
	return backlite.NewQueue(CalculateFinesProcessor(calculator))
}
