package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// ReminderSender delivers loan reminder mail to members.
type ReminderSender interface {
	SendOverdueReminders(now time.Time) (int, error)
	SendDueSoonReminders(now time.Time, withinDays int) (int, error)
}

// SendRemindersTask mails members about overdue loans and loans falling
// due within DueSoonDays.
type SendRemindersTask struct {
	DueSoonDays int `json:"due_soon_days"`
}

// Config returns the queue configuration for reminder tasks.
func (t SendRemindersTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "send_reminders",
		MaxAttempts: 3,
		Backoff:     10 * time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SendRemindersProcessor creates a processor function for SendRemindersTask.
func SendRemindersProcessor(sender ReminderSender) backlite.QueueProcessor[SendRemindersTask] {
	return func(ctx context.Context, task SendRemindersTask) error {
		if sender == nil {
			return fmt.Errorf("reminder sender not configured")
		}

		now := time.Now()

		overdue, err := sender.SendOverdueReminders(now)
		if err != nil {
			return fmt.Errorf("send overdue reminders: %w", err)
		}

		dueSoonDays := task.DueSoonDays
		if dueSoonDays <= 0 {
			dueSoonDays = 3
		}
		dueSoon, err := sender.SendDueSoonReminders(now, dueSoonDays)
		if err != nil {
			return fmt.Errorf("send due-soon reminders: %w", err)
		}

		log.Printf("[TASK] Sent %d overdue and %d due-soon reminders", overdue, dueSoon)
		return nil
	}
}

// NewSendRemindersQueue creates a backlite queue for reminder tasks.
func NewSendRemindersQueue(sender ReminderSender) backlite.Queue {
	return backlite.NewQueue(SendRemindersProcessor(sender))
}
