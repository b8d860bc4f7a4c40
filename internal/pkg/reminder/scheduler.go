package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/crafthaven/crafthaven/app/models"
	"github.com/crafthaven/crafthaven/app/repository"
	"github.com/crafthaven/crafthaven/internal/pkg/push"
	"github.com/gofiber/fiber/v2/log"
)

// IdleThreshold is how long a cart must sit untouched before it is nagged.
const IdleThreshold = 24 * time.Hour

// Notifier is the slice of the dispatcher the scheduler needs.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uint, notificationType string, payload push.Payload, aux map[string]interface{}) error
}

// Scheduler scans idle-cart trackings and sends escalating reminders. Rows
// are processed strictly sequentially: one row's full fan-out settles before
// the next row starts, which keeps delivery pressure on downstream flat.
type Scheduler struct {
	trackings repository.ReminderRepository
	carts     repository.CartRepository
	users     repository.UserRepository
	notifier  Notifier

	// now is swappable for tests
	now func() time.Time
}

func NewScheduler(
	trackings repository.ReminderRepository,
	carts repository.CartRepository,
	users repository.UserRepository,
	notifier Notifier,
) *Scheduler {
	return &Scheduler{
		trackings: trackings,
		carts:     carts,
		users:     users,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Run executes one scheduler pass and returns how many reminders were sent.
// Per-row failures are swallowed into the log so one broken row never blocks
// the rest of the scan.
func (s *Scheduler) Run(ctx context.Context) int {
	cutoff := s.now().Add(-IdleThreshold)
	rows, err := s.trackings.FindEligible(cutoff, models.MaxCartReminders)
	if err != nil {
		log.Errorf("[reminder] loading eligible trackings failed: %v", err)
		return 0
	}

	processed := 0
	for i := range rows {
		sent, err := s.processRow(ctx, &rows[i])
		if err != nil {
			log.Errorf("[reminder] processing tracking for user %d failed: %v", rows[i].UserID, err)
			continue
		}
		if sent {
			processed++
		}
	}
	return processed
}

// processRow re-checks the cart, resolves the user and sends one reminder.
// Returns whether a reminder actually went out.
func (s *Scheduler) processRow(ctx context.Context, row *models.CartReminderTracking) (bool, error) {
	itemCount, err := s.carts.CountItemsForUser(row.UserID)
	if err != nil {
		return false, fmt.Errorf("counting cart items: %w", err)
	}
	if itemCount == 0 {
		// cart emptied since the last activity event; stop tracking it
		if err := s.trackings.Reset(row.UserID); err != nil {
			return false, fmt.Errorf("resetting tracking: %w", err)
		}
		return false, nil
	}

	target, err := s.users.GetDeliveryTarget(row.UserID)
	if err != nil {
		// no resolvable identity, skip the row without burning a reminder
		log.Debugf("[reminder] user %d has no delivery identity: %v", row.UserID, err)
		return false, nil
	}

	reminderNumber := row.RemindersSent + 1
	title, body := reminderMessage(row.RemindersSent, itemCount)
	if err := s.notifier.NotifyUser(ctx, target.UserID, models.NotificationTypeCartReminder, push.Payload{
		Title: title,
		Body:  body,
		URL:   "/cart",
	}, map[string]interface{}{
		"itemCount":      itemCount,
		"reminderNumber": reminderNumber,
	}); err != nil {
		return false, fmt.Errorf("dispatching reminder: %w", err)
	}

	if err := s.trackings.MarkReminded(row, s.now()); err != nil {
		return false, fmt.Errorf("stamping reminder: %w", err)
	}
	return true, nil
}
