package push

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/crafthaven/crafthaven/app/models"
	"github.com/crafthaven/crafthaven/app/repository"
	"github.com/crafthaven/crafthaven/internal/pkg/cache"
	"github.com/crafthaven/crafthaven/internal/pkg/metrics/counter"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/datatypes"
)

// GroupBatchSize bounds how many users one group fan-out batch notifies
// concurrently. Batches run strictly one after another.
const GroupBatchSize = 50

const (
	defaultIcon  = "/assets/icons/notification.png"
	defaultBadge = "/assets/icons/badge.png"
)

// Payload is the user-visible content of one notification event.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// pushMessage is the wire shape the service worker renders.
type pushMessage struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	URL   string                 `json:"url"`
	Icon  string                 `json:"icon"`
	Badge string                 `json:"badge"`
	Type  string                 `json:"type"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// Dispatcher persists notification records and fans delivery out across a
// user's registered endpoints. Each call is a stateless fan-out; there is no
// delivery state machine and no retry.
type Dispatcher struct {
	notifications repository.NotificationRepository
	subscriptions repository.PushSubscriptionRepository
	users         repository.UserRepository
	sender        Sender
}

// NewDispatcher wires a dispatcher from its repositories and a sender.
func NewDispatcher(
	notifications repository.NotificationRepository,
	subscriptions repository.PushSubscriptionRepository,
	users repository.UserRepository,
	sender Sender,
) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		subscriptions: subscriptions,
		users:         users,
		sender:        sender,
	}
}

// NotifyUser persists one notification record and attempts delivery to every
// endpoint the user has registered. Persistence and delivery are independent:
// a failed insert is logged and delivery still runs, and delivery failures
// never undo the record. Zero subscriptions is a valid no-op delivery. The
// call returns only after every delivery attempt has settled.
func (d *Dispatcher) NotifyUser(ctx context.Context, userID uint, notificationType string, payload Payload, aux map[string]interface{}) error {
	d.persistRecord(userID, notificationType, payload, aux)

	subs, err := d.subscriptions.ListForUser(userID)
	if err != nil {
		log.Errorf("[push] loading subscriptions for user %d failed: %v", userID, err)
		return nil
	}
	if len(subs) == 0 {
		return nil
	}

	message, err := json.Marshal(pushMessage{
		Title: payload.Title,
		Body:  payload.Body,
		URL:   payload.URL,
		Icon:  defaultIcon,
		Badge: defaultBadge,
		Type:  notificationType,
		Data:  aux,
	})
	if err != nil {
		log.Errorf("[push] marshaling message for user %d failed: %v", userID, err)
		return nil
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub models.PushSubscription) {
			defer wg.Done()
			d.deliver(ctx, sub, notificationType, message)
		}(sub)
	}
	wg.Wait()
	return nil
}

// NotifyGroup notifies every active, non-deleted user holding the role, in
// fixed-size batches: each batch fans out concurrently, the next batch starts
// only after the previous one fully settled.
func (d *Dispatcher) NotifyGroup(ctx context.Context, role string, notificationType string, payload Payload, aux map[string]interface{}) error {
	targets, err := d.users.ListDeliveryTargetsByRole(role)
	if err != nil {
		return err
	}

	for start := 0; start < len(targets); start += GroupBatchSize {
		end := start + GroupBatchSize
		if end > len(targets) {
			end = len(targets)
		}

		var wg sync.WaitGroup
		for _, target := range targets[start:end] {
			wg.Add(1)
			go func(userID uint) {
				defer wg.Done()
				if err := d.NotifyUser(ctx, userID, notificationType, payload, aux); err != nil {
					log.Errorf("[push] group notify for user %d failed: %v", userID, err)
				}
			}(target.UserID)
		}
		wg.Wait()
	}
	return nil
}

// persistRecord writes the notification log row, best-effort.
func (d *Dispatcher) persistRecord(userID uint, notificationType string, payload Payload, aux map[string]interface{}) {
	var data datatypes.JSON
	if aux != nil {
		raw, err := json.Marshal(aux)
		if err != nil {
			log.Errorf("[push] marshaling aux data for user %d failed: %v", userID, err)
		} else {
			data = datatypes.JSON(raw)
		}
	}

	record := &models.Notification{
		UserID: userID,
		Type:   notificationType,
		Title:  payload.Title,
		Body:   payload.Body,
		URL:    payload.URL,
		Data:   data,
		IsRead: false,
	}
	if err := d.notifications.Create(record); err != nil {
		log.Errorf("[push] persisting notification for user %d failed: %v", userID, err)
		return
	}
	if err := cache.Delete(cache.UnreadCountKey(userID)); err != nil {
		log.Debugf("[push] unread count invalidation for user %d failed: %v", userID, err)
	}
}

// deliver runs one isolated delivery attempt. A gone-class response removes
// the subscription immediately; anything else is logged and dropped. Outcome
// counters are best-effort operational signals.
func (d *Dispatcher) deliver(ctx context.Context, sub models.PushSubscription, notificationType string, message []byte) {
	err := d.sender.Send(ctx, sub, message)
	switch {
	case err == nil:
		_ = counter.AddSent(notificationType)
	case errors.Is(err, ErrEndpointGone):
		_ = counter.AddGone(notificationType)
		if remErr := d.subscriptions.RemoveByEndpoint(sub.Endpoint); remErr != nil {
			log.Errorf("[push] removing gone endpoint %s failed: %v", sub.Endpoint, remErr)
		} else {
			log.Infof("[push] removed gone endpoint for user %d", sub.UserID)
		}
	default:
		_ = counter.AddFailed(notificationType)
		log.Warnf("[push] delivery to endpoint of user %d failed: %v", sub.UserID, err)
	}
}
