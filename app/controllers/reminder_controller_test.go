package controllers

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crafthaven/crafthaven/app/models"
	"github.com/crafthaven/crafthaven/internal/pkg/push"
	"github.com/crafthaven/crafthaven/internal/pkg/reminder"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type emptyTrackingStore struct {
	touched []uint
}

func (s *emptyTrackingStore) TouchActivity(userID uint, at time.Time) error {
	s.touched = append(s.touched, userID)
	return nil
}

func (s *emptyTrackingStore) FindEligible(idleSince time.Time, maxSent int) ([]models.CartReminderTracking, error) {
	return nil, nil
}

func (s *emptyTrackingStore) Reset(userID uint) error { return nil }

func (s *emptyTrackingStore) MarkReminded(tracking *models.CartReminderTracking, at time.Time) error {
	return nil
}

type emptyCartStore struct{}

func (emptyCartStore) CountItemsForUser(userID uint) (int64, error) { return 0, nil }

type emptyUserStore struct{}

func (emptyUserStore) GetByID(id uint) (*models.User, error) { return nil, gorm.ErrRecordNotFound }

func (emptyUserStore) GetByEmail(email string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (emptyUserStore) GetDeliveryTarget(userID uint) (*models.DeliveryTarget, error) {
	return nil, gorm.ErrRecordNotFound
}

func (emptyUserStore) ListDeliveryTargetsByRole(role string) ([]models.DeliveryTarget, error) {
	return nil, nil
}

type noopNotifier struct{}

func (noopNotifier) NotifyUser(ctx context.Context, userID uint, notificationType string, payload push.Payload, aux map[string]interface{}) error {
	return nil
}

func newReminderTestApp(secret string) (*fiber.App, *emptyTrackingStore) {
	trackings := &emptyTrackingStore{}
	scheduler := reminder.NewScheduler(trackings, emptyCartStore{}, emptyUserStore{}, noopNotifier{})
	rc := NewReminderController(scheduler, trackings, secret)

	app := fiber.New()
	app.Post("/internal/cart-reminders", rc.HandleRun)
	app.Post("/internal/cart-activity", rc.HandleCartActivity)
	return app, trackings
}

func TestHandleRunRequiresSecret(t *testing.T) {
	app, _ := newReminderTestApp("s3cret")

	t.Run("missing secret", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("POST", "/internal/cart-reminders", nil))
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong secret", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("POST", "/internal/cart-reminders?secret=nope", nil))
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid secret", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("POST", "/internal/cart-reminders?secret=s3cret", nil))
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"processed":0}`, readBody(t, resp))
	})
}

func TestHandleRunUnconfiguredSecretAlwaysDenies(t *testing.T) {
	app, _ := newReminderTestApp("")

	resp, err := app.Test(httptest.NewRequest("POST", "/internal/cart-reminders?secret=", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHandleCartActivity(t *testing.T) {
	app, trackings := newReminderTestApp("s3cret")

	t.Run("touches tracking", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/internal/cart-activity?secret=s3cret",
			bytes.NewReader([]byte(`{"user_id":42}`)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		assert.Equal(t, []uint{42}, trackings.touched)
	})

	t.Run("missing user id", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/internal/cart-activity?secret=s3cret",
			bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("wrong secret", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/internal/cart-activity?secret=nope",
			bytes.NewReader([]byte(`{"user_id":42}`)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}
