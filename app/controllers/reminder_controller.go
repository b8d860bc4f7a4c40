package controllers

import (
	"crypto/subtle"
	"time"

	"github.com/crafthaven/crafthaven/app/repository"
	"github.com/crafthaven/crafthaven/internal/pkg/reminder"
	"github.com/gofiber/fiber/v2"
)

// ReminderController exposes the externally triggered scheduler run and the
// cart-activity ingest the storefront's cart service calls. Both are
// authenticated by a shared secret; there is deliberately no lock against
// concurrent triggers, matching the scheduler's contract.
type ReminderController struct {
	scheduler *reminder.Scheduler
	trackings repository.ReminderRepository
	secret    string
}

func NewReminderController(scheduler *reminder.Scheduler, trackings repository.ReminderRepository, secret string) *ReminderController {
	return &ReminderController{
		scheduler: scheduler,
		trackings: trackings,
		secret:    secret,
	}
}

// HandleRun executes one scheduler pass and reports the processed count.
func (rc *ReminderController) HandleRun(c *fiber.Ctx) error {
	if !rc.authorized(c) {
		return jsonError(c, fiber.StatusUnauthorized, "invalid trigger secret")
	}

	processed := rc.scheduler.Run(c.Context())
	return c.JSON(fiber.Map{
		"processed": processed,
	})
}

type cartActivityRequest struct {
	UserID uint `json:"user_id"`
}

// HandleCartActivity upserts the idle-cart tracking for a user. The cart
// service calls this on every cart mutation; a fresh activity stamp restarts
// the 24h idle clock.
func (rc *ReminderController) HandleCartActivity(c *fiber.Ctx) error {
	if !rc.authorized(c) {
		return jsonError(c, fiber.StatusUnauthorized, "invalid trigger secret")
	}

	var req cartActivityRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "user_id is required")
	}

	if err := rc.trackings.TouchActivity(req.UserID, time.Now()); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "could not record cart activity")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (rc *ReminderController) authorized(c *fiber.Ctx) bool {
	supplied := c.Query("secret")
	return rc.secret != "" && subtle.ConstantTimeCompare([]byte(supplied), []byte(rc.secret)) == 1
}
