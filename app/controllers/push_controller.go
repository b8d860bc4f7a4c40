package controllers

import (
	"github.com/crafthaven/crafthaven/app/models"
	"github.com/crafthaven/crafthaven/app/repository"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// PushController owns the subscribe/unsubscribe surface of the registry.
type PushController struct {
	subscriptions repository.PushSubscriptionRepository
	validate      *validator.Validate
}

func NewPushController(subscriptions repository.PushSubscriptionRepository) *PushController {
	return &PushController{
		subscriptions: subscriptions,
		validate:      validator.New(),
	}
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url,max=500"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required,max=255"`
		Auth   string `json:"auth" validate:"required,max=255"`
	} `json:"keys"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url,max=500"`
}

// HandleSubscribe registers or refreshes a device endpoint. The same endpoint
// resubscribing, including after a provider-initiated rotation on another
// account, overwrites owner and keys instead of duplicating.
func (pc *PushController) HandleSubscribe(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == 0 {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var req subscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := pc.validate.Struct(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "endpoint and keys are required")
	}

	sub := &models.PushSubscription{
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
		UserID:   userID,
	}
	if err := pc.subscriptions.Upsert(sub); err != nil {
		log.Errorf("[push] upserting subscription for user %d failed: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "could not store subscription")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":       sub.ID,
		"endpoint": sub.Endpoint,
	})
}

// HandleUnsubscribe removes a device endpoint by its natural key.
func (pc *PushController) HandleUnsubscribe(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == 0 {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var req unsubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := pc.validate.Struct(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "endpoint is required")
	}

	if err := pc.subscriptions.RemoveByEndpoint(req.Endpoint); err != nil {
		log.Errorf("[push] removing subscription for user %d failed: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "could not remove subscription")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
