package router

import (
	"time"

	"github.com/crafthaven/crafthaven/app/controllers"
	"github.com/crafthaven/crafthaven/internal/pkg/env"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type WebhookRouter struct {
	deps *dependencies
}

func NewWebhookRouter(deps *dependencies) *WebhookRouter {
	return &WebhookRouter{deps: deps}
}

func (h WebhookRouter) InstallRouter(app *fiber.App) {
	paymentCtrl := controllers.NewPaymentController(
		h.deps.verifier,
		h.deps.committer,
		h.deps.repos.User,
		env.GetEnv("PAYMENT_RESULT_URL", "/payment/result"),
	)

	webhooks := app.Group("/webhooks", limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Storage:    newLimiterStorage(),
	}))
	webhooks.Post("/payment/success", paymentCtrl.HandleSuccess)
	webhooks.Post("/payment/failure", paymentCtrl.HandleFailure)
	webhooks.Post("/payment/verify", paymentCtrl.HandleVerify)
}
