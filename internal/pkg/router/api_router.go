package router

import (
	"strconv"
	"time"

	"github.com/crafthaven/crafthaven/app/controllers"
	"github.com/crafthaven/crafthaven/internal/pkg/env"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"
)

type ApiRouter struct {
	deps *dependencies
}

func NewApiRouter(deps *dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Storage:    newLimiterStorage(),
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// the skip-payment checkout lives on the rate-limited API surface, not
	// next to the gateway webhooks
	paymentCtrl := controllers.NewPaymentController(
		h.deps.verifier,
		h.deps.committer,
		h.deps.repos.User,
		env.GetEnv("PAYMENT_RESULT_URL", "/payment/result"),
	)
	v1.Post("/checkout/waived", paymentCtrl.HandleWaivedCheckout)

	pushCtrl := controllers.NewPushController(h.deps.repos.PushSubscription)
	v1.Post("/push/subscribe", pushCtrl.HandleSubscribe)
	v1.Post("/push/unsubscribe", pushCtrl.HandleUnsubscribe)

	notifCtrl := controllers.NewNotificationController(h.deps.repos.Notification)
	v1.Get("/notifications", notifCtrl.HandleList)
	v1.Get("/notifications/unread-count", notifCtrl.HandleUnreadCount)
	v1.Patch("/notifications/:id/read", notifCtrl.HandleMarkRead)
	v1.Post("/notifications/read-all", notifCtrl.HandleMarkAllRead)

	// internal surface for the external cron trigger and ops checks
	triggerSecret := env.GetEnv("REMINDER_TRIGGER_SECRET", "")
	reminderCtrl := controllers.NewReminderController(h.deps.scheduler, h.deps.repos.Reminder, triggerSecret)
	api.Post("/internal/cart-reminders", reminderCtrl.HandleRun)
	api.Post("/internal/cart-activity", reminderCtrl.HandleCartActivity)

	metricsCtrl := controllers.NewMetricsController(triggerSecret)
	api.Get("/internal/push-metrics", metricsCtrl.HandleDeliverySnapshot)
}

// newLimiterStorage backs the rate limiter with redis so limits hold across
// instances.
func newLimiterStorage() *redisstorage.Storage {
	port, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	if err != nil {
		port = 6379
	}
	return redisstorage.New(redisstorage.Config{
		Host:     env.GetEnv("CACHE_HOST", "localhost"),
		Port:     port,
		Database: 1,
	})
}
