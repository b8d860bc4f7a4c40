package router

import (
	"log"
	"strings"
	"sync"

	"github.com/crafthaven/crafthaven/app/repository"
	"github.com/crafthaven/crafthaven/internal/pkg/database"
	"github.com/crafthaven/crafthaven/internal/pkg/env"
	"github.com/crafthaven/crafthaven/internal/pkg/gateway"
	"github.com/crafthaven/crafthaven/internal/pkg/orders"
	"github.com/crafthaven/crafthaven/internal/pkg/push"
	"github.com/crafthaven/crafthaven/internal/pkg/reminder"
	"github.com/gofiber/fiber/v2"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// dependencies is the wired object graph shared by all routers. Everything
// config-dependent is constructed exactly once at startup so missing merchant
// or VAPID credentials abort the boot instead of failing per request.
type dependencies struct {
	repos      *repository.Repositories
	dispatcher *push.Dispatcher
	verifier   *gateway.Verifier
	committer  *gateway.Committer
	scheduler  *reminder.Scheduler
}

var (
	depsOnce   sync.Once
	sharedDeps *dependencies
)

func getDependencies() *dependencies {
	depsOnce.Do(func() {
		db := database.GetDB()
		repos := repository.NewFactory(db).GetRepositories()

		sender, err := push.NewWebPushSender(push.VAPIDConfig{
			PublicKey:  env.GetEnv("VAPID_PUBLIC_KEY", ""),
			PrivateKey: env.GetEnv("VAPID_PRIVATE_KEY", ""),
			Subscriber: env.GetEnv("VAPID_SUBSCRIBER", "mailto:ops@crafthaven.io"),
		})
		if err != nil {
			log.Fatalf("push sender configuration: %v", err)
		}
		dispatcher := push.NewDispatcher(repos.Notification, repos.PushSubscription, repos.User, sender)

		verifier, err := gateway.NewVerifier(gateway.Config{
			MerchantKey:  env.GetEnv("PAYMENT_MERCHANT_KEY", ""),
			MerchantSalt: env.GetEnv("PAYMENT_MERCHANT_SALT", ""),
		})
		if err != nil {
			log.Fatalf("payment gateway configuration: %v", err)
		}

		committer := gateway.NewCommitter(
			repos.Transaction,
			repos.Order,
			orders.NewPlacer(db),
			dispatcher,
			strings.Split(env.GetEnv("PAYMENT_WAIVER_DOMAINS", ""), ","),
		)

		sharedDeps = &dependencies{
			repos:      repos,
			dispatcher: dispatcher,
			verifier:   verifier,
			committer:  committer,
			scheduler:  reminder.NewScheduler(repos.Reminder, repos.Cart, repos.User, dispatcher),
		}
	})
	return sharedDeps
}

// InstallRouter wires the full HTTP surface onto the app.
func InstallRouter(app *fiber.App) {
	deps := getDependencies()
	setup(app, NewWebhookRouter(deps), NewApiRouter(deps))
}

// GetScheduler exposes the wired scheduler for the in-process runner.
func GetScheduler() *reminder.Scheduler {
	return getDependencies().scheduler
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
