package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/crafthaven/crafthaven/internal/pkg/cache"
	"github.com/crafthaven/crafthaven/internal/pkg/database"
	"github.com/crafthaven/crafthaven/internal/pkg/env"
	"github.com/crafthaven/crafthaven/internal/pkg/middleware"
	"github.com/crafthaven/crafthaven/internal/pkg/router"
	"github.com/crafthaven/crafthaven/internal/pkg/reminder"
)

func main() {
	app, runner := NewApplication()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		runner.Stop()
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, *reminder.Runner) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	app := fiber.New(fiber.Config{
		AppName: "crafthaven",
	})

	// recovery, logging and the edge identity
	app.Use(recover.New(), logger.New(), middleware.UserContextMiddleware)

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// the service worker delivery agent
	app.Static("/", "./public")

	// ROUTER
	router.InstallRouter(app)

	// in-process reminder schedule; the /api/internal trigger stays available
	// for external cron setups
	interval := time.Hour
	if v := env.GetEnv("REMINDER_INTERVAL_MINUTES", ""); v != "" {
		if minutes, err := time.ParseDuration(v + "m"); err == nil {
			interval = minutes
		}
	}
	runner := reminder.NewRunner(router.GetScheduler(), interval)
	runner.Start()

	return app, runner
}
