package controllers

import (
	"crypto/subtle"

	"github.com/crafthaven/crafthaven/internal/pkg/metrics/counter"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// MetricsController reports push delivery counters on the internal surface,
// guarded by the same shared secret as the reminder trigger.
type MetricsController struct {
	secret string
}

func NewMetricsController(secret string) *MetricsController {
	return &MetricsController{secret: secret}
}

// HandleDeliverySnapshot returns delivery outcome counters grouped by type.
func (mc *MetricsController) HandleDeliverySnapshot(c *fiber.Ctx) error {
	supplied := c.Query("secret")
	if mc.secret == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(mc.secret)) != 1 {
		return jsonError(c, fiber.StatusUnauthorized, "invalid trigger secret")
	}

	snapshot, err := counter.Snapshot()
	if err != nil {
		log.Errorf("[metrics] reading delivery counters failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "could not read counters")
	}
	return c.JSON(snapshot)
}
