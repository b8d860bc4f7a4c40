package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/crafthaven/crafthaven/app/repository"
	"github.com/crafthaven/crafthaven/internal/pkg/cache"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

const (
	notificationPageSize   = 20
	unreadCountCacheExpiry = 5 * time.Minute
)

// NotificationController exposes a user's notification log. Rows are
// append-only; the only mutation offered is flipping the read flag.
type NotificationController struct {
	notifications repository.NotificationRepository
}

func NewNotificationController(notifications repository.NotificationRepository) *NotificationController {
	return &NotificationController{notifications: notifications}
}

// HandleList returns the user's notifications, newest first.
func (nc *NotificationController) HandleList(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == 0 {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * notificationPageSize

	notifications, err := nc.notifications.ListForUser(userID, offset, notificationPageSize)
	if err != nil {
		log.Errorf("[notifications] listing for user %d failed: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "could not load notifications")
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"page":          page,
		"page_size":     notificationPageSize,
	})
}

// HandleUnreadCount returns the unread counter, served from the cache when
// warm and recomputed on miss.
func (nc *NotificationController) HandleUnreadCount(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == 0 {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}

	key := cache.UnreadCountKey(userID)
	if count, err := cache.GetInt64(key); err == nil {
		return c.JSON(fiber.Map{"unread": count})
	}

	count, err := nc.notifications.CountUnread(userID)
	if err != nil {
		log.Errorf("[notifications] counting unread for user %d failed: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "could not count notifications")
	}
	if err := cache.Set(key, count, unreadCountCacheExpiry); err != nil {
		log.Debugf("[notifications] caching unread count for user %d failed: %v", userID, err)
	}
	return c.JSON(fiber.Map{"unread": count})
}

// HandleMarkRead flips the read flag of one owned notification.
func (nc *NotificationController) HandleMarkRead(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == 0 {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}

	notificationID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid notification id")
	}

	if err := nc.notifications.MarkAsRead(userID, uint(notificationID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "notification not found")
		}
		log.Errorf("[notifications] marking %d read for user %d failed: %v", notificationID, userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "could not update notification")
	}

	if err := cache.Delete(cache.UnreadCountKey(userID)); err != nil {
		log.Debugf("[notifications] unread invalidation for user %d failed: %v", userID, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleMarkAllRead flips every unread notification of the user.
func (nc *NotificationController) HandleMarkAllRead(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == 0 {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}

	if err := nc.notifications.MarkAllAsRead(userID); err != nil {
		log.Errorf("[notifications] marking all read for user %d failed: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "could not update notifications")
	}

	if err := cache.Delete(cache.UnreadCountKey(userID)); err != nil {
		log.Debugf("[notifications] unread invalidation for user %d failed: %v", userID, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
