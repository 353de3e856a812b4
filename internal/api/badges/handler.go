// Package badges provides REST API handlers for the badge engine:
// catalog listing, per-user unlock status, explicit re-checks and
// progress reporting.
package badges

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hackboard/badge-engine/internal/models"
	"github.com/hackboard/badge-engine/internal/service/achievements"
	"github.com/hackboard/badge-engine/pkg/logger"
)

// AchievementService interface for unlock engine operations.
type AchievementService interface {
	GetBadgeCatalog(ctx context.Context) ([]models.Badge, error)
	GetBadgeByID(ctx context.Context, badgeID uint) (*models.Badge, error)
	GetUserBadgeStatuses(ctx context.Context, userID uint) ([]achievements.BadgeStatus, error)
	GetProgress(ctx context.Context, userID uint) (*achievements.Progress, error)
	RunUnlockPass(ctx context.Context, userID uint, force bool) (*achievements.UnlockDelta, error)
}

// Notifier interface for forwarding unlock deltas to a notification surface.
type Notifier interface {
	AnnounceUnlocks(username string, delta *achievements.UnlockDelta)
}

// UserService interface for resolving usernames for announcements.
type UserService interface {
	GetByID(id uint) (*models.User, error)
}

// Handler handles badge API requests.
type Handler struct {
	achievementService AchievementService
	userService        UserService
	notifier           Notifier
	log                *logger.Logger
}

// NewHandler creates a new badge API handler.
func NewHandler(achievementService AchievementService, userService UserService, notifier Notifier, log *logger.Logger) *Handler {
	return &Handler{
		achievementService: achievementService,
		userService:        userService,
		notifier:           notifier,
		log:                log,
	}
}

// RegisterRoutes mounts the badge engine routes on a router group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/badges", h.GetBadgeCatalog)
	api.GET("/badges/:id", h.GetBadgeByID)
	api.GET("/users/:id/badges", h.GetUserBadges)
	api.POST("/users/:id/badges/check", h.CheckBadges)
	api.GET("/users/:id/progress", h.GetUserProgress)
}

// GetBadgeCatalog returns all badge definitions.
// GET /api/v1/badges.
func (h *Handler) GetBadgeCatalog(c *gin.Context) {
	catalogBadges, err := h.achievementService.GetBadgeCatalog(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get badge catalog")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve badge catalog")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"badges":       catalogBadges,
		"total_badges": len(catalogBadges),
		"generated_at": time.Now().UTC(),
	})
}

// GetBadgeByID returns details for a specific badge.
// GET /api/v1/badges/:id.
func (h *Handler) GetBadgeByID(c *gin.Context) {
	badgeID, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	badge, err := h.achievementService.GetBadgeByID(c.Request.Context(), badgeID)
	if err != nil {
		if errors.Is(err, models.ErrBadgeNotFound) {
			h.errorResponse(c, http.StatusNotFound, "Badge not found")
			return
		}
		h.log.Error().Err(err).Uint("badge_id", badgeID).Msg("Failed to get badge details")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve badge")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"badge":        badge,
		"generated_at": time.Now().UTC(),
	})
}

// GetUserBadges returns per-badge unlock status for a user. Dangling
// badge references are pruned as part of the read.
// GET /api/v1/users/:id/badges.
func (h *Handler) GetUserBadges(c *gin.Context) {
	userID, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	statuses, err := h.achievementService.GetUserBadgeStatuses(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			h.errorResponse(c, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get user badges")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve user badges")
		return
	}

	unlocked := 0
	for _, s := range statuses {
		if s.Unlocked {
			unlocked++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"badges":       statuses,
		"unlocked":     unlocked,
		"total_badges": len(statuses),
		"generated_at": time.Now().UTC(),
	})
}

// CheckBadges invokes an unlock pass for a user and returns the delta.
// POST /api/v1/users/:id/badges/check?force=true.
func (h *Handler) CheckBadges(c *gin.Context) {
	userID, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	force, err := h.parseForce(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	delta, err := h.achievementService.RunUnlockPass(c.Request.Context(), userID, force)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			h.errorResponse(c, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Unlock pass failed")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to check badges")
		return
	}

	if !delta.Empty() && h.notifier != nil {
		if user, err := h.userService.GetByID(userID); err == nil {
			h.notifier.AnnounceUnlocks(user.Username, delta)
		}
	}

	h.log.Info().
		Uint("user_id", userID).
		Bool("force", force).
		Int("new_badges", len(delta.Badges)).
		Msg("Ran unlock pass")

	c.JSON(http.StatusOK, gin.H{
		"delta":        delta,
		"generated_at": time.Now().UTC(),
	})
}

// GetUserProgress returns aggregate unlock stats for a user.
// GET /api/v1/users/:id/progress.
func (h *Handler) GetUserProgress(c *gin.Context) {
	userID, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	progress, err := h.achievementService.GetProgress(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			h.errorResponse(c, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get user progress")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve progress")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"progress":     progress,
		"generated_at": time.Now().UTC(),
	})
}

// Helper functions

// parseID extracts and validates the numeric ID from the URL parameter.
func (h *Handler) parseID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid ID: %s", idStr)
	}
	return uint(id), nil
}

// parseForce extracts the force query parameter.
func (h *Handler) parseForce(c *gin.Context) (bool, error) {
	forceStr := c.DefaultQuery("force", "false")
	force, err := strconv.ParseBool(forceStr)
	if err != nil {
		return false, fmt.Errorf("invalid force parameter: %s", forceStr)
	}
	return force, nil
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
