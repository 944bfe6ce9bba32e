package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/service"
	"github.com/grungysync/backend/pkg/response"
)

type ProgressHandler struct {
	progress service.ProgressService
	badges   service.BadgeService
	streaks  service.StreakService
}

func NewProgressHandler(progress service.ProgressService, badges service.BadgeService, streaks service.StreakService) *ProgressHandler {
	return &ProgressHandler{progress: progress, badges: badges, streaks: streaks}
}

func (h *ProgressHandler) Dashboard(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	dashboard, err := h.progress.Dashboard(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

func (h *ProgressHandler) GetBaseline(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	baseline, err := h.progress.GetBaseline(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, baseline)
}

func (h *ProgressHandler) RefreshBaseline(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	baseline, err := h.progress.RefreshBaseline(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, baseline)
}

func (h *ProgressHandler) SpaceAnalytics(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	spaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hobby space id"})
		return
	}

	analytics, err := h.progress.SpaceAnalytics(c.Request.Context(), userID, spaceID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

func (h *ProgressHandler) ImprovementScore(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	score, err := h.progress.ImprovementScore(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, score)
}

func (h *ProgressHandler) ListBadges(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var spaceID *uuid.UUID
	if raw := c.Query("hobby_space_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hobby space id"})
			return
		}
		spaceID = &id
	}

	badges, err := h.badges.GetUserBadges(c.Request.Context(), userID, spaceID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"badges": badges})
}

func (h *ProgressHandler) ListStreaks(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	streaks, err := h.streaks.GetUserStreaks(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"streaks": streaks})
}

func (h *ProgressHandler) GetSpaceStreak(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	spaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hobby space id"})
		return
	}

	streak, err := h.streaks.GetStreakForSpace(c.Request.Context(), userID, spaceID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, streak)
}
