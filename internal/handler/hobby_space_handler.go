package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/dto"
	"github.com/grungysync/backend/internal/service"
	"github.com/grungysync/backend/pkg/response"
	"github.com/grungysync/backend/pkg/validator"
)

type HobbySpaceHandler struct {
	service service.HobbySpaceService
}

func NewHobbySpaceHandler(service service.HobbySpaceService) *HobbySpaceHandler {
	return &HobbySpaceHandler{service: service}
}

func (h *HobbySpaceHandler) Create(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateHobbySpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	space, err := h.service.CreateSpace(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, space)
}

func (h *HobbySpaceHandler) Update(c *gin.Context) {
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

	var req dto.UpdateHobbySpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	space, err := h.service.UpdateSpace(c.Request.Context(), userID, spaceID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, space)
}

func (h *HobbySpaceHandler) Delete(c *gin.Context) {
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

	if err := h.service.DeleteSpace(c.Request.Context(), userID, spaceID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "hobby space deleted"})
}

// Get resolves a space by UUID or slug.
func (h *HobbySpaceHandler) Get(c *gin.Context) {
	space, err := h.service.GetSpace(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, space)
}

func (h *HobbySpaceHandler) List(c *gin.Context) {
	spaces, err := h.service.ListSpaces(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"spaces": spaces})
}

func (h *HobbySpaceHandler) ListJoined(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	spaces, err := h.service.ListJoinedSpaces(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"spaces": spaces})
}

func (h *HobbySpaceHandler) Join(c *gin.Context) {
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

	if err := h.service.JoinSpace(c.Request.Context(), userID, spaceID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "joined hobby space"})
}

func (h *HobbySpaceHandler) Leave(c *gin.Context) {
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

	if err := h.service.LeaveSpace(c.Request.Context(), userID, spaceID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left hobby space"})
}
