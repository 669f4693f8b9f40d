package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codearena/judge/internal/domain"
	"github.com/codearena/judge/internal/middleware"
	"github.com/codearena/judge/internal/service"
)

// ContestHandler handles contest-related HTTP requests
type ContestHandler struct {
	contestService *service.ContestService
}

// NewContestHandler creates a new contest handler
func NewContestHandler(contestService *service.ContestService) *ContestHandler {
	return &ContestHandler{
		contestService: contestService,
	}
}

// GetContests returns all contests with wall-clock-derived status
// GET /contests
func (h *ContestHandler) GetContests(c *gin.Context) {
	contests, err := h.contestService.GetContests(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve contests",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contests": contests,
	})
}

// JoinContest registers the user for a contest
// POST /contests/:id/join
func (h *ContestHandler) JoinContest(c *gin.Context) {
	contestID := c.Param("id")

	var req domain.JoinContestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if userID, ok := middleware.GetUserID(c); ok {
		req.UserID = userID
	}

	joined, err := h.contestService.JoinContest(c.Request.Context(), contestID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrContestNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Contest not found",
			})
		case errors.Is(err, domain.ErrContestEnded):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Contest has already ended",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to join contest",
			})
		}
		return
	}

	message := "Joined contest"
	if !joined {
		message = "Already registered for this contest"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"joined":  joined,
		"message": message,
	})
}
