package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codearena/judge/internal/domain"
	"github.com/codearena/judge/internal/middleware"
	"github.com/codearena/judge/internal/service"
)

// DiscussionHandler handles discussion-related HTTP requests
type DiscussionHandler struct {
	discussionService *service.DiscussionService
}

// NewDiscussionHandler creates a new discussion handler
func NewDiscussionHandler(discussionService *service.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{
		discussionService: discussionService,
	}
}

// GetDiscussions returns a problem's discussion threads, newest first
// GET /discussions/:problemId
func (h *DiscussionHandler) GetDiscussions(c *gin.Context) {
	problemID := c.Param("problemId")

	discussions, err := h.discussionService.GetDiscussions(c.Request.Context(), problemID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve discussions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"discussions": discussions,
	})
}

// PostDiscussion creates a new thread under a problem
// POST /discussions/:problemId
func (h *DiscussionHandler) PostDiscussion(c *gin.Context) {
	problemID := c.Param("problemId")

	var req domain.PostDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if userID, ok := middleware.GetUserID(c); ok {
		req.UserID = userID
	}

	discussion, err := h.discussionService.PostDiscussion(c.Request.Context(), problemID, &req)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyDiscussionContent) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Discussion content must not be empty",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to post discussion",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"discussion": discussion,
	})
}
