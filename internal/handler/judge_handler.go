package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codearena/judge/internal/domain"
	"github.com/codearena/judge/internal/middleware"
	"github.com/codearena/judge/internal/service"
)

// JudgeHandler handles code execution and submission HTTP requests
type JudgeHandler struct {
	judgeService *service.JudgeService
}

// NewJudgeHandler creates a new judge handler
func NewJudgeHandler(judgeService *service.JudgeService) *JudgeHandler {
	return &JudgeHandler{
		judgeService: judgeService,
	}
}

// ExecuteCode judges code against visible test cases only
// POST /execute-code
func (h *JudgeHandler) ExecuteCode(c *gin.Context) {
	var req domain.ExecuteCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	resp, err := h.judgeService.ExecuteCode(c.Request.Context(), &req)
	if err != nil {
		h.writeJudgeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitCode judges code against the full test-case set and persists the verdict
// POST /submit-code
func (h *JudgeHandler) SubmitCode(c *gin.Context) {
	var req domain.SubmitCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	// A bearer token wins over whatever user the body claims
	if userID, ok := middleware.GetUserID(c); ok {
		req.UserID = userID
	}

	resp, err := h.judgeService.SubmitCode(c.Request.Context(), &req)
	if err != nil {
		h.writeJudgeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSubmissions returns the retained history for a problem, newest first
// GET /submissions/:problemId
func (h *JudgeHandler) GetSubmissions(c *gin.Context) {
	problemID := c.Param("problemId")

	submissions, err := h.judgeService.GetSubmissions(c.Request.Context(), problemID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve submissions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": submissions,
	})
}

// GetLeaderboard returns a problem or contest ranking
// GET /leaderboard/:type/:id
func (h *JudgeHandler) GetLeaderboard(c *gin.Context) {
	boardType := domain.LeaderboardType(c.Param("type"))
	id := c.Param("id")

	leaderboard, err := h.judgeService.GetLeaderboard(c.Request.Context(), boardType, id)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidLeaderboardType) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Leaderboard type must be problem or contest",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve leaderboard",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard": leaderboard,
	})
}

// GetUserStats returns the user's aggregate counters
// GET /user-stats?userId=
func (h *JudgeHandler) GetUserStats(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		userID, _ = middleware.GetUserID(c)
	}

	stats, err := h.judgeService.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve user stats",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": stats,
	})
}

// writeJudgeError maps judge errors to HTTP responses. A malformed
// submission is the client's fault and never reaches persistence.
func (h *JudgeHandler) writeJudgeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrMalformedSubmission):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Code, language and test cases are required",
			"status": domain.StatusCompilationError,
		})
	case errors.Is(err, domain.ErrProblemNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Problem not found",
		})
	case errors.Is(err, domain.ErrExecutorUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Execution backend unavailable",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to judge submission",
		})
	}
}
