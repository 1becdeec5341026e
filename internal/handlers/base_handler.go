package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/examstack/exam-service/internal/services"
)

// ErrorResponse is the standard error payload
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse is the standard success payload for operations that
// return no body
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler provides common functionality shared by all handlers
type BaseHandler struct {
	logger *slog.Logger
}

func NewBaseHandler(logger *slog.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs an incoming request with its request ID
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...interface{}) {
	attrs := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	if requestID, exists := c.Get("request_id"); exists {
		attrs = append(attrs, "request_id", requestID)
	}
	attrs = append(attrs, args...)
	h.logger.Info(msg, attrs...)
}

// parseIDParam parses a numeric path parameter. On failure it writes a
// 400 response and returns 0; callers must return immediately.
func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: err.Error(),
		})
		return 0
	}
	return uint(id)
}

// parseIntQuery parses an integer query parameter with a fallback
func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// requireUserID extracts the authenticated user ID from the context.
// On failure it writes a 401 response and returns ""; callers must
// return immediately.
func (h *BaseHandler) requireUserID(c *gin.Context) string {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return ""
	}
	id, ok := userID.(string)
	if !ok || strings.TrimSpace(id) == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return ""
	}
	return id
}

// handleServiceError maps service errors to HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	// Question bank errors
	switch {
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Question not found",
		})
	case errors.Is(err, services.ErrDuplicateQuestion):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Question with the same text already exists in this category",
		})
	case errors.Is(err, services.ErrQuestionInUse):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Question is used by an exam",
		})
	// Exam errors
	case errors.Is(err, services.ErrExamNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Exam not found",
		})
	case errors.Is(err, services.ErrExamInactive):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Exam is not active",
		})
	case errors.Is(err, services.ErrExamHasNoQuestions):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Exam has no questions",
		})
	// Assignment and submission errors
	case errors.Is(err, services.ErrAssignmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Exam is not assigned to this student",
		})
	case errors.Is(err, services.ErrExamAlreadySubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Exam already submitted",
		})
	case errors.Is(err, services.ErrExamNotCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Exam has not been completed",
		})
	// Result errors
	case errors.Is(err, services.ErrResultNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Result not found",
		})
	// User errors
	case errors.Is(err, services.ErrNoStudentsFound):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "No students found to assign",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	// Generic errors
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Unauthorized access",
		})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Forbidden - insufficient permissions",
		})
	default:
		h.logger.Error("Unhandled service error",
			"path", c.Request.URL.Path,
			"error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
