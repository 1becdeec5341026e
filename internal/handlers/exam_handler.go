package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/services"
	"github.com/examstack/exam-service/internal/validator"
)

type ExamHandler struct {
	BaseHandler
	examService services.ExamService
	validator   *validator.Validator
}

func NewExamHandler(
	examService services.ExamService,
	validator *validator.Validator,
	logger *slog.Logger,
) *ExamHandler {
	return &ExamHandler{
		BaseHandler: NewBaseHandler(logger),
		examService: examService,
		validator:   validator,
	}
}

// CreateExam creates a new exam
// @Summary Create exam
// @Description Creates an exam from an ordered list of question IDs
// @Tags exams
// @Accept json
// @Produce json
// @Param exam body services.CreateExamRequest true "Exam data"
// @Success 201 {object} services.ExamResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /exams [post]
func (h *ExamHandler) CreateExam(c *gin.Context) {
	h.LogRequest(c, "Creating exam")

	var req services.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exam)
}

// GetExam retrieves an exam by ID
// @Summary Get exam
// @Description Retrieves an exam without its question list
// @Tags exams
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} services.ExamResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /exams/{id} [get]
func (h *ExamHandler) GetExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting exam", "exam_id", id)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// GetExamWithDetails retrieves an exam with its full question list,
// including the answer key. Teacher and admin only; students take exams
// through the start endpoint.
// @Summary Get exam with details
// @Description Retrieves an exam with its ordered questions and options
// @Tags exams
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} services.ExamResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /exams/{id}/details [get]
func (h *ExamHandler) GetExamWithDetails(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting exam with details", "exam_id", id)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	exam, err := h.examService.GetByIDWithDetails(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// ListExams lists exams with filters
// @Summary List exams
// @Description Lists exams with status, category and pagination filters
// @Tags exams
// @Accept json
// @Produce json
// @Param is_active query bool false "Filter by active status"
// @Param category query string false "Filter by category"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} services.ExamListResponse
// @Failure 500 {object} ErrorResponse
// @Router /exams [get]
func (h *ExamHandler) ListExams(c *gin.Context) {
	h.LogRequest(c, "Listing exams")

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	filters := h.parseExamFilters(c)
	exams, err := h.examService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exams)
}

// UpdateExamStatus activates or deactivates an exam
// @Summary Update exam status
// @Description Sets the exam's active flag
// @Tags exams
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Param status body services.ExamStatusRequest true "Status data"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /exams/{id}/status [put]
func (h *ExamHandler) UpdateExamStatus(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating exam status", "exam_id", id)

	var req services.ExamStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	if err := h.examService.SetActive(c.Request.Context(), id, *req.IsActive, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exam status updated successfully",
	})
}

// DeleteExam deletes an exam
// @Summary Delete exam
// @Description Deletes an exam; bank questions are left in place
// @Tags exams
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /exams/{id} [delete]
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting exam", "exam_id", id)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exam deleted successfully",
	})
}

// GetExamStats returns aggregate statistics for an exam
// @Summary Get exam statistics
// @Description Returns assignment counts, pass rate and score aggregates
// @Tags exams
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} repositories.ExamStats
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /exams/{id}/stats [get]
func (h *ExamHandler) GetExamStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting exam stats", "exam_id", id)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	stats, err := h.examService.GetStats(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *ExamHandler) parseExamFilters(c *gin.Context) repositories.ExamFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)

	filters := repositories.ExamFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if isActiveStr := c.Query("is_active"); isActiveStr != "" {
		if isActive, err := strconv.ParseBool(isActiveStr); err == nil {
			filters.IsActive = &isActive
		}
	}

	if category := c.Query("category"); category != "" {
		filters.Category = &category
	}

	if creatorID := c.Query("creator_id"); creatorID != "" {
		filters.CreatedBy = &creatorID
	}

	return filters
}
