package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/services"
	"github.com/examstack/exam-service/internal/validator"
)

type AssignmentHandler struct {
	BaseHandler
	assignmentService services.AssignmentService
	validator         *validator.Validator
}

func NewAssignmentHandler(
	assignmentService services.AssignmentService,
	validator *validator.Validator,
	logger *slog.Logger,
) *AssignmentHandler {
	return &AssignmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		assignmentService: assignmentService,
		validator:         validator,
	}
}

// AssignExam assigns an exam to all current students
// @Summary Assign exam
// @Description Assigns an exam to every student. Students already holding an assignment are skipped.
// @Tags assignments
// @Accept json
// @Produce json
// @Param request body services.AssignExamRequest true "Assignment data"
// @Success 201 {object} services.AssignExamResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /assignments [post]
func (h *AssignmentHandler) AssignExam(c *gin.Context) {
	h.LogRequest(c, "Assigning exam to all students")

	var req services.AssignExamRequest
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

	result, err := h.assignmentService.AssignToAllStudents(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetAssignment retrieves an assignment by ID
// @Summary Get assignment
// @Description Retrieves an assignment by its ID
// @Tags assignments
// @Accept json
// @Produce json
// @Param id path uint true "Assignment ID"
// @Success 200 {object} services.AssignmentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting assignment", "assignment_id", id)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	assignment, err := h.assignmentService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// ListMyAssignments lists the calling student's assignments
// @Summary List my assignments
// @Description Lists the authenticated student's assignments with status filter
// @Tags assignments
// @Accept json
// @Produce json
// @Param status query string false "Filter by status (pending, completed)"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} services.AssignmentListResponse
// @Failure 500 {object} ErrorResponse
// @Router /assignments/my [get]
func (h *AssignmentHandler) ListMyAssignments(c *gin.Context) {
	h.LogRequest(c, "Listing my assignments")

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	filters := h.parseAssignmentFilters(c)
	assignments, err := h.assignmentService.ListMine(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignments)
}

// ListAssignmentsByExam lists all assignments for an exam
// @Summary List assignments by exam
// @Description Lists all assignments for an exam with status filter
// @Tags assignments
// @Accept json
// @Produce json
// @Param exam_id path uint true "Exam ID"
// @Param status query string false "Filter by status (pending, completed)"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} services.AssignmentListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /assignments/exam/{exam_id} [get]
func (h *AssignmentHandler) ListAssignmentsByExam(c *gin.Context) {
	examID := h.parseIDParam(c, "exam_id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Listing assignments by exam", "exam_id", examID)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	filters := h.parseAssignmentFilters(c)
	assignments, err := h.assignmentService.ListByExam(c.Request.Context(), examID, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignments)
}

// RetryAssignment reopens a completed assignment
// @Summary Grant exam retry
// @Description Reopens a completed assignment so the student can sit the exam again
// @Tags assignments
// @Accept json
// @Produce json
// @Param id path uint true "Assignment ID"
// @Success 200 {object} services.AssignmentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /assignments/{id}/retry [post]
func (h *AssignmentHandler) RetryAssignment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Granting exam retry", "assignment_id", id)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	assignment, err := h.assignmentService.Retry(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

func (h *AssignmentHandler) parseAssignmentFilters(c *gin.Context) repositories.AssignmentFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)

	filters := repositories.AssignmentFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if status := c.Query("status"); status != "" {
		assignmentStatus := models.AssignmentStatus(status)
		filters.Status = &assignmentStatus
	}

	if studentID := c.Query("student_id"); studentID != "" {
		filters.StudentID = &studentID
	}

	return filters
}
