package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examstack/exam-service/internal/services"
	"github.com/examstack/exam-service/internal/validator"
)

type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
	validator         *validator.Validator
}

func NewSubmissionHandler(
	submissionService services.SubmissionService,
	validator *validator.Validator,
	logger *slog.Logger,
) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
		validator:         validator,
	}
}

// StartExam opens an exam for taking
// @Summary Start exam
// @Description Returns the exam questions without correctness information and starts the clock
// @Tags taking
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} services.TakeExamResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /exams/{id}/start [post]
func (h *SubmissionHandler) StartExam(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Starting exam", "exam_id", examID)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	exam, err := h.submissionService.Start(c.Request.Context(), examID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// SubmitExam submits answers for scoring
// @Summary Submit exam
// @Description Scores the submitted answers and completes the assignment. Exactly one submission per assignment wins.
// @Tags taking
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Param submission body services.SubmitExamRequest true "Answers keyed by question ID"
// @Success 200 {object} services.SubmitExamResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /exams/{id}/submit [post]
func (h *SubmissionHandler) SubmitExam(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Submitting exam", "exam_id", examID)

	var req services.SubmitExamRequest
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

	result, err := h.submissionService.Submit(c.Request.Context(), examID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSubmissionStatus reports where the student stands with an exam
// @Summary Get submission status
// @Description Reports the assignment status and whether the exam was submitted
// @Tags taking
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} services.SubmissionStatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /exams/{id}/status [get]
func (h *SubmissionHandler) GetSubmissionStatus(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Getting submission status", "exam_id", examID)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	status, err := h.submissionService.Status(c.Request.Context(), examID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
