package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/services"
)

type ResultHandler struct {
	BaseHandler
	resultService       services.ResultService
	importExportService services.ImportExportService
}

func NewResultHandler(
	resultService services.ResultService,
	importExportService services.ImportExportService,
	logger *slog.Logger,
) *ResultHandler {
	return &ResultHandler{
		BaseHandler:         NewBaseHandler(logger),
		resultService:       resultService,
		importExportService: importExportService,
	}
}

// GetResultHistory lists the calling student's results
// @Summary Get result history
// @Description Lists the authenticated student's exam results
// @Tags results
// @Accept json
// @Produce json
// @Param outcome query string false "Filter by outcome (pass, fail)"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} services.ResultListResponse
// @Failure 500 {object} ErrorResponse
// @Router /results/history [get]
func (h *ResultHandler) GetResultHistory(c *gin.Context) {
	h.LogRequest(c, "Getting result history")

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	filters := h.parseResultFilters(c)
	results, err := h.resultService.GetHistory(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// GetResultSummary returns the calling student's aggregate summary
// @Summary Get result summary
// @Description Returns assignment and pass/fail counts for the authenticated student
// @Tags results
// @Accept json
// @Produce json
// @Success 200 {object} repositories.StudentSummary
// @Failure 500 {object} ErrorResponse
// @Router /results/summary [get]
func (h *ResultHandler) GetResultSummary(c *gin.Context) {
	h.LogRequest(c, "Getting result summary")

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	summary, err := h.resultService.GetSummary(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetMyResult returns the calling student's result for an exam
// @Summary Get my result
// @Description Returns the authenticated student's result for an exam
// @Tags results
// @Accept json
// @Produce json
// @Param exam_id path uint true "Exam ID"
// @Success 200 {object} services.ResultResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /results/{exam_id} [get]
func (h *ResultHandler) GetMyResult(c *gin.Context) {
	examID := h.parseIDParam(c, "exam_id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Getting my result", "exam_id", examID)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	result, err := h.resultService.GetMyResult(c.Request.Context(), examID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetResultReview returns the per-question breakdown of a completed exam
// @Summary Get result review
// @Description Returns each question with the student's answer and the answer key, in exam order
// @Tags results
// @Accept json
// @Produce json
// @Param exam_id path uint true "Exam ID"
// @Success 200 {object} services.ReviewResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /results/{exam_id}/review [get]
func (h *ResultHandler) GetResultReview(c *gin.Context) {
	examID := h.parseIDParam(c, "exam_id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Getting result review", "exam_id", examID)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	review, err := h.resultService.GetReview(c.Request.Context(), examID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// GetResultsByExam lists all results for an exam
// @Summary Get results by exam
// @Description Lists all student results for an exam
// @Tags results
// @Accept json
// @Produce json
// @Param exam_id path uint true "Exam ID"
// @Param outcome query string false "Filter by outcome (pass, fail)"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} services.ResultListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /results/exam/{exam_id} [get]
func (h *ResultHandler) GetResultsByExam(c *gin.Context) {
	examID := h.parseIDParam(c, "exam_id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Getting results by exam", "exam_id", examID)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	filters := h.parseResultFilters(c)
	results, err := h.resultService.GetByExam(c.Request.Context(), examID, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// ExportResults streams an exam's results as an xlsx workbook
// @Summary Export exam results
// @Description Streams all results for an exam as an xlsx download
// @Tags results
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param exam_id path uint true "Exam ID"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /results/exam/{exam_id}/export [get]
func (h *ResultHandler) ExportResults(c *gin.Context) {
	examID := h.parseIDParam(c, "exam_id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Exporting exam results", "exam_id", examID)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	filename := fmt.Sprintf("exam_%d_results.xlsx", examID)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.importExportService.ExportResults(c.Request.Context(), examID, userID, c.Writer); err != nil {
		// Headers may already be written; reset them before the error body
		c.Header("Content-Type", "application/json")
		c.Header("Content-Disposition", "")
		h.handleServiceError(c, err)
		return
	}
}

func (h *ResultHandler) parseResultFilters(c *gin.Context) repositories.ResultFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)

	filters := repositories.ResultFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if outcome := c.Query("outcome"); outcome != "" {
		examOutcome := models.ExamOutcome(outcome)
		filters.Outcome = &examOutcome
	}

	if dateFromStr := c.Query("date_from"); dateFromStr != "" {
		if dateFrom, err := time.Parse(time.RFC3339, dateFromStr); err == nil {
			filters.DateFrom = &dateFrom
		}
	}

	if dateToStr := c.Query("date_to"); dateToStr != "" {
		if dateTo, err := time.Parse(time.RFC3339, dateToStr); err == nil {
			filters.DateTo = &dateTo
		}
	}

	return filters
}
