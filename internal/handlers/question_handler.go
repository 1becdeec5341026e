package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/services"
	"github.com/examstack/exam-service/internal/validator"
)

type QuestionHandler struct {
	BaseHandler
	questionService     services.QuestionService
	importExportService services.ImportExportService
	validator           *validator.Validator
}

func NewQuestionHandler(
	questionService services.QuestionService,
	importExportService services.ImportExportService,
	validator *validator.Validator,
	logger *slog.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:         NewBaseHandler(logger),
		questionService:     questionService,
		importExportService: importExportService,
		validator:           validator,
	}
}

// CreateQuestion creates a new question
// @Summary Create question
// @Description Creates a new question with its answer options
// @Tags questions
// @Accept json
// @Produce json
// @Param question body services.CreateQuestionRequest true "Question data"
// @Success 201 {object} services.QuestionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	h.LogRequest(c, "Creating question")

	var req services.CreateQuestionRequest
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

	question, err := h.questionService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// GetQuestion retrieves a question by ID
// @Summary Get question
// @Description Retrieves a question with its options and usage flag
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "Question ID"
// @Success 200 {object} services.QuestionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting question", "question_id", id)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// UpdateQuestion updates a question
// @Summary Update question
// @Description Replaces a question's content and options
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "Question ID"
// @Param question body services.UpdateQuestionRequest true "Question data"
// @Success 200 {object} services.QuestionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /questions/{id} [put]
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating question", "question_id", id)

	var req services.UpdateQuestionRequest
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

	question, err := h.questionService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// DeleteQuestion deletes a question
// @Summary Delete question
// @Description Deletes a question and its options
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "Question ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /questions/{id} [delete]
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting question", "question_id", id)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Question deleted successfully",
	})
}

// DeleteQuestionsBatch deletes multiple questions
// @Summary Delete questions (batch)
// @Description Deletes multiple questions in a single operation
// @Tags questions
// @Accept json
// @Produce json
// @Param request body services.BulkDeleteRequest true "Question IDs"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /questions/batch [delete]
func (h *QuestionHandler) DeleteQuestionsBatch(c *gin.Context) {
	h.LogRequest(c, "Deleting questions (batch)")

	var req services.BulkDeleteRequest
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

	if err := h.questionService.DeleteBatch(c.Request.Context(), &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Questions deleted successfully",
	})
}

// ListQuestions lists questions with filters
// @Summary List questions
// @Description Lists questions with category, search and pagination filters
// @Tags questions
// @Accept json
// @Produce json
// @Param category query string false "Filter by category"
// @Param search query string false "Search in question text"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} services.QuestionListResponse
// @Failure 500 {object} ErrorResponse
// @Router /questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	h.LogRequest(c, "Listing questions")

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	filters := h.parseQuestionFilters(c)
	questions, err := h.questionService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// GetCategories lists the distinct question categories
// @Summary Get categories
// @Description Lists all distinct question categories
// @Tags questions
// @Accept json
// @Produce json
// @Success 200 {object} map[string][]string
// @Failure 500 {object} ErrorResponse
// @Router /questions/categories [get]
func (h *QuestionHandler) GetCategories(c *gin.Context) {
	h.LogRequest(c, "Getting question categories")

	categories, err := h.questionService.Categories(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// ImportQuestions imports questions from an uploaded spreadsheet
// @Summary Import questions
// @Description Imports questions from an xlsx file. Invalid rows are reported per row without failing the batch.
// @Tags questions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Questions workbook (xlsx)"
// @Success 200 {object} services.ImportQuestionsResult
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /questions/import [post]
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	h.LogRequest(c, "Importing questions")

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to open uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	result, err := h.importExportService.ImportQuestions(c.Request.Context(), file, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *QuestionHandler) parseQuestionFilters(c *gin.Context) repositories.QuestionFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)

	filters := repositories.QuestionFilters{
		Search:    c.Query("search"),
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if category := c.Query("category"); category != "" {
		filters.Category = &category
	}

	if creatorID := c.Query("creator_id"); creatorID != "" {
		filters.CreatedBy = &creatorID
	}

	return filters
}
