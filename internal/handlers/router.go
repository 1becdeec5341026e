package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/examstack/exam-service/internal/config"
	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/services"
	"github.com/examstack/exam-service/internal/validator"
)

type HandlerManager struct {
	questionHandler   *QuestionHandler
	examHandler       *ExamHandler
	assignmentHandler *AssignmentHandler
	submissionHandler *SubmissionHandler
	resultHandler     *ResultHandler
	authMiddleware    *CasdoorAuthMiddleware
	serviceManager    services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger *slog.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		questionHandler:   NewQuestionHandler(serviceManager.Question(), serviceManager.ImportExport(), validator, logger),
		examHandler:       NewExamHandler(serviceManager.Exam(), validator, logger),
		assignmentHandler: NewAssignmentHandler(serviceManager.Assignment(), validator, logger),
		submissionHandler: NewSubmissionHandler(serviceManager.Submission(), validator, logger),
		resultHandler:     NewResultHandler(serviceManager.Result(), serviceManager.ImportExport(), logger),
		authMiddleware:    authMiddleware,
		serviceManager:    serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware()) // Apply authentication to all API routes
	{
		// Question bank routes
		questions := v1.Group("/questions")
		{
			// Manage questions - Teachers and Admins only
			questions.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.questionHandler.CreateQuestion)
			questions.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.questionHandler.DeleteQuestion)
			questions.DELETE("/batch", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.questionHandler.DeleteQuestionsBatch)
			questions.POST("/import", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.questionHandler.ImportQuestions)

			// View questions - Teachers and Admins only (students never see the bank)
			questions.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.questionHandler.ListQuestions)
			questions.GET("/categories", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.questionHandler.GetCategories)
			questions.GET("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.questionHandler.GetQuestion)
		}

		// Exam routes
		exams := v1.Group("/exams")
		{
			// Manage exams - Teachers and Admins only
			exams.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.examHandler.CreateExam)
			exams.PUT("/:id/status", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.examHandler.UpdateExamStatus)
			exams.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.examHandler.DeleteExam)

			// View exams - All authenticated users
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/:id", hm.examHandler.GetExam)

			// Details carry the answer key - Teachers and Admins only
			exams.GET("/:id/details", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.examHandler.GetExamWithDetails)
			exams.GET("/:id/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.examHandler.GetExamStats)

			// Exam taking - Students only
			exams.POST("/:id/start", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.submissionHandler.StartExam)
			exams.POST("/:id/submit", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.submissionHandler.SubmitExam)
			exams.GET("/:id/status", hm.submissionHandler.GetSubmissionStatus)
		}

		// Assignment routes
		assignments := v1.Group("/assignments")
		{
			// Fan-out and retry - Teachers and Admins only
			assignments.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.assignmentHandler.AssignExam)
			assignments.POST("/:id/retry", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.assignmentHandler.RetryAssignment)
			assignments.GET("/exam/:exam_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.assignmentHandler.ListAssignmentsByExam)
			assignments.GET("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.assignmentHandler.GetAssignment)

			// Own assignments - Students only
			assignments.GET("/my", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.assignmentHandler.ListMyAssignments)
		}

		// Result routes
		results := v1.Group("/results")
		{
			// Own results - Students only
			results.GET("/history", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.resultHandler.GetResultHistory)
			results.GET("/summary", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.resultHandler.GetResultSummary)
			results.GET("/:exam_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.resultHandler.GetMyResult)
			results.GET("/:exam_id/review", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.resultHandler.GetResultReview)

			// Reporting - Teachers and Admins only
			results.GET("/exam/:exam_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.resultHandler.GetResultsByExam)
			results.GET("/exam/:exam_id/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.resultHandler.ExportResults)
		}
	}

	// Health check endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "exam-service",
		})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})
}
