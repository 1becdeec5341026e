package services

import (
	"context"
	"io"
	"time"

	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type BulkDeleteRequest = validator.BulkDeleteRequest
type CreateExamRequest = validator.ExamCreateRequest
type ExamStatusRequest = validator.ExamStatusRequest
type AssignExamRequest = validator.AssignExamRequest
type SubmitExamRequest = validator.SubmitExamRequest

type QuestionResponse struct {
	*models.Question
	UsedInExams bool `json:"used_in_exams"`
}

type QuestionListResponse struct {
	Questions []*QuestionResponse `json:"questions"`
	Total     int64               `json:"total"`
	Page      int                 `json:"page"`
	Size      int                 `json:"size"`
}

type ExamResponse struct {
	*models.Exam
}

type ExamListResponse struct {
	Exams []*ExamResponse `json:"exams"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

type AssignmentResponse struct {
	*models.Assignment
}

type AssignmentListResponse struct {
	Assignments []*AssignmentResponse `json:"assignments"`
	Total       int64                 `json:"total"`
	Page        int                   `json:"page"`
	Size        int                   `json:"size"`
}

type AssignExamResponse struct {
	ExamID        uint `json:"exam_id"`
	AssignedCount int  `json:"assigned_count"`
	SkippedCount  int  `json:"skipped_count"`
}

// ===== TAKING RELATED DTOs =====

// TakeExamResponse is the payload handed to a student who opens an
// exam. Questions carry no correctness information.
type TakeExamResponse struct {
	ExamID          uint                   `json:"exam_id"`
	Title           string                 `json:"title"`
	DurationMinutes int                    `json:"duration_minutes"`
	QuestionCount   int                    `json:"question_count"`
	Questions       []models.TakerQuestion `json:"questions"`
	StartedAt       time.Time              `json:"started_at"`
}

type SubmitExamResponse struct {
	ExamID           uint               `json:"exam_id"`
	Score            int                `json:"score"`
	TotalQuestions   int                `json:"total_questions"`
	Percentage       float64            `json:"percentage"`
	Result           models.ExamOutcome `json:"result"`
	CorrectAnswers   int                `json:"correct_answers"`
	WrongAnswers     int                `json:"wrong_answers"`
	TimeTakenSeconds int                `json:"time_taken_seconds"`

	// Per-question breakdown of the sitting, one entry per exam
	// question in exam order.
	Review []ReviewItem `json:"review"`
}

type SubmissionStatusResponse struct {
	ExamID    uint                    `json:"exam_id"`
	Status    models.AssignmentStatus `json:"status"`
	StartedAt *time.Time              `json:"started_at"`
	Submitted bool                    `json:"submitted"`
}

// ===== RESULT RELATED DTOs =====

type ResultResponse struct {
	*models.ExamResult
}

type ResultListResponse struct {
	Results []*ResultResponse `json:"results"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
}

// ReviewItem is one question of a completed exam with the student's
// answer and the key. Only available after submission.
type ReviewItem struct {
	QuestionID       uint                 `json:"question_id"`
	QuestionText     string               `json:"question_text"`
	Options          []models.TakerOption `json:"options"`
	SelectedOptionID *uint                `json:"selected_option_id"`
	CorrectOptionID  *uint                `json:"correct_option_id"`
	Answered         bool                 `json:"answered"`
	IsCorrect        bool                 `json:"is_correct"`
}

type ReviewResponse struct {
	ExamID     uint               `json:"exam_id"`
	ExamTitle  string             `json:"exam_title"`
	Score      int                `json:"score"`
	Total      int                `json:"total_questions"`
	Percentage float64            `json:"percentage"`
	Result     models.ExamOutcome `json:"result"`
	Items      []ReviewItem       `json:"items"`
}

// ===== IMPORT/EXPORT DTOs =====

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportQuestionsResult struct {
	InsertedCount int              `json:"inserted_count"`
	SkippedCount  int              `json:"skipped_count"`
	Errors        []ImportRowError `json:"errors"`
}

// ===== SERVICE INTERFACES =====

type QuestionService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*QuestionResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*QuestionResponse, error)
	Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*QuestionResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	// Bulk operations
	DeleteBatch(ctx context.Context, req *BulkDeleteRequest, userID string) error

	// List and search operations
	List(ctx context.Context, filters repositories.QuestionFilters, userID string) (*QuestionListResponse, error)
	Categories(ctx context.Context) ([]string, error)
}

type ExamService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateExamRequest, creatorID string) (*ExamResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*ExamResponse, error)
	GetByIDWithDetails(ctx context.Context, id uint, userID string) (*ExamResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	// List operations
	List(ctx context.Context, filters repositories.ExamFilters, userID string) (*ExamListResponse, error)

	// Status management
	SetActive(ctx context.Context, id uint, active bool, userID string) error

	// Statistics
	GetStats(ctx context.Context, id uint, userID string) (*repositories.ExamStats, error)
}

type AssignmentService interface {
	// AssignToAllStudents fans the exam out to every current student.
	// Students who already hold an assignment for the exam are skipped.
	AssignToAllStudents(ctx context.Context, req *AssignExamRequest, assignerID string) (*AssignExamResponse, error)

	// Get operations
	GetByID(ctx context.Context, id uint, userID string) (*AssignmentResponse, error)
	GetByExamAndStudent(ctx context.Context, examID uint, studentID string) (*AssignmentResponse, error)

	// List operations
	ListMine(ctx context.Context, studentID string, filters repositories.AssignmentFilters) (*AssignmentListResponse, error)
	ListByExam(ctx context.Context, examID uint, filters repositories.AssignmentFilters, userID string) (*AssignmentListResponse, error)

	// Retry reopens a completed assignment so the student can sit the
	// exam again. The previous result stays until resubmission replaces it.
	Retry(ctx context.Context, assignmentID uint, grantedBy string) (*AssignmentResponse, error)
}

type SubmissionService interface {
	// Start returns the taking payload and stamps the assignment's
	// started_at on first fetch.
	Start(ctx context.Context, examID uint, studentID string) (*TakeExamResponse, error)

	// Submit scores the answers and completes the assignment. Exactly
	// one submission per pending assignment wins.
	Submit(ctx context.Context, examID uint, req *SubmitExamRequest, studentID string) (*SubmitExamResponse, error)

	// Status reports where the student stands with an exam.
	Status(ctx context.Context, examID uint, studentID string) (*SubmissionStatusResponse, error)
}

type ResultService interface {
	// Student views
	GetHistory(ctx context.Context, studentID string, filters repositories.ResultFilters) (*ResultListResponse, error)
	GetMyResult(ctx context.Context, examID uint, studentID string) (*ResultResponse, error)
	GetReview(ctx context.Context, examID uint, studentID string) (*ReviewResponse, error)
	GetSummary(ctx context.Context, studentID string) (*repositories.StudentSummary, error)

	// Teacher views
	GetByExam(ctx context.Context, examID uint, filters repositories.ResultFilters, userID string) (*ResultListResponse, error)
}

type ImportExportService interface {
	// ImportQuestions reads an xlsx workbook of questions. Valid rows
	// are inserted; invalid rows are reported per row number without
	// failing the batch.
	ImportQuestions(ctx context.Context, r io.Reader, creatorID string) (*ImportQuestionsResult, error)

	// ExportResults writes an xlsx workbook of an exam's results.
	ExportResults(ctx context.Context, examID uint, userID string, w io.Writer) error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Question() QuestionService
	Exam() ExamService
	Assignment() AssignmentService
	Submission() SubmissionService
	Result() ResultService
	ImportExport() ImportExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
