package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/examstack/exam-service/internal/models"
)

// AssignmentRepository interface for exam assignment operations.
// Assignments gate the taking workflow: a student can only start and
// submit an exam through a pending assignment.
type AssignmentRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assignment, error)
	GetByExamAndStudent(ctx context.Context, tx *gorm.DB, examID uint, studentID string) (*models.Assignment, error)

	// Bulk operations. Existing (exam, student) pairs are skipped, not
	// duplicated; returns the number of rows actually inserted.
	BulkCreate(ctx context.Context, tx *gorm.DB, assignments []*models.Assignment) (int64, error)

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters AssignmentFilters) ([]*models.Assignment, int64, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters AssignmentFilters) ([]*models.Assignment, int64, error)

	// Lifecycle transitions
	// MarkStarted stamps started_at once; later calls are no-ops.
	MarkStarted(ctx context.Context, tx *gorm.DB, id uint) error
	// CompleteIfPending flips pending -> completed and records the score
	// fields in one conditional update. Returns the number of rows
	// affected; 0 means the assignment was already completed.
	CompleteIfPending(ctx context.Context, tx *gorm.DB, id uint, score int, percentage float64, passed bool) (int64, error)
	// ResetToPending reopens a completed assignment for a retry.
	ResetToPending(ctx context.Context, tx *gorm.DB, id uint) (int64, error)

	// Statistics
	GetExamStats(ctx context.Context, tx *gorm.DB, examID uint) (*ExamStats, error)
	GetStudentSummary(ctx context.Context, tx *gorm.DB, studentID string) (*StudentSummary, error)
}
