package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/examstack/exam-service/internal/models"
)

// ResultRepository interface for exam result operations. Results are
// keyed by (exam_id, student_id); a resubmission after retry replaces
// the previous row.
type ResultRepository interface {
	// Upsert inserts or replaces the result for the (exam, student) pair.
	Upsert(ctx context.Context, tx *gorm.DB, result *models.ExamResult) error

	// Query operations
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamResult, error)
	GetByExamAndStudent(ctx context.Context, tx *gorm.DB, examID uint, studentID string) (*models.ExamResult, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters ResultFilters) ([]*models.ExamResult, int64, error)
	GetByExam(ctx context.Context, tx *gorm.DB, examID uint, filters ResultFilters) ([]*models.ExamResult, int64, error)

	// Deletion (follows assignment/exam removal)
	DeleteByExam(ctx context.Context, tx *gorm.DB, examID uint) error
}
