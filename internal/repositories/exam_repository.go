package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/examstack/exam-service/internal/models"
)

// ExamRepository interface for exam definition operations
type ExamRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	// GetByIDWithDetails preloads the question list with options in exam order
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters ExamFilters) ([]*models.Exam, int64, error)

	// Status management
	SetActive(ctx context.Context, tx *gorm.DB, id uint, active bool) error

	// Validation and checks
	Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
}
