package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/examstack/exam-service/internal/models"
)

// QuestionRepository interface for question bank operations
type QuestionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Bulk operations
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error)
	DeleteBatch(ctx context.Context, tx *gorm.DB, ids []uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)
	Categories(ctx context.Context, tx *gorm.DB) ([]string, error)

	// Validation and checks
	ExistsByCategoryAndText(ctx context.Context, tx *gorm.DB, category, text string, excludeID *uint) (bool, error)
	CountByIDs(ctx context.Context, tx *gorm.DB, ids []uint) (int64, error)
	IsUsedInExams(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
}
