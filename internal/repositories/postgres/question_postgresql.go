package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/examstack/exam-service/internal/cache"
	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

// ===== BASIC CRUD OPERATIONS =====

// Create creates a new question with its options and invalidates cache
func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, question.ID)

	return nil
}

// GetByID retrieves a question with its options, ordered by position
func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var question models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &question, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestion models.Question
		if err := db.WithContext(ctx).
			Preload("Options", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC")
			}).
			First(&dbQuestion, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to get question: %w", err)
		}
		return &dbQuestion, nil
	})

	if err != nil {
		return nil, err
	}

	return &question, nil
}

// Update replaces a question's content and full option list. Options are
// deleted and reinserted so removed options do not linger.
func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)

	err := db.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		if err := inner.Where("question_id = ?", question.ID).Delete(&models.QuestionOption{}).Error; err != nil {
			return fmt.Errorf("failed to clear question options: %w", err)
		}

		if err := inner.Save(question).Error; err != nil {
			return fmt.Errorf("failed to update question: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, question.ID)

	return nil
}

// Delete removes a question and its exam references
func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)

	err := db.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		if err := inner.Where("question_id = ?", id).Delete(&models.ExamQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to delete question from exam_questions: %w", err)
		}

		if err := inner.Where("question_id = ?", id).Delete(&models.QuestionOption{}).Error; err != nil {
			return fmt.Errorf("failed to delete question options: %w", err)
		}

		if err := inner.Delete(&models.Question{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete question: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, id)

	return nil
}

// ===== BULK OPERATIONS =====

// CreateBatch creates multiple questions in a batch
func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	db := q.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return fmt.Errorf("failed to create questions batch: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, q.cacheManager.Question, "list:*")
	cache.SafeDelete(ctx, q.cacheManager.Question, "categories")

	return nil
}

// GetByIDs retrieves multiple questions with options by their IDs
func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	if len(ids) == 0 {
		return []*models.Question{}, nil
	}

	db := q.getDB(tx)
	var questions []*models.Question
	if err := db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id IN ?", ids).
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get questions by IDs: %w", err)
	}

	return questions, nil
}

// DeleteBatch removes multiple questions and their exam references
func (q *QuestionPostgreSQL) DeleteBatch(ctx context.Context, tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	db := q.getDB(tx)
	err := db.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		if err := inner.Where("question_id IN ?", ids).Delete(&models.ExamQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to delete questions from exam_questions: %w", err)
		}

		if err := inner.Where("question_id IN ?", ids).Delete(&models.QuestionOption{}).Error; err != nil {
			return fmt.Errorf("failed to delete question options: %w", err)
		}

		if err := inner.Delete(&models.Question{}, ids).Error; err != nil {
			return fmt.Errorf("failed to delete questions batch: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range ids {
		cache.InvalidateQuestionCache(ctx, q.cacheManager, id)
	}

	return nil
}

// ===== QUERY OPERATIONS =====

// List retrieves questions with filtering and pagination
func (q *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	db := q.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Question{})

	query = q.helpers.ApplyQuestionFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	query = q.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var questions []*models.Question
	if err := query.
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}

	return questions, total, nil
}

// Categories returns the distinct category names in the bank
func (q *QuestionPostgreSQL) Categories(ctx context.Context, tx *gorm.DB) ([]string, error) {
	db := q.getDB(tx)
	var categories []string

	err := q.cacheManager.Question.CacheOrExecute(ctx, "categories", &categories, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var out []string
		if err := db.WithContext(ctx).
			Model(&models.Question{}).
			Distinct("category").
			Order("category ASC").
			Pluck("category", &out).Error; err != nil {
			return nil, fmt.Errorf("failed to get categories: %w", err)
		}
		return out, nil
	})

	if err != nil {
		return nil, err
	}

	return categories, nil
}

// ===== VALIDATION AND CHECKS =====

// ExistsByCategoryAndText checks for a duplicate question within a category
func (q *QuestionPostgreSQL) ExistsByCategoryAndText(ctx context.Context, tx *gorm.DB, category, text string, excludeID *uint) (bool, error) {
	db := q.getDB(tx)
	query := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("category = ? AND text = ?", category, text)

	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check question existence: %w", err)
	}

	return count > 0, nil
}

// CountByIDs counts how many of the given IDs exist
func (q *QuestionPostgreSQL) CountByIDs(ctx context.Context, tx *gorm.DB, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	db := q.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id IN ?", ids).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count questions by IDs: %w", err)
	}

	return count, nil
}

// IsUsedInExams checks if a question belongs to any exam
func (q *QuestionPostgreSQL) IsUsedInExams(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := q.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.ExamQuestion{}).
		Where("question_id = ?", id).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check question usage: %w", err)
	}

	return count > 0, nil
}
