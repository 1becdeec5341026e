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

type ExamPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewExamPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ExamRepository {
	return &ExamPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (e *ExamPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

// ===== BASIC CRUD OPERATIONS =====

// Create creates an exam with its question links
func (e *ExamPostgreSQL) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Create(exam).Error; err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, e.cacheManager.Exam, "list:*")

	return nil
}

// GetByID retrieves an exam without question content
func (e *ExamPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := e.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var exam models.Exam

	err := e.cacheManager.Exam.CacheOrExecute(ctx, cacheKey, &exam, cache.ExamCacheConfig.TTL, func() (interface{}, error) {
		var dbExam models.Exam
		if err := db.WithContext(ctx).First(&dbExam, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to get exam: %w", err)
		}
		return &dbExam, nil
	})

	if err != nil {
		return nil, err
	}

	return &exam, nil
}

// GetByIDWithDetails retrieves an exam with its questions and options,
// in exam order. This is the payload the scoring engine walks.
func (e *ExamPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := e.getDB(tx)
	cacheKey := fmt.Sprintf("details:%d", id)
	var exam models.Exam

	err := e.cacheManager.Exam.CacheOrExecute(ctx, cacheKey, &exam, cache.ExamCacheConfig.TTL, func() (interface{}, error) {
		var dbExam models.Exam
		if err := db.WithContext(ctx).
			Preload("Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC")
			}).
			Preload("Questions.Question.Options", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC")
			}).
			First(&dbExam, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to get exam with details: %w", err)
		}
		dbExam.QuestionCount = len(dbExam.Questions)
		return &dbExam, nil
	})

	if err != nil {
		return nil, err
	}

	return &exam, nil
}

// Update updates exam fields
func (e *ExamPostgreSQL) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Save(exam).Error; err != nil {
		return fmt.Errorf("failed to update exam: %w", err)
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, exam.ID)

	return nil
}

// Delete soft deletes an exam and removes its question links
func (e *ExamPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := e.getDB(tx)

	err := db.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		if err := inner.Where("exam_id = ?", id).Delete(&models.ExamQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to delete exam questions: %w", err)
		}

		if err := inner.Delete(&models.Exam{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete exam: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, id)

	return nil
}

// ===== QUERY OPERATIONS =====

// List retrieves exams with filtering and pagination
func (e *ExamPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	db := e.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Exam{})

	query = e.helpers.ApplyExamFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count exams: %w", err)
	}

	query = e.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var exams []*models.Exam
	if err := query.Find(&exams).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list exams: %w", err)
	}

	// Fill question counts in one query instead of preloading content
	if len(exams) > 0 {
		ids := make([]uint, len(exams))
		for i, exam := range exams {
			ids[i] = exam.ID
		}

		type examCount struct {
			ExamID uint
			Count  int
		}
		var counts []examCount
		if err := db.WithContext(ctx).
			Model(&models.ExamQuestion{}).
			Select("exam_id, count(*) as count").
			Where("exam_id IN ?", ids).
			Group("exam_id").
			Scan(&counts).Error; err != nil {
			return nil, 0, fmt.Errorf("failed to count exam questions: %w", err)
		}

		byExam := make(map[uint]int, len(counts))
		for _, c := range counts {
			byExam[c.ExamID] = c.Count
		}
		for _, exam := range exams {
			exam.QuestionCount = byExam[exam.ID]
		}
	}

	return exams, total, nil
}

// ===== STATUS MANAGEMENT =====

// SetActive toggles the active flag
func (e *ExamPostgreSQL) SetActive(ctx context.Context, tx *gorm.DB, id uint, active bool) error {
	db := e.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ?", id).
		Update("is_active", active)

	if result.Error != nil {
		return fmt.Errorf("failed to set exam active flag: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, id)

	return nil
}

// ===== VALIDATION AND CHECKS =====

// Exists checks if an exam exists
func (e *ExamPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := e.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check exam existence: %w", err)
	}

	return count > 0, nil
}
