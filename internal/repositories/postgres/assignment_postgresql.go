package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/examstack/exam-service/internal/cache"
	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
)

type AssignmentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAssignmentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (a *AssignmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// ===== BASIC CRUD OPERATIONS =====

// Create creates a single assignment
func (a *AssignmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Create(assignment).Error; err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

// GetByID retrieves an assignment with its exam
func (a *AssignmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assignment, error) {
	db := a.getDB(tx)
	var assignment models.Assignment
	if err := db.WithContext(ctx).
		Preload("Exam").
		First(&assignment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &assignment, nil
}

// GetByExamAndStudent retrieves the assignment for an (exam, student) pair
func (a *AssignmentPostgreSQL) GetByExamAndStudent(ctx context.Context, tx *gorm.DB, examID uint, studentID string) (*models.Assignment, error) {
	db := a.getDB(tx)
	var assignment models.Assignment
	if err := db.WithContext(ctx).
		Preload("Exam").
		Where("exam_id = ? AND student_id = ?", examID, studentID).
		First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &assignment, nil
}

// ===== BULK OPERATIONS =====

// BulkCreate inserts assignments, skipping (exam, student) pairs that
// already exist so repeated fan-outs are idempotent.
func (a *AssignmentPostgreSQL) BulkCreate(ctx context.Context, tx *gorm.DB, assignments []*models.Assignment) (int64, error) {
	if len(assignments) == 0 {
		return 0, nil
	}

	db := a.getDB(tx)
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "exam_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		CreateInBatches(assignments, 100)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to bulk create assignments: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// ===== QUERY OPERATIONS =====

// List retrieves assignments with filtering and pagination
func (a *AssignmentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AssignmentFilters) ([]*models.Assignment, int64, error) {
	db := a.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Assignment{})

	query = a.helpers.ApplyAssignmentFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count assignments: %w", err)
	}

	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var assignments []*models.Assignment
	if err := query.Preload("Exam").Find(&assignments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list assignments: %w", err)
	}

	return assignments, total, nil
}

// ListByStudent retrieves a student's assignments
func (a *AssignmentPostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AssignmentFilters) ([]*models.Assignment, int64, error) {
	filters.StudentID = &studentID
	return a.List(ctx, tx, filters)
}

// ===== LIFECYCLE TRANSITIONS =====

// MarkStarted stamps started_at once. The condition keeps the first
// timestamp when the student re-opens the exam.
func (a *AssignmentPostgreSQL) MarkStarted(ctx context.Context, tx *gorm.DB, id uint) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND started_at IS NULL", id).
		Update("started_at", time.Now().UTC()).Error; err != nil {
		return fmt.Errorf("failed to mark assignment started: %w", err)
	}
	return nil
}

// CompleteIfPending is the serialization point for submission: the
// conditional update flips pending -> completed exactly once, so
// concurrent submits race on rows affected instead of double-scoring.
func (a *AssignmentPostgreSQL) CompleteIfPending(ctx context.Context, tx *gorm.DB, id uint, score int, percentage float64, passed bool) (int64, error) {
	db := a.getDB(tx)
	now := time.Now().UTC()

	result := db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND status = ?", id, models.AssignmentPending).
		Updates(map[string]interface{}{
			"status":       models.AssignmentCompleted,
			"score":        score,
			"percentage":   percentage,
			"passed":       passed,
			"completed_at": now,
		})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to complete assignment: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// ResetToPending reopens a completed assignment for a retry. Score
// fields and timestamps are cleared so the next submission starts clean.
func (a *AssignmentPostgreSQL) ResetToPending(ctx context.Context, tx *gorm.DB, id uint) (int64, error) {
	db := a.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND status = ?", id, models.AssignmentCompleted).
		Updates(map[string]interface{}{
			"status":       models.AssignmentPending,
			"score":        nil,
			"percentage":   nil,
			"passed":       nil,
			"started_at":   nil,
			"completed_at": nil,
		})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to reset assignment: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// ===== STATISTICS =====

// GetExamStats aggregates completion and score figures for one exam
func (a *AssignmentPostgreSQL) GetExamStats(ctx context.Context, tx *gorm.DB, examID uint) (*repositories.ExamStats, error) {
	db := a.getDB(tx)
	stats := &repositories.ExamStats{}

	cacheKey := fmt.Sprintf("exam:%d:assignments", examID)
	err := a.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		out := &repositories.ExamStats{}

		type row struct {
			Total   int64
			Done    int64
			Passed  int64
			AvgS    *float64
			AvgP    *float64
			MaxP    *float64
			MinP    *float64
			AvgTime *float64
		}
		var r row

		err := db.WithContext(ctx).
			Model(&models.Assignment{}).
			Select(`count(*) as total,
				count(*) filter (where status = ?) as done,
				count(*) filter (where passed) as passed,
				avg(score) as avg_s,
				avg(percentage) as avg_p,
				max(percentage) as max_p,
				min(percentage) as min_p,
				avg(extract(epoch from (completed_at - started_at))) as avg_time`,
				models.AssignmentCompleted).
			Where("exam_id = ?", examID).
			Scan(&r).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get exam stats: %w", err)
		}

		out.TotalAssigned = int(r.Total)
		out.Completed = int(r.Done)
		out.Pending = int(r.Total - r.Done)
		if r.AvgS != nil {
			out.AverageScore = *r.AvgS
		}
		if r.AvgP != nil {
			out.AveragePercentage = *r.AvgP
		}
		if r.MaxP != nil {
			out.HighestPercentage = *r.MaxP
		}
		if r.MinP != nil {
			out.LowestPercentage = *r.MinP
		}
		if r.AvgTime != nil {
			out.AverageTimeSeconds = int(*r.AvgTime)
		}
		if r.Done > 0 {
			out.PassRate = float64(r.Passed) / float64(r.Done) * 100
		}

		return out, nil
	})

	if err != nil {
		return nil, err
	}

	return stats, nil
}

// GetStudentSummary aggregates a student's assignment figures
func (a *AssignmentPostgreSQL) GetStudentSummary(ctx context.Context, tx *gorm.DB, studentID string) (*repositories.StudentSummary, error) {
	db := a.getDB(tx)

	type row struct {
		Total  int64
		Done   int64
		Passed int64
		AvgP   *float64
	}
	var r row

	err := db.WithContext(ctx).
		Model(&models.Assignment{}).
		Select(`count(*) as total,
			count(*) filter (where status = ?) as done,
			count(*) filter (where passed) as passed,
			avg(percentage) as avg_p`,
			models.AssignmentCompleted).
		Where("student_id = ?", studentID).
		Scan(&r).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get student summary: %w", err)
	}

	summary := &repositories.StudentSummary{
		TotalAssigned: int(r.Total),
		Completed:     int(r.Done),
		Pending:       int(r.Total - r.Done),
		Passed:        int(r.Passed),
		Failed:        int(r.Done - r.Passed),
	}
	if r.AvgP != nil {
		summary.AveragePercent = *r.AvgP
	}

	return summary, nil
}
