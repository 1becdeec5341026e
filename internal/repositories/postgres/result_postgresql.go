package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
)

type ResultPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *ResultPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Upsert inserts the result or replaces the existing row for the
// (exam, student) pair. A resubmission after retry keeps only the
// latest outcome.
func (r *ResultPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, result *models.ExamResult) error {
	db := r.getDB(tx)

	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "exam_id"}, {Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"score", "total_questions", "percentage", "result",
				"correct_answers", "wrong_answers",
				"started_at", "completed_at", "time_taken_seconds",
				"answers", "updated_at",
			}),
		}).
		Create(result).Error
	if err != nil {
		return fmt.Errorf("failed to upsert exam result: %w", err)
	}

	return nil
}

// GetByID retrieves a result with its exam
func (r *ResultPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamResult, error) {
	db := r.getDB(tx)
	var result models.ExamResult
	if err := db.WithContext(ctx).
		Preload("Exam").
		First(&result, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get exam result: %w", err)
	}
	return &result, nil
}

// GetByExamAndStudent retrieves the result for an (exam, student) pair
func (r *ResultPostgreSQL) GetByExamAndStudent(ctx context.Context, tx *gorm.DB, examID uint, studentID string) (*models.ExamResult, error) {
	db := r.getDB(tx)
	var result models.ExamResult
	if err := db.WithContext(ctx).
		Preload("Exam").
		Where("exam_id = ? AND student_id = ?", examID, studentID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get exam result: %w", err)
	}
	return &result, nil
}

// GetByStudent retrieves a student's result history
func (r *ResultPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.ResultFilters) ([]*models.ExamResult, int64, error) {
	filters.StudentID = &studentID
	return r.list(ctx, tx, filters)
}

// GetByExam retrieves all results for an exam
func (r *ResultPostgreSQL) GetByExam(ctx context.Context, tx *gorm.DB, examID uint, filters repositories.ResultFilters) ([]*models.ExamResult, int64, error) {
	filters.ExamID = &examID
	return r.list(ctx, tx, filters)
}

func (r *ResultPostgreSQL) list(ctx context.Context, tx *gorm.DB, filters repositories.ResultFilters) ([]*models.ExamResult, int64, error) {
	db := r.getDB(tx)
	query := db.WithContext(ctx).Model(&models.ExamResult{})

	query = r.helpers.ApplyResultFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count exam results: %w", err)
	}

	if filters.SortBy == "" {
		filters.SortBy = "completed_at"
	}
	query = r.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var results []*models.ExamResult
	if err := query.Preload("Exam").Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list exam results: %w", err)
	}

	return results, total, nil
}

// DeleteByExam removes all results for an exam
func (r *ResultPostgreSQL) DeleteByExam(ctx context.Context, tx *gorm.DB, examID uint) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Delete(&models.ExamResult{}).Error; err != nil {
		return fmt.Errorf("failed to delete exam results: %w", err)
	}
	return nil
}
