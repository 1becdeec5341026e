package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/examstack/exam-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type QuestionFilters struct {
	Category  *string `json:"category"`
	CreatedBy *string `json:"created_by"`
	Search    string  `json:"search"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`    // "created_at", "category", "id"
	SortOrder string  `json:"sort_order"` // "asc", "desc"
}

type ExamFilters struct {
	IsActive  *bool   `json:"is_active"`
	Category  *string `json:"category"`
	CreatedBy *string `json:"created_by"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`
	SortOrder string  `json:"sort_order"`
}

type AssignmentFilters struct {
	Status    *models.AssignmentStatus `json:"status"`
	ExamID    *uint                    `json:"exam_id"`
	StudentID *string                  `json:"student_id"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortBy    string                   `json:"sort_by"`
	SortOrder string                   `json:"sort_order"`
}

type ResultFilters struct {
	ExamID    *uint               `json:"exam_id"`
	StudentID *string             `json:"student_id"`
	Outcome   *models.ExamOutcome `json:"outcome"`
	DateFrom  *time.Time          `json:"date_from"`
	DateTo    *time.Time          `json:"date_to"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
	SortBy    string              `json:"sort_by"`
	SortOrder string              `json:"sort_order"`
}

// UserFilters defines filters for user queries
type UserFilters struct {
	Query  string // Search query for name or email
	Role   *models.UserRole
	Limit  int
	Offset int
}

// ===== SHARED STATISTICS STRUCTS =====

type ExamStats struct {
	TotalAssigned      int     `json:"total_assigned"`
	Completed          int     `json:"completed"`
	Pending            int     `json:"pending"`
	AverageScore       float64 `json:"average_score"`
	AveragePercentage  float64 `json:"average_percentage"`
	PassRate           float64 `json:"pass_rate"`
	HighestPercentage  float64 `json:"highest_percentage"`
	LowestPercentage   float64 `json:"lowest_percentage"`
	AverageTimeSeconds int     `json:"average_time_seconds"`
}

type StudentSummary struct {
	TotalAssigned  int     `json:"total_assigned"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	Passed         int     `json:"passed"`
	Failed         int     `json:"failed"`
	AveragePercent float64 `json:"average_percent"`
}

// IsNotFoundError reports whether err is a record-not-found from the
// underlying store.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
