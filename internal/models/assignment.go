package models

import (
	"time"
)

type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentCompleted AssignmentStatus = "completed"
)

// Assignment is the workflow gate binding one student to one exam: can
// this student take (or retake) this exam? The durable scored outcome
// lives in ExamResult, keyed by the same pair.
type Assignment struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	ExamID    uint             `json:"exam_id" gorm:"not null;uniqueIndex:idx_assignment_exam_student"`
	StudentID string           `json:"student_id" gorm:"not null;size:255;index;uniqueIndex:idx_assignment_exam_student"`
	Status    AssignmentStatus `json:"status" gorm:"not null;default:pending;index"`

	// Score snapshot, null until completed
	Score      *int     `json:"score"`
	Percentage *float64 `json:"percentage"`
	Passed     *bool    `json:"passed"`

	// Timing. StartedAt is set exactly once, on the first fetch of the
	// exam-taking payload, not on assignment creation.
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Exam Exam `json:"exam" gorm:"foreignKey:ExamID"`
}

func (Assignment) TableName() string {
	return "assignments"
}
