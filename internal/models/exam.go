package models

import (
	"time"

	"gorm.io/gorm"
)

// Exam is a named, ordered collection of question references plus the
// parameters of an attempt: duration and pass threshold. Exam content is
// treated as stable once results exist; nothing in the store enforces
// that, correctness of historical reviews depends on it.
type Exam struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	Title          string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Category       string  `json:"category" gorm:"size:100;index"`
	Duration       int     `json:"duration" gorm:"not null" validate:"required,min=1"` // minutes
	PassPercentage float64 `json:"pass_percentage" gorm:"not null" validate:"min=0,max=100"`
	IsActive       bool    `json:"is_active" gorm:"default:true;index"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []ExamQuestion `json:"questions" gorm:"foreignKey:ExamID"`
	Creator   *User          `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`

	// Computed fields (not stored)
	QuestionCount int `json:"question_count" gorm:"-"`
}

// ExamQuestion orders a question inside an exam. Repeated references are
// not filtered; each row scores independently.
type ExamQuestion struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	ExamID     uint `json:"exam_id" gorm:"not null;index"`
	QuestionID uint `json:"question_id" gorm:"not null;index"`
	Position   int  `json:"position" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

func (Exam) TableName() string {
	return "exams"
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}
