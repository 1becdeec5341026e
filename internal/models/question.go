package models

import (
	"time"
)

// Question is a single-correct multiple choice question in the bank.
// Exactly one option is flagged correct; the API layer enforces this,
// the store does not.
type Question struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Category string `json:"category" gorm:"not null;size:100;index;uniqueIndex:idx_question_category_text" validate:"required"`
	Text     string `json:"text" gorm:"type:text;not null;uniqueIndex:idx_question_category_text" validate:"required"`

	// Metadata
	CreatedBy string    `json:"created_by" gorm:"index;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Options []QuestionOption `json:"options" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
	Creator *User            `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
}

type QuestionOption struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	QuestionID uint `json:"question_id" gorm:"not null;index"`

	Text      string `json:"text" gorm:"type:text;not null"`
	IsCorrect bool   `json:"is_correct" gorm:"not null;default:false"`
	Position  int    `json:"position" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
}

func (Question) TableName() string {
	return "questions"
}

func (QuestionOption) TableName() string {
	return "question_options"
}

// CorrectOption returns the option flagged correct, or nil when none is
// flagged. Callers treat nil as "no answer can be judged correct".
func (q *Question) CorrectOption() *QuestionOption {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}
