package models

import (
	"time"

	"gorm.io/datatypes"
)

type ExamOutcome string

const (
	OutcomePass ExamOutcome = "pass"
	OutcomeFail ExamOutcome = "fail"
)

// ResultAnswer is the per-question record snapshot stored on a result.
// Option text is not snapshotted; review endpoints re-join against the
// current question content, so later edits show through.
type ResultAnswer struct {
	QuestionID       uint  `json:"question_id"`
	SelectedOptionID *uint `json:"selected_option_id"`
	CorrectOptionID  *uint `json:"correct_option_id"`
	IsCorrect        bool  `json:"is_correct"`
}

// ExamResult is the durable scored outcome of a student's attempt,
// upserted on the (exam_id, student_id) compound key. A resubmission
// overwrites rather than duplicates. Read-only after the write.
type ExamResult struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ExamID    uint   `json:"exam_id" gorm:"not null;uniqueIndex:idx_result_exam_student"`
	StudentID string `json:"student_id" gorm:"not null;size:255;index;uniqueIndex:idx_result_exam_student"`

	// Scoring. CorrectAnswers and WrongAnswers need not sum to
	// TotalQuestions; unanswered questions count toward neither.
	Score          int         `json:"score"`
	TotalQuestions int         `json:"total_questions"`
	Percentage     float64     `json:"percentage"`
	Outcome        ExamOutcome `json:"result" gorm:"column:result;size:10;index"`
	CorrectAnswers int         `json:"correct_answers"`
	WrongAnswers   int         `json:"wrong_answers"`

	// Timing
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at"`
	TimeTakenSeconds int       `json:"time_taken_seconds"`

	// Per-question answer records, []ResultAnswer as JSONB
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Exam Exam `json:"exam" gorm:"foreignKey:ExamID"`
}

func (ExamResult) TableName() string {
	return "exam_results"
}
