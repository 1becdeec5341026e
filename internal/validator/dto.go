package validator

// OptionRequest is one answer option in a create/update payload.
type OptionRequest struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionCreateRequest creates a single question. The option list is
// the full set; business rules require >= 2 options with exactly one
// marked correct.
type QuestionCreateRequest struct {
	Category string          `json:"category" validate:"required,max=100"`
	Text     string          `json:"text" validate:"required,max=2000"`
	Options  []OptionRequest `json:"options" validate:"required,min=2,dive"`
}

// QuestionUpdateRequest replaces a question's content wholesale,
// including the full option list.
type QuestionUpdateRequest struct {
	Category string          `json:"category" validate:"required,max=100"`
	Text     string          `json:"text" validate:"required,max=2000"`
	Options  []OptionRequest `json:"options" validate:"required,min=2,dive"`
}

// BulkDeleteRequest deletes a set of questions by identity.
type BulkDeleteRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1"`
}

// ExamCreateRequest creates an exam definition. All referenced questions
// must exist; repeats are not filtered.
type ExamCreateRequest struct {
	Title          string  `json:"title" validate:"required,max=200"`
	Category       string  `json:"category" validate:"omitempty,max=100"`
	Duration       int     `json:"duration" validate:"required,min=1"` // minutes
	PassPercentage float64 `json:"pass_percentage" validate:"min=0,max=100"`
	QuestionIDs    []uint  `json:"question_ids" validate:"required,min=1"`
}

// ExamStatusRequest toggles the active flag.
type ExamStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// AssignExamRequest fans an exam out to all current students.
type AssignExamRequest struct {
	ExamID uint `json:"exam_id" validate:"required"`
}

// SubmitExamRequest carries the student's answer map, keyed by question
// ID. An empty map is a valid submission (everything unanswered).
// TimeTaken is the client-reported duration in seconds; when absent the
// server computes it from timestamps.
type SubmitExamRequest struct {
	Answers   map[uint]uint `json:"answers"`
	TimeTaken *int          `json:"time_taken"`
}
