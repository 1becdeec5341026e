package services

import (
	"errors"
	"fmt"

	"github.com/examstack/exam-service/internal/validator"
)

// ===== SENTINEL ERRORS =====

var (
	// Question bank
	ErrQuestionNotFound  = errors.New("question not found")
	ErrDuplicateQuestion = errors.New("question with the same text already exists in this category")
	ErrQuestionInUse     = errors.New("question is used by an exam")

	// Exam
	ErrExamNotFound       = errors.New("exam not found")
	ErrExamInactive       = errors.New("exam is not active")
	ErrExamHasNoQuestions = errors.New("exam has no questions")

	// Assignment / submission
	ErrAssignmentNotFound   = errors.New("assignment not found")
	ErrExamAlreadySubmitted = errors.New("exam already submitted")
	ErrExamNotCompleted     = errors.New("exam has not been completed")

	// Result
	ErrResultNotFound = errors.New("result not found")

	// Users
	ErrNoStudentsFound = errors.New("no students found to assign")
	ErrUserNotFound    = errors.New("user not found")

	// Generic
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal error")
)

// ===== TYPED ERRORS =====

// Validation errors are shared with the validator package so handlers
// can unwrap them uniformly.
type ValidationError = validator.ValidationError
type ValidationErrors = validator.ValidationErrors

// PermissionError describes a denied action on a resource.
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// BusinessRuleError describes a violated domain rule.
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]interface{}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}
