package validator

import (
	"strings"
)

// BusinessValidator applies the domain rules that struct tags cannot
// express. It is stateless; services share a single instance.
type BusinessValidator struct{}

func NewBusinessValidator() *BusinessValidator {
	return &BusinessValidator{}
}

// ValidateQuestionContent enforces the question bank rules: non-blank
// category and text, at least two non-blank options, and exactly one
// option flagged correct.
func (bv *BusinessValidator) ValidateQuestionContent(category, text string, options []OptionRequest) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(category) == "" {
		errs = append(errs, ValidationError{
			Field:   "category",
			Message: "must not be blank",
			Value:   category,
			Rule:    "not_blank",
		})
	}

	if strings.TrimSpace(text) == "" {
		errs = append(errs, ValidationError{
			Field:   "text",
			Message: "must not be blank",
			Value:   text,
			Rule:    "not_blank",
		})
	}

	if len(options) < 2 {
		errs = append(errs, ValidationError{
			Field:   "options",
			Message: "must contain at least 2 options",
			Value:   len(options),
			Rule:    "min_options",
		})
	}

	correct := 0
	for i, opt := range options {
		if strings.TrimSpace(opt.Text) == "" {
			errs = append(errs, ValidationError{
				Field:   "options",
				Message: "option text must not be blank",
				Value:   i,
				Rule:    "not_blank",
			})
		}
		if opt.IsCorrect {
			correct++
		}
	}

	if len(options) >= 2 && correct != 1 {
		errs = append(errs, ValidationError{
			Field:   "options",
			Message: "exactly one option must be marked correct",
			Value:   correct,
			Rule:    "single_correct",
		})
	}

	return errs
}

// ValidateImportRow checks one spreadsheet row and normalizes it into a
// create request. The correct-answer column is 1-based as entered by
// authors; it is converted to a flag on the matching option here.
func (bv *BusinessValidator) ValidateImportRow(category, text string, optionTexts []string, correctIndex int) (*QuestionCreateRequest, ValidationErrors) {
	opts := make([]OptionRequest, 0, len(optionTexts))
	for _, t := range optionTexts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		opts = append(opts, OptionRequest{Text: strings.TrimSpace(t)})
	}

	var errs ValidationErrors
	if correctIndex < 1 || correctIndex > len(opts) {
		errs = append(errs, ValidationError{
			Field:   "correct_answer",
			Message: "correct answer index is out of range for the provided options",
			Value:   correctIndex,
			Rule:    "in_range",
		})
	} else {
		opts[correctIndex-1].IsCorrect = true
	}

	errs = append(errs, bv.ValidateQuestionContent(category, text, opts)...)
	if len(errs) > 0 {
		return nil, errs
	}

	return &QuestionCreateRequest{
		Category: strings.TrimSpace(category),
		Text:     strings.TrimSpace(text),
		Options:  opts,
	}, nil
}
