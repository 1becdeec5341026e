package services

import (
	"github.com/examstack/exam-service/internal/models"
)

// scoreSummary is the outcome of grading one submission.
type scoreSummary struct {
	Score          int
	TotalQuestions int
	Correct        int
	Wrong          int
	Percentage     float64
	Passed         bool
	Outcome        models.ExamOutcome
	Answers        []models.ResultAnswer
}

// scoreExam grades an answer map against an exam's questions. Questions
// are walked in exam order. An unanswered question counts toward the
// total but neither the correct nor the wrong tally. An answer that
// names an option not on the question is wrong.
func scoreExam(exam *models.Exam, answers map[uint]uint) scoreSummary {
	summary := scoreSummary{
		TotalQuestions: len(exam.Questions),
		Answers:        make([]models.ResultAnswer, 0, len(exam.Questions)),
	}

	for _, eq := range exam.Questions {
		question := eq.Question
		answer := models.ResultAnswer{QuestionID: eq.QuestionID}

		if correct := question.CorrectOption(); correct != nil {
			id := correct.ID
			answer.CorrectOptionID = &id
		}

		selected, answered := answers[eq.QuestionID]
		if !answered {
			summary.Answers = append(summary.Answers, answer)
			continue
		}

		answer.SelectedOptionID = &selected
		if answer.CorrectOptionID != nil && selected == *answer.CorrectOptionID {
			answer.IsCorrect = true
			summary.Correct++
		} else {
			summary.Wrong++
		}

		summary.Answers = append(summary.Answers, answer)
	}

	summary.Score = summary.Correct
	if summary.TotalQuestions > 0 {
		summary.Percentage = float64(summary.Score) / float64(summary.TotalQuestions) * 100
	}

	// The threshold is inclusive: exactly the pass percentage passes.
	summary.Passed = summary.Percentage >= exam.PassPercentage
	if summary.Passed {
		summary.Outcome = models.OutcomePass
	} else {
		summary.Outcome = models.OutcomeFail
	}

	return summary
}

// buildReviewItems pairs the graded answer records with their exam
// questions. Both slices are in exam order, one entry per occurrence.
func buildReviewItems(exam *models.Exam, answers []models.ResultAnswer) []ReviewItem {
	items := make([]ReviewItem, 0, len(answers))
	for i, answer := range answers {
		if i >= len(exam.Questions) {
			break
		}
		question := exam.Questions[i].Question
		taker := question.TakerView()

		items = append(items, ReviewItem{
			QuestionID:       answer.QuestionID,
			QuestionText:     question.Text,
			Options:          taker.Options,
			SelectedOptionID: answer.SelectedOptionID,
			CorrectOptionID:  answer.CorrectOptionID,
			Answered:         answer.SelectedOptionID != nil,
			IsCorrect:        answer.IsCorrect,
		})
	}
	return items
}
