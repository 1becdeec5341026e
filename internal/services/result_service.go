package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
)

type resultService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewResultService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ResultService {
	return &resultService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// ===== STUDENT VIEWS =====

func (s *resultService) GetHistory(ctx context.Context, studentID string, filters repositories.ResultFilters) (*ResultListResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}

	results, total, err := s.repo.Result().GetByStudent(ctx, nil, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get result history: %w", err)
	}

	return buildResultListResponse(results, total, filters), nil
}

func (s *resultService) GetMyResult(ctx context.Context, examID uint, studentID string) (*ResultResponse, error) {
	result, err := s.repo.Result().GetByExamAndStudent(ctx, nil, examID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	return &ResultResponse{ExamResult: result}, nil
}

// GetReview rebuilds the per-question breakdown of a completed exam,
// including the answer key. Questions are returned in exam order; a
// question the student skipped comes back with Answered false.
func (s *resultService) GetReview(ctx context.Context, examID uint, studentID string) (*ReviewResponse, error) {
	result, err := s.repo.Result().GetByExamAndStudent(ctx, nil, examID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	exam, err := s.repo.Exam().GetByIDWithDetails(ctx, nil, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	var answers []models.ResultAnswer
	if len(result.Answers) > 0 {
		if err := json.Unmarshal(result.Answers, &answers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stored answers: %w", err)
		}
	}

	byQuestion := make(map[uint]models.ResultAnswer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	items := make([]ReviewItem, 0, len(exam.Questions))
	for _, eq := range exam.Questions {
		question := eq.Question
		taker := question.TakerView()

		item := ReviewItem{
			QuestionID:   question.ID,
			QuestionText: question.Text,
			Options:      taker.Options,
		}

		if answer, ok := byQuestion[question.ID]; ok {
			item.SelectedOptionID = answer.SelectedOptionID
			item.CorrectOptionID = answer.CorrectOptionID
			item.Answered = answer.SelectedOptionID != nil
			item.IsCorrect = answer.IsCorrect
		} else if correct := question.CorrectOption(); correct != nil {
			// Question added to the exam after this sitting
			id := correct.ID
			item.CorrectOptionID = &id
		}

		items = append(items, item)
	}

	return &ReviewResponse{
		ExamID:     examID,
		ExamTitle:  exam.Title,
		Score:      result.Score,
		Total:      result.TotalQuestions,
		Percentage: result.Percentage,
		Result:     result.Outcome,
		Items:      items,
	}, nil
}

func (s *resultService) GetSummary(ctx context.Context, studentID string) (*repositories.StudentSummary, error) {
	summary, err := s.repo.Assignment().GetStudentSummary(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get student summary: %w", err)
	}
	return summary, nil
}

// ===== TEACHER VIEWS =====

func (s *resultService) GetByExam(ctx context.Context, examID uint, filters repositories.ResultFilters, userID string) (*ResultListResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}

	exists, err := s.repo.Exam().Exists(ctx, nil, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to check exam: %w", err)
	}
	if !exists {
		return nil, ErrExamNotFound
	}

	results, total, err := s.repo.Result().GetByExam(ctx, nil, examID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam results: %w", err)
	}

	return buildResultListResponse(results, total, filters), nil
}

func buildResultListResponse(results []*models.ExamResult, total int64, filters repositories.ResultFilters) *ResultListResponse {
	responses := make([]*ResultResponse, len(results))
	for i, r := range results {
		responses[i] = &ResultResponse{ExamResult: r}
	}

	return &ResultListResponse{
		Results: responses,
		Total:   total,
		Page:    filters.Offset/filters.Limit + 1,
		Size:    filters.Limit,
	}
}
