package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/validator"
)

type questionService struct {
	repo              repositories.Repository
	db                *gorm.DB
	logger            *slog.Logger
	validator         *validator.Validator
	businessValidator *validator.BusinessValidator
}

func NewQuestionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator) QuestionService {
	return &questionService{
		repo:              repo,
		db:                db,
		logger:            logger,
		validator:         v,
		businessValidator: validator.NewBusinessValidator(),
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*QuestionResponse, error) {
	s.logger.Info("Creating question",
		"category", req.Category,
		"creator_id", creatorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if errs := s.businessValidator.ValidateQuestionContent(req.Category, req.Text, req.Options); len(errs) > 0 {
		return nil, errs
	}

	category := strings.TrimSpace(req.Category)
	text := strings.TrimSpace(req.Text)

	exists, err := s.repo.Question().ExistsByCategoryAndText(ctx, nil, category, text, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate question: %w", err)
	}
	if exists {
		return nil, ErrDuplicateQuestion
	}

	question := buildQuestion(category, text, req.Options, creatorID)

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created successfully",
		"question_id", question.ID,
		"creator_id", creatorID)

	return &QuestionResponse{Question: question}, nil
}

func (s *questionService) GetByID(ctx context.Context, id uint, userID string) (*QuestionResponse, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	used, err := s.repo.Question().IsUsedInExams(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check question usage: %w", err)
	}

	return &QuestionResponse{Question: question, UsedInExams: used}, nil
}

func (s *questionService) Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*QuestionResponse, error) {
	s.logger.Info("Updating question",
		"question_id", id,
		"user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if errs := s.businessValidator.ValidateQuestionContent(req.Category, req.Text, req.Options); len(errs) > 0 {
		return nil, errs
	}

	existing, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	category := strings.TrimSpace(req.Category)
	text := strings.TrimSpace(req.Text)

	exists, err := s.repo.Question().ExistsByCategoryAndText(ctx, nil, category, text, &id)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate question: %w", err)
	}
	if exists {
		return nil, ErrDuplicateQuestion
	}

	// Full replacement: new content and a fresh option list
	updated := buildQuestion(category, text, req.Options, existing.CreatedBy)
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	for i := range updated.Options {
		updated.Options[i].QuestionID = existing.ID
	}

	if err := s.repo.Question().Update(ctx, nil, updated); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	s.logger.Info("Question updated successfully", "question_id", id)

	return &QuestionResponse{Question: updated}, nil
}

func (s *questionService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting question",
		"question_id", id,
		"user_id", userID)

	if _, err := s.repo.Question().GetByID(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	// Exams reference questions; removing a referenced question would
	// silently change live exams and stored reviews.
	used, err := s.repo.Question().IsUsedInExams(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to check question usage: %w", err)
	}
	if used {
		return ErrQuestionInUse
	}

	if err := s.repo.Question().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("Question deleted successfully", "question_id", id)

	return nil
}

// ===== BULK OPERATIONS =====

func (s *questionService) DeleteBatch(ctx context.Context, req *BulkDeleteRequest, userID string) error {
	s.logger.Info("Deleting questions batch",
		"count", len(req.IDs),
		"user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return err
	}

	count, err := s.repo.Question().CountByIDs(ctx, nil, req.IDs)
	if err != nil {
		return fmt.Errorf("failed to verify questions: %w", err)
	}
	if count != int64(len(req.IDs)) {
		return ErrQuestionNotFound
	}

	for _, id := range req.IDs {
		used, err := s.repo.Question().IsUsedInExams(ctx, nil, id)
		if err != nil {
			return fmt.Errorf("failed to check question usage: %w", err)
		}
		if used {
			return ErrQuestionInUse
		}
	}

	if err := s.repo.Question().DeleteBatch(ctx, nil, req.IDs); err != nil {
		return fmt.Errorf("failed to delete questions batch: %w", err)
	}

	return nil
}

// ===== LIST AND SEARCH OPERATIONS =====

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters, userID string) (*QuestionListResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}

	questions, total, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	responses := make([]*QuestionResponse, len(questions))
	for i, q := range questions {
		responses[i] = &QuestionResponse{Question: q}
	}

	return &QuestionListResponse{
		Questions: responses,
		Total:     total,
		Page:      filters.Offset/filters.Limit + 1,
		Size:      filters.Limit,
	}, nil
}

func (s *questionService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Question().Categories(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// buildQuestion assembles a question model with positioned options.
func buildQuestion(category, text string, options []validator.OptionRequest, creatorID string) *models.Question {
	question := &models.Question{
		Category:  category,
		Text:      text,
		CreatedBy: creatorID,
		Options:   make([]models.QuestionOption, len(options)),
	}

	for i, opt := range options {
		question.Options[i] = models.QuestionOption{
			Text:      strings.TrimSpace(opt.Text),
			IsCorrect: opt.IsCorrect,
			Position:  i,
		}
	}

	return question
}
