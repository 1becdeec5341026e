package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/validator"
)

type examService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewExamService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator) ExamService {
	return &examService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *examService) Create(ctx context.Context, req *CreateExamRequest, creatorID string) (*ExamResponse, error) {
	s.logger.Info("Creating exam",
		"title", req.Title,
		"question_count", len(req.QuestionIDs),
		"creator_id", creatorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	// Every referenced question must exist. Repeats are allowed and
	// each occurrence counts separately toward the total.
	uniqueIDs := make(map[uint]struct{}, len(req.QuestionIDs))
	for _, id := range req.QuestionIDs {
		uniqueIDs[id] = struct{}{}
	}
	ids := make([]uint, 0, len(uniqueIDs))
	for id := range uniqueIDs {
		ids = append(ids, id)
	}

	count, err := s.repo.Question().CountByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to verify exam questions: %w", err)
	}
	if count != int64(len(ids)) {
		return nil, ErrQuestionNotFound
	}

	exam := &models.Exam{
		Title:          req.Title,
		Category:       req.Category,
		Duration:       req.Duration,
		PassPercentage: req.PassPercentage,
		IsActive:       true,
		CreatedBy:      creatorID,
		Questions:      make([]models.ExamQuestion, len(req.QuestionIDs)),
	}
	for i, qid := range req.QuestionIDs {
		exam.Questions[i] = models.ExamQuestion{
			QuestionID: qid,
			Position:   i,
		}
	}

	if err := s.repo.Exam().Create(ctx, nil, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	exam.QuestionCount = len(exam.Questions)

	s.logger.Info("Exam created successfully",
		"exam_id", exam.ID,
		"creator_id", creatorID)

	return &ExamResponse{Exam: exam}, nil
}

func (s *examService) GetByID(ctx context.Context, id uint, userID string) (*ExamResponse, error) {
	exam, err := s.repo.Exam().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	return &ExamResponse{Exam: exam}, nil
}

// GetByIDWithDetails returns the exam with full question content,
// including the answer key. Author-side only; takers go through the
// submission service.
func (s *examService) GetByIDWithDetails(ctx context.Context, id uint, userID string) (*ExamResponse, error) {
	exam, err := s.repo.Exam().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam with details: %w", err)
	}

	return &ExamResponse{Exam: exam}, nil
}

func (s *examService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting exam",
		"exam_id", id,
		"user_id", userID)

	if _, err := s.repo.Exam().GetByID(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("failed to get exam: %w", err)
	}

	if err := s.repo.Exam().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete exam: %w", err)
	}

	s.logger.Info("Exam deleted successfully", "exam_id", id)

	return nil
}

// ===== LIST OPERATIONS =====

func (s *examService) List(ctx context.Context, filters repositories.ExamFilters, userID string) (*ExamListResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}

	exams, total, err := s.repo.Exam().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}

	responses := make([]*ExamResponse, len(exams))
	for i, exam := range exams {
		responses[i] = &ExamResponse{Exam: exam}
	}

	return &ExamListResponse{
		Exams: responses,
		Total: total,
		Page:  filters.Offset/filters.Limit + 1,
		Size:  filters.Limit,
	}, nil
}

// ===== STATUS MANAGEMENT =====

func (s *examService) SetActive(ctx context.Context, id uint, active bool, userID string) error {
	s.logger.Info("Setting exam active flag",
		"exam_id", id,
		"active", active,
		"user_id", userID)

	if err := s.repo.Exam().SetActive(ctx, nil, id, active); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("failed to set exam status: %w", err)
	}

	return nil
}

// ===== STATISTICS =====

func (s *examService) GetStats(ctx context.Context, id uint, userID string) (*repositories.ExamStats, error) {
	exists, err := s.repo.Exam().Exists(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check exam: %w", err)
	}
	if !exists {
		return nil, ErrExamNotFound
	}

	stats, err := s.repo.Assignment().GetExamStats(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam stats: %w", err)
	}

	return stats, nil
}
