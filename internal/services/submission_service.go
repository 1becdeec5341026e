package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/examstack/exam-service/internal/events"
	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/validator"
)

type submissionService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewSubmissionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) SubmissionService {
	return &submissionService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      v,
		eventPublisher: publisher,
	}
}

// ===== START =====

func (s *submissionService) Start(ctx context.Context, examID uint, studentID string) (*TakeExamResponse, error) {
	s.logger.Info("Starting exam",
		"exam_id", examID,
		"student_id", studentID)

	assignment, err := s.repo.Assignment().GetByExamAndStudent(ctx, nil, examID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	if assignment.Status == models.AssignmentCompleted {
		return nil, ErrExamAlreadySubmitted
	}

	exam, err := s.repo.Exam().GetByIDWithDetails(ctx, nil, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	if !exam.IsActive {
		return nil, ErrExamInactive
	}
	if len(exam.Questions) == 0 {
		return nil, ErrExamHasNoQuestions
	}

	// The first fetch stamps started_at; re-opening keeps the original.
	firstStart := assignment.StartedAt == nil
	if err := s.repo.Assignment().MarkStarted(ctx, nil, assignment.ID); err != nil {
		return nil, fmt.Errorf("failed to mark assignment started: %w", err)
	}

	startedAt := time.Now().UTC()
	if assignment.StartedAt != nil {
		startedAt = *assignment.StartedAt
	}

	if firstStart {
		s.publishEvent(ctx, events.NewEvent(events.EventExamStarted, &events.ExamStartedEvent{
			ExamID:    examID,
			StudentID: studentID,
		}))
	}

	questions := make([]models.TakerQuestion, len(exam.Questions))
	for i, eq := range exam.Questions {
		questions[i] = eq.Question.TakerView()
	}

	return &TakeExamResponse{
		ExamID:          exam.ID,
		Title:           exam.Title,
		DurationMinutes: exam.Duration,
		QuestionCount:   len(questions),
		Questions:       questions,
		StartedAt:       startedAt,
	}, nil
}

// ===== SUBMIT =====

func (s *submissionService) Submit(ctx context.Context, examID uint, req *SubmitExamRequest, studentID string) (*SubmitExamResponse, error) {
	s.logger.Info("Submitting exam",
		"exam_id", examID,
		"student_id", studentID,
		"answer_count", len(req.Answers))

	assignment, err := s.repo.Assignment().GetByExamAndStudent(ctx, nil, examID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	if assignment.Status == models.AssignmentCompleted {
		return nil, ErrExamAlreadySubmitted
	}

	exam, err := s.repo.Exam().GetByIDWithDetails(ctx, nil, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	summary := scoreExam(exam, req.Answers)

	completedAt := time.Now().UTC()
	startedAt := completedAt
	if assignment.StartedAt != nil {
		startedAt = *assignment.StartedAt
	}

	timeTaken := 0
	if req.TimeTaken != nil {
		timeTaken = *req.TimeTaken
	} else {
		timeTaken = int(math.Round(completedAt.Sub(startedAt).Seconds()))
	}
	if timeTaken < 0 {
		timeTaken = 0
	}

	answersJSON, err := json.Marshal(summary.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal answers: %w", err)
	}

	result := &models.ExamResult{
		ExamID:           examID,
		StudentID:        studentID,
		Score:            summary.Score,
		TotalQuestions:   summary.TotalQuestions,
		Percentage:       summary.Percentage,
		Outcome:          summary.Outcome,
		CorrectAnswers:   summary.Correct,
		WrongAnswers:     summary.Wrong,
		StartedAt:        startedAt,
		CompletedAt:      completedAt,
		TimeTakenSeconds: timeTaken,
		Answers:          answersJSON,
	}

	// The conditional completion and the result upsert commit together.
	// Whoever flips pending -> completed owns the result row; the loser
	// of a concurrent submit never reaches the upsert.
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		affected, err := txRepo.Assignment().CompleteIfPending(ctx, nil, assignment.ID, summary.Score, summary.Percentage, summary.Passed)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrExamAlreadySubmitted
		}

		return txRepo.Result().Upsert(ctx, nil, result)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Exam submitted",
		"exam_id", examID,
		"student_id", studentID,
		"score", summary.Score,
		"total", summary.TotalQuestions,
		"result", summary.Outcome)

	s.publishEvent(ctx, events.NewEvent(events.EventExamSubmitted, &events.ExamSubmittedEvent{
		ExamID:     examID,
		StudentID:  studentID,
		Score:      summary.Score,
		Total:      summary.TotalQuestions,
		Percentage: summary.Percentage,
		Passed:     summary.Passed,
	}))

	return &SubmitExamResponse{
		ExamID:           examID,
		Score:            summary.Score,
		TotalQuestions:   summary.TotalQuestions,
		Percentage:       summary.Percentage,
		Result:           summary.Outcome,
		CorrectAnswers:   summary.Correct,
		WrongAnswers:     summary.Wrong,
		TimeTakenSeconds: timeTaken,
		Review:           buildReviewItems(exam, summary.Answers),
	}, nil
}

// ===== STATUS =====

func (s *submissionService) Status(ctx context.Context, examID uint, studentID string) (*SubmissionStatusResponse, error) {
	assignment, err := s.repo.Assignment().GetByExamAndStudent(ctx, nil, examID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return &SubmissionStatusResponse{
		ExamID:    examID,
		Status:    assignment.Status,
		StartedAt: assignment.StartedAt,
		Submitted: assignment.Status == models.AssignmentCompleted,
	}, nil
}

func (s *submissionService) publishEvent(ctx context.Context, event *events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event",
			"event_type", event.Type,
			"error", err)
	}
}
