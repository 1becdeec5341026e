package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/examstack/exam-service/internal/events"
	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/validator"
)

type assignmentService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewAssignmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) AssignmentService {
	return &assignmentService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      v,
		eventPublisher: publisher,
	}
}

// ===== FAN-OUT =====

func (s *assignmentService) AssignToAllStudents(ctx context.Context, req *AssignExamRequest, assignerID string) (*AssignExamResponse, error) {
	s.logger.Info("Assigning exam to all students",
		"exam_id", req.ExamID,
		"assigner_id", assignerID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exam, err := s.repo.Exam().GetByID(ctx, nil, req.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	if !exam.IsActive {
		return nil, ErrExamInactive
	}

	students, err := s.repo.User().ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	if len(students) == 0 {
		return nil, ErrNoStudentsFound
	}

	assignments := make([]*models.Assignment, len(students))
	studentIDs := make([]string, len(students))
	for i, student := range students {
		assignments[i] = &models.Assignment{
			ExamID:    req.ExamID,
			StudentID: student.ID,
			Status:    models.AssignmentPending,
		}
		studentIDs[i] = student.ID
	}

	inserted, err := s.repo.Assignment().BulkCreate(ctx, nil, assignments)
	if err != nil {
		return nil, fmt.Errorf("failed to create assignments: %w", err)
	}

	s.logger.Info("Exam assigned",
		"exam_id", req.ExamID,
		"assigned", inserted,
		"skipped", len(students)-int(inserted))

	s.publishEvent(ctx, events.NewEvent(events.EventExamAssigned, &events.ExamAssignedEvent{
		ExamID:        exam.ID,
		ExamTitle:     exam.Title,
		StudentIDs:    studentIDs,
		AssignedBy:    assignerID,
		AssignedCount: int(inserted),
	}))

	return &AssignExamResponse{
		ExamID:        req.ExamID,
		AssignedCount: int(inserted),
		SkippedCount:  len(students) - int(inserted),
	}, nil
}

// ===== GET OPERATIONS =====

func (s *assignmentService) GetByID(ctx context.Context, id uint, userID string) (*AssignmentResponse, error) {
	assignment, err := s.repo.Assignment().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return &AssignmentResponse{Assignment: assignment}, nil
}

func (s *assignmentService) GetByExamAndStudent(ctx context.Context, examID uint, studentID string) (*AssignmentResponse, error) {
	assignment, err := s.repo.Assignment().GetByExamAndStudent(ctx, nil, examID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return &AssignmentResponse{Assignment: assignment}, nil
}

// ===== LIST OPERATIONS =====

func (s *assignmentService) ListMine(ctx context.Context, studentID string, filters repositories.AssignmentFilters) (*AssignmentListResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}

	assignments, total, err := s.repo.Assignment().ListByStudent(ctx, nil, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	return buildAssignmentListResponse(assignments, total, filters), nil
}

func (s *assignmentService) ListByExam(ctx context.Context, examID uint, filters repositories.AssignmentFilters, userID string) (*AssignmentListResponse, error) {
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

	filters.ExamID = &examID
	assignments, total, err := s.repo.Assignment().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	return buildAssignmentListResponse(assignments, total, filters), nil
}

// ===== RETRY =====

// Retry reopens a completed assignment. The existing result row is left
// in place; the next submission's upsert replaces it, so reporting only
// ever sees the latest sitting.
func (s *assignmentService) Retry(ctx context.Context, assignmentID uint, grantedBy string) (*AssignmentResponse, error) {
	s.logger.Info("Granting exam retry",
		"assignment_id", assignmentID,
		"granted_by", grantedBy)

	assignment, err := s.repo.Assignment().GetByID(ctx, nil, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	if assignment.Status != models.AssignmentCompleted {
		return nil, ErrExamNotCompleted
	}

	affected, err := s.repo.Assignment().ResetToPending(ctx, nil, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to reset assignment: %w", err)
	}
	if affected == 0 {
		// Lost a race with another retry grant; already pending
		return nil, ErrExamNotCompleted
	}

	reset, err := s.repo.Assignment().GetByID(ctx, nil, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload assignment: %w", err)
	}

	s.publishEvent(ctx, events.NewEvent(events.EventExamRetried, &events.ExamRetriedEvent{
		ExamID:    reset.ExamID,
		StudentID: reset.StudentID,
		GrantedBy: grantedBy,
	}))

	return &AssignmentResponse{Assignment: reset}, nil
}

// publishEvent is fire-and-forget; a broker outage must not fail the
// request that triggered the event.
func (s *assignmentService) publishEvent(ctx context.Context, event *events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event",
			"event_type", event.Type,
			"error", err)
	}
}

func buildAssignmentListResponse(assignments []*models.Assignment, total int64, filters repositories.AssignmentFilters) *AssignmentListResponse {
	responses := make([]*AssignmentResponse, len(assignments))
	for i, a := range assignments {
		responses[i] = &AssignmentResponse{Assignment: a}
	}

	return &AssignmentListResponse{
		Assignments: responses,
		Total:       total,
		Page:        filters.Offset/filters.Limit + 1,
		Size:        filters.Limit,
	}
}
