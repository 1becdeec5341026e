package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/validator"
)

func newExamFixture(t *testing.T, questionCount int) (*memoryRepository, ExamService, []uint) {
	t.Helper()

	repo := newMemoryRepository()
	ctx := context.Background()

	questionIDs := make([]uint, 0, questionCount)
	for i := 0; i < questionCount; i++ {
		question := &models.Question{
			Category: "General",
			Text:     fmt.Sprintf("Exam fixture question %d", i+1),
			Options: []models.QuestionOption{
				{Text: "Right", IsCorrect: true, Position: 0},
				{Text: "Wrong", IsCorrect: false, Position: 1},
			},
		}
		if err := repo.Question().Create(ctx, nil, question); err != nil {
			t.Fatalf("failed to seed question: %v", err)
		}
		questionIDs = append(questionIDs, question.ID)
	}

	service := NewExamService(repo, nil, newTestLogger(), validator.New())
	return repo, service, questionIDs
}

func TestExamService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("valid exam", func(t *testing.T) {
		_, service, questionIDs := newExamFixture(t, 3)

		resp, err := service.Create(ctx, &CreateExamRequest{
			Title:          "Midterm",
			Category:       "General",
			Duration:       45,
			PassPercentage: 60,
			QuestionIDs:    questionIDs,
		}, "teacher-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !resp.IsActive {
			t.Error("a new exam must start active")
		}
		if resp.QuestionCount != 3 {
			t.Errorf("expected question count 3, got %d", resp.QuestionCount)
		}
		for i, eq := range resp.Questions {
			if eq.Position != i {
				t.Errorf("question %d: expected position %d, got %d", i, i, eq.Position)
			}
		}
	})

	t.Run("repeated question IDs keep their positions", func(t *testing.T) {
		_, service, questionIDs := newExamFixture(t, 1)

		resp, err := service.Create(ctx, &CreateExamRequest{
			Title:          "Doubled",
			Duration:       30,
			PassPercentage: 50,
			QuestionIDs:    []uint{questionIDs[0], questionIDs[0]},
		}, "teacher-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if resp.QuestionCount != 2 {
			t.Fatalf("each occurrence counts, expected 2, got %d", resp.QuestionCount)
		}
		if resp.Questions[0].Position != 0 || resp.Questions[1].Position != 1 {
			t.Errorf("expected positions 0 and 1, got %d and %d", resp.Questions[0].Position, resp.Questions[1].Position)
		}
	})

	t.Run("unknown question ID", func(t *testing.T) {
		_, service, questionIDs := newExamFixture(t, 1)

		_, err := service.Create(ctx, &CreateExamRequest{
			Title:          "Broken",
			Duration:       30,
			PassPercentage: 50,
			QuestionIDs:    append(questionIDs, 9999),
		}, "teacher-1")
		if !errors.Is(err, ErrQuestionNotFound) {
			t.Errorf("expected ErrQuestionNotFound, got %v", err)
		}
	})

	t.Run("empty question list rejected", func(t *testing.T) {
		_, service, _ := newExamFixture(t, 0)

		_, err := service.Create(ctx, &CreateExamRequest{
			Title:          "Empty",
			Duration:       30,
			PassPercentage: 50,
			QuestionIDs:    []uint{},
		}, "teacher-1")
		if err == nil {
			t.Fatal("expected a validation error for an empty question list")
		}
	})
}

func TestExamService_SetActive(t *testing.T) {
	ctx := context.Background()

	t.Run("toggles the flag", func(t *testing.T) {
		_, service, questionIDs := newExamFixture(t, 1)

		created, err := service.Create(ctx, &CreateExamRequest{
			Title:          "Toggle",
			Duration:       30,
			PassPercentage: 50,
			QuestionIDs:    questionIDs,
		}, "teacher-1")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		if err := service.SetActive(ctx, created.ID, false, "teacher-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		reloaded, err := service.GetByID(ctx, created.ID, "teacher-1")
		if err != nil {
			t.Fatalf("reload failed: %v", err)
		}
		if reloaded.IsActive {
			t.Error("expected the exam to be inactive")
		}
	})

	t.Run("unknown exam", func(t *testing.T) {
		_, service, _ := newExamFixture(t, 0)

		if err := service.SetActive(ctx, 9999, true, "teacher-1"); !errors.Is(err, ErrExamNotFound) {
			t.Errorf("expected ErrExamNotFound, got %v", err)
		}
	})
}

func TestExamService_GetByIDWithDetails(t *testing.T) {
	ctx := context.Background()

	_, service, questionIDs := newExamFixture(t, 2)

	created, err := service.Create(ctx, &CreateExamRequest{
		Title:          "Detailed",
		Duration:       30,
		PassPercentage: 50,
		QuestionIDs:    questionIDs,
	}, "teacher-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	resp, err := service.GetByIDWithDetails(ctx, created.ID, "teacher-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Questions) != 2 {
		t.Fatalf("expected 2 questions with content, got %d", len(resp.Questions))
	}
	for i, eq := range resp.Questions {
		if eq.Question.ID == 0 || eq.Question.Text == "" {
			t.Errorf("question %d: expected loaded content, got %+v", i, eq.Question)
		}
		if eq.Question.CorrectOption() == nil {
			t.Errorf("question %d: author view must carry the answer key", i)
		}
	}
}

func TestExamService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the exam", func(t *testing.T) {
		_, service, questionIDs := newExamFixture(t, 1)

		created, err := service.Create(ctx, &CreateExamRequest{
			Title:          "Doomed",
			Duration:       30,
			PassPercentage: 50,
			QuestionIDs:    questionIDs,
		}, "teacher-1")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		if err := service.Delete(ctx, created.ID, "teacher-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := service.GetByID(ctx, created.ID, "teacher-1"); !errors.Is(err, ErrExamNotFound) {
			t.Errorf("expected ErrExamNotFound after delete, got %v", err)
		}
	})

	t.Run("unknown exam", func(t *testing.T) {
		_, service, _ := newExamFixture(t, 0)

		if err := service.Delete(ctx, 9999, "teacher-1"); !errors.Is(err, ErrExamNotFound) {
			t.Errorf("expected ErrExamNotFound, got %v", err)
		}
	})
}

func TestExamService_GetStats(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates over assignments", func(t *testing.T) {
		repo, service, questionIDs := newExamFixture(t, 1)

		created, err := service.Create(ctx, &CreateExamRequest{
			Title:          "Stats",
			Duration:       30,
			PassPercentage: 50,
			QuestionIDs:    questionIDs,
		}, "teacher-1")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		for i, studentID := range []string{"student-1", "student-2", "student-3"} {
			assignment := &models.Assignment{
				ExamID:    created.ID,
				StudentID: studentID,
				Status:    models.AssignmentPending,
			}
			if err := repo.Assignment().Create(ctx, nil, assignment); err != nil {
				t.Fatalf("failed to seed assignment: %v", err)
			}
			// Complete the first two: one pass, one fail
			if i < 2 {
				passed := i == 0
				percentage := float64(100 * (1 - i))
				if _, err := repo.Assignment().CompleteIfPending(ctx, nil, assignment.ID, 1-i, percentage, passed); err != nil {
					t.Fatalf("failed to complete assignment: %v", err)
				}
			}
		}

		stats, err := service.GetStats(ctx, created.ID, "teacher-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if stats.TotalAssigned != 3 {
			t.Errorf("expected 3 assigned, got %d", stats.TotalAssigned)
		}
		if stats.Completed != 2 || stats.Pending != 1 {
			t.Errorf("expected 2 completed 1 pending, got %d/%d", stats.Completed, stats.Pending)
		}
		if stats.PassRate != 50 {
			t.Errorf("expected 50%% pass rate, got %f", stats.PassRate)
		}
		if stats.AveragePercentage != 50 {
			t.Errorf("expected average percentage 50, got %f", stats.AveragePercentage)
		}
	})

	t.Run("unknown exam", func(t *testing.T) {
		_, service, _ := newExamFixture(t, 0)

		if _, err := service.GetStats(ctx, 9999, "teacher-1"); !errors.Is(err, ErrExamNotFound) {
			t.Errorf("expected ErrExamNotFound, got %v", err)
		}
	})
}

func TestExamService_List(t *testing.T) {
	ctx := context.Background()

	_, service, questionIDs := newExamFixture(t, 1)

	for _, title := range []string{"First", "Second"} {
		if _, err := service.Create(ctx, &CreateExamRequest{
			Title:          title,
			Duration:       30,
			PassPercentage: 50,
			QuestionIDs:    questionIDs,
		}, "teacher-1"); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	second, err := service.GetByID(ctx, 2, "teacher-1")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if err := service.SetActive(ctx, second.ID, false, "teacher-1"); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	active := true
	list, err := service.List(ctx, repositories.ExamFilters{IsActive: &active}, "teacher-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Exams) != 1 || list.Total != 1 {
		t.Fatalf("expected one active exam, got %d (total %d)", len(list.Exams), list.Total)
	}
	if list.Exams[0].Title != "First" {
		t.Errorf("expected the active exam, got %s", list.Exams[0].Title)
	}
}
