package services

import (
	"context"
	"errors"
	"testing"

	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/validator"
)

func newQuestionFixture(t *testing.T) (*memoryRepository, QuestionService) {
	t.Helper()

	repo := newMemoryRepository()
	service := NewQuestionService(repo, nil, newTestLogger(), validator.New())
	return repo, service
}

func validQuestionRequest() *CreateQuestionRequest {
	return &CreateQuestionRequest{
		Category: "Networking",
		Text:     "Which port does HTTPS use by default?",
		Options: []validator.OptionRequest{
			{Text: "443", IsCorrect: true},
			{Text: "80", IsCorrect: false},
			{Text: "8080", IsCorrect: false},
		},
	}
}

func TestQuestionService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("valid question", func(t *testing.T) {
		_, service := newQuestionFixture(t)

		resp, err := service.Create(ctx, validQuestionRequest(), "teacher-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if resp.ID == 0 {
			t.Error("expected an assigned ID")
		}
		if len(resp.Options) != 3 {
			t.Fatalf("expected 3 options, got %d", len(resp.Options))
		}
		for i, opt := range resp.Options {
			if opt.Position != i {
				t.Errorf("option %d: expected position %d, got %d", i, i, opt.Position)
			}
		}
		if resp.CreatedBy != "teacher-1" {
			t.Errorf("expected creator teacher-1, got %s", resp.CreatedBy)
		}
	})

	t.Run("duplicate within category", func(t *testing.T) {
		_, service := newQuestionFixture(t)

		if _, err := service.Create(ctx, validQuestionRequest(), "teacher-1"); err != nil {
			t.Fatalf("first create failed: %v", err)
		}

		if _, err := service.Create(ctx, validQuestionRequest(), "teacher-1"); !errors.Is(err, ErrDuplicateQuestion) {
			t.Errorf("expected ErrDuplicateQuestion, got %v", err)
		}
	})

	t.Run("same text in another category is allowed", func(t *testing.T) {
		_, service := newQuestionFixture(t)

		if _, err := service.Create(ctx, validQuestionRequest(), "teacher-1"); err != nil {
			t.Fatalf("first create failed: %v", err)
		}

		req := validQuestionRequest()
		req.Category = "Security"
		if _, err := service.Create(ctx, req, "teacher-1"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("two correct options rejected", func(t *testing.T) {
		_, service := newQuestionFixture(t)

		req := validQuestionRequest()
		req.Options[1].IsCorrect = true

		_, err := service.Create(ctx, req, "teacher-1")
		var validationErrors ValidationErrors
		if !errors.As(err, &validationErrors) {
			t.Fatalf("expected validation errors, got %v", err)
		}
	})

	t.Run("no correct option rejected", func(t *testing.T) {
		_, service := newQuestionFixture(t)

		req := validQuestionRequest()
		req.Options[0].IsCorrect = false

		var validationErrors ValidationErrors
		if _, err := service.Create(ctx, req, "teacher-1"); !errors.As(err, &validationErrors) {
			t.Fatalf("expected validation errors, got %v", err)
		}
	})

	t.Run("single option rejected", func(t *testing.T) {
		_, service := newQuestionFixture(t)

		req := validQuestionRequest()
		req.Options = req.Options[:1]

		var validationErrors ValidationErrors
		if _, err := service.Create(ctx, req, "teacher-1"); !errors.As(err, &validationErrors) {
			t.Fatalf("expected validation errors, got %v", err)
		}
	})
}

func TestQuestionService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the option list", func(t *testing.T) {
		_, service := newQuestionFixture(t)

		created, err := service.Create(ctx, validQuestionRequest(), "teacher-1")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		update := &UpdateQuestionRequest{
			Category: "Networking",
			Text:     "Which port does HTTP use by default?",
			Options: []validator.OptionRequest{
				{Text: "80", IsCorrect: true},
				{Text: "443", IsCorrect: false},
			},
		}

		resp, err := service.Update(ctx, created.ID, update, "teacher-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(resp.Options) != 2 {
			t.Fatalf("expected 2 options after replacement, got %d", len(resp.Options))
		}
		if resp.CreatedBy != "teacher-1" {
			t.Errorf("update must keep the original creator, got %s", resp.CreatedBy)
		}
	})

	t.Run("rejected update leaves the stored question unchanged", func(t *testing.T) {
		_, service := newQuestionFixture(t)

		created, err := service.Create(ctx, validQuestionRequest(), "teacher-1")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		update := &UpdateQuestionRequest{
			Category: "Networking",
			Text:     "Rewritten prompt",
			Options: []validator.OptionRequest{
				{Text: "A", IsCorrect: true},
				{Text: "B", IsCorrect: true},
			},
		}

		var validationErrors ValidationErrors
		if _, err := service.Update(ctx, created.ID, update, "teacher-1"); !errors.As(err, &validationErrors) {
			t.Fatalf("expected validation errors for two correct options, got %v", err)
		}

		stored, err := service.GetByID(ctx, created.ID, "teacher-1")
		if err != nil {
			t.Fatalf("reload failed: %v", err)
		}
		if stored.Text != "Which port does HTTPS use by default?" {
			t.Errorf("rejected update must not touch the prompt, got %q", stored.Text)
		}
		if len(stored.Options) != 3 {
			t.Errorf("rejected update must not touch the options, got %d", len(stored.Options))
		}
		if correct := stored.CorrectOption(); correct == nil || correct.Text != "443" {
			t.Errorf("rejected update must not touch the key, got %+v", correct)
		}
	})

	t.Run("unknown question", func(t *testing.T) {
		_, service := newQuestionFixture(t)

		update := &UpdateQuestionRequest{
			Category: "Networking",
			Text:     "Anything",
			Options: []validator.OptionRequest{
				{Text: "A", IsCorrect: true},
				{Text: "B", IsCorrect: false},
			},
		}

		if _, err := service.Update(ctx, 9999, update, "teacher-1"); !errors.Is(err, ErrQuestionNotFound) {
			t.Errorf("expected ErrQuestionNotFound, got %v", err)
		}
	})
}

func TestQuestionService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes an unused question", func(t *testing.T) {
		_, service := newQuestionFixture(t)

		created, err := service.Create(ctx, validQuestionRequest(), "teacher-1")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		if err := service.Delete(ctx, created.ID, "teacher-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := service.GetByID(ctx, created.ID, "teacher-1"); !errors.Is(err, ErrQuestionNotFound) {
			t.Errorf("expected ErrQuestionNotFound after delete, got %v", err)
		}
	})

	t.Run("question referenced by an exam is protected", func(t *testing.T) {
		repo, service := newQuestionFixture(t)

		created, err := service.Create(ctx, validQuestionRequest(), "teacher-1")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		exam := &models.Exam{
			Title:          "Uses the question",
			Duration:       30,
			PassPercentage: 60,
			IsActive:       true,
			Questions:      []models.ExamQuestion{{QuestionID: created.ID, Position: 0}},
		}
		if err := repo.Exam().Create(ctx, nil, exam); err != nil {
			t.Fatalf("failed to seed exam: %v", err)
		}

		if err := service.Delete(ctx, created.ID, "teacher-1"); !errors.Is(err, ErrQuestionInUse) {
			t.Errorf("expected ErrQuestionInUse, got %v", err)
		}
	})

	t.Run("batch delete rejects partially unknown sets", func(t *testing.T) {
		_, service := newQuestionFixture(t)

		created, err := service.Create(ctx, validQuestionRequest(), "teacher-1")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		err = service.DeleteBatch(ctx, &BulkDeleteRequest{IDs: []uint{created.ID, 9999}}, "teacher-1")
		if !errors.Is(err, ErrQuestionNotFound) {
			t.Errorf("expected ErrQuestionNotFound, got %v", err)
		}

		// The known question must survive the rejected batch
		if _, err := service.GetByID(ctx, created.ID, "teacher-1"); err != nil {
			t.Errorf("question vanished after rejected batch delete: %v", err)
		}
	})
}

func TestQuestionService_ListAndCategories(t *testing.T) {
	ctx := context.Background()

	_, service := newQuestionFixture(t)

	first := validQuestionRequest()
	if _, err := service.Create(ctx, first, "teacher-1"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	second := validQuestionRequest()
	second.Category = "Security"
	second.Text = "What does TLS stand for?"
	if _, err := service.Create(ctx, second, "teacher-1"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	category := "Security"
	list, err := service.List(ctx, repositories.QuestionFilters{Category: &category}, "teacher-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Questions) != 1 || list.Total != 1 {
		t.Errorf("expected one Security question, got %d (total %d)", len(list.Questions), list.Total)
	}

	categories, err := service.Categories(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(categories) != 2 {
		t.Errorf("expected 2 categories, got %v", categories)
	}
}
