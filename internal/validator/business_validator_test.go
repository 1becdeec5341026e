package validator

import (
	"testing"
)

func TestValidateQuestionContent(t *testing.T) {
	bv := NewBusinessValidator()

	valid := []OptionRequest{
		{Text: "Paris", IsCorrect: true},
		{Text: "London"},
		{Text: "Berlin"},
	}

	t.Run("valid question passes", func(t *testing.T) {
		errs := bv.ValidateQuestionContent("Geography", "Capital of France?", valid)
		if len(errs) != 0 {
			t.Fatalf("expected no errors, got %v", errs)
		}
	})

	t.Run("blank category rejected", func(t *testing.T) {
		errs := bv.ValidateQuestionContent("   ", "Capital of France?", valid)
		if len(errs) != 1 || errs[0].Field != "category" {
			t.Fatalf("expected category error, got %v", errs)
		}
	})

	t.Run("blank text rejected", func(t *testing.T) {
		errs := bv.ValidateQuestionContent("Geography", "", valid)
		if len(errs) != 1 || errs[0].Field != "text" {
			t.Fatalf("expected text error, got %v", errs)
		}
	})

	t.Run("single option rejected", func(t *testing.T) {
		errs := bv.ValidateQuestionContent("Geography", "Capital of France?", []OptionRequest{
			{Text: "Paris", IsCorrect: true},
		})
		if len(errs) != 1 || errs[0].Rule != "min_options" {
			t.Fatalf("expected min_options error, got %v", errs)
		}
	})

	t.Run("two correct options rejected", func(t *testing.T) {
		errs := bv.ValidateQuestionContent("Geography", "Capital of France?", []OptionRequest{
			{Text: "Paris", IsCorrect: true},
			{Text: "London", IsCorrect: true},
		})
		if len(errs) != 1 || errs[0].Rule != "single_correct" {
			t.Fatalf("expected single_correct error, got %v", errs)
		}
	})

	t.Run("no correct option rejected", func(t *testing.T) {
		errs := bv.ValidateQuestionContent("Geography", "Capital of France?", []OptionRequest{
			{Text: "Paris"},
			{Text: "London"},
		})
		if len(errs) != 1 || errs[0].Rule != "single_correct" {
			t.Fatalf("expected single_correct error, got %v", errs)
		}
	})

	t.Run("blank option text rejected", func(t *testing.T) {
		errs := bv.ValidateQuestionContent("Geography", "Capital of France?", []OptionRequest{
			{Text: "Paris", IsCorrect: true},
			{Text: "  "},
		})
		if len(errs) != 1 || errs[0].Message != "option text must not be blank" {
			t.Fatalf("expected blank option error, got %v", errs)
		}
	})
}

func TestValidateImportRow(t *testing.T) {
	bv := NewBusinessValidator()

	t.Run("valid row normalized", func(t *testing.T) {
		req, errs := bv.ValidateImportRow("Math", "2+2?", []string{"3", "4", "5"}, 2)
		if len(errs) != 0 {
			t.Fatalf("expected no errors, got %v", errs)
		}
		if len(req.Options) != 3 {
			t.Fatalf("expected 3 options, got %d", len(req.Options))
		}
		if !req.Options[1].IsCorrect {
			t.Errorf("expected second option marked correct")
		}
		if req.Options[0].IsCorrect || req.Options[2].IsCorrect {
			t.Errorf("only one option should be correct")
		}
	})

	t.Run("blank option cells dropped before indexing", func(t *testing.T) {
		req, errs := bv.ValidateImportRow("Math", "2+2?", []string{"3", "", "4"}, 2)
		if len(errs) != 0 {
			t.Fatalf("expected no errors, got %v", errs)
		}
		if len(req.Options) != 2 {
			t.Fatalf("expected 2 options, got %d", len(req.Options))
		}
		if !req.Options[1].IsCorrect {
			t.Errorf("expected second surviving option marked correct")
		}
	})

	t.Run("out of range index rejected", func(t *testing.T) {
		_, errs := bv.ValidateImportRow("Math", "2+2?", []string{"3", "4"}, 5)
		if len(errs) == 0 {
			t.Fatal("expected errors")
		}
		if errs[0].Rule != "in_range" {
			t.Errorf("expected in_range error first, got %v", errs[0])
		}
	})

	t.Run("zero index rejected", func(t *testing.T) {
		_, errs := bv.ValidateImportRow("Math", "2+2?", []string{"3", "4"}, 0)
		if len(errs) == 0 {
			t.Fatal("expected errors")
		}
	})
}
