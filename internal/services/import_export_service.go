package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/validator"
)

// Import sheet layout: Category | Question | Option A..D | Correct (1-based).
const importOptionColumns = 4

type importExportService struct {
	repo              repositories.Repository
	db                *gorm.DB
	logger            *slog.Logger
	validator         *validator.Validator
	businessValidator *validator.BusinessValidator
}

func NewImportExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator) ImportExportService {
	return &importExportService{
		repo:              repo,
		db:                db,
		logger:            logger,
		validator:         v,
		businessValidator: validator.NewBusinessValidator(),
	}
}

// ===== IMPORT =====

// ImportQuestions reads an xlsx workbook and inserts the valid rows.
// Bad rows are reported by spreadsheet row number; they never fail the
// batch. Duplicates of existing bank questions are skipped.
func (s *importExportService) ImportQuestions(ctx context.Context, r io.Reader, creatorID string) (*ImportQuestionsResult, error) {
	s.logger.Info("Importing questions", "creator_id", creatorID)

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	result := &ImportQuestionsResult{Errors: []ImportRowError{}}
	var questions []*models.Question

	for i, row := range rows {
		if i == 0 {
			// Header row
			continue
		}
		rowNum := i + 1

		if isBlankRow(row) {
			continue
		}

		req, errs := s.parseImportRow(row)
		if len(errs) > 0 {
			result.Errors = append(result.Errors, ImportRowError{
				Row:     rowNum,
				Message: errs.Error(),
			})
			continue
		}

		exists, err := s.repo.Question().ExistsByCategoryAndText(ctx, nil, req.Category, req.Text, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to check for duplicate question: %w", err)
		}
		if exists {
			result.SkippedCount++
			continue
		}

		questions = append(questions, buildQuestion(req.Category, req.Text, req.Options, creatorID))
	}

	if len(questions) > 0 {
		if err := s.repo.Question().CreateBatch(ctx, nil, questions); err != nil {
			return nil, fmt.Errorf("failed to insert imported questions: %w", err)
		}
	}

	result.InsertedCount = len(questions)

	s.logger.Info("Questions imported",
		"inserted", result.InsertedCount,
		"skipped", result.SkippedCount,
		"errors", len(result.Errors))

	return result, nil
}

func (s *importExportService) parseImportRow(row []string) (*validator.QuestionCreateRequest, validator.ValidationErrors) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	category := cell(0)
	text := cell(1)

	options := make([]string, 0, importOptionColumns)
	for i := 0; i < importOptionColumns; i++ {
		options = append(options, cell(2+i))
	}

	correctRaw := cell(2 + importOptionColumns)
	correctIndex, err := strconv.Atoi(correctRaw)
	if err != nil {
		return nil, validator.ValidationErrors{{
			Field:   "correct_answer",
			Message: "correct answer must be a number",
			Value:   correctRaw,
			Rule:    "numeric",
		}}
	}

	return s.businessValidator.ValidateImportRow(category, text, options, correctIndex)
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ===== EXPORT =====

// ExportResults writes an exam's results as an xlsx workbook.
func (s *importExportService) ExportResults(ctx context.Context, examID uint, userID string, w io.Writer) error {
	s.logger.Info("Exporting exam results",
		"exam_id", examID,
		"user_id", userID)

	exam, err := s.repo.Exam().GetByID(ctx, nil, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("failed to get exam: %w", err)
	}

	// Limit 0 disables pagination on the repository side
	results, _, err := s.repo.Result().GetByExam(ctx, nil, examID, repositories.ResultFilters{
		SortBy:    "completed_at",
		SortOrder: "asc",
	})
	if err != nil {
		return fmt.Errorf("failed to get exam results: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Results"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{
		"Student ID", "Score", "Total Questions", "Percentage", "Result",
		"Correct", "Wrong", "Time Taken (s)", "Started At", "Completed At",
	}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, col+"1", h)
	}

	for i, r := range results {
		rowNum := strconv.Itoa(i + 2)
		values := []interface{}{
			r.StudentID,
			r.Score,
			r.TotalQuestions,
			r.Percentage,
			string(r.Outcome),
			r.CorrectAnswers,
			r.WrongAnswers,
			r.TimeTakenSeconds,
			r.StartedAt.Format(time.RFC3339),
			r.CompletedAt.Format(time.RFC3339),
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(sheet, col+rowNum, v)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Exam results exported",
		"exam_id", exam.ID,
		"rows", len(results))

	return nil
}
