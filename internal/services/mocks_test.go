package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
)

// memoryRepository is an in-memory Repository implementation for service
// tests. Transactions run the callback against the same store; the
// conditional lifecycle updates still behave like their SQL versions.
type memoryRepository struct {
	mu sync.Mutex

	questions   map[uint]*models.Question
	exams       map[uint]*models.Exam
	assignments map[uint]*models.Assignment
	results     map[string]*models.ExamResult
	students    []*models.User

	nextQuestionID   uint
	nextExamID       uint
	nextAssignmentID uint
	nextResultID     uint
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		questions:   make(map[uint]*models.Question),
		exams:       make(map[uint]*models.Exam),
		assignments: make(map[uint]*models.Assignment),
		results:     make(map[string]*models.ExamResult),
	}
}

func resultKey(examID uint, studentID string) string {
	return fmt.Sprintf("%d:%s", examID, studentID)
}

func (m *memoryRepository) Question() repositories.QuestionRepository {
	return &memoryQuestionRepo{m}
}

func (m *memoryRepository) Exam() repositories.ExamRepository {
	return &memoryExamRepo{m}
}

func (m *memoryRepository) Assignment() repositories.AssignmentRepository {
	return &memoryAssignmentRepo{m}
}

func (m *memoryRepository) Result() repositories.ResultRepository {
	return &memoryResultRepo{m}
}

func (m *memoryRepository) User() repositories.UserRepository {
	return &memoryUserRepo{m}
}

func (m *memoryRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *memoryRepository) Ping(ctx context.Context) error { return nil }
func (m *memoryRepository) Close() error                   { return nil }

// addStudent seeds a student for fan-out tests.
func (m *memoryRepository) addStudent(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students = append(m.students, &models.User{
		ID:       id,
		FullName: "Student " + id,
		Email:    id + "@example.com",
		Role:     models.RoleStudent,
	})
}

// ===== QUESTION REPOSITORY =====

type memoryQuestionRepo struct {
	m *memoryRepository
}

func (r *memoryQuestionRepo) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.nextQuestionID++
	question.ID = r.m.nextQuestionID
	question.CreatedAt = time.Now()
	for i := range question.Options {
		question.Options[i].ID = question.ID*100 + uint(i) + 1
		question.Options[i].QuestionID = question.ID
	}
	r.m.questions[question.ID] = question
	return nil
}

func (r *memoryQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	question, ok := r.m.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return question, nil
}

func (r *memoryQuestionRepo) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.questions[question.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range question.Options {
		if question.Options[i].ID == 0 {
			question.Options[i].ID = question.ID*100 + uint(i) + 1
		}
	}
	r.m.questions[question.ID] = question
	return nil
}

func (r *memoryQuestionRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	delete(r.m.questions, id)
	return nil
}

func (r *memoryQuestionRepo) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	for _, q := range questions {
		if err := r.Create(ctx, tx, q); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryQuestionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []*models.Question
	for _, id := range ids {
		if q, ok := r.m.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *memoryQuestionRepo) DeleteBatch(ctx context.Context, tx *gorm.DB, ids []uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, id := range ids {
		delete(r.m.questions, id)
	}
	return nil
}

func (r *memoryQuestionRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []*models.Question
	for _, q := range r.m.questions {
		if filters.Category != nil && q.Category != *filters.Category {
			continue
		}
		if filters.Search != "" && !strings.Contains(strings.ToLower(q.Text), strings.ToLower(filters.Search)) {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memoryQuestionRepo) Categories(ctx context.Context, tx *gorm.DB) ([]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	seen := make(map[string]struct{})
	var out []string
	for _, q := range r.m.questions {
		if _, ok := seen[q.Category]; !ok {
			seen[q.Category] = struct{}{}
			out = append(out, q.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *memoryQuestionRepo) ExistsByCategoryAndText(ctx context.Context, tx *gorm.DB, category, text string, excludeID *uint) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, q := range r.m.questions {
		if excludeID != nil && q.ID == *excludeID {
			continue
		}
		if q.Category == category && q.Text == text {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryQuestionRepo) CountByIDs(ctx context.Context, tx *gorm.DB, ids []uint) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var count int64
	for _, id := range ids {
		if _, ok := r.m.questions[id]; ok {
			count++
		}
	}
	return count, nil
}

func (r *memoryQuestionRepo) IsUsedInExams(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, exam := range r.m.exams {
		for _, eq := range exam.Questions {
			if eq.QuestionID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

// ===== EXAM REPOSITORY =====

type memoryExamRepo struct {
	m *memoryRepository
}

func (r *memoryExamRepo) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.nextExamID++
	exam.ID = r.m.nextExamID
	exam.CreatedAt = time.Now()
	for i := range exam.Questions {
		exam.Questions[i].ID = exam.ID*100 + uint(i) + 1
		exam.Questions[i].ExamID = exam.ID
	}
	r.m.exams[exam.ID] = exam
	return nil
}

func (r *memoryExamRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	exam, ok := r.m.exams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return exam, nil
}

// GetByIDWithDetails joins full question content in position order, the
// way the SQL repository preloads it.
func (r *memoryExamRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	exam, ok := r.m.exams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	detailed := *exam
	detailed.Questions = make([]models.ExamQuestion, len(exam.Questions))
	copy(detailed.Questions, exam.Questions)
	sort.Slice(detailed.Questions, func(i, j int) bool {
		return detailed.Questions[i].Position < detailed.Questions[j].Position
	})
	for i := range detailed.Questions {
		if q, ok := r.m.questions[detailed.Questions[i].QuestionID]; ok {
			detailed.Questions[i].Question = *q
		}
	}
	detailed.QuestionCount = len(detailed.Questions)
	return &detailed, nil
}

func (r *memoryExamRepo) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.exams[exam.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.m.exams[exam.ID] = exam
	return nil
}

func (r *memoryExamRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	delete(r.m.exams, id)
	return nil
}

func (r *memoryExamRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []*models.Exam
	for _, exam := range r.m.exams {
		if filters.IsActive != nil && exam.IsActive != *filters.IsActive {
			continue
		}
		if filters.Category != nil && exam.Category != *filters.Category {
			continue
		}
		out = append(out, exam)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memoryExamRepo) SetActive(ctx context.Context, tx *gorm.DB, id uint, active bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	exam, ok := r.m.exams[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	exam.IsActive = active
	return nil
}

func (r *memoryExamRepo) Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	_, ok := r.m.exams[id]
	return ok, nil
}

// ===== ASSIGNMENT REPOSITORY =====

type memoryAssignmentRepo struct {
	m *memoryRepository
}

func (r *memoryAssignmentRepo) Create(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.nextAssignmentID++
	assignment.ID = r.m.nextAssignmentID
	assignment.CreatedAt = time.Now()
	r.m.assignments[assignment.ID] = assignment
	return nil
}

func (r *memoryAssignmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assignment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	assignment, ok := r.m.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (r *memoryAssignmentRepo) GetByExamAndStudent(ctx context.Context, tx *gorm.DB, examID uint, studentID string) (*models.Assignment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, a := range r.m.assignments {
		if a.ExamID == examID && a.StudentID == studentID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// BulkCreate skips existing (exam, student) pairs like the SQL ON
// CONFLICT DO NOTHING path.
func (r *memoryAssignmentRepo) BulkCreate(ctx context.Context, tx *gorm.DB, assignments []*models.Assignment) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var inserted int64
	for _, a := range assignments {
		exists := false
		for _, existing := range r.m.assignments {
			if existing.ExamID == a.ExamID && existing.StudentID == a.StudentID {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		r.m.nextAssignmentID++
		a.ID = r.m.nextAssignmentID
		a.CreatedAt = time.Now()
		r.m.assignments[a.ID] = a
		inserted++
	}
	return inserted, nil
}

func (r *memoryAssignmentRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.AssignmentFilters) ([]*models.Assignment, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []*models.Assignment
	for _, a := range r.m.assignments {
		if filters.ExamID != nil && a.ExamID != *filters.ExamID {
			continue
		}
		if filters.StudentID != nil && a.StudentID != *filters.StudentID {
			continue
		}
		if filters.Status != nil && a.Status != *filters.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memoryAssignmentRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AssignmentFilters) ([]*models.Assignment, int64, error) {
	filters.StudentID = &studentID
	return r.List(ctx, tx, filters)
}

func (r *memoryAssignmentRepo) MarkStarted(ctx context.Context, tx *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	assignment, ok := r.m.assignments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if assignment.StartedAt == nil {
		now := time.Now().UTC()
		assignment.StartedAt = &now
	}
	return nil
}

func (r *memoryAssignmentRepo) CompleteIfPending(ctx context.Context, tx *gorm.DB, id uint, score int, percentage float64, passed bool) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	assignment, ok := r.m.assignments[id]
	if !ok || assignment.Status != models.AssignmentPending {
		return 0, nil
	}

	now := time.Now().UTC()
	assignment.Status = models.AssignmentCompleted
	assignment.Score = &score
	assignment.Percentage = &percentage
	assignment.Passed = &passed
	assignment.CompletedAt = &now
	return 1, nil
}

func (r *memoryAssignmentRepo) ResetToPending(ctx context.Context, tx *gorm.DB, id uint) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	assignment, ok := r.m.assignments[id]
	if !ok || assignment.Status != models.AssignmentCompleted {
		return 0, nil
	}

	assignment.Status = models.AssignmentPending
	assignment.Score = nil
	assignment.Percentage = nil
	assignment.Passed = nil
	assignment.StartedAt = nil
	assignment.CompletedAt = nil
	return 1, nil
}

func (r *memoryAssignmentRepo) GetExamStats(ctx context.Context, tx *gorm.DB, examID uint) (*repositories.ExamStats, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	stats := &repositories.ExamStats{}
	var passed int
	for _, a := range r.m.assignments {
		if a.ExamID != examID {
			continue
		}
		stats.TotalAssigned++
		if a.Status == models.AssignmentCompleted {
			stats.Completed++
			if a.Percentage != nil {
				stats.AveragePercentage += *a.Percentage
			}
			if a.Score != nil {
				stats.AverageScore += float64(*a.Score)
			}
			if a.Passed != nil && *a.Passed {
				passed++
			}
		} else {
			stats.Pending++
		}
	}
	if stats.Completed > 0 {
		stats.AverageScore /= float64(stats.Completed)
		stats.AveragePercentage /= float64(stats.Completed)
		stats.PassRate = float64(passed) / float64(stats.Completed) * 100
	}
	return stats, nil
}

func (r *memoryAssignmentRepo) GetStudentSummary(ctx context.Context, tx *gorm.DB, studentID string) (*repositories.StudentSummary, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	summary := &repositories.StudentSummary{}
	for _, a := range r.m.assignments {
		if a.StudentID != studentID {
			continue
		}
		summary.TotalAssigned++
		if a.Status == models.AssignmentCompleted {
			summary.Completed++
			if a.Passed != nil && *a.Passed {
				summary.Passed++
			} else {
				summary.Failed++
			}
			if a.Percentage != nil {
				summary.AveragePercent += *a.Percentage
			}
		} else {
			summary.Pending++
		}
	}
	if summary.Completed > 0 {
		summary.AveragePercent /= float64(summary.Completed)
	}
	return summary, nil
}

// ===== RESULT REPOSITORY =====

type memoryResultRepo struct {
	m *memoryRepository
}

func (r *memoryResultRepo) Upsert(ctx context.Context, tx *gorm.DB, result *models.ExamResult) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	key := resultKey(result.ExamID, result.StudentID)
	if existing, ok := r.m.results[key]; ok {
		result.ID = existing.ID
		result.CreatedAt = existing.CreatedAt
	} else {
		r.m.nextResultID++
		result.ID = r.m.nextResultID
		result.CreatedAt = time.Now()
	}
	result.UpdatedAt = time.Now()
	r.m.results[key] = result
	return nil
}

func (r *memoryResultRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamResult, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, result := range r.m.results {
		if result.ID == id {
			return result, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryResultRepo) GetByExamAndStudent(ctx context.Context, tx *gorm.DB, examID uint, studentID string) (*models.ExamResult, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	result, ok := r.m.results[resultKey(examID, studentID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return result, nil
}

func (r *memoryResultRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.ResultFilters) ([]*models.ExamResult, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []*models.ExamResult
	for _, result := range r.m.results {
		if result.StudentID != studentID {
			continue
		}
		if filters.Outcome != nil && result.Outcome != *filters.Outcome {
			continue
		}
		out = append(out, result)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memoryResultRepo) GetByExam(ctx context.Context, tx *gorm.DB, examID uint, filters repositories.ResultFilters) ([]*models.ExamResult, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []*models.ExamResult
	for _, result := range r.m.results {
		if result.ExamID != examID {
			continue
		}
		if filters.Outcome != nil && result.Outcome != *filters.Outcome {
			continue
		}
		out = append(out, result)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memoryResultRepo) DeleteByExam(ctx context.Context, tx *gorm.DB, examID uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for key, result := range r.m.results {
		if result.ExamID == examID {
			delete(r.m.results, key)
		}
	}
	return nil
}

// ===== USER REPOSITORY =====

type memoryUserRepo struct {
	m *memoryRepository
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, u := range r.m.students {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, u := range r.m.students {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if u, err := r.GetByID(ctx, id); err == nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memoryUserRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	return r.m.students, int64(len(r.m.students)), nil
}

func (r *memoryUserRepo) ListStudents(ctx context.Context) ([]*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	out := make([]*models.User, len(r.m.students))
	copy(out, r.m.students)
	return out, nil
}

func (r *memoryUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, err := r.GetByID(ctx, id)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *memoryUserRepo) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return false, nil
	}
	return u.Role == role, nil
}
