package repositories

import (
	"context"

	"github.com/examstack/exam-service/internal/models"
)

// UserRepository interface for user operations (read-only; the exam
// service is not the owner of user data)
type UserRepository interface {
	// Basic read operations
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)

	// List and search operations
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	// ListStudents returns every user holding the student role; used for
	// assignment fan-out.
	ListStudents(ctx context.Context) ([]*models.User, error)

	// Validation and checks
	ExistsByID(ctx context.Context, id string) (bool, error)
	HasRole(ctx context.Context, id string, role models.UserRole) (bool, error)
}
