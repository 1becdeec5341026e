package repositories

import "context"

// Repository aggregates all per-entity repository interfaces.
type Repository interface {
	// Question bank domain
	Question() QuestionRepository

	// Exam domain
	Exam() ExamRepository

	// Assignment domain
	Assignment() AssignmentRepository

	// Result domain
	Result() ResultRepository

	// User domain (read-only, backed by Casdoor)
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
