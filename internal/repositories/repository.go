package repositories

import "context"

// Repository aggregates all repository interfaces
type Repository interface {
	Assessment() AssessmentRepository
	Module() ModuleRepository
	Question() QuestionRepository
	Assignment() AssignmentRepository
	Report() ReportRepository

	// User domain (read-only, external directory)
	User() UserRepository

	// WithTransaction runs fn against a repository bound to one transaction.
	// Any error returned by fn rolls the transaction back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
