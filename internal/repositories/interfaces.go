package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type AssessmentFilters struct {
	VisibleOnly bool       `json:"visible_only"`
	CreatedBy   *string    `json:"created_by"`
	DateFrom    *time.Time `json:"date_from"`
	DateTo      *time.Time `json:"date_to"`
	Limit       int        `json:"limit"`
	Offset      int        `json:"offset"`
	SortBy      string     `json:"sort_by"`    // "created_at", "name"
	SortOrder   string     `json:"sort_order"` // "asc", "desc"
}

type AssignmentFilters struct {
	Status *models.AssignmentStatus `json:"status"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

type AssessmentRepository interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	GetByID(ctx context.Context, id string) (*models.Assessment, error)
	// GetByIDWithModules loads modules in ModuleRefs order. Refs that do not
	// resolve to a module are skipped.
	GetByIDWithModules(ctx context.Context, id string) (*models.Assessment, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.Assessment, error)
	List(ctx context.Context, filters AssessmentFilters) ([]*models.Assessment, int64, error)
	Update(ctx context.Context, assessment *models.Assessment) error
	Delete(ctx context.Context, id string) error
	ExistsByID(ctx context.Context, id string) (bool, error)
}

type ModuleRepository interface {
	Create(ctx context.Context, module *models.Module) error
	CreateBatch(ctx context.Context, modules []*models.Module) error
	GetByID(ctx context.Context, id string) (*models.Module, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.Module, error)
	Update(ctx context.Context, module *models.Module) error
	Delete(ctx context.Context, id string) error
	DeleteByAssessment(ctx context.Context, assessmentID string) error
}

type QuestionRepository interface {
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, id string) (*models.Question, error)
	// GetByIDs returns the questions found, keyed by id.
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.Question, error)
}

type AssignmentRepository interface {
	CreateBatch(ctx context.Context, assignments []*models.Assignment) error
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	GetByUserAndAssessment(ctx context.Context, userID, assessmentID string) (*models.Assignment, error)
	// ListByUser returns newest first.
	ListByUser(ctx context.Context, userID string, filters AssignmentFilters) ([]*models.Assignment, error)
	ListByAssessment(ctx context.Context, assessmentID string) ([]*models.Assignment, error)
	// FindAssignedUserIDs returns the subset of userIDs already assigned to the assessment.
	FindAssignedUserIDs(ctx context.Context, assessmentID string, userIDs []string) ([]string, error)
	CountByAssessment(ctx context.Context, assessmentID string) (int64, error)
	Update(ctx context.Context, assignment *models.Assignment) error
}

type ReportRepository interface {
	// Create returns ErrDuplicate when a report already exists for the pair.
	Create(ctx context.Context, report *models.AttemptReport) error
	GetByID(ctx context.Context, id string) (*models.AttemptReport, error)
	GetByUserAndAssessment(ctx context.Context, userID, assessmentID string) (*models.AttemptReport, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.AttemptReport, error)
	// UpdateEntry mutates one entry of an open report. It returns
	// ErrPreconditionFailed when the report is already completed.
	UpdateEntry(ctx context.Context, reportID string, pos models.EntryPosition, update models.EntryUpdate) error
	// Complete closes an open report. It returns ErrPreconditionFailed when
	// the report was completed concurrently.
	Complete(ctx context.Context, reportID string, completion *models.ReportCompletion) error
}
