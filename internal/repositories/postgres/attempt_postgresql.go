package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

// ReportPostgreSQL stores attempt reports. Module and entry state lives in
// a single JSON column, so entry updates are read-modify-write under a row lock.
type ReportPostgreSQL struct {
	db *gorm.DB
}

func NewReportPostgreSQL(db *gorm.DB) repositories.ReportRepository {
	return &ReportPostgreSQL{db: db}
}

func (r *ReportPostgreSQL) Create(ctx context.Context, report *models.AttemptReport) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to create attempt report: %w", translateError(err))
	}
	return nil
}

func (r *ReportPostgreSQL) GetByID(ctx context.Context, id string) (*models.AttemptReport, error) {
	var report models.AttemptReport
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempt report %s: %w", id, translateError(err))
	}
	return &report, nil
}

func (r *ReportPostgreSQL) GetByUserAndAssessment(ctx context.Context, userID, assessmentID string) (*models.AttemptReport, error) {
	var report models.AttemptReport
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND assessment_id = ?", userID, assessmentID).
		First(&report).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt report: %w", translateError(err))
	}
	return &report, nil
}

func (r *ReportPostgreSQL) GetByIDs(ctx context.Context, ids []string) (map[string]*models.AttemptReport, error) {
	result := make(map[string]*models.AttemptReport, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var reports []*models.AttemptReport
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempt reports: %w", err)
	}
	for _, report := range reports {
		result[report.ID] = report
	}
	return result, nil
}

func (r *ReportPostgreSQL) UpdateEntry(ctx context.Context, reportID string, pos models.EntryPosition, update models.EntryUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var report models.AttemptReport
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", reportID).
			First(&report).Error
		if err != nil {
			return fmt.Errorf("failed to lock attempt report %s: %w", reportID, translateError(err))
		}
		if report.IsCompleted {
			return fmt.Errorf("attempt report %s is completed: %w", reportID, repositories.ErrPreconditionFailed)
		}
		if pos.Module >= len(report.Modules) || pos.Entry >= len(report.Modules[pos.Module].Entries) {
			return fmt.Errorf("entry %d of report %s: %w", pos.Index, reportID, repositories.ErrNotFound)
		}

		report.Entry(pos).Apply(update)

		result := tx.Model(&models.AttemptReport{}).
			Where("id = ? AND is_completed = ?", reportID, false).
			Updates(map[string]interface{}{
				"modules":    report.Modules,
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update entry %d of report %s: %w", pos.Index, reportID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("attempt report %s is completed: %w", reportID, repositories.ErrPreconditionFailed)
		}
		return nil
	})
}

func (r *ReportPostgreSQL) Complete(ctx context.Context, reportID string, completion *models.ReportCompletion) error {
	result := r.db.WithContext(ctx).
		Model(&models.AttemptReport{}).
		Where("id = ? AND is_completed = ?", reportID, false).
		Updates(map[string]interface{}{
			"modules":                 completion.Modules,
			"is_completed":            true,
			"is_suspended":            completion.IsSuspended,
			"submission_time_seconds": completion.SubmissionTimeSeconds,
			"last_index":              completion.LastIndex,
			"screenshots":             completion.Screenshots,
			"proctoring_violations":   completion.ProctoringViolations,
			"remarks":                 completion.Remarks,
			"score":                   completion.Score,
			"completed_at":            completion.CompletedAt,
			"updated_at":              completion.CompletedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to complete attempt report %s: %w", reportID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("attempt report %s is not open: %w", reportID, repositories.ErrPreconditionFailed)
	}
	return nil
}
