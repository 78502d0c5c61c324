package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

type AssignmentPostgreSQL struct {
	db *gorm.DB
}

func NewAssignmentPostgreSQL(db *gorm.DB) repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{db: db}
}

func (a *AssignmentPostgreSQL) CreateBatch(ctx context.Context, assignments []*models.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	if err := a.db.WithContext(ctx).CreateInBatches(assignments, 100).Error; err != nil {
		return fmt.Errorf("failed to create assignments: %w", translateError(err))
	}
	return nil
}

func (a *AssignmentPostgreSQL) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := a.db.WithContext(ctx).Where("id = ?", id).First(&assignment).Error; err != nil {
		return nil, fmt.Errorf("failed to get assignment %s: %w", id, translateError(err))
	}
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) GetByUserAndAssessment(ctx context.Context, userID, assessmentID string) (*models.Assignment, error) {
	var assignment models.Assignment
	err := a.db.WithContext(ctx).
		Where("user_id = ? AND assessment_id = ?", userID, assessmentID).
		First(&assignment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", translateError(err))
	}
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) ListByUser(ctx context.Context, userID string, filters repositories.AssignmentFilters) ([]*models.Assignment, error) {
	query := a.db.WithContext(ctx).Where("user_id = ?", userID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var assignments []*models.Assignment
	query = query.Order("created_at DESC").Order("id")
	if err := applyPagination(query, filters.Limit, filters.Offset).Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("failed to list assignments for user: %w", err)
	}
	return assignments, nil
}

func (a *AssignmentPostgreSQL) ListByAssessment(ctx context.Context, assessmentID string) ([]*models.Assignment, error) {
	var assignments []*models.Assignment
	err := a.db.WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("created_at DESC").
		Order("id").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments for assessment: %w", err)
	}
	return assignments, nil
}

func (a *AssignmentPostgreSQL) FindAssignedUserIDs(ctx context.Context, assessmentID string, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var assigned []string
	err := a.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("assessment_id = ? AND user_id IN ?", assessmentID, userIDs).
		Pluck("user_id", &assigned).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find existing assignments: %w", err)
	}
	return assigned, nil
}

func (a *AssignmentPostgreSQL) CountByAssessment(ctx context.Context, assessmentID string) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("assessment_id = ?", assessmentID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return count, nil
}

func (a *AssignmentPostgreSQL) Update(ctx context.Context, assignment *models.Assignment) error {
	result := a.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ?", assignment.ID).
		Updates(map[string]interface{}{
			"status":          assignment.Status,
			"score":           assignment.Score,
			"attempt_count":   assignment.AttemptCount,
			"last_attempt_at": assignment.LastAttemptAt,
			"report_id":       assignment.ReportID,
			"due_date":        assignment.DueDate,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update assignment %s: %w", assignment.ID, translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("assignment %s: %w", assignment.ID, repositories.ErrNotFound)
	}
	return nil
}
