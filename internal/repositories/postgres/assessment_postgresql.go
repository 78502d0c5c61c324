package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

type AssessmentPostgreSQL struct {
	db      *gorm.DB
	modules repositories.ModuleRepository
}

func NewAssessmentPostgreSQL(db *gorm.DB, modules repositories.ModuleRepository) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{db: db, modules: modules}
}

func (a *AssessmentPostgreSQL) Create(ctx context.Context, assessment *models.Assessment) error {
	if err := a.db.WithContext(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create assessment: %w", translateError(err))
	}
	return nil
}

func (a *AssessmentPostgreSQL) GetByID(ctx context.Context, id string) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := a.db.WithContext(ctx).Where("id = ?", id).First(&assessment).Error; err != nil {
		return nil, fmt.Errorf("failed to get assessment %s: %w", id, translateError(err))
	}
	return &assessment, nil
}

func (a *AssessmentPostgreSQL) GetByIDWithModules(ctx context.Context, id string) (*models.Assessment, error) {
	assessment, err := a.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	modules, err := a.modules.GetByIDs(ctx, assessment.ModuleRefs)
	if err != nil {
		return nil, fmt.Errorf("failed to load modules for assessment %s: %w", id, err)
	}

	assessment.Modules = make([]*models.Module, 0, len(assessment.ModuleRefs))
	for _, ref := range assessment.ModuleRefs {
		if module, ok := modules[ref]; ok {
			assessment.Modules = append(assessment.Modules, module)
		}
	}
	return assessment, nil
}

func (a *AssessmentPostgreSQL) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Assessment, error) {
	result := make(map[string]*models.Assessment, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var assessments []*models.Assessment
	if err := a.db.WithContext(ctx).Where("id IN ?", ids).Find(&assessments).Error; err != nil {
		return nil, fmt.Errorf("failed to get assessments: %w", err)
	}
	for _, assessment := range assessments {
		result[assessment.ID] = assessment
	}
	return result, nil
}

func (a *AssessmentPostgreSQL) List(ctx context.Context, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	query := applyAssessmentFilters(a.db.WithContext(ctx).Model(&models.Assessment{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count assessments: %w", err)
	}

	var assessments []*models.Assessment
	query = applySort(query, allowedAssessmentSort, filters.SortBy, filters.SortOrder, "created_at")
	if err := applyPagination(query, filters.Limit, filters.Offset).Find(&assessments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list assessments: %w", err)
	}
	return assessments, total, nil
}

func (a *AssessmentPostgreSQL) Update(ctx context.Context, assessment *models.Assessment) error {
	result := a.db.WithContext(ctx).Omit("created_at", "created_by").Save(assessment)
	if result.Error != nil {
		return fmt.Errorf("failed to update assessment %s: %w", assessment.ID, translateError(result.Error))
	}
	return nil
}

func (a *AssessmentPostgreSQL) Delete(ctx context.Context, id string) error {
	result := a.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Assessment{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete assessment %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("assessment %s: %w", id, repositories.ErrNotFound)
	}
	return nil
}

func (a *AssessmentPostgreSQL) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := a.db.WithContext(ctx).Model(&models.Assessment{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check assessment existence: %w", err)
	}
	return count > 0, nil
}
