package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

type ModulePostgreSQL struct {
	db *gorm.DB
}

func NewModulePostgreSQL(db *gorm.DB) repositories.ModuleRepository {
	return &ModulePostgreSQL{db: db}
}

func (m *ModulePostgreSQL) Create(ctx context.Context, module *models.Module) error {
	if err := m.db.WithContext(ctx).Create(module).Error; err != nil {
		return fmt.Errorf("failed to create module: %w", translateError(err))
	}
	return nil
}

func (m *ModulePostgreSQL) CreateBatch(ctx context.Context, modules []*models.Module) error {
	if len(modules) == 0 {
		return nil
	}
	if err := m.db.WithContext(ctx).Create(modules).Error; err != nil {
		return fmt.Errorf("failed to create modules: %w", translateError(err))
	}
	return nil
}

func (m *ModulePostgreSQL) GetByID(ctx context.Context, id string) (*models.Module, error) {
	var module models.Module
	if err := m.db.WithContext(ctx).Where("id = ?", id).First(&module).Error; err != nil {
		return nil, fmt.Errorf("failed to get module %s: %w", id, translateError(err))
	}
	return &module, nil
}

func (m *ModulePostgreSQL) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Module, error) {
	result := make(map[string]*models.Module, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var modules []*models.Module
	if err := m.db.WithContext(ctx).Where("id IN ?", ids).Find(&modules).Error; err != nil {
		return nil, fmt.Errorf("failed to get modules: %w", err)
	}
	for _, module := range modules {
		result[module.ID] = module
	}
	return result, nil
}

func (m *ModulePostgreSQL) Update(ctx context.Context, module *models.Module) error {
	if err := m.db.WithContext(ctx).Omit("created_at").Save(module).Error; err != nil {
		return fmt.Errorf("failed to update module %s: %w", module.ID, translateError(err))
	}
	return nil
}

func (m *ModulePostgreSQL) Delete(ctx context.Context, id string) error {
	result := m.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Module{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete module %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("module %s: %w", id, repositories.ErrNotFound)
	}
	return nil
}

func (m *ModulePostgreSQL) DeleteByAssessment(ctx context.Context, assessmentID string) error {
	if err := m.db.WithContext(ctx).Where("assessment_id = ?", assessmentID).Delete(&models.Module{}).Error; err != nil {
		return fmt.Errorf("failed to delete modules of assessment %s: %w", assessmentID, err)
	}
	return nil
}
