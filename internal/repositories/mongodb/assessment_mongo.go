package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

type AssessmentMongo struct {
	coll    *mongo.Collection
	modules repositories.ModuleRepository
	scope   scope
}

func NewAssessmentMongo(db *mongo.Database, modules repositories.ModuleRepository, s scope) repositories.AssessmentRepository {
	return &AssessmentMongo{coll: db.Collection(assessmentCollection), modules: modules, scope: s}
}

func (a *AssessmentMongo) Create(ctx context.Context, assessment *models.Assessment) error {
	stamp(&assessment.CreatedAt, &assessment.UpdatedAt)
	if _, err := a.coll.InsertOne(a.scope.ctx(ctx), assessment); err != nil {
		return fmt.Errorf("failed to create assessment: %w", translateError(err))
	}
	return nil
}

func (a *AssessmentMongo) GetByID(ctx context.Context, id string) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := a.coll.FindOne(a.scope.ctx(ctx), bson.M{"_id": id}).Decode(&assessment); err != nil {
		return nil, fmt.Errorf("failed to get assessment %s: %w", id, translateError(err))
	}
	return &assessment, nil
}

func (a *AssessmentMongo) GetByIDWithModules(ctx context.Context, id string) (*models.Assessment, error) {
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

func (a *AssessmentMongo) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Assessment, error) {
	result := make(map[string]*models.Assessment, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cursor, err := a.coll.Find(a.scope.ctx(ctx), idFilter(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get assessments: %w", err)
	}
	var assessments []*models.Assessment
	if err := cursor.All(ctx, &assessments); err != nil {
		return nil, fmt.Errorf("failed to decode assessments: %w", err)
	}
	for _, assessment := range assessments {
		result[assessment.ID] = assessment
	}
	return result, nil
}

func (a *AssessmentMongo) List(ctx context.Context, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	filter := bson.M{}
	if filters.VisibleOnly {
		filter["isVisible"] = true
	}
	if filters.CreatedBy != nil {
		filter["createdBy"] = *filters.CreatedBy
	}
	created := bson.M{}
	if filters.DateFrom != nil {
		created["$gte"] = *filters.DateFrom
	}
	if filters.DateTo != nil {
		created["$lte"] = *filters.DateTo
	}
	if len(created) > 0 {
		filter["createdAt"] = created
	}

	ctx = a.scope.ctx(ctx)
	total, err := a.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count assessments: %w", err)
	}

	field, ok := allowedAssessmentSort[filters.SortBy]
	if !ok {
		field = "createdAt"
	}
	direction := -1
	if filters.SortOrder == "asc" {
		direction = 1
	}
	opts := findOptions(filters.Limit, filters.Offset).
		SetSort(bson.D{{Key: field, Value: direction}, {Key: "_id", Value: 1}})

	cursor, err := a.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assessments: %w", err)
	}
	assessments := make([]*models.Assessment, 0)
	if err := cursor.All(ctx, &assessments); err != nil {
		return nil, 0, fmt.Errorf("failed to decode assessments: %w", err)
	}
	return assessments, total, nil
}

func (a *AssessmentMongo) Update(ctx context.Context, assessment *models.Assessment) error {
	assessment.UpdatedAt = time.Now().UTC()
	result, err := a.coll.ReplaceOne(a.scope.ctx(ctx), bson.M{"_id": assessment.ID}, assessment)
	if err != nil {
		return fmt.Errorf("failed to update assessment %s: %w", assessment.ID, translateError(err))
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("assessment %s: %w", assessment.ID, repositories.ErrNotFound)
	}
	return nil
}

func (a *AssessmentMongo) Delete(ctx context.Context, id string) error {
	result, err := a.coll.DeleteOne(a.scope.ctx(ctx), bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete assessment %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("assessment %s: %w", id, repositories.ErrNotFound)
	}
	return nil
}

func (a *AssessmentMongo) ExistsByID(ctx context.Context, id string) (bool, error) {
	count, err := a.coll.CountDocuments(a.scope.ctx(ctx), bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to check assessment existence: %w", err)
	}
	return count > 0, nil
}

type ModuleMongo struct {
	coll  *mongo.Collection
	scope scope
}

func NewModuleMongo(db *mongo.Database, s scope) repositories.ModuleRepository {
	return &ModuleMongo{coll: db.Collection(moduleCollection), scope: s}
}

func (m *ModuleMongo) Create(ctx context.Context, module *models.Module) error {
	module.SyncQuestionCount()
	stamp(&module.CreatedAt, &module.UpdatedAt)
	if _, err := m.coll.InsertOne(m.scope.ctx(ctx), module); err != nil {
		return fmt.Errorf("failed to create module: %w", translateError(err))
	}
	return nil
}

func (m *ModuleMongo) CreateBatch(ctx context.Context, modules []*models.Module) error {
	if len(modules) == 0 {
		return nil
	}
	docs := make([]interface{}, len(modules))
	for i, module := range modules {
		module.SyncQuestionCount()
		stamp(&module.CreatedAt, &module.UpdatedAt)
		docs[i] = module
	}
	if _, err := m.coll.InsertMany(m.scope.ctx(ctx), docs); err != nil {
		return fmt.Errorf("failed to create modules: %w", translateError(err))
	}
	return nil
}

func (m *ModuleMongo) GetByID(ctx context.Context, id string) (*models.Module, error) {
	var module models.Module
	if err := m.coll.FindOne(m.scope.ctx(ctx), bson.M{"_id": id}).Decode(&module); err != nil {
		return nil, fmt.Errorf("failed to get module %s: %w", id, translateError(err))
	}
	return &module, nil
}

func (m *ModuleMongo) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Module, error) {
	result := make(map[string]*models.Module, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cursor, err := m.coll.Find(m.scope.ctx(ctx), idFilter(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get modules: %w", err)
	}
	var modules []*models.Module
	if err := cursor.All(ctx, &modules); err != nil {
		return nil, fmt.Errorf("failed to decode modules: %w", err)
	}
	for _, module := range modules {
		result[module.ID] = module
	}
	return result, nil
}

func (m *ModuleMongo) Update(ctx context.Context, module *models.Module) error {
	module.SyncQuestionCount()
	module.UpdatedAt = time.Now().UTC()
	result, err := m.coll.ReplaceOne(m.scope.ctx(ctx), bson.M{"_id": module.ID}, module)
	if err != nil {
		return fmt.Errorf("failed to update module %s: %w", module.ID, translateError(err))
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("module %s: %w", module.ID, repositories.ErrNotFound)
	}
	return nil
}

func (m *ModuleMongo) Delete(ctx context.Context, id string) error {
	result, err := m.coll.DeleteOne(m.scope.ctx(ctx), bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete module %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("module %s: %w", id, repositories.ErrNotFound)
	}
	return nil
}

func (m *ModuleMongo) DeleteByAssessment(ctx context.Context, assessmentID string) error {
	if _, err := m.coll.DeleteMany(m.scope.ctx(ctx), bson.M{"assessmentId": assessmentID}); err != nil {
		return fmt.Errorf("failed to delete modules of assessment %s: %w", assessmentID, err)
	}
	return nil
}
