package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

type AssignmentMongo struct {
	coll  *mongo.Collection
	scope scope
}

func NewAssignmentMongo(db *mongo.Database, s scope) repositories.AssignmentRepository {
	return &AssignmentMongo{coll: db.Collection(assignmentCollection), scope: s}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}

func (a *AssignmentMongo) CreateBatch(ctx context.Context, assignments []*models.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	docs := make([]interface{}, len(assignments))
	for i, assignment := range assignments {
		stamp(&assignment.CreatedAt, &assignment.UpdatedAt)
		docs[i] = assignment
	}
	if _, err := a.coll.InsertMany(a.scope.ctx(ctx), docs); err != nil {
		return fmt.Errorf("failed to create assignments: %w", translateError(err))
	}
	return nil
}

func (a *AssignmentMongo) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := a.coll.FindOne(a.scope.ctx(ctx), bson.M{"_id": id}).Decode(&assignment); err != nil {
		return nil, fmt.Errorf("failed to get assignment %s: %w", id, translateError(err))
	}
	return &assignment, nil
}

func (a *AssignmentMongo) GetByUserAndAssessment(ctx context.Context, userID, assessmentID string) (*models.Assignment, error) {
	var assignment models.Assignment
	filter := bson.M{"userId": userID, "assessmentId": assessmentID}
	if err := a.coll.FindOne(a.scope.ctx(ctx), filter).Decode(&assignment); err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", translateError(err))
	}
	return &assignment, nil
}

func (a *AssignmentMongo) ListByUser(ctx context.Context, userID string, filters repositories.AssignmentFilters) ([]*models.Assignment, error) {
	filter := bson.M{"userId": userID}
	if filters.Status != nil {
		filter["status"] = *filters.Status
	}
	return a.find(ctx, filter, findOptions(filters.Limit, filters.Offset).SetSort(newestFirst))
}

func (a *AssignmentMongo) ListByAssessment(ctx context.Context, assessmentID string) ([]*models.Assignment, error) {
	return a.find(ctx, bson.M{"assessmentId": assessmentID}, options.Find().SetSort(newestFirst))
}

func (a *AssignmentMongo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Assignment, error) {
	ctx = a.scope.ctx(ctx)
	cursor, err := a.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	assignments := make([]*models.Assignment, 0)
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, fmt.Errorf("failed to decode assignments: %w", err)
	}
	return assignments, nil
}

func (a *AssignmentMongo) FindAssignedUserIDs(ctx context.Context, assessmentID string, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	filter := bson.M{"assessmentId": assessmentID, "userId": bson.M{"$in": userIDs}}
	values, err := a.coll.Distinct(a.scope.ctx(ctx), "userId", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find existing assignments: %w", err)
	}

	assigned := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			assigned = append(assigned, id)
		}
	}
	return assigned, nil
}

func (a *AssignmentMongo) CountByAssessment(ctx context.Context, assessmentID string) (int64, error) {
	count, err := a.coll.CountDocuments(a.scope.ctx(ctx), bson.M{"assessmentId": assessmentID})
	if err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return count, nil
}

func (a *AssignmentMongo) Update(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"status":        assignment.Status,
		"score":         assignment.Score,
		"attemptCount":  assignment.AttemptCount,
		"lastAttemptAt": assignment.LastAttemptAt,
		"reportId":      assignment.ReportID,
		"dueDate":       assignment.DueDate,
		"updatedAt":     assignment.UpdatedAt,
	}}

	result, err := a.coll.UpdateOne(a.scope.ctx(ctx), bson.M{"_id": assignment.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update assignment %s: %w", assignment.ID, translateError(err))
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("assignment %s: %w", assignment.ID, repositories.ErrNotFound)
	}
	return nil
}
