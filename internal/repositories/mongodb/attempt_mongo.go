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

// ReportMongo stores attempt reports as single documents. Entry updates
// are positional $set operations guarded on isCompleted.
type ReportMongo struct {
	coll  *mongo.Collection
	scope scope
}

func NewReportMongo(db *mongo.Database, s scope) repositories.ReportRepository {
	return &ReportMongo{coll: db.Collection(reportCollection), scope: s}
}

func (r *ReportMongo) Create(ctx context.Context, report *models.AttemptReport) error {
	stamp(&report.CreatedAt, &report.UpdatedAt)
	if _, err := r.coll.InsertOne(r.scope.ctx(ctx), report); err != nil {
		return fmt.Errorf("failed to create attempt report: %w", translateError(err))
	}
	return nil
}

func (r *ReportMongo) GetByID(ctx context.Context, id string) (*models.AttemptReport, error) {
	var report models.AttemptReport
	if err := r.coll.FindOne(r.scope.ctx(ctx), bson.M{"_id": id}).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to get attempt report %s: %w", id, translateError(err))
	}
	return &report, nil
}

func (r *ReportMongo) GetByUserAndAssessment(ctx context.Context, userID, assessmentID string) (*models.AttemptReport, error) {
	var report models.AttemptReport
	filter := bson.M{"userId": userID, "assessmentId": assessmentID}
	if err := r.coll.FindOne(r.scope.ctx(ctx), filter).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to get attempt report: %w", translateError(err))
	}
	return &report, nil
}

func (r *ReportMongo) GetByIDs(ctx context.Context, ids []string) (map[string]*models.AttemptReport, error) {
	result := make(map[string]*models.AttemptReport, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cursor, err := r.coll.Find(r.scope.ctx(ctx), idFilter(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt reports: %w", err)
	}
	var reports []*models.AttemptReport
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode attempt reports: %w", err)
	}
	for _, report := range reports {
		result[report.ID] = report
	}
	return result, nil
}

func (r *ReportMongo) UpdateEntry(ctx context.Context, reportID string, pos models.EntryPosition, update models.EntryUpdate) error {
	path := fmt.Sprintf("modules.%d.entries.%d", pos.Module, pos.Entry)

	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Visited {
		set[path+".isVisited"] = true
	}
	if update.Answer != nil {
		set[path+".submittedAnswer"] = *update.Answer
		set[path+".isSubmitted"] = true
	}
	if update.MarkForReview != nil {
		set[path+".markForReview"] = *update.MarkForReview
	}

	filter := bson.M{
		"_id":         reportID,
		"isCompleted": false,
		path:          bson.M{"$exists": true},
	}

	ctx = r.scope.ctx(ctx)
	result, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update entry %d of report %s: %w", pos.Index, reportID, err)
	}
	if result.MatchedCount == 0 {
		return r.explainMiss(ctx, reportID, pos)
	}
	return nil
}

// explainMiss tells apart a missing report or entry from a completed one.
func (r *ReportMongo) explainMiss(ctx context.Context, reportID string, pos models.EntryPosition) error {
	var state struct {
		IsCompleted bool `bson:"isCompleted"`
	}
	opts := options.FindOne().SetProjection(bson.M{"isCompleted": 1})
	if err := r.coll.FindOne(ctx, bson.M{"_id": reportID}, opts).Decode(&state); err != nil {
		return fmt.Errorf("failed to get attempt report %s: %w", reportID, translateError(err))
	}
	if state.IsCompleted {
		return fmt.Errorf("attempt report %s is completed: %w", reportID, repositories.ErrPreconditionFailed)
	}
	return fmt.Errorf("entry %d of report %s: %w", pos.Index, reportID, repositories.ErrNotFound)
}

func (r *ReportMongo) Complete(ctx context.Context, reportID string, completion *models.ReportCompletion) error {
	update := bson.M{"$set": bson.M{
		"modules":               completion.Modules,
		"isCompleted":           true,
		"isSuspended":           completion.IsSuspended,
		"submissionTimeSeconds": completion.SubmissionTimeSeconds,
		"lastIndex":             completion.LastIndex,
		"screenshots":           completion.Screenshots,
		"proctoringViolations":  completion.ProctoringViolations,
		"remarks":               completion.Remarks,
		"score":                 completion.Score,
		"completedAt":           completion.CompletedAt,
		"updatedAt":             completion.CompletedAt,
	}}

	result, err := r.coll.UpdateOne(r.scope.ctx(ctx), bson.M{"_id": reportID, "isCompleted": false}, update)
	if err != nil {
		return fmt.Errorf("failed to complete attempt report %s: %w", reportID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("attempt report %s is not open: %w", reportID, repositories.ErrPreconditionFailed)
	}
	return nil
}
