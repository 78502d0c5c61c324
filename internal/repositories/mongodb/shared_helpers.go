package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

const (
	assessmentCollection = "assessments"
	moduleCollection     = "modules"
	questionCollection   = "questions"
	assignmentCollection = "assignments"
	reportCollection     = "attempt_reports"

	defaultPageSize = 50
	maxPageSize     = 500
)

var allowedAssessmentSort = map[string]string{
	"created_at": "createdAt",
	"updated_at": "updatedAt",
	"name":       "name",
}

// scope binds operations to a session when running inside a transaction.
type scope struct {
	session mongo.Session
}

func (s scope) ctx(ctx context.Context) context.Context {
	if s.session == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, s.session)
}

// EnsureIndexes creates the indexes every collection relies on. The unique
// (userId, assessmentId) pairs back the one-assignment and one-report rules.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		assignmentCollection: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "assessmentId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("idx_assignment_user_assessment"),
			},
			{Keys: bson.D{{Key: "assessmentId", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		reportCollection: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "assessmentId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("idx_report_user_assessment"),
			},
		},
		moduleCollection: {
			{Keys: bson.D{{Key: "assessmentId", Value: 1}}},
		},
		assessmentCollection: {
			{Keys: bson.D{{Key: "isVisible", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "createdBy", Value: 1}}},
		},
	}

	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// translateError maps driver errors onto repository sentinels.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repositories.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repositories.ErrDuplicate
	}
	return err
}

func findOptions(limit, offset int) *options.FindOptions {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return options.Find().SetLimit(int64(limit)).SetSkip(int64(offset))
}

func stamp(createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt.IsZero() {
		*updatedAt = now
	}
}

func idFilter(ids []string) bson.M {
	return bson.M{"_id": bson.M{"$in": ids}}
}
