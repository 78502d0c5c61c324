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

type QuestionMongo struct {
	coll  *mongo.Collection
	scope scope
}

func NewQuestionMongo(db *mongo.Database, s scope) repositories.QuestionRepository {
	return &QuestionMongo{coll: db.Collection(questionCollection), scope: s}
}

func (q *QuestionMongo) CreateBatch(ctx context.Context, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, len(questions))
	for i, question := range questions {
		if question.CreatedAt.IsZero() {
			question.CreatedAt = now
		}
		docs[i] = question
	}
	if _, err := q.coll.InsertMany(q.scope.ctx(ctx), docs); err != nil {
		return fmt.Errorf("failed to create questions: %w", translateError(err))
	}
	return nil
}

func (q *QuestionMongo) GetByID(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	if err := q.coll.FindOne(q.scope.ctx(ctx), bson.M{"_id": id}).Decode(&question); err != nil {
		return nil, fmt.Errorf("failed to get question %s: %w", id, translateError(err))
	}
	return &question, nil
}

func (q *QuestionMongo) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Question, error) {
	result := make(map[string]*models.Question, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cursor, err := q.coll.Find(q.scope.ctx(ctx), idFilter(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	var questions []*models.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}
	for _, question := range questions {
		result[question.ID] = question
	}
	return result, nil
}
