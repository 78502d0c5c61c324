package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

// CachedQuestionRepository is a read-through cache in front of a question
// store. Questions are immutable, so entries are never invalidated.
type CachedQuestionRepository struct {
	next   repositories.QuestionRepository
	helper *CacheHelper
}

func NewCachedQuestionRepository(next repositories.QuestionRepository, helper *CacheHelper) repositories.QuestionRepository {
	if !helper.Available() {
		return next
	}
	return &CachedQuestionRepository{next: next, helper: helper}
}

func questionKey(id string) string {
	return "id:" + id
}

// CreateBatch does not warm the cache: the write may still be rolled back.
func (r *CachedQuestionRepository) CreateBatch(ctx context.Context, questions []*models.Question) error {
	return r.next.CreateBatch(ctx, questions)
}

func (r *CachedQuestionRepository) GetByID(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	err := r.helper.Get(ctx, questionKey(id), &question)
	if err == nil {
		return &question, nil
	}
	if !errors.Is(err, ErrCacheNotFound) {
		slog.WarnContext(ctx, "Question cache read failed", "error", err, "question_id", id)
	}

	found, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	SafeSet(ctx, r.helper, questionKey(id), found, QuestionCacheConfig.TTL)
	return found, nil
}

func (r *CachedQuestionRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Question, error) {
	result := make(map[string]*models.Question, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = questionKey(id)
	}

	cached, err := r.helper.GetMultiple(ctx, keys)
	if err != nil {
		slog.WarnContext(ctx, "Question cache read failed", "error", err, "count", len(ids))
		cached = nil
	}

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, seen := result[id]; seen {
			continue
		}
		raw, ok := cached[questionKey(id)]
		if ok {
			var question models.Question
			if err := json.Unmarshal([]byte(raw), &question); err == nil {
				result[id] = &question
				continue
			}
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return result, nil
	}

	loaded, err := r.next.GetByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}

	items := make(map[string]interface{}, len(loaded))
	for id, question := range loaded {
		result[id] = question
		items[questionKey(id)] = question
	}
	SafeSetMultiple(ctx, r.helper, items, QuestionCacheConfig.TTL)

	return result, nil
}
