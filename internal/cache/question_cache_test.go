package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

type countingQuestions struct {
	questions map[string]*models.Question
	requested [][]string
}

func (c *countingQuestions) CreateBatch(ctx context.Context, questions []*models.Question) error {
	for _, q := range questions {
		c.questions[q.ID] = q
	}
	return nil
}

func (c *countingQuestions) GetByID(ctx context.Context, id string) (*models.Question, error) {
	c.requested = append(c.requested, []string{id})
	q, ok := c.questions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return q, nil
}

func (c *countingQuestions) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Question, error) {
	c.requested = append(c.requested, ids)
	out := make(map[string]*models.Question)
	for _, id := range ids {
		if q, ok := c.questions[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func newCachedQuestions(t *testing.T) (repositories.QuestionRepository, *countingQuestions, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	inner := &countingQuestions{questions: map[string]*models.Question{
		"q1": {ID: "q1", Text: "2+2", CorrectOption: "4", MaxMarks: 1},
		"q2": {ID: "q2", Text: "3+3", CorrectOption: "6", MaxMarks: 2},
	}}
	return NewCachedQuestionRepository(inner, NewCacheHelper(client, QuestionCacheConfig.Prefix)), inner, mr
}

func TestCachedQuestionsReadThrough(t *testing.T) {
	repo, inner, mr := newCachedQuestions(t)
	ctx := context.Background()

	got, err := repo.GetByIDs(ctx, []string{"q1", "q2", "q3"})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !mr.Exists("question:id:q1") || !mr.Exists("question:id:q2") {
		t.Fatal("questions were not cached")
	}

	inner.requested = nil
	got, err = repo.GetByIDs(ctx, []string{"q1", "q2", "q3"})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if got["q2"].MaxMarks != 2 || got["q1"].CorrectOption != "4" {
		t.Fatalf("unexpected cached values: %+v %+v", got["q1"], got["q2"])
	}
	if len(inner.requested) != 1 || len(inner.requested[0]) != 1 || inner.requested[0][0] != "q3" {
		t.Fatalf("store requests = %v, want only q3", inner.requested)
	}
}

func TestCachedQuestionsGetByID(t *testing.T) {
	repo, inner, _ := newCachedQuestions(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		q, err := repo.GetByID(ctx, "q1")
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if q.Text != "2+2" {
			t.Fatalf("Text = %q", q.Text)
		}
	}
	if len(inner.requested) != 1 {
		t.Errorf("store requests = %d, want 1", len(inner.requested))
	}
}

func TestCachedQuestionsCacheDown(t *testing.T) {
	repo, inner, mr := newCachedQuestions(t)
	mr.Close()

	got, err := repo.GetByIDs(context.Background(), []string{"q1"})
	if err != nil {
		t.Fatalf("GetByIDs with cache down: %v", err)
	}
	if got["q1"] == nil || len(inner.requested) != 1 {
		t.Fatalf("expected fallback to store, got %v", got)
	}
}

func TestNewCachedQuestionRepositoryWithoutRedis(t *testing.T) {
	inner := &countingQuestions{questions: map[string]*models.Question{}}
	if repo := NewCachedQuestionRepository(inner, NewCacheHelper(nil, "question:")); repo != inner {
		t.Fatal("expected the inner repository when no cache client is configured")
	}
}
