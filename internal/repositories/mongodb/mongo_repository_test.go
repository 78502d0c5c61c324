package mongodb

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

type noUsers struct{}

func (noUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return nil, repositories.ErrNotFound
}
func (noUsers) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) { return nil, nil }
func (noUsers) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	return nil, 0, nil
}
func (noUsers) ExistsByID(ctx context.Context, id string) (bool, error) { return false, nil }

// Requires a reachable MongoDB replica set in MONGO_TEST_URI.
func newTestRepository(t *testing.T) repositories.Repository {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	db := client.Database("assessment_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	if err := EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	return NewMongoRepository(RepositoryConfig{Client: client, Database: db, UserRepository: noUsers{}})
}

func TestMongoReportLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	report := &models.AttemptReport{
		ID:           "r1",
		UserID:       "u1",
		AssessmentID: "a1",
		Modules: []models.ModuleAttempt{
			{ModuleID: "m1", Entries: []models.QuestionEntry{{QuestionID: "q1"}, {QuestionID: "q2"}}},
		},
		StartedAt: time.Now().UTC(),
	}
	if err := repo.Report().Create(ctx, report); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dup := *report
	dup.ID = "r2"
	if err := repo.Report().Create(ctx, &dup); !errors.Is(err, repositories.ErrDuplicate) {
		t.Fatalf("duplicate Create err = %v", err)
	}

	pos, _ := report.Resolve(2)
	answer := "C"
	if err := repo.Report().UpdateEntry(ctx, "r1", pos, models.EntryUpdate{Visited: true, Answer: &answer}); err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}

	stored, err := repo.Report().GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	entry := stored.Modules[0].Entries[1]
	if !entry.IsSubmitted || entry.SubmittedAnswer == nil || *entry.SubmittedAnswer != "C" {
		t.Fatalf("entry = %+v", entry)
	}

	completion := &models.ReportCompletion{Modules: stored.Modules, Remarks: models.RemarksCompleted, CompletedAt: time.Now().UTC()}
	if err := repo.Report().Complete(ctx, "r1", completion); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := repo.Report().Complete(ctx, "r1", completion); !errors.Is(err, repositories.ErrPreconditionFailed) {
		t.Fatalf("second Complete err = %v", err)
	}
	if err := repo.Report().UpdateEntry(ctx, "r1", pos, models.EntryUpdate{Answer: &answer}); !errors.Is(err, repositories.ErrPreconditionFailed) {
		t.Fatalf("UpdateEntry after completion err = %v", err)
	}
	if err := repo.Report().UpdateEntry(ctx, "missing", pos, models.EntryUpdate{Visited: true}); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("UpdateEntry(missing) err = %v", err)
	}
}

func TestMongoAssignmentsAndTransactions(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		return tx.Assignment().CreateBatch(ctx, []*models.Assignment{
			{ID: "as1", UserID: "u1", AssessmentID: "a1", Status: models.AssignmentAssigned},
			{ID: "as2", UserID: "u2", AssessmentID: "a1", Status: models.AssignmentAssigned},
		})
	})
	if err != nil {
		t.Fatalf("WithTransaction: %v", err)
	}

	assigned, err := repo.Assignment().FindAssignedUserIDs(ctx, "a1", []string{"u2", "u3"})
	if err != nil || len(assigned) != 1 || assigned[0] != "u2" {
		t.Fatalf("FindAssignedUserIDs = %v, %v", assigned, err)
	}

	sentinel := errors.New("abort")
	err = repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Assignment().CreateBatch(ctx, []*models.Assignment{{ID: "as3", UserID: "u3", AssessmentID: "a1"}}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("WithTransaction err = %v", err)
	}
	if _, err := repo.Assignment().GetByID(ctx, "as3"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("assignment survived rollback: %v", err)
	}
}
