package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/assessment-engine/internal/events"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories/postgres"
	"github.com/SAP-F-2025/assessment-engine/internal/validator"
)

// directory is an in-memory user directory.
type directory map[string]*models.User

func newDirectory(ids ...string) directory {
	d := directory{}
	for _, id := range ids {
		d[id] = &models.User{ID: id, FullName: "User " + id, Email: id + "@example.com", Role: models.RoleStudent}
	}
	return d
}

func (d directory) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := d[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func (d directory) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if u, ok := d[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d directory) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	return nil, int64(len(d)), nil
}

func (d directory) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, ok := d[id]
	return ok, nil
}

type testEnv struct {
	repo        repositories.Repository
	publisher   *events.MockEventPublisher
	assessments *assessmentService
	assignments *assignmentService
	attempts    *attemptService
	results     *resultsService
	bank        *questionBankService
	now         time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := postgres.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{
		DB:             db,
		UserRepository: newDirectory("admin", "u1", "u2", "u3"),
	})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := validator.New()
	publisher := events.NewMockEventPublisher(log)

	env := &testEnv{
		repo:        repo,
		publisher:   publisher,
		assessments: NewAssessmentService(repo, log, v).(*assessmentService),
		assignments: NewAssignmentService(repo, log, v, publisher).(*assignmentService),
		attempts:    NewAttemptService(repo, log, v, publisher).(*attemptService),
		results:     NewResultsService(repo, log).(*resultsService),
		bank:        NewQuestionBankService(repo, log, v).(*questionBankService),
		now:         time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.now }
	env.assignments.now = clock
	env.attempts.now = clock
	return env
}

func float(v float64) *float64 { return &v }

// question builds a four-option question whose correct label is "A".
func question(text string, maxMarks, negativeMarks float64) QuestionRequest {
	return QuestionRequest{
		Text: text,
		Options: []models.QuestionOption{
			{Label: "A", Text: "first"},
			{Label: "B", Text: "second"},
			{Label: "C", Text: "third"},
			{Label: "D", Text: "fourth"},
		},
		CorrectOption: "A",
		MaxMarks:      float(maxMarks),
		NegativeMarks: float(negativeMarks),
	}
}

// createAssessment builds a visible assessment. Question marks are given
// per module as {maxMarks, negativeMarks} pairs.
func (e *testEnv) createAssessment(t *testing.T, negativeMarking, shuffle bool, modules ...[][2]float64) *AssessmentDetail {
	t.Helper()

	req := &CreateAssessmentRequest{
		Name:              "Go fundamentals",
		Description:       "Channels and interfaces",
		MaxMarks:          10,
		PassingPercentage: 50,
		IsVisible:         true,
		NegativeMarking:   negativeMarking,
		ShuffleQuestions:  shuffle,
	}
	n := 0
	for mi, marks := range modules {
		m := ModuleRequest{Name: "Module " + string(rune('A'+mi)), TimeLimit: 30}
		for _, mk := range marks {
			n++
			m.Questions = append(m.Questions, question("Question "+string(rune('0'+n)), mk[0], mk[1]))
		}
		req.Modules = append(req.Modules, m)
	}

	detail, err := e.assessments.Create(context.Background(), req, "admin")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return detail
}

func (e *testEnv) assign(t *testing.T, assessmentID string, users ...string) {
	t.Helper()
	if _, err := e.assignments.Assign(context.Background(), &AssignRequest{AssessmentID: assessmentID, UserIDs: users}, "admin"); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
}

func (e *testEnv) start(t *testing.T, userID, assessmentID string) *StartResult {
	t.Helper()
	result, err := e.attempts.Start(context.Background(), userID, &StartAssessmentRequest{AssessmentID: assessmentID})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return result
}

func questionIDs(detail *AssessmentDetail) []string {
	var ids []string
	for _, m := range detail.Modules {
		for _, q := range m.Questions {
			ids = append(ids, q.ID)
		}
	}
	return ids
}
