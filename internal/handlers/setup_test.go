package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/assessment-engine/internal/config"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
	"github.com/SAP-F-2025/assessment-engine/internal/services"
	"github.com/SAP-F-2025/assessment-engine/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// headerAuth trusts X-Test-User and X-Test-Role.
type headerAuth struct{}

func (headerAuth) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-Test-User")
		if userID == "" {
			abortUnauthorized(c, "Authorization header missing")
			return
		}
		setUser(c, &models.User{ID: userID, Role: models.UserRole(c.GetHeader("X-Test-Role"))})
		c.Next()
	}
}

type fakeAttemptService struct {
	start  func(userID string, req *services.StartAssessmentRequest) (*services.StartResult, error)
	get    func(userID, assessmentID string, index int) (*services.QuestionView, error)
	submit func(userID, assessmentID string, req *services.SubmitAnswerRequest) (*services.EntryState, error)
	finish func(userID, assessmentID string, req *services.FinishAssessmentRequest) (*services.FinishResult, error)
}

func (f *fakeAttemptService) Start(ctx context.Context, userID string, req *services.StartAssessmentRequest) (*services.StartResult, error) {
	return f.start(userID, req)
}

func (f *fakeAttemptService) GetQuestion(ctx context.Context, userID, assessmentID string, index int) (*services.QuestionView, error) {
	return f.get(userID, assessmentID, index)
}

func (f *fakeAttemptService) GetAllQuestions(ctx context.Context, userID, assessmentID string) (*services.QuestionSet, error) {
	return &services.QuestionSet{}, nil
}

func (f *fakeAttemptService) SubmitAnswer(ctx context.Context, userID, assessmentID string, req *services.SubmitAnswerRequest) (*services.EntryState, error) {
	return f.submit(userID, assessmentID, req)
}

func (f *fakeAttemptService) MarkForReview(ctx context.Context, userID, assessmentID string, req *services.MarkForReviewRequest) (*services.EntryState, error) {
	return &services.EntryState{Index: req.Index, MarkForReview: req.MarkForReview != nil && *req.MarkForReview}, nil
}

func (f *fakeAttemptService) Finish(ctx context.Context, userID, assessmentID string, req *services.FinishAssessmentRequest) (*services.FinishResult, error) {
	return f.finish(userID, assessmentID, req)
}

type fakeAssignmentService struct {
	assign func(req *services.AssignRequest, assignedBy string) (*services.AssignResult, error)
}

func (f *fakeAssignmentService) Assign(ctx context.Context, req *services.AssignRequest, assignedBy string) (*services.AssignResult, error) {
	return f.assign(req, assignedBy)
}

func (f *fakeAssignmentService) ListForUser(ctx context.Context, userID string) ([]*services.AssignedAssessment, error) {
	return []*services.AssignedAssessment{{ID: "as-1", Status: models.AssignmentAssigned}}, nil
}

type fakeResultsService struct {
	export func(assessmentID string) ([]byte, error)
}

func (f *fakeResultsService) GetResultsForAssessment(ctx context.Context, assessmentID string) (*services.AssessmentResults, error) {
	return &services.AssessmentResults{}, nil
}

func (f *fakeResultsService) GetUserResult(ctx context.Context, assessmentID, userID string) (*services.UserResult, error) {
	return nil, services.ErrReportNotFound
}

func (f *fakeResultsService) ExportResults(ctx context.Context, assessmentID string) ([]byte, error) {
	return f.export(assessmentID)
}

type fakeAssessmentService struct {
	includeHidden []bool
}

func (f *fakeAssessmentService) Create(ctx context.Context, req *services.CreateAssessmentRequest, createdBy string) (*services.AssessmentDetail, error) {
	return &services.AssessmentDetail{AssessmentSummary: &services.AssessmentSummary{Name: req.Name}, CreatedBy: createdBy}, nil
}

func (f *fakeAssessmentService) Get(ctx context.Context, id string, includeHidden bool) (*services.AssessmentDetail, error) {
	f.includeHidden = append(f.includeHidden, includeHidden)
	if !includeHidden {
		return nil, services.ErrAssessmentNotVisible
	}
	return &services.AssessmentDetail{AssessmentSummary: &services.AssessmentSummary{ID: id}}, nil
}

func (f *fakeAssessmentService) List(ctx context.Context, filters repositories.AssessmentFilters) (*services.AssessmentListResponse, error) {
	return &services.AssessmentListResponse{Limit: filters.Limit, Offset: filters.Offset}, nil
}

func (f *fakeAssessmentService) ListVisible(ctx context.Context, filters repositories.AssessmentFilters) (*services.AssessmentListResponse, error) {
	return &services.AssessmentListResponse{Limit: filters.Limit, Offset: filters.Offset}, nil
}

func (f *fakeAssessmentService) Update(ctx context.Context, id string, req *services.UpdateAssessmentRequest, userID string) (*services.AssessmentDetail, error) {
	return nil, services.NewInvalidModulesError([]string{"m-x"})
}

func (f *fakeAssessmentService) DeleteModule(ctx context.Context, assessmentID, moduleID string) error {
	return services.ErrModuleNotFound
}

func (f *fakeAssessmentService) Delete(ctx context.Context, id string) error {
	return services.ErrAssessmentHasAssignees
}

type fakeQuestionBankService struct {
	imported []byte
}

func (f *fakeQuestionBankService) AddQuestions(ctx context.Context, req *services.AddQuestionsRequest, createdBy string) (*services.AddQuestionsResult, error) {
	return &services.AddQuestionsResult{AssessmentID: req.AssessmentID, ModuleID: req.ModuleID}, nil
}

func (f *fakeQuestionBankService) ImportQuestions(ctx context.Context, assessmentID, moduleID, filename string, r io.Reader, createdBy string) (*services.AddQuestionsResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.imported = data
	return nil, &services.ImportError{Rows: []services.RowError{{Row: 3, Message: "answer must be one of the option labels"}}}
}

type fakeServiceManager struct {
	attempt      *fakeAttemptService
	assignment   *fakeAssignmentService
	results      *fakeResultsService
	assessment   *fakeAssessmentService
	questionBank *fakeQuestionBankService
	healthErr    error
}

func (m *fakeServiceManager) Assessment() services.AssessmentService     { return m.assessment }
func (m *fakeServiceManager) Assignment() services.AssignmentService     { return m.assignment }
func (m *fakeServiceManager) Attempt() services.AttemptService           { return m.attempt }
func (m *fakeServiceManager) Results() services.ResultsService           { return m.results }
func (m *fakeServiceManager) QuestionBank() services.QuestionBankService { return m.questionBank }
func (m *fakeServiceManager) Initialize(ctx context.Context) error       { return nil }
func (m *fakeServiceManager) HealthCheck(ctx context.Context) error      { return m.healthErr }
func (m *fakeServiceManager) Shutdown(ctx context.Context) error         { return nil }

func newFakeServices() *fakeServiceManager {
	return &fakeServiceManager{
		attempt:      &fakeAttemptService{},
		assignment:   &fakeAssignmentService{},
		results:      &fakeResultsService{},
		assessment:   &fakeAssessmentService{},
		questionBank: &fakeQuestionBankService{},
	}
}

func newTestRouter(t *testing.T, sm *fakeServiceManager, limiter *RateLimiter) *gin.Engine {
	t.Helper()
	cfg := &config.Config{CORSAllowedOrigins: []string{"*"}}
	router := gin.New()
	SetupMiddleware(router, cfg, testLogger())
	NewHandlerManager(sm, headerAuth{}, limiter, testLogger()).SetupRoutes(router)
	return router
}

type testRequest struct {
	method string
	path   string
	body   interface{}
	user   string
	role   models.UserRole
	header map[string]string
}

func do(router *gin.Engine, r testRequest) *httptest.ResponseRecorder {
	var body io.Reader
	if r.body != nil {
		data, _ := json.Marshal(r.body)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.user != "" {
		req.Header.Set("X-Test-User", r.user)
		req.Header.Set("X-Test-Role", string(r.role))
	}
	for k, v := range r.header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}
