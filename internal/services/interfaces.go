package services

import (
	"context"
	"io"
	"time"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
	"github.com/SAP-F-2025/assessment-engine/internal/validator"
)

// ===== REQUEST DTOs =====

type AssignRequest = validator.AssignRequest
type StartAssessmentRequest = validator.StartAssessmentRequest
type SubmitAnswerRequest = validator.SubmitAnswerRequest
type MarkForReviewRequest = validator.MarkForReviewRequest
type FinishAssessmentRequest = validator.FinishAssessmentRequest
type AnswerItem = validator.AnswerItem
type CreateAssessmentRequest = validator.AssessmentCreateRequest
type UpdateAssessmentRequest = validator.AssessmentUpdateRequest
type ModuleRequest = validator.ModuleRequest
type QuestionRequest = validator.QuestionRequest
type AddQuestionsRequest = validator.AddQuestionsRequest

// ===== SUMMARY DTOs =====

type ModuleSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	TimeLimit     int    `json:"timeLimit"`
	QuestionCount int    `json:"questionCount"`
}

type AssessmentSummary struct {
	ID                string                  `json:"id"`
	Name              string                  `json:"name"`
	Description       string                  `json:"description"`
	MaxMarks          float64                 `json:"maxMarks"`
	PassingPercentage float64                 `json:"passingPercentage"`
	TimeLimit         int                     `json:"timeLimit"`
	IsVisible         bool                    `json:"isVisible"`
	IsProtected       bool                    `json:"isProtected"`
	ShuffleQuestions  bool                    `json:"shuffleQuestions"`
	NegativeMarking   bool                    `json:"negativeMarking"`
	Proctoring        models.ProctoringConfig `json:"proctoring"`
	TotalQuestions    int                     `json:"totalQuestions"`
	Modules           []ModuleSummary         `json:"modules"`
	CreatedAt         time.Time               `json:"createdAt"`
}

type UserSummary struct {
	ID       string `json:"id"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
}

type ReportSummary struct {
	ID                    string                      `json:"id"`
	Remarks               string                      `json:"remarks"`
	IsCompleted           bool                        `json:"isCompleted"`
	IsSuspended           bool                        `json:"isSuspended"`
	SubmissionTimeSeconds int                         `json:"submissionTimeSeconds"`
	LastIndex             int                         `json:"lastIndex"`
	Score                 float64                     `json:"score"`
	TotalQuestions        int                         `json:"totalQuestions"`
	ProctoringViolations  models.ProctoringViolations `json:"proctoringViolations"`
	Screenshots           []string                    `json:"screenshots"`
	StartedAt             time.Time                   `json:"startedAt"`
	CompletedAt           *time.Time                  `json:"completedAt"`
	CreatedAt             time.Time                   `json:"createdAt"`
	UpdatedAt             time.Time                   `json:"updatedAt"`
}

// ===== ASSIGNMENT DTOs =====

type AssignResult struct {
	AssessmentID string               `json:"assessmentId"`
	Count        int                  `json:"count"`
	Assignments  []*models.Assignment `json:"assignments"`
}

type AssignedAssessment struct {
	ID            string                  `json:"id"`
	Status        models.AssignmentStatus `json:"status"`
	AssignedDate  time.Time               `json:"assignedDate"`
	DueDate       *time.Time              `json:"dueDate"`
	Score         float64                 `json:"score"`
	AttemptCount  int                     `json:"attemptCount"`
	LastAttemptAt *time.Time              `json:"lastAttemptAt"`
	Assessment    *AssessmentSummary      `json:"assessment"`
	AssignedBy    *UserSummary            `json:"assignedBy"`
	Report        *ReportSummary          `json:"report"`
}

// ===== ATTEMPT DTOs =====

type StartResult struct {
	Report  *models.AttemptReport `json:"report"`
	Created bool                  `json:"created"`
}

// EntryState is the client-visible state of one attempt entry.
type EntryState struct {
	Index           int     `json:"index"`
	QuestionID      string  `json:"questionId"`
	IsVisited       bool    `json:"isVisited"`
	IsSubmitted     bool    `json:"isSubmitted"`
	MarkForReview   bool    `json:"markForReview"`
	SubmittedAnswer *string `json:"submittedAnswer"`
}

// QuestionView never carries the correct option.
type QuestionView struct {
	EntryState
	ModuleID       string                  `json:"moduleId"`
	Text           string                  `json:"text"`
	Options        []models.QuestionOption `json:"options"`
	MaxMarks       float64                 `json:"maxMarks"`
	NegativeMarks  float64                 `json:"negativeMarks"`
	TotalQuestions int                     `json:"totalQuestions,omitempty"`
	Assessment     *AssessmentSummary      `json:"assessment,omitempty"`
}

type QuestionSet struct {
	Assessment     *AssessmentSummary `json:"assessment"`
	Questions      []*QuestionView    `json:"questions"`
	LastIndex      int                `json:"lastIndex"`
	TotalQuestions int                `json:"totalQuestions"`
}

type FinishResult struct {
	ReportID    string                  `json:"reportId"`
	Score       float64                 `json:"score"`
	MaxScore    float64                 `json:"maxScore"`
	Percentage  float64                 `json:"percentage"`
	Passed      bool                    `json:"passed"`
	Status      models.AssignmentStatus `json:"status"`
	IsSuspended bool                    `json:"isSuspended"`
	CompletedAt time.Time               `json:"completedAt"`
}

// ===== RESULTS DTOs =====

type ResultRow struct {
	AssignmentID  string                  `json:"assignmentId"`
	User          *UserSummary            `json:"user"`
	Status        models.AssignmentStatus `json:"status"`
	Score         float64                 `json:"score"`
	AttemptCount  int                     `json:"attemptCount"`
	AssignedDate  time.Time               `json:"assignedDate"`
	DueDate       *time.Time              `json:"dueDate"`
	LastAttemptAt *time.Time              `json:"lastAttemptAt"`
	Report        *ReportSummary          `json:"report"`
}

type AssessmentResults struct {
	Assessment *AssessmentSummary `json:"assessment"`
	Results    []*ResultRow       `json:"results"`
	Total      int                `json:"total"`
}

type QuestionResult struct {
	Index           int                     `json:"index"`
	ModuleID        string                  `json:"moduleId"`
	QuestionID      string                  `json:"questionId"`
	Text            string                  `json:"text"`
	Options         []models.QuestionOption `json:"options"`
	SubmittedAnswer *string                 `json:"submittedAnswer"`
	CorrectAnswer   string                  `json:"correctAnswer"`
	IsCorrect       bool                    `json:"isCorrect"`
	MaxMarks        float64                 `json:"maxMarks"`
	NegativeMarks   float64                 `json:"negativeMarks"`
	IsSubmitted     bool                    `json:"isSubmitted"`
	IsVisited       bool                    `json:"isVisited"`
	MarkForReview   bool                    `json:"markForReview"`
}

type UserResult struct {
	Assessment *AssessmentSummary `json:"assessment"`
	User       *UserSummary       `json:"user"`
	Report     *ReportSummary     `json:"report"`
	Score      float64            `json:"score"`
	MaxScore   float64            `json:"maxScore"`
	Questions  []*QuestionResult  `json:"questions"`
}

// ===== ASSESSMENT DEFINITION DTOs =====

// PublicQuestion is a question without its correct option.
type PublicQuestion struct {
	ID            string                  `json:"id"`
	Text          string                  `json:"text"`
	Options       []models.QuestionOption `json:"options"`
	MaxMarks      float64                 `json:"maxMarks"`
	NegativeMarks float64                 `json:"negativeMarks"`
}

type ModuleDetail struct {
	ModuleSummary
	Questions []*PublicQuestion `json:"questions"`
}

type AssessmentDetail struct {
	*AssessmentSummary
	CreatedBy string          `json:"createdBy"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Modules   []*ModuleDetail `json:"modules"`
}

type AssessmentListResponse struct {
	Assessments []*AssessmentSummary `json:"assessments"`
	Total       int64                `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

type AddQuestionsResult struct {
	AssessmentID  string   `json:"assessmentId"`
	ModuleID      string   `json:"moduleId"`
	QuestionIDs   []string `json:"questionIds"`
	QuestionCount int      `json:"questionCount"`
}

// ===== SERVICE INTERFACES =====

type AssignmentService interface {
	Assign(ctx context.Context, req *AssignRequest, assignedBy string) (*AssignResult, error)
	ListForUser(ctx context.Context, userID string) ([]*AssignedAssessment, error)
}

type AttemptService interface {
	Start(ctx context.Context, userID string, req *StartAssessmentRequest) (*StartResult, error)
	GetQuestion(ctx context.Context, userID, assessmentID string, index int) (*QuestionView, error)
	GetAllQuestions(ctx context.Context, userID, assessmentID string) (*QuestionSet, error)
	SubmitAnswer(ctx context.Context, userID, assessmentID string, req *SubmitAnswerRequest) (*EntryState, error)
	MarkForReview(ctx context.Context, userID, assessmentID string, req *MarkForReviewRequest) (*EntryState, error)
	Finish(ctx context.Context, userID, assessmentID string, req *FinishAssessmentRequest) (*FinishResult, error)
}

type ResultsService interface {
	GetResultsForAssessment(ctx context.Context, assessmentID string) (*AssessmentResults, error)
	GetUserResult(ctx context.Context, assessmentID, userID string) (*UserResult, error)
	// ExportResults renders GetResultsForAssessment as an xlsx workbook.
	ExportResults(ctx context.Context, assessmentID string) ([]byte, error)
}

type AssessmentService interface {
	Create(ctx context.Context, req *CreateAssessmentRequest, createdBy string) (*AssessmentDetail, error)
	// Get hides invisible assessments unless includeHidden is set.
	Get(ctx context.Context, id string, includeHidden bool) (*AssessmentDetail, error)
	List(ctx context.Context, filters repositories.AssessmentFilters) (*AssessmentListResponse, error)
	ListVisible(ctx context.Context, filters repositories.AssessmentFilters) (*AssessmentListResponse, error)
	Update(ctx context.Context, id string, req *UpdateAssessmentRequest, userID string) (*AssessmentDetail, error)
	DeleteModule(ctx context.Context, assessmentID, moduleID string) error
	Delete(ctx context.Context, id string) error
}

type QuestionBankService interface {
	AddQuestions(ctx context.Context, req *AddQuestionsRequest, createdBy string) (*AddQuestionsResult, error)
	// ImportQuestions reads an xlsx or csv sheet; the format is chosen from filename.
	ImportQuestions(ctx context.Context, assessmentID, moduleID, filename string, r io.Reader, createdBy string) (*AddQuestionsResult, error)
}

type ServiceManager interface {
	Assessment() AssessmentService
	Assignment() AssignmentService
	Attempt() AttemptService
	Results() ResultsService
	QuestionBank() QuestionBankService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
