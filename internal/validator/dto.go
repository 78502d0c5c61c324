package validator

import (
	"time"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

// ===== ASSIGNMENT =====

type AssignRequest struct {
	AssessmentID string     `json:"assessmentId" validate:"required"`
	UserIDs      []string   `json:"userIds" validate:"required,min=1,max=1000,dive,required"`
	DueDate      *time.Time `json:"dueDate" validate:"omitempty,future_date"`
}

// ===== ATTEMPT =====

type StartAssessmentRequest struct {
	AssessmentID string `json:"assessmentId" validate:"required"`
}

type SubmitAnswerRequest struct {
	Index         int    `json:"index" validate:"required,min=1"`
	Answer        string `json:"answer" validate:"required,max=1000"`
	MarkForReview *bool  `json:"markForReview"`
}

type MarkForReviewRequest struct {
	Index         int   `json:"index" validate:"required,min=1"`
	MarkForReview *bool `json:"markForReview" validate:"required"`
}

// AnswerItem is one buffered answer sent with finish. Items whose index
// does not resolve are ignored.
type AnswerItem struct {
	Index  int    `json:"index"`
	Answer string `json:"answer" validate:"max=1000"`
}

type FinishAssessmentRequest struct {
	IsSuspended           bool                        `json:"isSuspended"`
	ProctoringViolations  models.ProctoringViolations `json:"proctoringViolations"`
	Remarks               string                      `json:"remarks" validate:"max=2000"`
	SubmissionTimeSeconds int                         `json:"submissionTimeSeconds" validate:"min=0"`
	Answers               []AnswerItem                `json:"answers" validate:"omitempty,max=5000,dive"`
	LastIndex             int                         `json:"lastIndex" validate:"min=0"`
	Screenshots           []string                    `json:"screenshots" validate:"omitempty,max=500,dive,max=2048"`
}

// ===== ASSESSMENT DEFINITION =====

type QuestionRequest struct {
	Text          string                  `json:"text" validate:"required,not_blank,max=5000"`
	Options       []models.QuestionOption `json:"options" validate:"required,min=2,max=10,dive"`
	CorrectOption string                  `json:"correctOption" validate:"required,max=50"`
	MaxMarks      *float64                `json:"maxMarks" validate:"omitempty,gt=0"`
	NegativeMarks *float64                `json:"negativeMarks" validate:"omitempty,min=0"`
}

// ModuleRequest creates a module, or updates one when ID is set.
type ModuleRequest struct {
	ID        string            `json:"id"`
	Name      string            `json:"name" validate:"required,not_blank,max=200"`
	TimeLimit int               `json:"timeLimit" validate:"omitempty,min=1,max=1440"`
	Questions []QuestionRequest `json:"questions" validate:"omitempty,dive"`
}

type AssessmentCreateRequest struct {
	Name              string                   `json:"name" validate:"required,not_blank,max=200"`
	Description       string                   `json:"description" validate:"max=5000"`
	MaxMarks          float64                  `json:"maxMarks" validate:"min=0"`
	TimeLimit         int                      `json:"timeLimit" validate:"omitempty,min=1,max=1440"`
	ShuffleQuestions  bool                     `json:"shuffleQuestions"`
	NegativeMarking   bool                     `json:"negativeMarking"`
	PassingPercentage float64                  `json:"passingPercentage" validate:"percentage"`
	IsProtected       bool                     `json:"isProtected"`
	IsVisible         bool                     `json:"isVisible"`
	Proctoring        *models.ProctoringConfig `json:"proctoring"`
	Modules           []ModuleRequest          `json:"modules" validate:"omitempty,max=50,dive"`
}

type AssessmentUpdateRequest struct {
	Name              *string                  `json:"name" validate:"omitempty,not_blank,max=200"`
	Description       *string                  `json:"description" validate:"omitempty,max=5000"`
	MaxMarks          *float64                 `json:"maxMarks" validate:"omitempty,min=0"`
	TimeLimit         *int                     `json:"timeLimit" validate:"omitempty,min=1,max=1440"`
	ShuffleQuestions  *bool                    `json:"shuffleQuestions"`
	NegativeMarking   *bool                    `json:"negativeMarking"`
	PassingPercentage *float64                 `json:"passingPercentage" validate:"omitempty,percentage"`
	IsProtected       *bool                    `json:"isProtected"`
	IsVisible         *bool                    `json:"isVisible"`
	Proctoring        *models.ProctoringConfig `json:"proctoring"`
	Modules           []ModuleRequest          `json:"modules" validate:"omitempty,max=50,dive"`
}

type AddQuestionsRequest struct {
	AssessmentID string            `json:"assessmentId" validate:"required"`
	ModuleID     string            `json:"moduleId" validate:"required"`
	Questions    []QuestionRequest `json:"questions" validate:"required,min=1,max=500,dive"`
}
