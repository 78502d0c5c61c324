package validator

import (
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

func fieldsOf(err error) map[string]string {
	out := map[string]string{}
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			out[e.Field] = e.Rule
		}
	}
	return out
}

func TestValidateRequests(t *testing.T) {
	v := New()
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name      string
		req       interface{}
		wantField string
		wantRule  string
	}{
		{"assign ok", &AssignRequest{AssessmentID: "a1", UserIDs: []string{"u1"}, DueDate: &future}, "", ""},
		{"assign without users", &AssignRequest{AssessmentID: "a1"}, "userIds", "required"},
		{"assign blank user id", &AssignRequest{AssessmentID: "a1", UserIDs: []string{""}}, "userIds[0]", "required"},
		{"assign past due date", &AssignRequest{AssessmentID: "a1", UserIDs: []string{"u1"}, DueDate: &past}, "dueDate", "future_date"},
		{"start without id", &StartAssessmentRequest{}, "assessmentId", "required"},
		{"submit index zero", &SubmitAnswerRequest{Index: 0, Answer: "A"}, "index", "required"},
		{"submit without answer", &SubmitAnswerRequest{Index: 1}, "answer", "required"},
		{"mark review missing flag", &MarkForReviewRequest{Index: 1}, "markForReview", "required"},
		{"finish negative time", &FinishAssessmentRequest{SubmissionTimeSeconds: -1}, "submissionTimeSeconds", "min"},
		{"finish negative violations", &FinishAssessmentRequest{ProctoringViolations: models.ProctoringViolations{TabSwitch: -2}}, "proctoringViolations.tabSwitch", "min"},
		{"create blank name", &AssessmentCreateRequest{Name: "   "}, "name", "not_blank"},
		{"create bad percentage", &AssessmentCreateRequest{Name: "Quiz", PassingPercentage: 120}, "passingPercentage", "percentage"},
		{
			"question with one option",
			&AddQuestionsRequest{AssessmentID: "a1", ModuleID: "m1", Questions: []QuestionRequest{{
				Text: "Q", CorrectOption: "A", Options: []models.QuestionOption{{Label: "A", Text: "yes"}},
			}}},
			"questions[0].options", "min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			fields := fieldsOf(err)
			if rule, ok := fields[tt.wantField]; !ok || rule != tt.wantRule {
				t.Fatalf("fields = %v, want %s=%s", fields, tt.wantField, tt.wantRule)
			}
		})
	}
}

func TestValidateQuestionBusinessRules(t *testing.T) {
	bv := New().GetBusinessValidator()

	tests := []struct {
		name  string
		q     QuestionRequest
		rules []string
	}{
		{
			name: "valid",
			q:    QuestionRequest{Text: "2+2", CorrectOption: "B", Options: []models.QuestionOption{{Label: "A", Text: "3"}, {Label: "B", Text: "4"}}},
		},
		{
			name:  "correct option not among labels",
			q:     QuestionRequest{Text: "2+2", CorrectOption: "C", Options: []models.QuestionOption{{Label: "A", Text: "3"}, {Label: "B", Text: "4"}}},
			rules: []string{"correct_option"},
		},
		{
			name:  "duplicate labels",
			q:     QuestionRequest{Text: "2+2", CorrectOption: "A", Options: []models.QuestionOption{{Label: "A", Text: "3"}, {Label: "A", Text: "4"}}},
			rules: []string{"unique_label"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := bv.ValidateQuestion("q", &tt.q)
			if len(errs) != len(tt.rules) {
				t.Fatalf("errors = %v, want rules %v", errs, tt.rules)
			}
			for i, rule := range tt.rules {
				if errs[i].Rule != rule {
					t.Errorf("rule[%d] = %s, want %s", i, errs[i].Rule, rule)
				}
			}
		})
	}
}

func TestToValidationErrorsWrapsPlainErrors(t *testing.T) {
	errs := ToValidationErrors(errors.New("bad"))
	if len(errs) != 1 || errs[0].Message != "bad" {
		t.Fatalf("errs = %+v", errs)
	}
	if ToValidationErrors(nil) != nil {
		t.Fatal("nil error should map to nil")
	}
}
