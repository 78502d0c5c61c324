package services

import (
	"testing"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

func TestGradeEntry(t *testing.T) {
	q := &models.Question{ID: "q", CorrectOption: "B", MaxMarks: 3, NegativeMarks: 1.5}
	answer := func(s string) *string { return &s }

	tests := []struct {
		name            string
		submitted       *string
		negativeMarking bool
		want            float64
	}{
		{name: "correct", submitted: answer("B"), want: 3},
		{name: "correct with negative marking", submitted: answer("B"), negativeMarking: true, want: 3},
		{name: "incorrect with negative marking", submitted: answer("A"), negativeMarking: true, want: -1.5},
		{name: "incorrect without negative marking", submitted: answer("A"), want: 0},
		{name: "unanswered", negativeMarking: true, want: 0},
		{name: "empty answer counts as unanswered", submitted: answer(""), negativeMarking: true, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &models.QuestionEntry{QuestionID: "q", SubmittedAnswer: tt.submitted}
			if got := GradeEntry(entry, q, tt.negativeMarking); got != tt.want {
				t.Errorf("GradeEntry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreReport_NotFloored(t *testing.T) {
	wrong := "C"
	report := &models.AttemptReport{Modules: []models.ModuleAttempt{{
		ModuleID: "m",
		Entries: []models.QuestionEntry{
			{QuestionID: "q1", SubmittedAnswer: &wrong},
			{QuestionID: "q2", SubmittedAnswer: &wrong},
			{QuestionID: "gone", SubmittedAnswer: &wrong},
		},
	}}}
	questions := map[string]*models.Question{
		"q1": {ID: "q1", CorrectOption: "A", MaxMarks: 1, NegativeMarks: 2},
		"q2": {ID: "q2", CorrectOption: "A", MaxMarks: 1, NegativeMarks: 1},
	}

	if got := ScoreReport(report, questions, true); got != -3 {
		t.Errorf("ScoreReport() = %v, want -3", got)
	}
	if got := MaxScore(report, questions); got != 2 {
		t.Errorf("MaxScore() = %v, want 2", got)
	}
	if got := Percentage(1, 0); got != 0 {
		t.Errorf("Percentage(1, 0) = %v, want 0", got)
	}
}
