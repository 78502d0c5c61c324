package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

func TestResultsService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	detail := env.createAssessment(t, true, false, [][2]float64{{2, 1}, {1, 1}})
	env.assign(t, detail.ID, "u1", "u2")
	env.start(t, "u1", detail.ID)

	_, err := env.attempts.Finish(ctx, "u1", detail.ID, &FinishAssessmentRequest{
		Answers: []AnswerItem{{Index: 1, Answer: "A"}, {Index: 2, Answer: "C"}},
	})
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	t.Run("assessment results", func(t *testing.T) {
		results, err := env.results.GetResultsForAssessment(ctx, detail.ID)
		if err != nil {
			t.Fatalf("GetResultsForAssessment() error = %v", err)
		}
		if results.Total != 2 {
			t.Fatalf("total = %d, want 2", results.Total)
		}
		byUser := map[string]*ResultRow{}
		for _, row := range results.Results {
			byUser[row.User.ID] = row
		}
		if row := byUser["u1"]; row == nil || row.Score != 1 || row.Report == nil || !row.Report.IsCompleted || row.User.Email != "u1@example.com" {
			t.Errorf("u1 row = %+v", row)
		}
		if row := byUser["u2"]; row == nil || row.Status != models.AssignmentAssigned || row.Report != nil {
			t.Errorf("u2 row = %+v", row)
		}
	})

	t.Run("user result", func(t *testing.T) {
		result, err := env.results.GetUserResult(ctx, detail.ID, "u1")
		if err != nil {
			t.Fatalf("GetUserResult() error = %v", err)
		}
		if result.Score != 1 || result.MaxScore != 3 || len(result.Questions) != 2 {
			t.Fatalf("result = %+v", result)
		}
		first, second := result.Questions[0], result.Questions[1]
		if !first.IsCorrect || first.CorrectAnswer != "A" || first.MaxMarks != 2 {
			t.Errorf("first = %+v", first)
		}
		if second.IsCorrect || second.SubmittedAnswer == nil || *second.SubmittedAnswer != "C" || second.NegativeMarks != 1 {
			t.Errorf("second = %+v", second)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := env.results.GetResultsForAssessment(ctx, "missing"); !errors.Is(err, ErrAssessmentNotFound) {
			t.Errorf("error = %v, want ErrAssessmentNotFound", err)
		}
		if _, err := env.results.GetUserResult(ctx, detail.ID, "u2"); !errors.Is(err, ErrReportNotFound) {
			t.Errorf("error = %v, want ErrReportNotFound", err)
		}
	})

	t.Run("export", func(t *testing.T) {
		data, err := env.results.ExportResults(ctx, detail.ID)
		if err != nil {
			t.Fatalf("ExportResults() error = %v", err)
		}
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("OpenReader() error = %v", err)
		}
		defer f.Close()

		rows, err := f.GetRows(resultsSheet)
		if err != nil {
			t.Fatalf("GetRows() error = %v", err)
		}
		if len(rows) != 3 || rows[0][0] != "User ID" {
			t.Errorf("rows = %v", rows)
		}
	})
}
