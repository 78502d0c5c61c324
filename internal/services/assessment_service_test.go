package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

func TestAssessmentService_CreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	detail := env.createAssessment(t, false, false, [][2]float64{{1, 0}, {2, 0}}, [][2]float64{{3, 0}})

	if len(detail.Modules) != 2 || detail.TotalQuestions != 3 {
		t.Fatalf("detail = %+v", detail)
	}
	if detail.Modules[0].QuestionCount != 2 || detail.Modules[1].Questions[0].MaxMarks != 3 {
		t.Errorf("modules = %+v", detail.Modules)
	}
	if detail.Proctoring.Webcam.MaxViolations != models.DefaultMaxViolations {
		t.Errorf("proctoring defaults not applied: %+v", detail.Proctoring)
	}

	got, err := env.assessments.Get(ctx, detail.ID, false)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Go fundamentals" || len(got.Modules) != 2 {
		t.Errorf("Get() = %+v", got)
	}
}

func TestAssessmentService_CreateRejectsInvalidQuestions(t *testing.T) {
	env := newTestEnv(t)
	bad := question("Which?", 1, 0)
	bad.CorrectOption = "Z"

	_, err := env.assessments.Create(context.Background(), &CreateAssessmentRequest{
		Name:    "Broken",
		Modules: []ModuleRequest{{Name: "M", Questions: []QuestionRequest{bad}}},
	}, "admin")
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("Create() error = %v, want bad request", err)
	}
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || verrs[0].Field != "modules[0].questions[0].correctOption" {
		t.Errorf("validation errors = %v", verrs)
	}
}

func TestAssessmentService_UpdateAndVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	detail := env.createAssessment(t, false, false, [][2]float64{{1, 0}})

	hidden := false
	name := "Renamed"
	updated, err := env.assessments.Update(ctx, detail.ID, &UpdateAssessmentRequest{
		Name:      &name,
		IsVisible: &hidden,
		Modules: []ModuleRequest{
			{ID: detail.Modules[0].ID, Name: "First", Questions: []QuestionRequest{question("Extra", 1, 0)}},
			{Name: "Second", Questions: []QuestionRequest{question("New", 2, 0)}},
		},
	}, "admin")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "Renamed" || len(updated.Modules) != 2 {
		t.Fatalf("updated = %+v", updated)
	}
	if updated.Modules[0].Name != "First" || updated.Modules[0].QuestionCount != 2 {
		t.Errorf("first module = %+v", updated.Modules[0].ModuleSummary)
	}

	if _, err := env.assessments.Get(ctx, detail.ID, false); !errors.Is(err, ErrAssessmentNotVisible) {
		t.Errorf("Get(hidden) error = %v, want ErrAssessmentNotVisible", err)
	}
	if _, err := env.assessments.Get(ctx, detail.ID, true); err != nil {
		t.Errorf("Get(hidden, admin) error = %v", err)
	}

	visible, err := env.assessments.ListVisible(ctx, repositories.AssessmentFilters{})
	if err != nil {
		t.Fatalf("ListVisible() error = %v", err)
	}
	if visible.Total != 0 {
		t.Errorf("ListVisible total = %d, want 0", visible.Total)
	}
	all, err := env.assessments.List(ctx, repositories.AssessmentFilters{})
	if err != nil || all.Total != 1 || all.Assessments[0].TotalQuestions != 3 {
		t.Errorf("List() = %+v, %v", all, err)
	}

	_, err = env.assessments.Update(ctx, detail.ID, &UpdateAssessmentRequest{
		Modules: []ModuleRequest{{ID: "foreign", Name: "X"}},
	}, "admin")
	var listErr *IDListError
	if !errors.As(err, &listErr) || listErr.Field != "invalid_modules" || !errors.Is(err, ErrBadRequest) {
		t.Errorf("Update(foreign module) error = %v", err)
	}
}

func TestAssessmentService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	detail := env.createAssessment(t, false, false, [][2]float64{{1, 0}}, [][2]float64{{1, 0}})

	if err := env.assessments.DeleteModule(ctx, detail.ID, "missing"); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("DeleteModule(missing) error = %v", err)
	}
	if err := env.assessments.DeleteModule(ctx, detail.ID, detail.Modules[0].ID); err != nil {
		t.Fatalf("DeleteModule() error = %v", err)
	}
	got, err := env.assessments.Get(ctx, detail.ID, true)
	if err != nil || len(got.Modules) != 1 || got.Modules[0].ID != detail.Modules[1].ID {
		t.Fatalf("after DeleteModule: %+v, %v", got, err)
	}

	env.assign(t, detail.ID, "u1")
	if err := env.assessments.Delete(ctx, detail.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("Delete(assigned) error = %v, want conflict", err)
	}

	other := env.createAssessment(t, false, false, [][2]float64{{1, 0}})
	if err := env.assessments.Delete(ctx, other.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := env.assessments.Get(ctx, other.ID, true); !errors.Is(err, ErrAssessmentNotFound) {
		t.Errorf("Get(deleted) error = %v", err)
	}
	if err := env.assessments.Delete(ctx, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(deleted) error = %v", err)
	}
}
