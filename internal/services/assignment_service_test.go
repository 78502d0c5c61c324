package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/assessment-engine/internal/events"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

func TestAssignmentService_Assign(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	detail := env.createAssessment(t, false, false, [][2]float64{{1, 0}})

	result, err := env.assignments.Assign(ctx, &AssignRequest{
		AssessmentID: detail.ID,
		UserIDs:      []string{"u1", "u2", "u1"},
	}, "admin")
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if result.Count != 2 {
		t.Errorf("Count = %d, want 2 (duplicates collapsed)", result.Count)
	}
	for _, a := range result.Assignments {
		if a.Status != models.AssignmentAssigned || a.AssignedBy != "admin" {
			t.Errorf("assignment = %+v", a)
		}
	}

	published := env.publisher.EventsOfType(events.EventAssessmentAssigned)
	if len(published) != 1 {
		t.Fatalf("published %d assigned events, want 1", len(published))
	}
	data := published[0].Data.(events.AssessmentAssignedData)
	if data.AssessmentID != detail.ID || len(data.UserIDs) != 2 {
		t.Errorf("event data = %+v", data)
	}
}

func TestAssignmentService_AssignErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	detail := env.createAssessment(t, false, false, [][2]float64{{1, 0}})
	env.assign(t, detail.ID, "u1")

	tests := []struct {
		name     string
		req      *AssignRequest
		wantKind error
		wantIDs  []string
	}{
		{
			name:     "missing assessment id",
			req:      &AssignRequest{UserIDs: []string{"u2"}},
			wantKind: ErrBadRequest,
		},
		{
			name:     "missing users",
			req:      &AssignRequest{AssessmentID: detail.ID},
			wantKind: ErrBadRequest,
		},
		{
			name:     "unknown assessment",
			req:      &AssignRequest{AssessmentID: "missing", UserIDs: []string{"u2"}},
			wantKind: ErrNotFound,
		},
		{
			name:     "unknown users",
			req:      &AssignRequest{AssessmentID: detail.ID, UserIDs: []string{"u2", "ghost"}},
			wantKind: ErrNotFound,
			wantIDs:  []string{"ghost"},
		},
		{
			name:     "already assigned",
			req:      &AssignRequest{AssessmentID: detail.ID, UserIDs: []string{"u2", "u1"}},
			wantKind: ErrConflict,
			wantIDs:  []string{"u1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.assignments.Assign(ctx, tt.req, "admin")
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("Assign() error = %v, want kind %v", err, tt.wantKind)
			}
			if tt.wantIDs == nil {
				return
			}
			var listErr *IDListError
			if !errors.As(err, &listErr) {
				t.Fatalf("error %T is not an IDListError", err)
			}
			if len(listErr.IDs) != len(tt.wantIDs) || listErr.IDs[0] != tt.wantIDs[0] {
				t.Errorf("IDs = %v, want %v", listErr.IDs, tt.wantIDs)
			}
		})
	}

	// The rejected requests must not have created anything for u2.
	if _, err := env.repo.Assignment().GetByUserAndAssessment(ctx, "u2", detail.ID); err == nil {
		t.Error("u2 was assigned by a rejected request")
	}
}

func TestAssignmentService_ListForUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.createAssessment(t, false, false, [][2]float64{{1, 0}, {1, 0}})
	env.assign(t, first.ID, "u1")
	env.now = env.now.Add(time.Hour)
	second := env.createAssessment(t, false, false, [][2]float64{{1, 0}}, [][2]float64{{2, 0}})
	env.assign(t, second.ID, "u1")
	env.start(t, "u1", second.ID)

	list, err := env.assignments.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].Assessment.ID != second.ID {
		t.Errorf("newest assignment should come first, got %s", list[0].Assessment.ID)
	}
	if list[0].Status != models.AssignmentInProgress || list[0].Report == nil || list[0].Report.Remarks != models.RemarksStarted {
		t.Errorf("started assignment = %+v, report %+v", list[0], list[0].Report)
	}
	if len(list[0].Assessment.Modules) != 2 || list[0].Assessment.Modules[1].QuestionCount != 1 {
		t.Errorf("module summaries = %+v", list[0].Assessment.Modules)
	}
	if list[1].Report != nil {
		t.Errorf("unstarted assignment has report %+v", list[1].Report)
	}
	if list[1].AssignedBy == nil || list[1].AssignedBy.FullName != "User admin" {
		t.Errorf("assigner = %+v", list[1].AssignedBy)
	}

	empty, err := env.assignments.ListForUser(ctx, "u3")
	if err != nil || len(empty) != 0 {
		t.Errorf("ListForUser(u3) = %v, %v; want empty", empty, err)
	}
}
