package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

// ===== SHARED CONVERSIONS =====

func toAssessmentSummary(a *models.Assessment) *AssessmentSummary {
	if a == nil {
		return nil
	}
	summary := &AssessmentSummary{
		ID:                a.ID,
		Name:              a.Name,
		Description:       a.Description,
		MaxMarks:          a.MaxMarks,
		PassingPercentage: a.PassingPercentage,
		TimeLimit:         a.TimeLimit,
		IsVisible:         a.IsVisible,
		IsProtected:       a.IsProtected,
		ShuffleQuestions:  a.ShuffleQuestions,
		NegativeMarking:   a.NegativeMarking,
		Proctoring:        a.Proctoring,
		TotalQuestions:    a.TotalQuestions(),
		Modules:           make([]ModuleSummary, 0, len(a.Modules)),
		CreatedAt:         a.CreatedAt,
	}
	for _, m := range a.Modules {
		summary.Modules = append(summary.Modules, toModuleSummary(m))
	}
	return summary
}

func toModuleSummary(m *models.Module) ModuleSummary {
	return ModuleSummary{
		ID:            m.ID,
		Name:          m.Name,
		TimeLimit:     m.TimeLimit,
		QuestionCount: len(m.QuestionIDs),
	}
}

func toUserSummary(u *models.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, FullName: u.FullName, Email: u.Email}
}

func toReportSummary(r *models.AttemptReport) *ReportSummary {
	if r == nil {
		return nil
	}
	screenshots := []string(r.Screenshots)
	if screenshots == nil {
		screenshots = []string{}
	}
	return &ReportSummary{
		ID:                    r.ID,
		Remarks:               r.Remarks,
		IsCompleted:           r.IsCompleted,
		IsSuspended:           r.IsSuspended,
		SubmissionTimeSeconds: r.SubmissionTimeSeconds,
		LastIndex:             r.LastIndex,
		Score:                 r.Score,
		TotalQuestions:        r.TotalQuestions(),
		ProctoringViolations:  r.ProctoringViolations,
		Screenshots:           screenshots,
		StartedAt:             r.StartedAt,
		CompletedAt:           r.CompletedAt,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

func toEntryState(pos models.EntryPosition, e *models.QuestionEntry) EntryState {
	return EntryState{
		Index:           pos.Index,
		QuestionID:      e.QuestionID,
		IsVisited:       e.IsVisited,
		IsSubmitted:     e.IsSubmitted,
		MarkForReview:   e.MarkForReview,
		SubmittedAnswer: e.SubmittedAnswer,
	}
}

func toPublicQuestion(q *models.Question) *PublicQuestion {
	return &PublicQuestion{
		ID:            q.ID,
		Text:          q.Text,
		Options:       []models.QuestionOption(q.Options),
		MaxMarks:      q.MaxMarks,
		NegativeMarks: q.NegativeMarks,
	}
}

// ===== SHARED LOADERS =====

// loadAssessment maps a missing assessment onto ErrAssessmentNotFound.
func loadAssessment(ctx context.Context, repo repositories.Repository, id string) (*models.Assessment, error) {
	assessment, err := repo.Assessment().GetByIDWithModules(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return assessment, nil
}

func loadReport(ctx context.Context, repo repositories.Repository, userID, assessmentID string) (*models.AttemptReport, error) {
	report, err := repo.Report().GetByUserAndAssessment(ctx, userID, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

// loadReportQuestions fetches every question referenced by the report.
func loadReportQuestions(ctx context.Context, repo repositories.Repository, report *models.AttemptReport) (map[string]*models.Question, error) {
	ids := report.QuestionIDs()
	if len(ids) == 0 {
		return map[string]*models.Question{}, nil
	}
	questions, err := repo.Question().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	return questions, nil
}

// attachModules batch-loads the modules of every assessment and attaches
// them in ref order. Dangling refs are skipped.
func attachModules(ctx context.Context, repo repositories.Repository, assessments []*models.Assessment) error {
	var moduleIDs []string
	for _, a := range assessments {
		moduleIDs = append(moduleIDs, a.ModuleRefs...)
	}
	if len(moduleIDs) == 0 {
		return nil
	}

	modules, err := repo.Module().GetByIDs(ctx, uniqueStrings(moduleIDs))
	if err != nil {
		return fmt.Errorf("failed to load modules: %w", err)
	}
	for _, a := range assessments {
		a.Modules = make([]*models.Module, 0, len(a.ModuleRefs))
		for _, ref := range a.ModuleRefs {
			if m, ok := modules[ref]; ok {
				a.Modules = append(a.Modules, m)
			}
		}
	}
	return nil
}

// newQuestion builds a question from a validated request.
func newQuestion(req *QuestionRequest, createdBy string, now time.Time) *models.Question {
	options := make(datatypes.JSONSlice[models.QuestionOption], len(req.Options))
	for i, opt := range req.Options {
		options[i] = models.QuestionOption{
			Label: strings.TrimSpace(opt.Label),
			Text:  opt.Text,
		}
	}

	q := &models.Question{
		ID:            uuid.NewString(),
		Text:          strings.TrimSpace(req.Text),
		Options:       options,
		CorrectOption: strings.TrimSpace(req.CorrectOption),
		CreatedBy:     createdBy,
		CreatedAt:     now,
	}
	if req.MaxMarks != nil {
		q.MaxMarks = *req.MaxMarks
	}
	if req.NegativeMarks != nil {
		q.NegativeMarks = *req.NegativeMarks
	}
	q.ApplyDefaults()
	return q
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
