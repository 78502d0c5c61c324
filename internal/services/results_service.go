package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

const resultsSheet = "Results"

type resultsService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewResultsService(repo repositories.Repository, logger *slog.Logger) ResultsService {
	return &resultsService{
		repo:   repo,
		logger: logger,
	}
}

func (s *resultsService) GetResultsForAssessment(ctx context.Context, assessmentID string) (*AssessmentResults, error) {
	if assessmentID == "" {
		return nil, ErrAssessmentIDRequired
	}

	assessment, err := loadAssessment(ctx, s.repo, assessmentID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.repo.Assignment().ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	userIDs := make([]string, 0, len(assignments))
	var reportIDs []string
	for _, a := range assignments {
		userIDs = append(userIDs, a.UserID)
		if a.ReportID != nil {
			reportIDs = append(reportIDs, *a.ReportID)
		}
	}

	users := map[string]*models.User{}
	if len(userIDs) > 0 {
		found, err := s.repo.User().GetByIDs(ctx, userIDs)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to resolve users for results",
				"assessment_id", assessmentID,
				"error", err)
		}
		for _, u := range found {
			users[u.ID] = u
		}
	}

	reports := map[string]*models.AttemptReport{}
	if len(reportIDs) > 0 {
		if reports, err = s.repo.Report().GetByIDs(ctx, reportIDs); err != nil {
			return nil, fmt.Errorf("failed to load reports: %w", err)
		}
	}

	rows := make([]*ResultRow, 0, len(assignments))
	for _, a := range assignments {
		row := &ResultRow{
			AssignmentID:  a.ID,
			User:          &UserSummary{ID: a.UserID},
			Status:        a.Status,
			Score:         a.Score,
			AttemptCount:  a.AttemptCount,
			AssignedDate:  a.AssignedDate,
			DueDate:       a.DueDate,
			LastAttemptAt: a.LastAttemptAt,
		}
		if u, ok := users[a.UserID]; ok {
			row.User = toUserSummary(u)
		}
		if a.ReportID != nil {
			row.Report = toReportSummary(reports[*a.ReportID])
		}
		rows = append(rows, row)
	}

	return &AssessmentResults{
		Assessment: toAssessmentSummary(assessment),
		Results:    rows,
		Total:      len(rows),
	}, nil
}

func (s *resultsService) GetUserResult(ctx context.Context, assessmentID, userID string) (*UserResult, error) {
	assessment, err := loadAssessment(ctx, s.repo, assessmentID)
	if err != nil {
		return nil, err
	}

	report, err := loadReport(ctx, s.repo, userID, assessmentID)
	if err != nil {
		return nil, err
	}

	questions, err := loadReportQuestions(ctx, s.repo, report)
	if err != nil {
		return nil, err
	}

	user := &UserSummary{ID: userID}
	if u, err := s.repo.User().GetByID(ctx, userID); err == nil {
		user = toUserSummary(u)
	} else if !repositories.IsNotFoundError(err) {
		s.logger.WarnContext(ctx, "Failed to resolve user for result", "user_id", userID, "error", err)
	}

	result := &UserResult{
		Assessment: toAssessmentSummary(assessment),
		User:       user,
		Report:     toReportSummary(report),
		Score:      report.Score,
		MaxScore:   MaxScore(report, questions),
		Questions:  make([]*QuestionResult, 0, report.TotalQuestions()),
	}
	report.Each(func(pos models.EntryPosition, entry *models.QuestionEntry) {
		item := &QuestionResult{
			Index:           pos.Index,
			ModuleID:        report.Modules[pos.Module].ModuleID,
			QuestionID:      entry.QuestionID,
			SubmittedAnswer: entry.SubmittedAnswer,
			IsSubmitted:     entry.IsSubmitted,
			IsVisited:       entry.IsVisited,
			MarkForReview:   entry.MarkForReview,
		}
		if q, ok := questions[entry.QuestionID]; ok {
			item.Text = q.Text
			item.Options = []models.QuestionOption(q.Options)
			item.CorrectAnswer = q.CorrectOption
			item.MaxMarks = q.MaxMarks
			item.NegativeMarks = q.NegativeMarks
			item.IsCorrect = entry.HasAnswer() && q.IsCorrect(*entry.SubmittedAnswer)
		}
		result.Questions = append(result.Questions, item)
	})
	return result, nil
}

func (s *resultsService) ExportResults(ctx context.Context, assessmentID string) ([]byte, error) {
	results, err := s.GetResultsForAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{
		"User ID", "Name", "Email", "Status", "Score", "Max Marks", "Attempts",
		"Assigned", "Due", "Last Attempt", "Completed", "Suspended", "Submission Time (s)", "Remarks",
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range results.Results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := exportRow(row, results.Assessment.MaxMarks)
		if err := f.SetSheetRow(resultsSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Results exported",
		"assessment_id", assessmentID,
		"rows", len(results.Results))
	return buf.Bytes(), nil
}

func exportRow(row *ResultRow, maxMarks float64) []interface{} {
	const layout = "2006-01-02 15:04"

	due, last := "", ""
	if row.DueDate != nil {
		due = row.DueDate.Format(layout)
	}
	if row.LastAttemptAt != nil {
		last = row.LastAttemptAt.Format(layout)
	}

	completed, suspended := false, false
	submission, remarks := 0, ""
	if row.Report != nil {
		completed = row.Report.IsCompleted
		suspended = row.Report.IsSuspended
		submission = row.Report.SubmissionTimeSeconds
		remarks = row.Report.Remarks
	}

	return []interface{}{
		row.User.ID, row.User.FullName, row.User.Email, string(row.Status), row.Score, maxMarks,
		row.AttemptCount, row.AssignedDate.Format(layout), due, last, completed, suspended, submission, remarks,
	}
}
