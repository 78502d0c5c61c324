package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/assessment-engine/internal/events"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
	"github.com/SAP-F-2025/assessment-engine/internal/validator"
)

type attemptService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher

	now     func() time.Time
	shuffle func(ids []string)
}

func NewAttemptService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) AttemptService {
	return &attemptService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
		shuffle:   shuffleIDs,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, userID string, req *StartAssessmentRequest) (*StartResult, error) {
	if req == nil || strings.TrimSpace(req.AssessmentID) == "" {
		return nil, ErrAssessmentIDRequired
	}

	s.logger.Info("Starting assessment attempt",
		"assessment_id", req.AssessmentID,
		"user_id", userID)

	assignment, err := s.repo.Assignment().GetByUserAndAssessment(ctx, userID, req.AssessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotAssigned
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if !assignment.CanStart() {
		return nil, ErrNotAssigned
	}

	assessment, err := loadAssessment(ctx, s.repo, req.AssessmentID)
	if err != nil {
		return nil, err
	}
	if !assessment.IsVisible {
		return nil, ErrAssessmentNotVisible
	}

	existing, err := s.repo.Report().GetByUserAndAssessment(ctx, userID, req.AssessmentID)
	if err == nil {
		s.logger.Info("Resuming existing attempt", "report_id", existing.ID)
		return &StartResult{Report: existing, Created: false}, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	now := s.now()
	if assignment.IsOverdue(now) {
		if err := s.expire(ctx, assignment, now); err != nil {
			return nil, err
		}
		return nil, ErrAssignmentExpired
	}

	report := s.newReport(userID, assessment, now)

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Report().Create(ctx, report); err != nil {
			return err
		}

		assignment.Status = models.AssignmentInProgress
		assignment.LastAttemptAt = &now
		assignment.ReportID = &report.ID
		assignment.AttemptCount++
		if err := tx.Assignment().Update(ctx, assignment); err != nil {
			return fmt.Errorf("failed to update assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		if repositories.IsDuplicateError(err) {
			// Lost the race against a concurrent start; the winner's report stands.
			existing, getErr := s.repo.Report().GetByUserAndAssessment(ctx, userID, req.AssessmentID)
			if getErr != nil {
				return nil, fmt.Errorf("failed to get report after concurrent start: %w", getErr)
			}
			return &StartResult{Report: existing, Created: false}, nil
		}
		return nil, fmt.Errorf("failed to start attempt transaction: %w", err)
	}

	s.logger.Info("Assessment attempt started successfully",
		"report_id", report.ID,
		"assessment_id", req.AssessmentID,
		"user_id", userID,
		"total_questions", report.TotalQuestions())

	s.publish(ctx, events.NewEvent(events.EventAttemptStarted, events.AttemptStartedData{
		AssessmentID:   req.AssessmentID,
		UserID:         userID,
		ReportID:       report.ID,
		TotalQuestions: report.TotalQuestions(),
	}))

	return &StartResult{Report: report, Created: true}, nil
}

func (s *attemptService) GetQuestion(ctx context.Context, userID, assessmentID string, index int) (*QuestionView, error) {
	if index < 1 {
		return nil, ErrInvalidQuestionIndex
	}

	report, err := loadReport(ctx, s.repo, userID, assessmentID)
	if err != nil {
		return nil, err
	}
	if report.IsCompleted {
		return nil, ErrAttemptCompleted
	}

	pos, ok := report.Resolve(index)
	if !ok {
		return nil, ErrInvalidQuestionIndex
	}

	update := models.EntryUpdate{Visited: true}
	if err := s.updateEntry(ctx, report.ID, pos, update); err != nil {
		return nil, err
	}
	entry := report.Entry(pos)
	entry.Apply(update)

	question, err := s.repo.Question().GetByID(ctx, entry.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	assessment, err := loadAssessment(ctx, s.repo, assessmentID)
	if err != nil {
		return nil, err
	}

	view := toQuestionView(pos, entry, report.Modules[pos.Module].ModuleID, question)
	view.TotalQuestions = report.TotalQuestions()
	view.Assessment = toAssessmentSummary(assessment)
	return view, nil
}

func (s *attemptService) GetAllQuestions(ctx context.Context, userID, assessmentID string) (*QuestionSet, error) {
	assessment, err := loadAssessment(ctx, s.repo, assessmentID)
	if err != nil {
		return nil, err
	}

	report, err := loadReport(ctx, s.repo, userID, assessmentID)
	if err != nil {
		return nil, err
	}
	if report.IsCompleted {
		return nil, ErrAttemptCompleted
	}

	questions, err := loadReportQuestions(ctx, s.repo, report)
	if err != nil {
		return nil, err
	}

	set := &QuestionSet{
		Assessment:     toAssessmentSummary(assessment),
		Questions:      make([]*QuestionView, 0, report.TotalQuestions()),
		LastIndex:      report.LastIndex,
		TotalQuestions: report.TotalQuestions(),
	}
	report.Each(func(pos models.EntryPosition, entry *models.QuestionEntry) {
		question, ok := questions[entry.QuestionID]
		if !ok {
			s.logger.Warn("Question referenced by report is missing",
				"report_id", report.ID,
				"question_id", entry.QuestionID)
			return
		}
		set.Questions = append(set.Questions, toQuestionView(pos, entry, report.Modules[pos.Module].ModuleID, question))
	})
	return set, nil
}

func (s *attemptService) SubmitAnswer(ctx context.Context, userID, assessmentID string, req *SubmitAnswerRequest) (*EntryState, error) {
	if req == nil || req.Index == 0 {
		return nil, ErrIndexRequired
	}
	if req.Answer == "" {
		return nil, ErrAnswerRequired
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	update := models.EntryUpdate{Answer: &req.Answer, MarkForReview: req.MarkForReview}
	return s.mutateEntry(ctx, userID, assessmentID, req.Index, update)
}

func (s *attemptService) MarkForReview(ctx context.Context, userID, assessmentID string, req *MarkForReviewRequest) (*EntryState, error) {
	if req == nil || req.Index == 0 {
		return nil, ErrIndexRequired
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	return s.mutateEntry(ctx, userID, assessmentID, req.Index, models.EntryUpdate{MarkForReview: req.MarkForReview})
}

func (s *attemptService) Finish(ctx context.Context, userID, assessmentID string, req *FinishAssessmentRequest) (*FinishResult, error) {
	if req == nil {
		req = &FinishAssessmentRequest{}
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	assessment, err := loadAssessment(ctx, s.repo, assessmentID)
	if err != nil {
		return nil, err
	}

	report, err := loadReport(ctx, s.repo, userID, assessmentID)
	if err != nil {
		return nil, err
	}
	if report.IsCompleted {
		return nil, ErrAttemptAlreadyFinished
	}

	final := &models.AttemptReport{Modules: models.CloneModules(report.Modules)}
	applyFinalAnswers(final, req.Answers)

	questions, err := loadReportQuestions(ctx, s.repo, final)
	if err != nil {
		return nil, err
	}
	score := ScoreReport(final, questions, assessment.NegativeMarking)
	now := s.now()

	completion := buildCompletion(final, req, score, now)
	status := models.AssignmentCompleted
	if req.IsSuspended {
		status = models.AssignmentSuspended
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Report().Complete(ctx, report.ID, completion); err != nil {
			if repositories.IsPreconditionFailed(err) {
				return ErrAttemptAlreadyFinished
			}
			return err
		}

		assignment, err := tx.Assignment().GetByUserAndAssessment(ctx, userID, assessmentID)
		if err != nil {
			return fmt.Errorf("failed to get assignment: %w", err)
		}
		assignment.Score = score
		assignment.Status = status
		assignment.LastAttemptAt = &now
		if err := tx.Assignment().Update(ctx, assignment); err != nil {
			return fmt.Errorf("failed to update assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAttemptAlreadyFinished) {
			return nil, ErrAttemptAlreadyFinished
		}
		return nil, fmt.Errorf("failed to finish attempt transaction: %w", err)
	}

	maxScore := MaxScore(final, questions)
	percentage := Percentage(score, maxScore)

	s.logger.Info("Assessment attempt finished",
		"report_id", report.ID,
		"assessment_id", assessmentID,
		"user_id", userID,
		"score", score,
		"is_suspended", req.IsSuspended)

	s.publish(ctx, events.NewEvent(events.EventAttemptFinished, events.AttemptFinishedData{
		AssessmentID: assessmentID,
		UserID:       userID,
		ReportID:     report.ID,
		Score:        score,
		IsSuspended:  req.IsSuspended,
		Status:       string(status),
	}))

	return &FinishResult{
		ReportID:    report.ID,
		Score:       score,
		MaxScore:    maxScore,
		Percentage:  percentage,
		Passed:      percentage >= assessment.PassingPercentage,
		Status:      status,
		IsSuspended: req.IsSuspended,
		CompletedAt: now,
	}, nil
}

// ===== HELPERS =====

// mutateEntry resolves index on the caller's open report and persists update.
func (s *attemptService) mutateEntry(ctx context.Context, userID, assessmentID string, index int, update models.EntryUpdate) (*EntryState, error) {
	report, err := loadReport(ctx, s.repo, userID, assessmentID)
	if err != nil {
		return nil, err
	}
	if report.IsCompleted {
		return nil, ErrAttemptCompleted
	}

	pos, ok := report.Resolve(index)
	if !ok {
		return nil, ErrQuestionNotFound
	}

	if err := s.updateEntry(ctx, report.ID, pos, update); err != nil {
		return nil, err
	}

	entry := report.Entry(pos)
	entry.Apply(update)
	state := toEntryState(pos, entry)
	return &state, nil
}

func (s *attemptService) updateEntry(ctx context.Context, reportID string, pos models.EntryPosition, update models.EntryUpdate) error {
	err := s.repo.Report().UpdateEntry(ctx, reportID, pos, update)
	switch {
	case err == nil:
		return nil
	case repositories.IsPreconditionFailed(err):
		return ErrAttemptCompleted
	case repositories.IsNotFoundError(err):
		return ErrQuestionNotFound
	default:
		return fmt.Errorf("failed to update entry: %w", err)
	}
}

func (s *attemptService) expire(ctx context.Context, assignment *models.Assignment, now time.Time) error {
	assignment.Status = models.AssignmentExpired
	if err := s.repo.Assignment().Update(ctx, assignment); err != nil {
		return fmt.Errorf("failed to expire assignment: %w", err)
	}
	s.logger.Info("Assignment expired",
		"assignment_id", assignment.ID,
		"due_date", assignment.DueDate,
		"now", now)
	return nil
}

func (s *attemptService) newReport(userID string, assessment *models.Assessment, now time.Time) *models.AttemptReport {
	return &models.AttemptReport{
		ID:           uuid.NewString(),
		UserID:       userID,
		AssessmentID: assessment.ID,
		Modules:      buildModuleAttempts(assessment, s.shuffle),
		Remarks:      models.RemarksStarted,
		LastIndex:    1,
		StartedAt:    now,
	}
}

func (s *attemptService) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event",
			"event_type", event.Type,
			"event_id", event.ID,
			"error", err)
	}
}
