package services

import (
	"context"
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

// maxListedAssignments bounds ListForUser.
const maxListedAssignments = 500

type assignmentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	now       func() time.Time
}

func NewAssignmentService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) AssignmentService {
	return &assignmentService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *assignmentService) Assign(ctx context.Context, req *AssignRequest, assignedBy string) (*AssignResult, error) {
	if req == nil || strings.TrimSpace(req.AssessmentID) == "" {
		return nil, ErrAssessmentIDRequired
	}
	if len(req.UserIDs) == 0 {
		return nil, ErrUserIDsRequired
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	userIDs := uniqueStrings(req.UserIDs)

	s.logger.Info("Assigning assessment",
		"assessment_id", req.AssessmentID,
		"assigned_by", assignedBy,
		"user_count", len(userIDs))

	exists, err := s.repo.Assessment().ExistsByID(ctx, req.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check assessment: %w", err)
	}
	if !exists {
		return nil, ErrAssessmentNotFound
	}

	if err := s.checkUsersExist(ctx, userIDs); err != nil {
		return nil, err
	}

	assigned, err := s.repo.Assignment().FindAssignedUserIDs(ctx, req.AssessmentID, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing assignments: %w", err)
	}
	if len(assigned) > 0 {
		return nil, NewAlreadyAssignedError(assigned)
	}

	now := s.now()
	assignments := make([]*models.Assignment, len(userIDs))
	for i, userID := range userIDs {
		assignments[i] = &models.Assignment{
			ID:           uuid.NewString(),
			UserID:       userID,
			AssessmentID: req.AssessmentID,
			AssignedBy:   assignedBy,
			AssignedDate: now,
			DueDate:      req.DueDate,
			Status:       models.AssignmentAssigned,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		return tx.Assignment().CreateBatch(ctx, assignments)
	})
	if err != nil {
		if repositories.IsDuplicateError(err) {
			// A concurrent request assigned some of the same users.
			assigned, findErr := s.repo.Assignment().FindAssignedUserIDs(ctx, req.AssessmentID, userIDs)
			if findErr == nil && len(assigned) > 0 {
				return nil, NewAlreadyAssignedError(assigned)
			}
		}
		return nil, fmt.Errorf("failed to create assignments: %w", err)
	}

	s.logger.Info("Assessment assigned successfully",
		"assessment_id", req.AssessmentID,
		"count", len(assignments))

	if s.publisher != nil {
		event := events.NewEvent(events.EventAssessmentAssigned, events.AssessmentAssignedData{
			AssessmentID: req.AssessmentID,
			AssignedBy:   assignedBy,
			UserIDs:      userIDs,
			DueDate:      req.DueDate,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.Type, "error", err)
		}
	}

	return &AssignResult{
		AssessmentID: req.AssessmentID,
		Count:        len(assignments),
		Assignments:  assignments,
	}, nil
}

// checkUsersExist fails with the ids the directory does not know.
func (s *assignmentService) checkUsersExist(ctx context.Context, userIDs []string) error {
	users, err := s.repo.User().GetByIDs(ctx, userIDs)
	if err != nil {
		return fmt.Errorf("failed to resolve users: %w", err)
	}

	found := make(map[string]struct{}, len(users))
	for _, u := range users {
		found[u.ID] = struct{}{}
	}
	var missing []string
	for _, id := range userIDs {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return NewInvalidUsersError(missing)
	}
	return nil
}

func (s *assignmentService) ListForUser(ctx context.Context, userID string) ([]*AssignedAssessment, error) {
	assignments, err := s.repo.Assignment().ListByUser(ctx, userID, repositories.AssignmentFilters{Limit: maxListedAssignments})
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	if len(assignments) == 0 {
		return []*AssignedAssessment{}, nil
	}

	var assessmentIDs, assignerIDs, reportIDs []string
	for _, a := range assignments {
		assessmentIDs = append(assessmentIDs, a.AssessmentID)
		if a.AssignedBy != "" {
			assignerIDs = append(assignerIDs, a.AssignedBy)
		}
		if a.ReportID != nil {
			reportIDs = append(reportIDs, *a.ReportID)
		}
	}

	assessments, err := s.loadAssessmentsWithModules(ctx, uniqueStrings(assessmentIDs))
	if err != nil {
		return nil, err
	}

	reports := map[string]*models.AttemptReport{}
	if len(reportIDs) > 0 {
		if reports, err = s.repo.Report().GetByIDs(ctx, reportIDs); err != nil {
			return nil, fmt.Errorf("failed to load reports: %w", err)
		}
	}

	assigners := map[string]*models.User{}
	if len(assignerIDs) > 0 {
		users, err := s.repo.User().GetByIDs(ctx, uniqueStrings(assignerIDs))
		if err != nil {
			// Directory outages degrade the listing instead of failing it.
			s.logger.WarnContext(ctx, "Failed to resolve assigners", "error", err)
		}
		for _, u := range users {
			assigners[u.ID] = u
		}
	}

	result := make([]*AssignedAssessment, 0, len(assignments))
	for _, a := range assignments {
		item := &AssignedAssessment{
			ID:            a.ID,
			Status:        a.Status,
			AssignedDate:  a.AssignedDate,
			DueDate:       a.DueDate,
			Score:         a.Score,
			AttemptCount:  a.AttemptCount,
			LastAttemptAt: a.LastAttemptAt,
			Assessment:    toAssessmentSummary(assessments[a.AssessmentID]),
		}
		if u, ok := assigners[a.AssignedBy]; ok {
			item.AssignedBy = toUserSummary(u)
		} else if a.AssignedBy != "" {
			item.AssignedBy = &UserSummary{ID: a.AssignedBy}
		}
		if a.ReportID != nil {
			item.Report = toReportSummary(reports[*a.ReportID])
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *assignmentService) loadAssessmentsWithModules(ctx context.Context, ids []string) (map[string]*models.Assessment, error) {
	assessments, err := s.repo.Assessment().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load assessments: %w", err)
	}

	list := make([]*models.Assessment, 0, len(assessments))
	for _, a := range assessments {
		list = append(list, a)
	}
	if err := attachModules(ctx, s.repo, list); err != nil {
		return nil, err
	}
	return assessments, nil
}
