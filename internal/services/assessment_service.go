package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
	"github.com/SAP-F-2025/assessment-engine/internal/validator"
)

type assessmentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewAssessmentService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) AssessmentService {
	return &assessmentService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *assessmentService) Create(ctx context.Context, req *CreateAssessmentRequest, createdBy string) (*AssessmentDetail, error) {
	s.logger.Info("Creating assessment", "created_by", createdBy, "name", req.Name)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}
	if errs := s.validator.GetBusinessValidator().ValidateAssessmentCreate(req); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	now := s.now()
	assessment := &models.Assessment{
		ID:                uuid.NewString(),
		CreatedBy:         createdBy,
		Name:              req.Name,
		Description:       req.Description,
		MaxMarks:          req.MaxMarks,
		TimeLimit:         req.TimeLimit,
		ShuffleQuestions:  req.ShuffleQuestions,
		NegativeMarking:   req.NegativeMarking,
		PassingPercentage: req.PassingPercentage,
		IsProtected:       req.IsProtected,
		IsVisible:         req.IsVisible,
		ModuleRefs:        datatypes.JSONSlice[string]{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.Proctoring != nil {
		assessment.Proctoring = *req.Proctoring
	}
	assessment.ApplyDefaults()

	var modules []*models.Module
	var questions []*models.Question
	for i := range req.Modules {
		module, moduleQuestions := s.newModule(assessment.ID, &req.Modules[i], createdBy, now)
		modules = append(modules, module)
		questions = append(questions, moduleQuestions...)
		assessment.ModuleRefs = append(assessment.ModuleRefs, module.ID)
	}

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if len(questions) > 0 {
			if err := tx.Question().CreateBatch(ctx, questions); err != nil {
				return fmt.Errorf("failed to create questions: %w", err)
			}
		}
		if len(modules) > 0 {
			if err := tx.Module().CreateBatch(ctx, modules); err != nil {
				return fmt.Errorf("failed to create modules: %w", err)
			}
		}
		if err := tx.Assessment().Create(ctx, assessment); err != nil {
			return fmt.Errorf("failed to create assessment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Assessment created successfully",
		"assessment_id", assessment.ID,
		"modules", len(modules),
		"questions", len(questions))

	return s.Get(ctx, assessment.ID, true)
}

func (s *assessmentService) Get(ctx context.Context, id string, includeHidden bool) (*AssessmentDetail, error) {
	assessment, err := loadAssessment(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if !assessment.IsVisible && !includeHidden {
		return nil, ErrAssessmentNotVisible
	}

	var questionIDs []string
	for _, m := range assessment.Modules {
		questionIDs = append(questionIDs, m.QuestionIDs...)
	}
	questions := map[string]*models.Question{}
	if len(questionIDs) > 0 {
		if questions, err = s.repo.Question().GetByIDs(ctx, questionIDs); err != nil {
			return nil, fmt.Errorf("failed to load questions: %w", err)
		}
	}

	detail := &AssessmentDetail{
		AssessmentSummary: toAssessmentSummary(assessment),
		CreatedBy:         assessment.CreatedBy,
		UpdatedAt:         assessment.UpdatedAt,
		Modules:           make([]*ModuleDetail, 0, len(assessment.Modules)),
	}
	for _, m := range assessment.Modules {
		md := &ModuleDetail{
			ModuleSummary: toModuleSummary(m),
			Questions:     make([]*PublicQuestion, 0, len(m.QuestionIDs)),
		}
		for _, qid := range m.QuestionIDs {
			if q, ok := questions[qid]; ok {
				md.Questions = append(md.Questions, toPublicQuestion(q))
			}
		}
		detail.Modules = append(detail.Modules, md)
	}
	return detail, nil
}

func (s *assessmentService) List(ctx context.Context, filters repositories.AssessmentFilters) (*AssessmentListResponse, error) {
	assessments, total, err := s.repo.Assessment().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	if err := attachModules(ctx, s.repo, assessments); err != nil {
		return nil, err
	}

	response := &AssessmentListResponse{
		Assessments: make([]*AssessmentSummary, 0, len(assessments)),
		Total:       total,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	}
	for _, a := range assessments {
		response.Assessments = append(response.Assessments, toAssessmentSummary(a))
	}
	return response, nil
}

func (s *assessmentService) ListVisible(ctx context.Context, filters repositories.AssessmentFilters) (*AssessmentListResponse, error) {
	filters.VisibleOnly = true
	return s.List(ctx, filters)
}

func (s *assessmentService) Update(ctx context.Context, id string, req *UpdateAssessmentRequest, userID string) (*AssessmentDetail, error) {
	s.logger.Info("Updating assessment", "assessment_id", id, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}
	var errs validator.ValidationErrors
	for i, m := range req.Modules {
		errs = append(errs, s.validator.GetBusinessValidator().ValidateQuestions(fmt.Sprintf("modules[%d].questions", i), m.Questions)...)
	}
	if len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	var invalid []string
	for _, m := range req.Modules {
		if m.ID != "" && !assessment.HasModule(m.ID) {
			invalid = append(invalid, m.ID)
		}
	}
	if len(invalid) > 0 {
		return nil, NewInvalidModulesError(invalid)
	}

	applyAssessmentUpdate(assessment, req)
	now := s.now()
	assessment.UpdatedAt = now

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		for i := range req.Modules {
			if err := s.upsertModule(ctx, tx, assessment, &req.Modules[i], userID, now); err != nil {
				return err
			}
		}
		if err := tx.Assessment().Update(ctx, assessment); err != nil {
			return fmt.Errorf("failed to update assessment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Assessment updated successfully", "assessment_id", id)
	return s.Get(ctx, id, true)
}

func (s *assessmentService) DeleteModule(ctx context.Context, assessmentID, moduleID string) error {
	assessment, err := s.repo.Assessment().GetByID(ctx, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to get assessment: %w", err)
	}
	if !assessment.RemoveModule(moduleID) {
		return ErrModuleNotFound
	}
	assessment.UpdatedAt = s.now()

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Assessment().Update(ctx, assessment); err != nil {
			return fmt.Errorf("failed to update assessment: %w", err)
		}
		if err := tx.Module().Delete(ctx, moduleID); err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to delete module: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Module deleted", "assessment_id", assessmentID, "module_id", moduleID)
	return nil
}

func (s *assessmentService) Delete(ctx context.Context, id string) error {
	exists, err := s.repo.Assessment().ExistsByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check assessment: %w", err)
	}
	if !exists {
		return ErrAssessmentNotFound
	}

	count, err := s.repo.Assignment().CountByAssessment(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count assignments: %w", err)
	}
	if count > 0 {
		return ErrAssessmentHasAssignees
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Module().DeleteByAssessment(ctx, id); err != nil {
			return err
		}
		return tx.Assessment().Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}

	s.logger.Info("Assessment deleted", "assessment_id", id)
	return nil
}

// ===== HELPERS =====

func (s *assessmentService) newModule(assessmentID string, req *ModuleRequest, createdBy string, now time.Time) (*models.Module, []*models.Question) {
	module := &models.Module{
		ID:           uuid.NewString(),
		AssessmentID: assessmentID,
		Name:         req.Name,
		TimeLimit:    req.TimeLimit,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	module.ApplyDefaults()

	questions := make([]*models.Question, 0, len(req.Questions))
	for i := range req.Questions {
		q := newQuestion(&req.Questions[i], createdBy, now)
		questions = append(questions, q)
		module.QuestionIDs = append(module.QuestionIDs, q.ID)
	}
	module.SyncQuestionCount()
	return module, questions
}

// upsertModule updates an existing module of the assessment in place, or
// creates a new one and appends it to ModuleRefs. Questions on the request
// are appended either way.
func (s *assessmentService) upsertModule(ctx context.Context, tx repositories.Repository, assessment *models.Assessment, req *ModuleRequest, userID string, now time.Time) error {
	if req.ID == "" {
		module, questions := s.newModule(assessment.ID, req, userID, now)
		if len(questions) > 0 {
			if err := tx.Question().CreateBatch(ctx, questions); err != nil {
				return fmt.Errorf("failed to create questions: %w", err)
			}
		}
		if err := tx.Module().Create(ctx, module); err != nil {
			return fmt.Errorf("failed to create module: %w", err)
		}
		assessment.ModuleRefs = append(assessment.ModuleRefs, module.ID)
		return nil
	}

	module, err := tx.Module().GetByID(ctx, req.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewInvalidModulesError([]string{req.ID})
		}
		return fmt.Errorf("failed to get module: %w", err)
	}

	module.Name = req.Name
	if req.TimeLimit > 0 {
		module.TimeLimit = req.TimeLimit
	}
	if len(req.Questions) > 0 {
		questions := make([]*models.Question, 0, len(req.Questions))
		for i := range req.Questions {
			q := newQuestion(&req.Questions[i], userID, now)
			questions = append(questions, q)
			module.QuestionIDs = append(module.QuestionIDs, q.ID)
		}
		if err := tx.Question().CreateBatch(ctx, questions); err != nil {
			return fmt.Errorf("failed to create questions: %w", err)
		}
	}
	module.SyncQuestionCount()
	module.UpdatedAt = now

	if err := tx.Module().Update(ctx, module); err != nil {
		return fmt.Errorf("failed to update module: %w", err)
	}
	return nil
}

func applyAssessmentUpdate(a *models.Assessment, req *UpdateAssessmentRequest) {
	if req.Name != nil {
		a.Name = *req.Name
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.MaxMarks != nil {
		a.MaxMarks = *req.MaxMarks
	}
	if req.TimeLimit != nil {
		a.TimeLimit = *req.TimeLimit
	}
	if req.ShuffleQuestions != nil {
		a.ShuffleQuestions = *req.ShuffleQuestions
	}
	if req.NegativeMarking != nil {
		a.NegativeMarking = *req.NegativeMarking
	}
	if req.PassingPercentage != nil {
		a.PassingPercentage = *req.PassingPercentage
	}
	if req.IsProtected != nil {
		a.IsProtected = *req.IsProtected
	}
	if req.IsVisible != nil {
		a.IsVisible = *req.IsVisible
	}
	if req.Proctoring != nil {
		a.Proctoring = *req.Proctoring
	}
	a.ApplyDefaults()
}
