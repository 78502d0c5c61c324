package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
	"github.com/SAP-F-2025/assessment-engine/internal/validator"
)

const (
	importStopMarker = "STOP"
	maxImportRows    = 500
)

// Sheet columns. Option columns double as option labels, so the answer
// cell names one of them.
const (
	colQuestion      = "question"
	colAnswer        = "answer"
	colMaxMarks      = "maxmarks"
	colNegativeMarks = "negativemarks"
)

var optionColumns = []string{"opt_1", "opt_2", "opt_3", "opt_4"}

type questionBankService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewQuestionBankService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) QuestionBankService {
	return &questionBankService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *questionBankService) AddQuestions(ctx context.Context, req *AddQuestionsRequest, createdBy string) (*AddQuestionsResult, error) {
	if req == nil || strings.TrimSpace(req.AssessmentID) == "" {
		return nil, ErrAssessmentIDRequired
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}
	if errs := s.validator.GetBusinessValidator().ValidateQuestions("questions", req.Questions); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	return s.appendQuestions(ctx, req.AssessmentID, req.ModuleID, req.Questions, createdBy)
}

func (s *questionBankService) ImportQuestions(ctx context.Context, assessmentID, moduleID, filename string, r io.Reader, createdBy string) (*AddQuestionsResult, error) {
	if strings.TrimSpace(assessmentID) == "" {
		return nil, ErrAssessmentIDRequired
	}
	if strings.TrimSpace(moduleID) == "" {
		return nil, ErrModuleNotFound
	}

	rows, err := readSheet(filename, r)
	if err != nil {
		return nil, err
	}

	questions, rowErrs := parseQuestionRows(rows)
	for i, row := range questions {
		errs := s.validator.GetBusinessValidator().ValidateQuestion("question", &row.request)
		if verr := s.validator.Validate(&questions[i].request); verr != nil {
			errs = append(validator.ToValidationErrors(verr), errs...)
		}
		for _, e := range errs {
			rowErrs = append(rowErrs, RowError{Row: row.line, Message: fmt.Sprintf("%s: %s", e.Field, e.Message)})
		}
	}
	if len(rowErrs) > 0 {
		return nil, &ImportError{Rows: rowErrs}
	}
	if len(questions) == 0 {
		return nil, &ImportError{Rows: []RowError{{Row: 1, Message: "no questions found"}}}
	}

	requests := make([]QuestionRequest, len(questions))
	for i, row := range questions {
		requests[i] = row.request
	}

	result, err := s.appendQuestions(ctx, assessmentID, moduleID, requests, createdBy)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Questions imported",
		"assessment_id", assessmentID,
		"module_id", moduleID,
		"file", filename,
		"count", len(requests))
	return result, nil
}

// appendQuestions creates the questions and appends them to the module in
// one transaction.
func (s *questionBankService) appendQuestions(ctx context.Context, assessmentID, moduleID string, requests []QuestionRequest, createdBy string) (*AddQuestionsResult, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	if !assessment.HasModule(moduleID) {
		return nil, ErrModuleNotFound
	}

	now := s.now()
	questions := make([]*models.Question, len(requests))
	ids := make([]string, len(requests))
	for i := range requests {
		questions[i] = newQuestion(&requests[i], createdBy, now)
		ids[i] = questions[i].ID
	}

	var module *models.Module
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		module, err = tx.Module().GetByID(ctx, moduleID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrModuleNotFound
			}
			return fmt.Errorf("failed to get module: %w", err)
		}
		if err := tx.Question().CreateBatch(ctx, questions); err != nil {
			return fmt.Errorf("failed to create questions: %w", err)
		}

		module.QuestionIDs = append(module.QuestionIDs, ids...)
		module.SyncQuestionCount()
		module.UpdatedAt = now
		if err := tx.Module().Update(ctx, module); err != nil {
			return fmt.Errorf("failed to update module: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Questions added to module",
		"assessment_id", assessmentID,
		"module_id", moduleID,
		"added", len(ids),
		"question_count", module.QuestionCount)

	return &AddQuestionsResult{
		AssessmentID:  assessmentID,
		ModuleID:      moduleID,
		QuestionIDs:   ids,
		QuestionCount: module.QuestionCount,
	}, nil
}

// ===== SHEET PARSING =====

type importedQuestion struct {
	line    int
	request QuestionRequest
}

// readSheet returns every row of the first sheet of an xlsx workbook, or of
// a csv file when filename says so.
func readSheet(filename string, r io.Reader) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, &ImportError{Rows: []RowError{{Message: fmt.Sprintf("invalid csv file: %v", err)}}}
		}
		return rows, nil
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ImportError{Rows: []RowError{{Message: fmt.Sprintf("invalid xlsx file: %v", err)}}}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ImportError{Rows: []RowError{{Message: "workbook has no sheets"}}}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// parseQuestionRows maps sheet rows onto question requests. Row numbers in
// errors are 1-based sheet rows, the header being row 1.
func parseQuestionRows(rows [][]string) ([]importedQuestion, []RowError) {
	if len(rows) == 0 {
		return nil, []RowError{{Row: 1, Message: "missing header row"}}
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, name := range append([]string{colQuestion, colAnswer}, optionColumns...) {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, []RowError{{Row: 1, Message: "missing columns: " + strings.Join(missing, ", ")}}
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []importedQuestion
	var errs []RowError
	for i, row := range rows[1:] {
		line := i + 2
		text := cell(row, colQuestion)
		if text == importStopMarker {
			break
		}
		if isBlankRow(row) {
			continue
		}
		if len(out) >= maxImportRows {
			errs = append(errs, RowError{Row: line, Message: fmt.Sprintf("too many questions, limit is %d", maxImportRows)})
			break
		}

		req := QuestionRequest{
			Text:          text,
			CorrectOption: cell(row, colAnswer),
		}
		for _, col := range optionColumns {
			if value := cell(row, col); value != "" {
				req.Options = append(req.Options, models.QuestionOption{Label: col, Text: value})
			}
		}

		rowOK := true
		if raw := cell(row, colMaxMarks); raw != "" {
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				errs = append(errs, RowError{Row: line, Message: fmt.Sprintf("maxMarks %q is not a number", raw)})
				rowOK = false
			} else {
				req.MaxMarks = &value
			}
		}
		if raw := cell(row, colNegativeMarks); raw != "" {
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				errs = append(errs, RowError{Row: line, Message: fmt.Sprintf("negativeMarks %q is not a number", raw)})
				rowOK = false
			} else {
				req.NegativeMarks = &value
			}
		}
		if rowOK {
			out = append(out, importedQuestion{line: line, request: req})
		}
	}
	return out, errs
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
