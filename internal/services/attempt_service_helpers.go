package services

import (
	"math/rand/v2"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

// shuffleIDs permutes ids in place (Fisher-Yates).
func shuffleIDs(ids []string) {
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

// buildModuleAttempts lays out a fresh attempt in module order. Shuffling
// never moves a question across modules.
func buildModuleAttempts(assessment *models.Assessment, shuffle func([]string)) datatypes.JSONSlice[models.ModuleAttempt] {
	modules := make(datatypes.JSONSlice[models.ModuleAttempt], 0, len(assessment.Modules))
	for _, m := range assessment.Modules {
		ids := append([]string(nil), m.QuestionIDs...)
		if assessment.ShuffleQuestions && shuffle != nil {
			shuffle(ids)
		}

		entries := make([]models.QuestionEntry, len(ids))
		for i, id := range ids {
			entries[i] = models.QuestionEntry{QuestionID: id}
		}
		modules = append(modules, models.ModuleAttempt{ModuleID: m.ID, Entries: entries})
	}
	return modules
}

// applyFinalAnswers records the answers sent with finish. Empty answers and
// indexes outside the report are ignored.
func applyFinalAnswers(report *models.AttemptReport, answers []AnswerItem) {
	for _, item := range answers {
		if item.Answer == "" {
			continue
		}
		pos, ok := report.Resolve(item.Index)
		if !ok {
			continue
		}
		answer := item.Answer
		report.Entry(pos).Apply(models.EntryUpdate{Answer: &answer})
	}
}

func buildCompletion(final *models.AttemptReport, req *FinishAssessmentRequest, score float64, now time.Time) *models.ReportCompletion {
	remarks := req.Remarks
	if remarks == "" {
		remarks = models.RemarksCompleted
	}
	lastIndex := req.LastIndex
	if lastIndex <= 0 {
		lastIndex = 1
	}
	screenshots := datatypes.JSONSlice[string](req.Screenshots)
	if screenshots == nil {
		screenshots = datatypes.JSONSlice[string]{}
	}

	return &models.ReportCompletion{
		Modules:               final.Modules,
		IsSuspended:           req.IsSuspended,
		SubmissionTimeSeconds: req.SubmissionTimeSeconds,
		LastIndex:             lastIndex,
		Screenshots:           screenshots,
		ProctoringViolations:  req.ProctoringViolations,
		Remarks:               remarks,
		Score:                 score,
		CompletedAt:           now,
	}
}

func toQuestionView(pos models.EntryPosition, entry *models.QuestionEntry, moduleID string, q *models.Question) *QuestionView {
	return &QuestionView{
		EntryState:    toEntryState(pos, entry),
		ModuleID:      moduleID,
		Text:          q.Text,
		Options:       []models.QuestionOption(q.Options),
		MaxMarks:      q.MaxMarks,
		NegativeMarks: q.NegativeMarks,
	}
}
