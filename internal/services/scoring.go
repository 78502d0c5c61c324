package services

import (
	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

// GradeEntry returns the marks one entry contributes. Unanswered entries
// contribute nothing; a wrong answer costs NegativeMarks only when negative
// marking is on.
func GradeEntry(entry *models.QuestionEntry, question *models.Question, negativeMarking bool) float64 {
	if question == nil || !entry.HasAnswer() {
		return 0
	}
	if question.IsCorrect(*entry.SubmittedAnswer) {
		return question.MaxMarks
	}
	if negativeMarking {
		return -question.NegativeMarks
	}
	return 0
}

// ScoreReport sums GradeEntry over every entry of the report. The total is
// not floored at zero. Entries whose question is missing from questions
// score nothing.
func ScoreReport(report *models.AttemptReport, questions map[string]*models.Question, negativeMarking bool) float64 {
	score := 0.0
	report.Each(func(_ models.EntryPosition, entry *models.QuestionEntry) {
		score += GradeEntry(entry, questions[entry.QuestionID], negativeMarking)
	})
	return score
}

// MaxScore is the score of a report with every question answered correctly.
func MaxScore(report *models.AttemptReport, questions map[string]*models.Question) float64 {
	total := 0.0
	report.Each(func(_ models.EntryPosition, entry *models.QuestionEntry) {
		if q := questions[entry.QuestionID]; q != nil {
			total += q.MaxMarks
		}
	})
	return total
}

// Percentage guards against an empty assessment.
func Percentage(score, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return score / max * 100
}
