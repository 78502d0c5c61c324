package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RemarksStarted   = "Assessment started"
	RemarksCompleted = "Assessment completed"
)

// QuestionEntry is the per-question state inside an attempt.
type QuestionEntry struct {
	QuestionID      string  `json:"questionId" bson:"questionId"`
	IsVisited       bool    `json:"isVisited" bson:"isVisited"`
	IsSubmitted     bool    `json:"isSubmitted" bson:"isSubmitted"`
	MarkForReview   bool    `json:"markForReview" bson:"markForReview"`
	SubmittedAnswer *string `json:"submittedAnswer" bson:"submittedAnswer"`
}

// HasAnswer reports whether the entry carries a non-empty answer.
func (e *QuestionEntry) HasAnswer() bool {
	return e.SubmittedAnswer != nil && *e.SubmittedAnswer != ""
}

// EntryUpdate describes a mutation of a single entry. Nil fields are left alone.
type EntryUpdate struct {
	Visited       bool
	Answer        *string
	MarkForReview *bool
}

func (e *QuestionEntry) Apply(u EntryUpdate) {
	if u.Visited {
		e.IsVisited = true
	}
	if u.Answer != nil {
		answer := *u.Answer
		e.SubmittedAnswer = &answer
		e.IsSubmitted = true
	}
	if u.MarkForReview != nil {
		e.MarkForReview = *u.MarkForReview
	}
}

type ModuleAttempt struct {
	ModuleID string          `json:"moduleId" bson:"moduleId"`
	Entries  []QuestionEntry `json:"entries" bson:"entries"`
}

// ProctoringViolations holds client reported counters, one per check.
type ProctoringViolations struct {
	Mic                   int `json:"mic" bson:"mic" validate:"min=0"`
	InvisibleCam          int `json:"invisibleCam" bson:"invisibleCam" validate:"min=0"`
	Webcam                int `json:"webcam" bson:"webcam" validate:"min=0"`
	TabSwitch             int `json:"tabSwitch" bson:"tabSwitch" validate:"min=0"`
	MultiplePersonInFrame int `json:"multiplePersonInFrame" bson:"multiplePersonInFrame" validate:"min=0"`
	PhoneInFrame          int `json:"phoneInFrame" bson:"phoneInFrame" validate:"min=0"`
	ControlKeyPressed     int `json:"controlKeyPressed" bson:"controlKeyPressed" validate:"min=0"`
}

// AttemptReport is a user's single attempt at an assessment. At most one
// exists per (user, assessment) and it is never deleted.
type AttemptReport struct {
	ID           string `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	UserID       string `json:"userId" bson:"userId" gorm:"size:255;not null;uniqueIndex:idx_report_user_assessment"`
	AssessmentID string `json:"assessmentId" bson:"assessmentId" gorm:"size:36;not null;uniqueIndex:idx_report_user_assessment;index"`

	Modules datatypes.JSONSlice[ModuleAttempt] `json:"modules" bson:"modules"`

	IsCompleted           bool                       `json:"isCompleted" bson:"isCompleted" gorm:"index"`
	IsSuspended           bool                       `json:"isSuspended" bson:"isSuspended"`
	SubmissionTimeSeconds int                        `json:"submissionTimeSeconds" bson:"submissionTimeSeconds"`
	LastIndex             int                        `json:"lastIndex" bson:"lastIndex"`
	Screenshots           datatypes.JSONSlice[string] `json:"screenshots" bson:"screenshots"`
	ProctoringViolations  ProctoringViolations       `json:"proctoringViolations" bson:"proctoringViolations" gorm:"type:text"`
	Remarks               string                     `json:"remarks" bson:"remarks" gorm:"type:text"`
	Score                 float64                    `json:"score" bson:"score"`

	StartedAt   time.Time  `json:"startedAt" bson:"startedAt"`
	CompletedAt *time.Time `json:"completedAt" bson:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

func (AttemptReport) TableName() string {
	return "attempt_reports"
}

// EntryPosition locates an entry by module and entry offset.
type EntryPosition struct {
	Index  int `json:"index"`
	Module int `json:"module"`
	Entry  int `json:"entry"`
}

// TotalQuestions is the number of entries across all modules.
func (r *AttemptReport) TotalQuestions() int {
	total := 0
	for _, m := range r.Modules {
		total += len(m.Entries)
	}
	return total
}

// Resolve maps a 1-based flattened index onto an entry position. Modules
// are walked in declaration order and entries in stored order.
func (r *AttemptReport) Resolve(index int) (EntryPosition, bool) {
	if index < 1 {
		return EntryPosition{}, false
	}
	remaining := index
	for mi, m := range r.Modules {
		if remaining <= len(m.Entries) {
			return EntryPosition{Index: index, Module: mi, Entry: remaining - 1}, true
		}
		remaining -= len(m.Entries)
	}
	return EntryPosition{}, false
}

// Entry returns the entry at pos. pos must come from Resolve on this report.
func (r *AttemptReport) Entry(pos EntryPosition) *QuestionEntry {
	return &r.Modules[pos.Module].Entries[pos.Entry]
}

// Each visits every entry with its flattened index.
func (r *AttemptReport) Each(fn func(pos EntryPosition, entry *QuestionEntry)) {
	index := 0
	for mi := range r.Modules {
		for ei := range r.Modules[mi].Entries {
			index++
			fn(EntryPosition{Index: index, Module: mi, Entry: ei}, &r.Modules[mi].Entries[ei])
		}
	}
}

// QuestionIDs lists question ids in flattened order.
func (r *AttemptReport) QuestionIDs() []string {
	ids := make([]string, 0, r.TotalQuestions())
	r.Each(func(_ EntryPosition, e *QuestionEntry) {
		ids = append(ids, e.QuestionID)
	})
	return ids
}

// ReportCompletion carries everything written when an attempt is finished.
type ReportCompletion struct {
	Modules               datatypes.JSONSlice[ModuleAttempt]
	IsSuspended           bool
	SubmissionTimeSeconds int
	LastIndex             int
	Screenshots           datatypes.JSONSlice[string]
	ProctoringViolations  ProctoringViolations
	Remarks               string
	Score                 float64
	CompletedAt           time.Time
}

// CloneModules deep-copies the module/entry tree.
func CloneModules(modules []ModuleAttempt) datatypes.JSONSlice[ModuleAttempt] {
	out := make(datatypes.JSONSlice[ModuleAttempt], len(modules))
	for i, m := range modules {
		entries := make([]QuestionEntry, len(m.Entries))
		for j, e := range m.Entries {
			if e.SubmittedAnswer != nil {
				answer := *e.SubmittedAnswer
				e.SubmittedAnswer = &answer
			}
			entries[j] = e
		}
		out[i] = ModuleAttempt{ModuleID: m.ModuleID, Entries: entries}
	}
	return out
}
