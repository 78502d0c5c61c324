package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultTimeLimit     = 60
	DefaultMaxViolations = 100
)

// ProctoringOption configures a single client-side check.
type ProctoringOption struct {
	Enabled       bool `json:"enabled" bson:"enabled"`
	MaxViolations int  `json:"maxViolations" bson:"maxViolations" validate:"omitempty,min=0"`
}

type ProctoringConfig struct {
	Mic                   ProctoringOption `json:"mic" bson:"mic"`
	InvisibleCam          ProctoringOption `json:"invisibleCam" bson:"invisibleCam"`
	Webcam                ProctoringOption `json:"webcam" bson:"webcam"`
	TabSwitch             ProctoringOption `json:"tabSwitch" bson:"tabSwitch"`
	MultiplePersonInFrame ProctoringOption `json:"multiplePersonInFrame" bson:"multiplePersonInFrame"`
	PhoneInFrame          ProctoringOption `json:"phoneInFrame" bson:"phoneInFrame"`
	ControlKeyPressed     ProctoringOption `json:"controlKeyPressed" bson:"controlKeyPressed"`
}

func (p *ProctoringConfig) options() []*ProctoringOption {
	return []*ProctoringOption{
		&p.Mic, &p.InvisibleCam, &p.Webcam, &p.TabSwitch,
		&p.MultiplePersonInFrame, &p.PhoneInFrame, &p.ControlKeyPressed,
	}
}

// ApplyDefaults fills unset violation limits.
func (p *ProctoringConfig) ApplyDefaults() {
	for _, opt := range p.options() {
		if opt.MaxViolations <= 0 {
			opt.MaxViolations = DefaultMaxViolations
		}
	}
}

type Assessment struct {
	ID                string           `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	CreatedBy         string           `json:"createdBy" bson:"createdBy" gorm:"size:255;index"`
	Name              string           `json:"name" bson:"name" gorm:"not null;size:200"`
	Description       string           `json:"description" bson:"description" gorm:"type:text"`
	MaxMarks          float64          `json:"maxMarks" bson:"maxMarks"`
	TimeLimit         int              `json:"timeLimit" bson:"timeLimit"`
	ShuffleQuestions  bool             `json:"shuffleQuestions" bson:"shuffleQuestions"`
	NegativeMarking   bool             `json:"negativeMarking" bson:"negativeMarking"`
	PassingPercentage float64          `json:"passingPercentage" bson:"passingPercentage"`
	IsProtected       bool             `json:"isProtected" bson:"isProtected"`
	IsVisible         bool             `json:"isVisible" bson:"isVisible" gorm:"index"`
	Proctoring        ProctoringConfig `json:"proctoring" bson:"proctoring" gorm:"type:text"`

	// Ordered module ids. Attempt reports follow this order.
	ModuleRefs datatypes.JSONSlice[string] `json:"moduleRefs" bson:"moduleRefs"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`

	// Populated by GetByIDWithModules, in ModuleRefs order.
	Modules []*Module `json:"modules,omitempty" bson:"-" gorm:"-"`
}

func (Assessment) TableName() string {
	return "assessments"
}

func (a *Assessment) ApplyDefaults() {
	if a.TimeLimit <= 0 {
		a.TimeLimit = DefaultTimeLimit
	}
	a.Proctoring.ApplyDefaults()
}

func (a *Assessment) HasModule(moduleID string) bool {
	for _, ref := range a.ModuleRefs {
		if ref == moduleID {
			return true
		}
	}
	return false
}

// RemoveModule drops moduleID from ModuleRefs, keeping order.
func (a *Assessment) RemoveModule(moduleID string) bool {
	for i, ref := range a.ModuleRefs {
		if ref == moduleID {
			a.ModuleRefs = append(a.ModuleRefs[:i:i], a.ModuleRefs[i+1:]...)
			return true
		}
	}
	return false
}

// TotalQuestions sums question counts of the loaded modules.
func (a *Assessment) TotalQuestions() int {
	total := 0
	for _, m := range a.Modules {
		total += len(m.QuestionIDs)
	}
	return total
}

type Module struct {
	ID            string                      `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	AssessmentID  string                      `json:"assessmentId" bson:"assessmentId" gorm:"size:36;index"`
	Name          string                      `json:"name" bson:"name" gorm:"not null;size:200"`
	TimeLimit     int                         `json:"timeLimit" bson:"timeLimit"`
	QuestionIDs   datatypes.JSONSlice[string] `json:"questionIds" bson:"questionIds"`
	QuestionCount int                         `json:"questionCount" bson:"questionCount"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (Module) TableName() string {
	return "modules"
}

func (m *Module) ApplyDefaults() {
	if m.TimeLimit <= 0 {
		m.TimeLimit = DefaultTimeLimit
	}
	if m.QuestionIDs == nil {
		m.QuestionIDs = datatypes.JSONSlice[string]{}
	}
}

// SyncQuestionCount keeps the derived count equal to len(QuestionIDs).
func (m *Module) SyncQuestionCount() {
	m.QuestionCount = len(m.QuestionIDs)
}

func (m *Module) BeforeSave(tx *gorm.DB) error {
	m.SyncQuestionCount()
	return nil
}
