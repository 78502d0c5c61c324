package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	DefaultMaxMarks      = 1.0
	DefaultNegativeMarks = 0.0
)

type QuestionOption struct {
	Label string `json:"label" bson:"label" validate:"required,max=50"`
	Text  string `json:"text" bson:"text" validate:"required,max=1000"`
}

// Question is immutable once created. There is no update path.
type Question struct {
	ID            string                              `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	Text          string                              `json:"text" bson:"text" gorm:"type:text;not null"`
	Options       datatypes.JSONSlice[QuestionOption] `json:"options" bson:"options"`
	CorrectOption string                              `json:"correctOption" bson:"correctOption" gorm:"size:50;not null"`
	MaxMarks      float64                             `json:"maxMarks" bson:"maxMarks" gorm:"not null"`
	NegativeMarks float64                             `json:"negativeMarks" bson:"negativeMarks" gorm:"not null"`

	CreatedBy string    `json:"createdBy" bson:"createdBy" gorm:"size:255;index"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

func (Question) TableName() string {
	return "questions"
}

func (q *Question) ApplyDefaults() {
	if q.MaxMarks == 0 {
		q.MaxMarks = DefaultMaxMarks
	}
	if q.NegativeMarks < 0 {
		q.NegativeMarks = DefaultNegativeMarks
	}
}

// HasOption reports whether label names one of the question's options.
func (q *Question) HasOption(label string) bool {
	for _, opt := range q.Options {
		if opt.Label == label {
			return true
		}
	}
	return false
}

// IsCorrect compares a submitted option label with the correct one.
// Surrounding whitespace is ignored, case is not.
func (q *Question) IsCorrect(answer string) bool {
	return strings.TrimSpace(answer) == strings.TrimSpace(q.CorrectOption)
}
