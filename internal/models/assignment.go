package models

import "time"

type AssignmentStatus string

const (
	AssignmentAssigned   AssignmentStatus = "assigned"
	AssignmentInProgress AssignmentStatus = "in-progress"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentSuspended  AssignmentStatus = "suspended"
	AssignmentExpired    AssignmentStatus = "expired"
)

type Assignment struct {
	ID           string           `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	UserID       string           `json:"userId" bson:"userId" gorm:"size:255;not null;uniqueIndex:idx_assignment_user_assessment;index"`
	AssessmentID string           `json:"assessmentId" bson:"assessmentId" gorm:"size:36;not null;uniqueIndex:idx_assignment_user_assessment;index"`
	AssignedBy   string           `json:"assignedBy" bson:"assignedBy" gorm:"size:255"`
	AssignedDate time.Time        `json:"assignedDate" bson:"assignedDate"`
	DueDate      *time.Time       `json:"dueDate" bson:"dueDate"`
	Status       AssignmentStatus `json:"status" bson:"status" gorm:"size:20;not null;index"`

	Score         float64    `json:"score" bson:"score"`
	AttemptCount  int        `json:"attemptCount" bson:"attemptCount"`
	LastAttemptAt *time.Time `json:"lastAttemptAt" bson:"lastAttemptAt"`
	ReportID      *string    `json:"reportId" bson:"reportId" gorm:"size:36"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (Assignment) TableName() string {
	return "assignments"
}

// CanStart reports whether an attempt may be started or resumed.
func (a *Assignment) CanStart() bool {
	return a.Status == AssignmentAssigned || a.Status == AssignmentInProgress
}

// IsOverdue is true for an untouched assignment whose due date has passed.
func (a *Assignment) IsOverdue(now time.Time) bool {
	return a.Status == AssignmentAssigned && a.DueDate != nil && now.After(*a.DueDate)
}
