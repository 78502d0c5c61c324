package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "assessment-service"
	EventVersion = "1.0"
)

type EventType string

const (
	EventAssessmentAssigned EventType = "assessment.assigned"
	EventAttemptStarted     EventType = "assessment.attempt_started"
	EventAttemptFinished    EventType = "assessment.attempt_finished"
)

// Event is the envelope every published message carries.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type AssessmentAssignedData struct {
	AssessmentID string     `json:"assessmentId"`
	AssignedBy   string     `json:"assignedBy"`
	UserIDs      []string   `json:"userIds"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
}

type AttemptStartedData struct {
	AssessmentID   string `json:"assessmentId"`
	UserID         string `json:"userId"`
	ReportID       string `json:"reportId"`
	TotalQuestions int    `json:"totalQuestions"`
}

type AttemptFinishedData struct {
	AssessmentID string  `json:"assessmentId"`
	UserID       string  `json:"userId"`
	ReportID     string  `json:"reportId"`
	Score        float64 `json:"score"`
	IsSuspended  bool    `json:"isSuspended"`
	Status       string  `json:"status"`
}

// EventPublisher publishes domain events. Implementations must be safe for
// concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
