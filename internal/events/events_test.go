package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEventEnvelope(t *testing.T) {
	event := NewEvent(EventAttemptStarted, AttemptStartedData{AssessmentID: "a1", UserID: "u1"})

	if event.ID == "" {
		t.Error("event ID should not be empty")
	}
	if event.Source != "assessment-service" {
		t.Errorf("source = %q", event.Source)
	}
	if event.Version != "1.0" {
		t.Errorf("version = %q", event.Version)
	}
	if event.Timestamp.IsZero() || event.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp = %v", event.Timestamp)
	}
}

func TestChannelEventPublisherDelivers(t *testing.T) {
	publisher, pubSub := NewChannelEventPublisher("test", testLogger())
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, publisher.Topic(EventAttemptFinished))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	event := NewEvent(EventAttemptFinished, AttemptFinishedData{AssessmentID: "a1", UserID: "u1", Score: 4})
	if err := publisher.Publish(ctx, event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-messages:
		msg.Ack()
		if msg.UUID != event.ID {
			t.Errorf("message uuid = %q, want %q", msg.UUID, event.ID)
		}
		if msg.Metadata.Get("event_type") != string(EventAttemptFinished) {
			t.Errorf("event_type metadata = %q", msg.Metadata.Get("event_type"))
		}

		var decoded struct {
			Type EventType           `json:"type"`
			Data AttemptFinishedData `json:"data"`
		}
		if err := json.Unmarshal(msg.Payload, &decoded); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if decoded.Type != EventAttemptFinished || decoded.Data.Score != 4 {
			t.Errorf("decoded = %+v", decoded)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestTopicNaming(t *testing.T) {
	publisher := NewWatermillEventPublisher(nil, "", testLogger())
	if got := publisher.Topic(EventAssessmentAssigned); got != "assessment.assessment.assigned" {
		t.Errorf("Topic() = %q", got)
	}
}

func TestMockEventPublisher(t *testing.T) {
	mock := NewMockEventPublisher(testLogger())
	ctx := context.Background()

	_ = mock.Publish(ctx, NewEvent(EventAssessmentAssigned, nil))
	_ = mock.Publish(ctx, NewEvent(EventAttemptStarted, nil))

	if n := len(mock.GetPublishedEvents()); n != 2 {
		t.Fatalf("published = %d, want 2", n)
	}
	if n := len(mock.EventsOfType(EventAttemptStarted)); n != 1 {
		t.Fatalf("attempt_started = %d, want 1", n)
	}

	mock.ClearEvents()
	if n := len(mock.GetPublishedEvents()); n != 0 {
		t.Fatalf("after clear = %d", n)
	}
}
