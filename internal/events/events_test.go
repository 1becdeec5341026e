package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
)

func TestMockEventPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := NewMockEventPublisher(logger)
	ctx := context.Background()

	t.Run("Event_Structure_Validation", func(t *testing.T) {
		event := NewEvent(EventExamSubmitted, &ExamSubmittedEvent{
			ExamID:     1,
			StudentID:  "student-1",
			Score:      8,
			Total:      10,
			Percentage: 80,
			Passed:     true,
		})

		if err := publisher.Publish(ctx, event); err != nil {
			t.Fatalf("Failed to publish event: %v", err)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(published))
		}

		got := published[0]
		if got.ID == "" {
			t.Error("Event ID should not be empty")
		}
		if got.Source != "exam-service" {
			t.Errorf("Expected source 'exam-service', got '%s'", got.Source)
		}
		if got.Version != "1.0" {
			t.Errorf("Expected version '1.0', got '%s'", got.Version)
		}
		if got.Type != EventExamSubmitted {
			t.Errorf("Expected type '%s', got '%s'", EventExamSubmitted, got.Type)
		}
		if got.Timestamp.IsZero() {
			t.Error("Event timestamp should not be zero")
		}
	})

	t.Run("ClearEvents", func(t *testing.T) {
		publisher.ClearEvents()
		if len(publisher.GetPublishedEvents()) != 0 {
			t.Error("Expected no events after clear")
		}
	})

	t.Run("Nil_Event_Rejected", func(t *testing.T) {
		if err := publisher.Publish(ctx, nil); err == nil {
			t.Error("Expected error for nil event")
		}
	})
}

func TestChannelEventPublisher(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping pubsub test")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := NewChannelEventPublisher("exam-events", logger)
	defer publisher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := publisher.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	event := NewEvent(EventExamAssigned, &ExamAssignedEvent{
		ExamID:        7,
		ExamTitle:     "Algebra Basics",
		StudentIDs:    []string{"s1", "s2"},
		AssignedBy:    "teacher-1",
		AssignedCount: 2,
	})

	if err := publisher.Publish(ctx, event); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	msg := <-messages
	msg.Ack()

	var got Event
	if err := json.Unmarshal(msg.Payload, &got); err != nil {
		t.Fatalf("Failed to unmarshal payload: %v", err)
	}

	if got.Type != EventExamAssigned {
		t.Errorf("Expected type '%s', got '%s'", EventExamAssigned, got.Type)
	}
	if got.ID != event.ID {
		t.Errorf("Expected ID '%s', got '%s'", event.ID, got.ID)
	}
	if msg.Metadata.Get("event_type") != EventExamAssigned {
		t.Errorf("Expected metadata event_type '%s', got '%s'", EventExamAssigned, msg.Metadata.Get("event_type"))
	}
}
