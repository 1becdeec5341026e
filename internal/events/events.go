package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ===== EVENT TYPES =====

const (
	EventExamAssigned  = "exam.assigned"
	EventExamStarted   = "exam.started"
	EventExamSubmitted = "exam.submitted"
	EventExamRetried   = "exam.retried"
)

// Event is the envelope shared by every published message.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope with the service identity filled in.
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "exam-service",
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ===== EVENT PAYLOADS =====

type ExamAssignedEvent struct {
	ExamID        uint     `json:"exam_id"`
	ExamTitle     string   `json:"exam_title"`
	StudentIDs    []string `json:"student_ids"`
	AssignedBy    string   `json:"assigned_by"`
	AssignedCount int      `json:"assigned_count"`
}

type ExamStartedEvent struct {
	ExamID    uint   `json:"exam_id"`
	StudentID string `json:"student_id"`
}

type ExamSubmittedEvent struct {
	ExamID     uint    `json:"exam_id"`
	StudentID  string  `json:"student_id"`
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
}

type ExamRetriedEvent struct {
	ExamID    uint   `json:"exam_id"`
	StudentID string `json:"student_id"`
	GrantedBy string `json:"granted_by"`
}

// ===== PUBLISHER =====

// EventPublisher publishes domain events. Publishing is fire-and-forget
// from the caller's point of view; failures are logged, not returned to
// the HTTP client.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// ===== MOCK PUBLISHER =====

// MockEventPublisher records events in memory for tests and local runs
// without a broker.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []*Event
	logger *slog.Logger
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event is nil")
	}

	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()

	if m.logger != nil {
		payload, _ := json.Marshal(event.Data)
		m.logger.Info("Mock event published",
			"event_id", event.ID,
			"event_type", event.Type,
			"payload", string(payload))
	}

	return nil
}

func (m *MockEventPublisher) Close() error {
	return nil
}

// GetPublishedEvents returns a copy of everything published so far.
func (m *MockEventPublisher) GetPublishedEvents() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Event, len(m.events))
	copy(out, m.events)
	return out
}

// ClearEvents resets the recorded events.
func (m *MockEventPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
