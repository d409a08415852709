package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/visualcare-health/treatment-service/internal/messaging"
)

// PublishedEvent captures one call to Publish.
type PublishedEvent struct {
	RoutingKey string
	EventData  interface{}
	Timestamp  time.Time
	RawJSON    []byte
}

// MockPublisher records events in memory instead of talking to RabbitMQ.
type MockPublisher struct {
	mu     sync.RWMutex
	events []PublishedEvent

	// FailWith, when set, is returned from every Publish call.
	FailWith error
}

var _ messaging.PublisherInterface = (*MockPublisher)(nil)

// NewMockPublisher creates an empty mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		events: make([]PublishedEvent, 0),
	}
}

// Publish stores the event in memory. Marshalling still happens so tests
// catch payloads that would not serialize.
func (m *MockPublisher) Publish(ctx context.Context, routingKey string, eventData interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}

	jsonData, err := json.Marshal(eventData)
	if err != nil {
		return err
	}

	m.events = append(m.events, PublishedEvent{
		RoutingKey: routingKey,
		EventData:  eventData,
		Timestamp:  time.Now(),
		RawJSON:    jsonData,
	})
	return nil
}

// Close is a no-op.
func (m *MockPublisher) Close() error {
	return nil
}

// GetAllEvents returns a copy of every published event.
func (m *MockPublisher) GetAllEvents() []PublishedEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	eventsCopy := make([]PublishedEvent, len(m.events))
	copy(eventsCopy, m.events)
	return eventsCopy
}

// GetEventsByKey returns all events with the given routing key.
func (m *MockPublisher) GetEventsByKey(routingKey string) []PublishedEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var filtered []PublishedEvent
	for _, event := range m.events {
		if event.RoutingKey == routingKey {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// GetEventCount returns the total number of published events.
func (m *MockPublisher) GetEventCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.events)
}

// Reset clears all recorded events.
func (m *MockPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = m.events[:0]
}

// AssertEventPublished fails the test unless exactly one event with the key
// was recorded, and returns it.
func (m *MockPublisher) AssertEventPublished(t *testing.T, routingKey string) PublishedEvent {
	t.Helper()

	matched := m.GetEventsByKey(routingKey)
	if len(matched) != 1 {
		t.Fatalf("Expected exactly 1 %q event, got %d", routingKey, len(matched))
	}
	return matched[0]
}
