package broker

import (
	"encoding/json"
	"testing"
)

type MockProducer struct {
	messages []struct {
		subject string
		payload interface{}
	}
	closed bool
}

func (m *MockProducer) Publish(subject string, payload interface{}) error {
	if _, err := json.Marshal(payload); err != nil {
		return err
	}
	m.messages = append(m.messages, struct {
		subject string
		payload interface{}
	}{subject, payload})
	return nil
}

func (m *MockProducer) Close() {
	m.closed = true
}

func TestPublishMessage(t *testing.T) {
	var producer Producer = &MockProducer{}

	err := producer.Publish(EventScoreUpdatedSubject, map[string]interface{}{
		"event_id": "abc",
		"score":    "98 - 95",
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	mock := producer.(*MockProducer)
	if len(mock.messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(mock.messages))
	}
	if mock.messages[0].subject != "event.score_updated" {
		t.Errorf("Unexpected subject: %s", mock.messages[0].subject)
	}
}

func TestPublishRejectsUnserializablePayload(t *testing.T) {
	var producer Producer = &MockProducer{}

	err := producer.Publish(EventCreatedSubject, make(chan int))
	if err == nil {
		t.Fatal("Expected error for unserializable payload")
	}
}
