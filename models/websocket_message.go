package models

import (
	"time"

	"github.com/google/uuid"
)

// WebSocketMessageType represents message type constants
type WebSocketMessageType string

const (
	EventMessage        WebSocketMessageType = "event"
	SubscribeMessage    WebSocketMessageType = "subscribe"
	UnsubscribeMessage  WebSocketMessageType = "unsubscribe"
	SubscriptionMessage WebSocketMessageType = "subscription"
	ErrorMessage        WebSocketMessageType = "error"
)

// Client-facing event names carried in StandardMessage.Event.
const (
	NewEventMessage        = "new_event"
	ScoreUpdateMessage     = "score_update"
	StatusUpdateMessage    = "event_status_update"
	HistoryUpdateMessage   = "event_history_update"
	FollowersUpdateMessage = "followers_update"
)

// StandardMessage represents a standardized WebSocket message format
type StandardMessage struct {
	ID        string                 `json:"id"`
	Type      WebSocketMessageType   `json:"type"`
	Event     string                 `json:"event,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
	EventID   string                 `json:"event_id,omitempty"` // Topic routing key
}

// NewStandardMessage creates a new standard message
func NewStandardMessage(msgType WebSocketMessageType, event string, payload map[string]interface{}) *StandardMessage {
	return &StandardMessage{
		ID:        uuid.New().String(),
		Type:      msgType,
		Event:     event,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// WithEventID tags the message with the event topic it belongs to.
func (m *StandardMessage) WithEventID(eventID string) *StandardMessage {
	m.EventID = eventID
	return m
}
