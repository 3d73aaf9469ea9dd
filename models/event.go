package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Sport string

const (
	Cricket    Sport = "cricket"
	Basketball Sport = "basketball"
	Football   Sport = "football"
	Tennis     Sport = "tennis"
)

func (s Sport) Valid() bool {
	switch s {
	case Cricket, Basketball, Football, Tennis:
		return true
	}
	return false
}

type EventStatus string

const (
	StatusUpcoming  EventStatus = "upcoming"
	StatusLive      EventStatus = "live"
	StatusCompleted EventStatus = "completed"
)

// Team is a competitor embedded into an event row.
type Team struct {
	Name  string `json:"name"`
	Score int    `gorm:"default:0" json:"score"`
}

// HistoryEntry is one timestamped line of an event's timeline. Entries are
// append-only and kept in insertion order.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Team      string    `json:"team,omitempty"`
	Details   string    `json:"details,omitempty"`
}

type Event struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ExternalID     *int64         `gorm:"uniqueIndex" json:"external_id,omitempty"`
	Name           string         `gorm:"not null" json:"name"`
	Sport          Sport          `gorm:"not null;index" json:"sport"`
	Team1          Team           `gorm:"embedded;embeddedPrefix:team1_" json:"team1"`
	Team2          Team           `gorm:"embedded;embeddedPrefix:team2_" json:"team2"`
	Status         EventStatus    `gorm:"not null;default:'upcoming';index" json:"status"`
	StartTime      time.Time      `gorm:"not null" json:"start_time"`
	Venue          string         `json:"venue,omitempty"`
	Description    string         `json:"description,omitempty"`
	History        []HistoryEntry `gorm:"type:jsonb;serializer:json" json:"history"`
	FollowersCount int            `gorm:"not null;default:0" json:"followers_count"`
	CreatedBy      uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

// EventName builds the canonical "{team1} vs {team2}" name used as the
// fallback identity key when the upstream feed supplies no stable id.
func EventName(team1, team2 string) string {
	return fmt.Sprintf("%s vs %s", team1, team2)
}

// AppendHistory adds one entry to the event timeline.
func (e *Event) AppendHistory(entry HistoryEntry) {
	e.History = append(e.History, entry)
}

// HistoryJSON serializes a timeline for use in column-keyed updates. Map
// based Updates bypass gorm's field serializer, so the jsonb value has to be
// marshaled before it reaches the driver.
func HistoryJSON(entries []HistoryEntry) (string, error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
