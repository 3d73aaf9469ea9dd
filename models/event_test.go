package models

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/schema"
)

func TestSportValid(t *testing.T) {
	assert.True(t, Basketball.Valid())
	assert.True(t, Cricket.Valid())
	assert.False(t, Sport("chess").Valid())
	assert.False(t, Sport("").Valid())
}

func TestEventName(t *testing.T) {
	assert.Equal(t, "Lakers vs Celtics", EventName("Lakers", "Celtics"))
}

func TestAppendHistory(t *testing.T) {
	event := Event{}
	event.AppendHistory(HistoryEntry{
		Timestamp: time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC),
		Action:    "Match Started",
		Team:      "Lakers",
	})
	event.AppendHistory(HistoryEntry{
		Timestamp: time.Date(2025, 6, 1, 18, 5, 0, 0, time.UTC),
		Action:    "Score Update",
		Details:   "2 - 0",
	})

	assert.Len(t, event.History, 2)
	assert.Equal(t, "Match Started", event.History[0].Action)
	assert.Equal(t, "Score Update", event.History[1].Action)
}

func TestEventSchemaColumns(t *testing.T) {
	s, err := schema.Parse(&Event{}, &sync.Map{}, schema.NamingStrategy{})
	assert.NoError(t, err)

	// The embedded team scores migrate to prefixed columns, so any check
	// tag on Team.Score would reference a column that does not exist.
	assert.NotNil(t, s.LookUpField("team1_score"))
	assert.NotNil(t, s.LookUpField("team2_score"))
	assert.Empty(t, s.ParseCheckConstraints())
}

func TestHistoryJSON(t *testing.T) {
	data, err := HistoryJSON([]HistoryEntry{
		{Timestamp: time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC), Action: "Match Started"},
	})
	assert.NoError(t, err)
	assert.Contains(t, data, `"action":"Match Started"`)

	empty, err := HistoryJSON(nil)
	assert.NoError(t, err)
	assert.Equal(t, "null", empty)
}
