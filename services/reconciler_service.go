package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"courtside/courtside/feed"
	"courtside/courtside/models"

	"github.com/google/uuid"
)

// DeltaKind tags a reconciliation outcome for fan-out.
type DeltaKind string

const (
	DeltaCreated       DeltaKind = "created"
	DeltaUpdated       DeltaKind = "updated"
	DeltaStatusChanged DeltaKind = "status_changed"
)

// Delta describes one store mutation produced by a reconciliation pass.
type Delta struct {
	EventID uuid.UUID
	Kind    DeltaKind
	Event   models.Event
}

// completedGameDuration is the synthetic gap between the start and completion
// history entries backfilled for games that arrive already finished.
const completedGameDuration = time.Hour

type ReconcilerServiceInterface interface {
	Reconcile(store EventStoreInterface, sport models.Sport, records []feed.GameRecord, now time.Time) []Delta
}

// ReconcilerService translates a batch of feed records into event store
// mutations plus the list of changed events to broadcast. It holds no state;
// the store owns every event record.
type ReconcilerService struct{}

func NewReconcilerService() *ReconcilerService {
	return &ReconcilerService{}
}

type matchKind int

const (
	noMatch matchKind = iota
	matchedByExternalID
	matchedByName
)

type matchResult struct {
	kind  matchKind
	event models.Event
}

// Reconcile processes records in feed-delivery order. Per-record failures are
// logged and skipped; the batch never aborts.
func (r *ReconcilerService) Reconcile(store EventStoreInterface, sport models.Sport, records []feed.GameRecord, now time.Time) []Delta {
	var deltas []Delta

	for _, record := range records {
		delta, err := r.reconcileRecord(store, sport, record, now)
		if err != nil {
			log.Printf("Error processing game %d (%s vs %s): %v",
				record.ExternalID, record.HomeTeam, record.AwayTeam, err)
			continue
		}
		if delta != nil {
			deltas = append(deltas, *delta)
		}
	}

	return deltas
}

func (r *ReconcilerService) reconcileRecord(store EventStoreInterface, sport models.Sport, record feed.GameRecord, now time.Time) (*Delta, error) {
	match, err := resolveEvent(store, sport, record)
	if err != nil {
		return nil, err
	}

	status := deriveStatus(record, now)

	if match.kind == noMatch {
		return r.insertEvent(store, sport, record, status, now)
	}

	delta, err := r.updateEvent(store, match.event, record, status, now)
	if errors.Is(err, ErrStoreConflict) {
		// One concurrent writer beat us to this row; re-read and retry once.
		match, err = resolveEvent(store, sport, record)
		if err != nil {
			return nil, err
		}
		if match.kind == noMatch {
			return nil, ErrEventNotFound
		}
		delta, err = r.updateEvent(store, match.event, record, status, now)
		if errors.Is(err, ErrStoreConflict) {
			log.Printf("Skipping game %d after repeated update conflict", record.ExternalID)
			return nil, nil
		}
	}
	return delta, err
}

// resolveEvent is the two-step identity resolution: the stable upstream id
// wins when present, otherwise the computed "{team1} vs {team2}" name plus
// sport. The fallback keeps repeated cycles from duplicating the same game
// when a feed path supplies no id.
func resolveEvent(store EventStoreInterface, sport models.Sport, record feed.GameRecord) (matchResult, error) {
	if record.ExternalID != 0 {
		event, err := store.FindByExternalID(record.ExternalID)
		if err == nil {
			return matchResult{kind: matchedByExternalID, event: event}, nil
		}
		if !errors.Is(err, ErrEventNotFound) {
			return matchResult{}, err
		}
	}

	name := models.EventName(strings.TrimSpace(record.HomeTeam), strings.TrimSpace(record.AwayTeam))
	event, err := store.FindByNameAndSport(name, sport)
	if err == nil {
		return matchResult{kind: matchedByName, event: event}, nil
	}
	if !errors.Is(err, ErrEventNotFound) {
		return matchResult{}, err
	}

	return matchResult{kind: noMatch}, nil
}

// deriveStatus maps the feed flag onto the local status enumeration. Explicit
// flags take precedence; without one the scheduled time decides.
func deriveStatus(record feed.GameRecord, now time.Time) models.EventStatus {
	switch record.Status {
	case feed.FeedStatusFinished:
		return models.StatusCompleted
	case feed.FeedStatusLive:
		return models.StatusLive
	}

	if record.ScheduledAt.Before(now) {
		return models.StatusCompleted
	}
	return models.StatusUpcoming
}

func (r *ReconcilerService) insertEvent(store EventStoreInterface, sport models.Sport, record feed.GameRecord, status models.EventStatus, now time.Time) (*Delta, error) {
	event := models.Event{
		ID:          uuid.New(),
		Name:        models.EventName(strings.TrimSpace(record.HomeTeam), strings.TrimSpace(record.AwayTeam)),
		Sport:       sport,
		Team1:       models.Team{Name: strings.TrimSpace(record.HomeTeam), Score: record.HomeScore},
		Team2:       models.Team{Name: strings.TrimSpace(record.AwayTeam), Score: record.AwayScore},
		Status:      status,
		StartTime:   record.ScheduledAt,
		Venue:       record.Venue,
		Description: fmt.Sprintf("%s - Season %s", record.League, record.Season),
		History:     synthesizeHistory(record, status, now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if record.ExternalID != 0 {
		externalID := record.ExternalID
		event.ExternalID = &externalID
	}

	if err := store.Insert(&event); err != nil {
		return nil, err
	}

	return &Delta{EventID: event.ID, Kind: DeltaCreated, Event: event}, nil
}

// synthesizeHistory backfills a plausible timeline for a freshly ingested
// game. Pre-completed games get both endpoints of the match.
func synthesizeHistory(record feed.GameRecord, status models.EventStatus, now time.Time) []models.HistoryEntry {
	switch status {
	case models.StatusCompleted:
		return []models.HistoryEntry{
			{
				Timestamp: record.ScheduledAt,
				Action:    "Match Started",
				Team:      record.HomeTeam,
				Details:   "Match began",
			},
			{
				Timestamp: record.ScheduledAt.Add(completedGameDuration),
				Action:    "Match Completed",
				Team:      leadingTeam(record),
				Details:   fmt.Sprintf("Final Score: %d - %d", record.HomeScore, record.AwayScore),
			},
		}
	case models.StatusLive:
		return []models.HistoryEntry{
			{
				Timestamp: now,
				Action:    "Match Started",
				Team:      record.HomeTeam,
				Details:   periodDetails(record),
			},
		}
	default:
		return []models.HistoryEntry{
			{
				Timestamp: now,
				Action:    "Match Scheduled",
				Team:      record.HomeTeam,
				Details:   fmt.Sprintf("Scheduled for %s", record.ScheduledAt.Format(time.RFC1123)),
			},
		}
	}
}

func (r *ReconcilerService) updateEvent(store EventStoreInterface, event models.Event, record feed.GameRecord, status models.EventStatus, now time.Time) (*Delta, error) {
	unchanged := event.Team1.Score == record.HomeScore &&
		event.Team2.Score == record.AwayScore &&
		event.Status == status
	if unchanged {
		// Idempotence: re-running on unchanged upstream data is a no-op.
		return nil, nil
	}

	if statusRank(status) < statusRank(event.Status) {
		// Tolerated as an upstream correction, but worth noticing.
		log.Printf("Warning: backward status transition %s -> %s for event %s",
			event.Status, status, event.ID)
	}

	scoreChanged := event.Team1.Score != record.HomeScore ||
		event.Team2.Score != record.AwayScore

	prev := ScoreState{
		Team1Score: event.Team1.Score,
		Team2Score: event.Team2.Score,
		Status:     event.Status,
	}
	patch := map[string]interface{}{
		"team1_score": record.HomeScore,
		"team2_score": record.AwayScore,
		"status":      status,
		"updated_at":  now,
	}

	history := event.History
	if scoreChanged {
		entry := models.HistoryEntry{
			Timestamp: now,
			Action:    "Score Update",
			Team:      leadingTeam(record),
			Details:   fmt.Sprintf("%d - %d%s", record.HomeScore, record.AwayScore, periodSuffix(record)),
		}
		history = append(append([]models.HistoryEntry{}, event.History...), entry)
		patch["history"] = history
	}

	if err := store.UpdateGuarded(event.ID, patch, prev); err != nil {
		return nil, err
	}

	event.Team1.Score = record.HomeScore
	event.Team2.Score = record.AwayScore
	event.Status = status
	event.History = history
	event.UpdatedAt = now

	kind := DeltaUpdated
	if !scoreChanged {
		kind = DeltaStatusChanged
	}
	return &Delta{EventID: event.ID, Kind: kind, Event: event}, nil
}

func statusRank(status models.EventStatus) int {
	switch status {
	case models.StatusLive:
		return 1
	case models.StatusCompleted:
		return 2
	default:
		return 0
	}
}

func leadingTeam(record feed.GameRecord) string {
	if record.AwayScore > record.HomeScore {
		return record.AwayTeam
	}
	return record.HomeTeam
}

func periodDetails(record feed.GameRecord) string {
	if record.Period > 0 {
		return fmt.Sprintf("Quarter %d ongoing", record.Period)
	}
	return "Match in progress"
}

func periodSuffix(record feed.GameRecord) string {
	if record.Period > 0 {
		return fmt.Sprintf(" (Quarter %d)", record.Period)
	}
	return ""
}
