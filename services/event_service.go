package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"courtside/courtside/broker"
	"courtside/courtside/database"
	"courtside/courtside/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventServiceInterface interface {
	CreateEvent(db *database.Database, eventData map[string]interface{}, userID uuid.UUID) (models.Event, error)
	GetEventById(db *database.Database, id string) (models.Event, error)
	GetEvents(db *database.Database, params map[string]interface{}) ([]models.Event, error)
	UpdateScore(db *database.Database, id string, team string, points int, action string) (models.Event, error)
	UpdateStatus(db *database.Database, id string, status models.EventStatus) (models.Event, error)
	AddHistory(db *database.Database, id string, entry models.HistoryEntry) (models.Event, error)
	FollowEvent(db *database.Database, eventID string, userID uuid.UUID) error
	UnfollowEvent(db *database.Database, eventID string, userID uuid.UUID) error
	IsFollowing(db *database.Database, eventID string, userID uuid.UUID) (bool, error)
	GetFollowedEvents(db *database.Database, userID uuid.UUID) ([]models.Event, error)
	SearchEvents(db *database.Database, query SearchQuery) ([]models.Event, int64, error)
}

// SearchQuery carries text search, filters and pagination for event lookup.
type SearchQuery struct {
	Search string
	Sport  string
	Status string
	Sort   string
	Page   int
	Limit  int
}

type EventService struct {
	producer broker.Producer
}

func NewEventService(producer broker.Producer) *EventService {
	return &EventService{producer: producer}
}

func (s *EventService) CreateEvent(db *database.Database, eventData map[string]interface{}, userID uuid.UUID) (models.Event, error) {
	name, _ := eventData["name"].(string)
	sportStr, _ := eventData["sport"].(string)
	team1, _ := eventData["team1"].(string)
	team2, _ := eventData["team2"].(string)
	startTimeStr, _ := eventData["start_time"].(string)

	sport := models.Sport(sportStr)
	if !sport.Valid() {
		return models.Event{}, fmt.Errorf("%w: unknown sport %q", ErrInvalidInput, sportStr)
	}
	if team1 == "" || team2 == "" {
		return models.Event{}, fmt.Errorf("%w: both teams are required", ErrInvalidInput)
	}

	startTime, err := time.Parse(time.RFC3339, startTimeStr)
	if err != nil {
		return models.Event{}, fmt.Errorf("%w: start_time must be RFC3339", ErrInvalidInput)
	}

	if name == "" {
		name = models.EventName(team1, team2)
	}

	venue, _ := eventData["venue"].(string)
	description, _ := eventData["description"].(string)

	event := models.Event{
		ID:          uuid.New(),
		Name:        name,
		Sport:       sport,
		Team1:       models.Team{Name: team1},
		Team2:       models.Team{Name: team2},
		Status:      models.StatusUpcoming,
		StartTime:   startTime,
		Venue:       venue,
		Description: description,
		History:     []models.HistoryEntry{},
		CreatedBy:   userID,
	}

	if err := db.DB.Create(&event).Error; err != nil {
		return models.Event{}, err
	}

	s.publish(broker.EventCreatedSubject, event.ID, models.NewEventMessage, map[string]interface{}{
		"event": event,
	})

	return event, nil
}

func (s *EventService) GetEventById(db *database.Database, id string) (models.Event, error) {
	var event models.Event
	if err := db.DB.First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Event{}, ErrEventNotFound
		}
		return models.Event{}, err
	}
	return event, nil
}

func (s *EventService) GetEvents(db *database.Database, params map[string]interface{}) ([]models.Event, error) {
	var events []models.Event
	query := db.DB

	if status, ok := params["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if sport, ok := params["sport"].(string); ok && sport != "" {
		query = query.Where("sport = ?", sport)
	}

	if err := query.Order("start_time DESC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// UpdateScore adds points to one team and appends a history entry. The read
// and write happen under a row lock so a concurrent sync-triggered update
// cannot be lost.
func (s *EventService) UpdateScore(db *database.Database, id string, team string, points int, action string) (models.Event, error) {
	var event models.Event

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&event, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		var teamName string
		switch team {
		case "team1":
			event.Team1.Score += points
			teamName = event.Team1.Name
		case "team2":
			event.Team2.Score += points
			teamName = event.Team2.Name
		default:
			return fmt.Errorf("%w: team must be team1 or team2", ErrInvalidInput)
		}
		if event.Team1.Score < 0 || event.Team2.Score < 0 {
			return fmt.Errorf("%w: score cannot go negative", ErrInvalidInput)
		}

		event.AppendHistory(models.HistoryEntry{
			Timestamp: time.Now().UTC(),
			Action:    action,
			Team:      teamName,
			Details:   fmt.Sprintf("%d points added", points),
		})

		historyJSON, err := models.HistoryJSON(event.History)
		if err != nil {
			return err
		}
		return tx.Model(&event).Updates(map[string]interface{}{
			"team1_score": event.Team1.Score,
			"team2_score": event.Team2.Score,
			"history":     historyJSON,
			"updated_at":  time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return models.Event{}, err
	}

	s.publish(broker.EventScoreUpdatedSubject, event.ID, models.ScoreUpdateMessage, map[string]interface{}{
		"event_id": event.ID.String(),
		"team1":    event.Team1,
		"team2":    event.Team2,
		"history":  event.History,
	})

	return event, nil
}

func (s *EventService) UpdateStatus(db *database.Database, id string, status models.EventStatus) (models.Event, error) {
	var event models.Event
	if err := db.DB.First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Event{}, ErrEventNotFound
		}
		return models.Event{}, err
	}

	if err := db.DB.Model(&event).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}).Error; err != nil {
		return models.Event{}, err
	}
	event.Status = status

	s.publish(broker.EventStatusUpdatedSubject, event.ID, models.StatusUpdateMessage, map[string]interface{}{
		"event_id": event.ID.String(),
		"status":   event.Status,
	})

	return event, nil
}

func (s *EventService) AddHistory(db *database.Database, id string, entry models.HistoryEntry) (models.Event, error) {
	var event models.Event

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&event, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		if entry.Timestamp.IsZero() {
			entry.Timestamp = time.Now().UTC()
		}
		event.AppendHistory(entry)

		historyJSON, err := models.HistoryJSON(event.History)
		if err != nil {
			return err
		}
		return tx.Model(&event).Updates(map[string]interface{}{
			"history":    historyJSON,
			"updated_at": time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return models.Event{}, err
	}

	s.publish(broker.EventHistoryAddedSubject, event.ID, models.HistoryUpdateMessage, map[string]interface{}{
		"event_id": event.ID.String(),
		"history":  event.History,
	})

	return event, nil
}

func (s *EventService) FollowEvent(db *database.Database, eventID string, userID uuid.UUID) error {
	var event models.Event

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&event, "id = ?", eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.FollowedEvent{}).
			Where("user_id = ? AND event_id = ?", userID, event.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyFollowing
		}

		follow := models.FollowedEvent{
			ID:         uuid.New(),
			UserID:     userID,
			EventID:    event.ID,
			FollowedAt: time.Now().UTC(),
		}
		if err := tx.Create(&follow).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Event{}).Where("id = ?", event.ID).
			UpdateColumn("followers_count", gorm.Expr("followers_count + 1")).Error; err != nil {
			return err
		}
		event.FollowersCount++
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(broker.EventFollowersChangedSubject, event.ID, models.FollowersUpdateMessage, map[string]interface{}{
		"event_id":        event.ID.String(),
		"followers_count": event.FollowersCount,
	})

	return nil
}

func (s *EventService) UnfollowEvent(db *database.Database, eventID string, userID uuid.UUID) error {
	var event models.Event

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND event_id = ?", userID, eventID).
			Delete(&models.FollowedEvent{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFollowing
		}

		if err := tx.First(&event, "id = ?", eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		if err := tx.Model(&models.Event{}).Where("id = ? AND followers_count > 0", event.ID).
			UpdateColumn("followers_count", gorm.Expr("followers_count - 1")).Error; err != nil {
			return err
		}
		if event.FollowersCount > 0 {
			event.FollowersCount--
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(broker.EventFollowersChangedSubject, event.ID, models.FollowersUpdateMessage, map[string]interface{}{
		"event_id":        event.ID.String(),
		"followers_count": event.FollowersCount,
	})

	return nil
}

func (s *EventService) IsFollowing(db *database.Database, eventID string, userID uuid.UUID) (bool, error) {
	var count int64
	if err := db.DB.Model(&models.FollowedEvent{}).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *EventService) GetFollowedEvents(db *database.Database, userID uuid.UUID) ([]models.Event, error) {
	var events []models.Event
	err := db.DB.
		Joins("JOIN followed_events ON followed_events.event_id = events.id").
		Where("followed_events.user_id = ?", userID).
		Order("followed_events.followed_at DESC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// SearchEvents runs a paginated text search across names, teams, venue and
// description, with optional sport/status filters. It returns the page of
// events plus the total match count.
func (s *EventService) SearchEvents(db *database.Database, query SearchQuery) ([]models.Event, int64, error) {
	q := db.DB.Model(&models.Event{})

	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		q = q.Where(
			"name ILIKE ? OR team1_name ILIKE ? OR team2_name ILIKE ? OR venue ILIKE ? OR description ILIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		)
	}
	if query.Sport != "" {
		q = q.Where("sport = ?", query.Sport)
	}
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = 10
	}

	var events []models.Event
	err := q.Order(sortClause(query.Sort)).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// sortClause maps client sort keys onto safe ORDER BY clauses. Unknown keys
// fall back to newest-first.
func sortClause(sort string) string {
	switch sort {
	case "startTime", "start_time":
		return "start_time ASC"
	case "name":
		return "name ASC"
	case "followers":
		return "followers_count DESC"
	default:
		return "start_time DESC"
	}
}

func (s *EventService) publish(subject string, eventID uuid.UUID, event string, payload map[string]interface{}) {
	if s.producer == nil {
		return
	}
	msg := models.NewStandardMessage(models.EventMessage, event, payload).WithEventID(eventID.String())
	if err := s.producer.Publish(subject, msg); err != nil {
		log.Printf("Failed to publish %s for event %s: %v", event, eventID, err)
	}
}

var EventServiceInstance EventServiceInterface
