package services

import (
	"errors"

	"courtside/courtside/database"
	"courtside/courtside/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventStoreInterface is the reconciliation engine's sole view of persistence.
// The guarded update is a compare-and-set on the score/status fields so a
// sync-triggered write cannot silently clobber a concurrent user-triggered one.
type EventStoreInterface interface {
	FindByExternalID(externalID int64) (models.Event, error)
	FindByNameAndSport(name string, sport models.Sport) (models.Event, error)
	Insert(event *models.Event) error
	UpdateGuarded(id uuid.UUID, patch map[string]interface{}, prev ScoreState) error
}

// ScoreState holds the previously observed values the guarded update compares
// against.
type ScoreState struct {
	Team1Score int
	Team2Score int
	Status     models.EventStatus
}

type GormEventStore struct {
	db *database.Database
}

func NewGormEventStore(db *database.Database) *GormEventStore {
	return &GormEventStore{db: db}
}

func (s *GormEventStore) FindByExternalID(externalID int64) (models.Event, error) {
	var event models.Event
	if err := s.db.DB.First(&event, "external_id = ?", externalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Event{}, ErrEventNotFound
		}
		return models.Event{}, err
	}
	return event, nil
}

func (s *GormEventStore) FindByNameAndSport(name string, sport models.Sport) (models.Event, error) {
	var event models.Event
	if err := s.db.DB.First(&event, "name = ? AND sport = ?", name, sport).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Event{}, ErrEventNotFound
		}
		return models.Event{}, err
	}
	return event, nil
}

func (s *GormEventStore) Insert(event *models.Event) error {
	return s.db.DB.Create(event).Error
}

func (s *GormEventStore) UpdateGuarded(id uuid.UUID, patch map[string]interface{}, prev ScoreState) error {
	// The field serializer does not run for map-based Updates, so a raw
	// timeline slice in the patch would reach the driver unserialized.
	if entries, ok := patch["history"].([]models.HistoryEntry); ok {
		historyJSON, err := models.HistoryJSON(entries)
		if err != nil {
			return err
		}
		patch["history"] = historyJSON
	}

	result := s.db.DB.Model(&models.Event{}).
		Where("id = ? AND team1_score = ? AND team2_score = ? AND status = ?",
			id, prev.Team1Score, prev.Team2Score, prev.Status).
		Updates(patch)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStoreConflict
	}
	return nil
}
