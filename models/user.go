package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email          string         `gorm:"unique;not null" json:"email"`
	PasswordHash   string         `json:"-"`
	DisplayName    string         `json:"display_name"`
	FavoriteEvents []string       `gorm:"type:jsonb;serializer:json" json:"favorite_events"`
	FavoriteTeams  []string       `gorm:"type:jsonb;serializer:json" json:"favorite_teams"`
	FavoriteSports []string       `gorm:"type:jsonb;serializer:json" json:"favorite_sports"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
