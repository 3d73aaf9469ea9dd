package models

import (
	"time"

	"github.com/google/uuid"
)

// FollowedEvent links a user to an event they follow. The composite unique
// index prevents duplicate follows.
type FollowedEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_event" json:"user_id"`
	EventID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_event" json:"event_id"`
	FollowedAt time.Time `gorm:"not null;default:now()" json:"followed_at"`
}
