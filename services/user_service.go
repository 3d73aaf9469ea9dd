package services

import (
	"errors"

	"courtside/courtside/database"
	"courtside/courtside/models"

	"gorm.io/gorm"
)

// FavoriteKind names the user preference lists a favorite can be added to.
type FavoriteKind string

const (
	FavoriteEvent FavoriteKind = "event"
	FavoriteTeam  FavoriteKind = "team"
	FavoriteSport FavoriteKind = "sport"
)

type UserServiceInterface interface {
	GetUserById(db *database.Database, id string) (models.User, error)
	UpdateUser(db *database.Database, id string, updatedData map[string]interface{}) (models.User, error)
	DeleteUser(db *database.Database, id string) error
	AddFavorite(db *database.Database, id string, kind FavoriteKind, value string) (models.User, error)
	RemoveFavorite(db *database.Database, id string, kind FavoriteKind, value string) (models.User, error)
}

type UserService struct{}

func (s *UserService) GetUserById(db *database.Database, id string) (models.User, error) {
	var user models.User
	if err := db.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) UpdateUser(db *database.Database, id string, updatedData map[string]interface{}) (models.User, error) {
	var user models.User
	if err := db.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	updates := map[string]interface{}{}
	if displayName, ok := updatedData["display_name"].(string); ok {
		updates["display_name"] = displayName
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := db.DB.Model(&user).Updates(updates).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) DeleteUser(db *database.Database, id string) error {
	var user models.User
	if err := db.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	return db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.FollowedEvent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

// AddFavorite appends a value to one of the user's favorite lists. Adding a
// value that is already present is a no-op.
func (s *UserService) AddFavorite(db *database.Database, id string, kind FavoriteKind, value string) (models.User, error) {
	if value == "" {
		return models.User{}, ErrInvalidInput
	}

	user, err := s.GetUserById(db, id)
	if err != nil {
		return models.User{}, err
	}

	list, column, err := favoriteList(&user, kind)
	if err != nil {
		return models.User{}, err
	}

	for _, v := range *list {
		if v == value {
			return user, nil
		}
	}
	*list = append(*list, value)

	if err := db.DB.Model(&user).Update(column, *list).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// RemoveFavorite drops a value from one of the user's favorite lists.
// Removing a value that is not present is a no-op.
func (s *UserService) RemoveFavorite(db *database.Database, id string, kind FavoriteKind, value string) (models.User, error) {
	user, err := s.GetUserById(db, id)
	if err != nil {
		return models.User{}, err
	}

	list, column, err := favoriteList(&user, kind)
	if err != nil {
		return models.User{}, err
	}

	filtered := make([]string, 0, len(*list))
	removed := false
	for _, v := range *list {
		if v == value {
			removed = true
			continue
		}
		filtered = append(filtered, v)
	}
	if !removed {
		return user, nil
	}
	*list = filtered

	if err := db.DB.Model(&user).Update(column, *list).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func favoriteList(user *models.User, kind FavoriteKind) (*[]string, string, error) {
	switch kind {
	case FavoriteEvent:
		return &user.FavoriteEvents, "favorite_events", nil
	case FavoriteTeam:
		return &user.FavoriteTeams, "favorite_teams", nil
	case FavoriteSport:
		return &user.FavoriteSports, "favorite_sports", nil
	default:
		return nil, "", ErrInvalidInput
	}
}

var UserServiceInstance UserServiceInterface = &UserService{}
