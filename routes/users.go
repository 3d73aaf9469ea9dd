package routes

import (
	"errors"
	"net/http"

	"courtside/courtside/database"
	"courtside/courtside/services"

	"github.com/gin-gonic/gin"
)

func RegisterUserRoutes(group *gin.RouterGroup, db *database.Database, userService services.UserServiceInterface, eventService services.EventServiceInterface) {
	group.GET("/users/me", func(c *gin.Context) { GetCurrentUser(c, db, userService) })
	group.PUT("/users/me", func(c *gin.Context) { UpdateCurrentUser(c, db, userService) })
	group.DELETE("/users/me", func(c *gin.Context) { DeleteCurrentUser(c, db, userService) })

	group.GET("/users/me/followed-events", func(c *gin.Context) { GetFollowedEvents(c, db, eventService) })
	group.POST("/users/me/favorites/:kind", func(c *gin.Context) { AddFavorite(c, db, userService) })
	group.DELETE("/users/me/favorites/:kind", func(c *gin.Context) { RemoveFavorite(c, db, userService) })
}

func GetCurrentUser(c *gin.Context, db *database.Database, userService services.UserServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := userService.GetUserById(db, userID.String())
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

func UpdateCurrentUser(c *gin.Context, db *database.Database, userService services.UserServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var userData map[string]interface{}
	if err := c.ShouldBindJSON(&userData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := userService.UpdateUser(db, userID.String(), userData)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

func DeleteCurrentUser(c *gin.Context, db *database.Database, userService services.UserServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := userService.DeleteUser(db, userID.String()); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusNoContent, gin.H{})
}

func GetFollowedEvents(c *gin.Context, db *database.Database, eventService services.EventServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	events, err := eventService.GetFollowedEvents(db, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

type favoriteRequest struct {
	Value string `json:"value" binding:"required"`
}

func AddFavorite(c *gin.Context, db *database.Database, userService services.UserServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request favoriteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := services.FavoriteKind(c.Param("kind"))
	user, err := userService.AddFavorite(db, userID.String(), kind, request.Value)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Favorite kind must be event, team or sport"})
			return
		}
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

func RemoveFavorite(c *gin.Context, db *database.Database, userService services.UserServiceInterface) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request favoriteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := services.FavoriteKind(c.Param("kind"))
	user, err := userService.RemoveFavorite(db, userID.String(), kind, request.Value)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Favorite kind must be event, team or sport"})
			return
		}
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}
