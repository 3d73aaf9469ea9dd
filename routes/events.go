package routes

import (
	"errors"
	"net/http"
	"time"

	"courtside/courtside/database"
	"courtside/courtside/models"
	"courtside/courtside/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func RegisterEventRoutes(group *gin.RouterGroup, db *database.Database, eventService services.EventServiceInterface) {
	group.GET("/events", func(c *gin.Context) { GetEvents(c, db, eventService) })
	group.POST("/events", func(c *gin.Context) { CreateEvent(c, db, eventService) })

	group.GET("/events/:id", func(c *gin.Context) { GetEventById(c, db, eventService) })
	group.PATCH("/events/:id/score", func(c *gin.Context) { UpdateEventScore(c, db, eventService) })
	group.PATCH("/events/:id/status", func(c *gin.Context) { UpdateEventStatus(c, db, eventService) })
	group.POST("/events/:id/history", func(c *gin.Context) { AddEventHistory(c, db, eventService) })

	group.POST("/events/:id/follow", func(c *gin.Context) { FollowEvent(c, db, eventService) })
	group.DELETE("/events/:id/follow", func(c *gin.Context) { UnfollowEvent(c, db, eventService) })
	group.GET("/events/:id/follow", func(c *gin.Context) { GetFollowStatus(c, db, eventService) })
}

func CreateEvent(c *gin.Context, db *database.Database, eventService services.EventServiceInterface) {
	var eventData map[string]interface{}
	if err := c.ShouldBindJSON(&eventData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	createdEvent, err := eventService.CreateEvent(db, eventData, userID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, createdEvent)
}

func GetEventById(c *gin.Context, db *database.Database, eventService services.EventServiceInterface) {
	id := c.Param("id")
	event, err := eventService.GetEventById(db, id)
	if err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, event)
}

func GetEvents(c *gin.Context, db *database.Database, eventService services.EventServiceInterface) {
	params := make(map[string]interface{})

	if status := c.Query("status"); status != "" {
		params["status"] = status
	}
	if sport := c.Query("sport"); sport != "" {
		params["sport"] = sport
	}

	events, err := eventService.GetEvents(db, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

type scoreUpdateRequest struct {
	Team   string `json:"team" binding:"required"`
	Points int    `json:"points" binding:"required"`
	Action string `json:"action"`
}

func UpdateEventScore(c *gin.Context, db *database.Database, eventService services.EventServiceInterface) {
	id := c.Param("id")

	var request scoreUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if request.Action == "" {
		request.Action = "Score Update"
	}

	event, err := eventService.UpdateScore(db, id, request.Team, request.Points, request.Action)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEventNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		case errors.Is(err, services.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, event)
}

type statusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

func UpdateEventStatus(c *gin.Context, db *database.Database, eventService services.EventServiceInterface) {
	id := c.Param("id")

	var request statusUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.EventStatus(request.Status)
	if status != models.StatusUpcoming && status != models.StatusLive && status != models.StatusCompleted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be upcoming, live or completed"})
		return
	}

	event, err := eventService.UpdateStatus(db, id, status)
	if err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, event)
}

type historyEntryRequest struct {
	Action  string    `json:"action" binding:"required"`
	Team    string    `json:"team"`
	Details string    `json:"details"`
	At      time.Time `json:"at"`
}

func AddEventHistory(c *gin.Context, db *database.Database, eventService services.EventServiceInterface) {
	id := c.Param("id")

	var request historyEntryRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := eventService.AddHistory(db, id, models.HistoryEntry{
		Timestamp: request.At,
		Action:    request.Action,
		Team:      request.Team,
		Details:   request.Details,
	})
	if err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, event)
}

func FollowEvent(c *gin.Context, db *database.Database, eventService services.EventServiceInterface) {
	id := c.Param("id")

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := eventService.FollowEvent(db, id, userID); err != nil {
		switch {
		case errors.Is(err, services.ErrEventNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		case errors.Is(err, services.ErrAlreadyFollowing):
			c.JSON(http.StatusConflict, gin.H{"error": "Already following this event"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true})
}

func UnfollowEvent(c *gin.Context, db *database.Database, eventService services.EventServiceInterface) {
	id := c.Param("id")

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := eventService.UnfollowEvent(db, id, userID); err != nil {
		switch {
		case errors.Is(err, services.ErrEventNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		case errors.Is(err, services.ErrNotFollowing):
			c.JSON(http.StatusConflict, gin.H{"error": "Not following this event"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

func GetFollowStatus(c *gin.Context, db *database.Database, eventService services.EventServiceInterface) {
	id := c.Param("id")

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	following, err := eventService.IsFollowing(db, id, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": following})
}

// currentUserID pulls the authenticated user from the gin context. Writes
// the error response itself when the context has no valid user.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDInterface, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}

	userID, ok := userIDInterface.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}
	return userID, true
}
