package routes

import (
	"errors"
	"net/http"

	"courtside/courtside/database"
	"courtside/courtside/feed"
	"courtside/courtside/services"

	"github.com/gin-gonic/gin"
)

func RegisterLiveRoutes(group *gin.RouterGroup, db *database.Database, syncService services.LiveSyncServiceInterface, eventService services.EventServiceInterface) {
	group.POST("/live/sync", func(c *gin.Context) { TriggerSync(c, syncService) })
	group.POST("/live/backfill", func(c *gin.Context) { TriggerBackfill(c, syncService) })
	group.GET("/live/events", func(c *gin.Context) { GetLiveEvents(c, db, eventService) })
	group.GET("/live/upcoming", func(c *gin.Context) { GetUpcomingEvents(c, db, eventService) })
}

// TriggerSync runs one sync pass immediately instead of waiting for the
// next scheduled one.
func TriggerSync(c *gin.Context, syncService services.LiveSyncServiceInterface) {
	count, err := syncService.RunOnce(c.Request.Context())
	if err != nil {
		if errors.Is(err, feed.ErrFeedUnavailable) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Live feed is unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": count})
}

type backfillRequest struct {
	Teams   []int `json:"teams" binding:"required"`
	Seasons []int `json:"seasons" binding:"required"`
}

func TriggerBackfill(c *gin.Context, syncService services.LiveSyncServiceInterface) {
	var request backfillRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	count, err := syncService.SyncTeamSeasons(c.Request.Context(), request.Teams, request.Seasons)
	if err != nil {
		if errors.Is(err, feed.ErrFeedUnavailable) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Live feed is unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": count})
}

func GetLiveEvents(c *gin.Context, db *database.Database, eventService services.EventServiceInterface) {
	events, err := eventService.GetEvents(db, map[string]interface{}{"status": "live"})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

func GetUpcomingEvents(c *gin.Context, db *database.Database, eventService services.EventServiceInterface) {
	events, err := eventService.GetEvents(db, map[string]interface{}{"status": "upcoming"})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}
