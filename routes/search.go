package routes

import (
	"net/http"
	"strconv"

	"courtside/courtside/database"
	"courtside/courtside/services"

	"github.com/gin-gonic/gin"
)

func RegisterSearchRoutes(group *gin.RouterGroup, db *database.Database, eventService services.EventServiceInterface) {
	group.GET("/events/search", func(c *gin.Context) { SearchEvents(c, db, eventService) })
}

func SearchEvents(c *gin.Context, db *database.Database, eventService services.EventServiceInterface) {
	query := services.SearchQuery{
		Search: c.Query("q"),
		Sport:  c.Query("sport"),
		Status: c.Query("status"),
		Sort:   c.Query("sort"),
		Page:   1,
		Limit:  10,
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		query.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil && limit > 0 && limit <= 100 {
		query.Limit = limit
	}

	events, total, err := eventService.SearchEvents(db, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  total,
		"page":   query.Page,
		"limit":  query.Limit,
	})
}
