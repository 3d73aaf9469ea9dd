package routes

import (
	"errors"
	"net/http"

	"courtside/courtside/database"
	"courtside/courtside/models"
	"courtside/courtside/services"

	"github.com/gin-gonic/gin"
)

func RegisterStandingsRoutes(group *gin.RouterGroup, db *database.Database, standingsService services.StandingsServiceInterface) {
	group.GET("/standings/:sport", func(c *gin.Context) { GetStandings(c, db, standingsService) })
}

func GetStandings(c *gin.Context, db *database.Database, standingsService services.StandingsServiceInterface) {
	sport := models.Sport(c.Param("sport"))

	standings, err := standingsService.GetStandings(db, sport)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown sport"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sport":     sport,
		"standings": standings,
	})
}
