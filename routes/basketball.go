package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"courtside/courtside/feed"

	"github.com/gin-gonic/gin"
)

// FeedProxyInterface is the slice of the feed client the passthrough routes
// use.
type FeedProxyInterface interface {
	Raw(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
}

// RegisterBasketballRoutes exposes provider data the event store does not
// model: league listings, arbitrary game queries, and per-game statistics.
// Query parameters are forwarded to the provider as-is.
func RegisterBasketballRoutes(group *gin.RouterGroup, feedClient FeedProxyInterface) {
	group.GET("/basketball/leagues", func(c *gin.Context) { ProxyFeed(c, feedClient, "/leagues") })
	group.GET("/basketball/games", func(c *gin.Context) { ProxyFeed(c, feedClient, "/games") })
	group.GET("/basketball/statistics", func(c *gin.Context) { ProxyFeed(c, feedClient, "/games/statistics") })
}

func ProxyFeed(c *gin.Context, feedClient FeedProxyInterface, path string) {
	data, err := feedClient.Raw(c.Request.Context(), path, c.Request.URL.Query())
	if err != nil {
		if errors.Is(err, feed.ErrFeedUnavailable) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Live feed is unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}
