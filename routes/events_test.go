package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"courtside/courtside/database"
	"courtside/courtside/models"
	"courtside/courtside/services"
)

const knownEventID = "123e4567-e89b-12d3-a456-426614174000"

type MockEventService struct{}

func knownEvent() models.Event {
	return models.Event{
		ID:     uuid.Must(uuid.Parse(knownEventID)),
		Name:   "Lakers vs Celtics",
		Sport:  models.Basketball,
		Team1:  models.Team{Name: "Lakers", Score: 54},
		Team2:  models.Team{Name: "Celtics", Score: 48},
		Status: models.StatusLive,
	}
}

func (m *MockEventService) CreateEvent(db *database.Database, eventData map[string]interface{}, userID uuid.UUID) (models.Event, error) {
	sport := models.Sport(eventData["sport"].(string))
	if !sport.Valid() {
		return models.Event{}, services.ErrInvalidInput
	}
	event := knownEvent()
	event.CreatedBy = userID
	return event, nil
}

func (m *MockEventService) GetEventById(db *database.Database, id string) (models.Event, error) {
	if id == knownEventID {
		return knownEvent(), nil
	}
	return models.Event{}, services.ErrEventNotFound
}

func (m *MockEventService) GetEvents(db *database.Database, params map[string]interface{}) ([]models.Event, error) {
	return []models.Event{knownEvent()}, nil
}

func (m *MockEventService) UpdateScore(db *database.Database, id string, team string, points int, action string) (models.Event, error) {
	if id != knownEventID {
		return models.Event{}, services.ErrEventNotFound
	}
	if team != "team1" && team != "team2" {
		return models.Event{}, services.ErrInvalidInput
	}
	event := knownEvent()
	if team == "team1" {
		event.Team1.Score += points
	} else {
		event.Team2.Score += points
	}
	return event, nil
}

func (m *MockEventService) UpdateStatus(db *database.Database, id string, status models.EventStatus) (models.Event, error) {
	if id != knownEventID {
		return models.Event{}, services.ErrEventNotFound
	}
	event := knownEvent()
	event.Status = status
	return event, nil
}

func (m *MockEventService) AddHistory(db *database.Database, id string, entry models.HistoryEntry) (models.Event, error) {
	if id != knownEventID {
		return models.Event{}, services.ErrEventNotFound
	}
	event := knownEvent()
	event.History = append(event.History, entry)
	return event, nil
}

func (m *MockEventService) FollowEvent(db *database.Database, eventID string, userID uuid.UUID) error {
	if eventID != knownEventID {
		return services.ErrEventNotFound
	}
	return nil
}

func (m *MockEventService) UnfollowEvent(db *database.Database, eventID string, userID uuid.UUID) error {
	if eventID != knownEventID {
		return services.ErrEventNotFound
	}
	return services.ErrNotFollowing
}

func (m *MockEventService) IsFollowing(db *database.Database, eventID string, userID uuid.UUID) (bool, error) {
	return eventID == knownEventID, nil
}

func (m *MockEventService) GetFollowedEvents(db *database.Database, userID uuid.UUID) ([]models.Event, error) {
	return []models.Event{knownEvent()}, nil
}

func (m *MockEventService) SearchEvents(db *database.Database, query services.SearchQuery) ([]models.Event, int64, error) {
	if query.Search == "lakers" {
		return []models.Event{knownEvent()}, 1, nil
	}
	return []models.Event{}, 0, nil
}

func setupEventRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	db := &database.Database{}

	testUserID := uuid.Must(uuid.Parse("90a12345-f12a-98c4-a456-513432930000"))
	group := router.Group("/api/v1")
	group.Use(func(c *gin.Context) {
		c.Set("userID", testUserID)
		c.Next()
	})

	RegisterEventRoutes(group, db, &MockEventService{})
	RegisterSearchRoutes(group, db, &MockEventService{})
	return router
}

func TestGetEventById_Route(t *testing.T) {
	router := setupEventRouter()

	t.Run("Found", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/events/"+knownEventID, nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var event models.Event
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &event))
		assert.Equal(t, "Lakers vs Celtics", event.Name)
	})

	t.Run("Not Found", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/events/"+uuid.New().String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCreateEvent_Route(t *testing.T) {
	router := setupEventRouter()

	t.Run("Invalid JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/events", bytes.NewBufferString("not json"))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unknown Sport", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := `{"sport":"chess","team1":"A","team2":"B","start_time":"2025-06-01T18:00:00Z"}`
		req, _ := http.NewRequest("POST", "/api/v1/events", bytes.NewBufferString(body))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Created", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := `{"sport":"basketball","team1":"Lakers","team2":"Celtics","start_time":"2025-06-01T18:00:00Z"}`
		req, _ := http.NewRequest("POST", "/api/v1/events", bytes.NewBufferString(body))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestUpdateEventScore_Route(t *testing.T) {
	router := setupEventRouter()

	t.Run("Applies Points", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := `{"team":"team1","points":3}`
		req, _ := http.NewRequest("PATCH", "/api/v1/events/"+knownEventID+"/score", bytes.NewBufferString(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var event models.Event
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &event))
		assert.Equal(t, 57, event.Team1.Score)
	})

	t.Run("Unknown Team", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := `{"team":"referees","points":3}`
		req, _ := http.NewRequest("PATCH", "/api/v1/events/"+knownEventID+"/score", bytes.NewBufferString(body))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Missing Event", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := `{"team":"team1","points":3}`
		req, _ := http.NewRequest("PATCH", "/api/v1/events/"+uuid.New().String()+"/score", bytes.NewBufferString(body))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUpdateEventStatus_Route(t *testing.T) {
	router := setupEventRouter()

	t.Run("Valid Transition", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PATCH", "/api/v1/events/"+knownEventID+"/status", bytes.NewBufferString(`{"status":"completed"}`))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Unknown Status", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PATCH", "/api/v1/events/"+knownEventID+"/status", bytes.NewBufferString(`{"status":"paused"}`))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAddEventHistory_Route(t *testing.T) {
	router := setupEventRouter()

	w := httptest.NewRecorder()
	body, _ := json.Marshal(map[string]interface{}{
		"action": "Timeout",
		"team":   "Lakers",
		"at":     time.Date(2025, 6, 1, 19, 30, 0, 0, time.UTC),
	})
	req, _ := http.NewRequest("POST", "/api/v1/events/"+knownEventID+"/history", bytes.NewBuffer(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var event models.Event
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &event))
	assert.Len(t, event.History, 1)
	assert.Equal(t, "Timeout", event.History[0].Action)
}

func TestFollowRoutes(t *testing.T) {
	router := setupEventRouter()

	t.Run("Follow", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/events/"+knownEventID+"/follow", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Unfollow When Not Following", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/v1/events/"+knownEventID+"/follow", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Follow Status", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/events/"+knownEventID+"/follow", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"following":true`)
	})
}

func TestSearchEvents_Route(t *testing.T) {
	router := setupEventRouter()

	t.Run("Matches", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/events/search?q=lakers&page=1&limit=10", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Events []models.Event `json:"events"`
			Total  int64          `json:"total"`
			Page   int            `json:"page"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Events, 1)
		assert.Equal(t, int64(1), response.Total)
		assert.Equal(t, 1, response.Page)
	})

	t.Run("No Matches", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/events/search?q=cricket", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":0`)
	})
}
