package services

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"courtside/courtside/broker"
	"courtside/courtside/config"
	"courtside/courtside/database"
	"courtside/courtside/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocketServiceInterface defines the operations provided by the WebSocket service
type WebSocketServiceInterface interface {
	Start(cfg config.Config)
	Stop()
	BroadcastEvent(event *models.StandardMessage)
	HandleConnection(c *gin.Context)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// websocketConnection represents a single connected client and the topic
// keys it has joined.
type websocketConnection struct {
	userID        uuid.UUID
	conn          *websocket.Conn
	send          chan []byte
	subscriptions map[string]bool
	subMu         sync.Mutex
}

// clientMessage represents a message from the client
type clientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// WebSocketService fans broker messages out to connected clients. Each client
// joins topic keys ("events" for everything, "event:{id}" for one event) and
// only receives messages routed to a key it holds.
type WebSocketService struct {
	db       *database.Database
	subjects []string

	connections map[string]*websocketConnection
	connMu      sync.RWMutex

	consumer    broker.Consumer
	messageChan <-chan broker.Message

	isRunning bool
	stopChan  chan struct{}
}

// NewWebSocketService creates a hub subscribed to every event subject.
func NewWebSocketService(db *database.Database) WebSocketServiceInterface {
	return NewWebSocketServiceWithTopics(db, []string{broker.EventsWildcard})
}

// NewWebSocketServiceWithTopics creates a hub subscribed to specific subjects.
func NewWebSocketServiceWithTopics(db *database.Database, subjects []string) WebSocketServiceInterface {
	return &WebSocketService{
		db:          db,
		subjects:    subjects,
		connections: make(map[string]*websocketConnection),
		stopChan:    make(chan struct{}),
	}
}

// Start connects the hub to the broker and begins routing messages.
func (ws *WebSocketService) Start(cfg config.Config) {
	if ws.isRunning {
		return
	}
	ws.isRunning = true

	consumer, err := broker.InitConsumer(cfg, ws.subjects, "websocket-group")
	if err != nil {
		log.Printf("Failed to initialize broker consumer: %v", err)
		log.Println("WebSocket service will run without live updates")
	} else {
		ws.consumer = consumer
		ws.messageChan = consumer.GetMessageChannel()
		go ws.consumeMessages()
	}

	log.Println("WebSocket service started")
}

// Stop shuts the hub down and closes every client connection.
func (ws *WebSocketService) Stop() {
	if !ws.isRunning {
		return
	}
	ws.isRunning = false
	close(ws.stopChan)

	if ws.consumer != nil {
		ws.consumer.Close()
	}

	ws.connMu.Lock()
	for id, conn := range ws.connections {
		if conn.conn != nil {
			conn.conn.Close()
		}
		close(conn.send)
		delete(ws.connections, id)
	}
	ws.connMu.Unlock()

	log.Println("WebSocket service stopped")
}

// consumeMessages routes broker messages to subscribed clients until the
// channel closes or the service stops.
func (ws *WebSocketService) consumeMessages() {
	for msg := range ws.messageChan {
		if !ws.isRunning {
			return
		}

		var event models.StandardMessage
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("Error parsing broker message on %s: %v", msg.Subject, err)
			continue
		}

		ws.routeEvent(&event)
	}

	log.Println("Broker message channel closed, WebSocket service will no longer receive updates")
}

// routeEvent delivers a message to clients subscribed to the event's topic
// key or to the global events topic. Clients watching a different event
// never see it.
func (ws *WebSocketService) routeEvent(event *models.StandardMessage) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error serializing event %s: %v", event.Event, err)
		return
	}

	topicKey := ""
	if event.EventID != "" {
		topicKey = "event:" + event.EventID
	}

	ws.connMu.RLock()
	defer ws.connMu.RUnlock()

	for id, conn := range ws.connections {
		conn.subMu.Lock()
		shouldSend := conn.subscriptions["events"] ||
			(topicKey != "" && conn.subscriptions[topicKey])
		conn.subMu.Unlock()

		if !shouldSend {
			continue
		}

		select {
		case conn.send <- data:
		default:
			log.Printf("Connection %s send buffer full, dropping message", id)
		}
	}
}

// BroadcastEvent sends a message to every connected client regardless of
// subscriptions.
func (ws *WebSocketService) BroadcastEvent(event *models.StandardMessage) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error serializing broadcast event: %v", err)
		return
	}

	ws.connMu.RLock()
	defer ws.connMu.RUnlock()

	for id, conn := range ws.connections {
		select {
		case conn.send <- data:
		default:
			log.Printf("Connection %s send buffer full, dropping broadcast", id)
		}
	}
}

// HandleConnection upgrades an authenticated HTTP request to a WebSocket
// connection and starts its read and write pumps.
func (ws *WebSocketService) HandleConnection(c *gin.Context) {
	userIDValue, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	userID, ok := userIDValue.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user identity"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	connection := &websocketConnection{
		userID:        userID,
		conn:          conn,
		send:          make(chan []byte, 256),
		subscriptions: make(map[string]bool),
	}

	connID := uuid.New().String()
	ws.connMu.Lock()
	ws.connections[connID] = connection
	ws.connMu.Unlock()

	log.Printf("WebSocket client connected: %s (user: %s)", connID, userID)

	go ws.readPump(connID, connection)
	go ws.writePump(connection)
}

func (ws *WebSocketService) removeConnection(connID string) {
	ws.connMu.Lock()
	if conn, ok := ws.connections[connID]; ok {
		delete(ws.connections, connID)
		close(conn.send)
		log.Printf("WebSocket client disconnected: %s", connID)
	}
	ws.connMu.Unlock()
}

// readPump handles incoming messages from the client until the connection
// drops.
func (ws *WebSocketService) readPump(connID string, conn *websocketConnection) {
	defer func() {
		ws.removeConnection(connID)
		conn.conn.Close()
	}()

	conn.conn.SetReadLimit(4096)
	conn.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.conn.SetPongHandler(func(string) error {
		conn.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Error reading from WebSocket: %v", err)
			}
			break
		}
		ws.processClientMessage(conn, message)
	}
}

// writePump pumps queued messages out to the connection and keeps it alive
// with pings.
func (ws *WebSocketService) writePump(conn *websocketConnection) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		conn.conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.send:
			conn.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				conn.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processClientMessage handles subscribe, unsubscribe and keepalive messages
// from a client.
func (ws *WebSocketService) processClientMessage(conn *websocketConnection, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("Error parsing client message: %v", err)
		return
	}

	switch models.WebSocketMessageType(msg.Type) {
	case models.SubscribeMessage:
		ws.handleSubscribe(conn, msg)
	case models.UnsubscribeMessage:
		ws.handleUnsubscribe(conn, msg)
	case "ping":
		// Keepalive, no response needed.
	default:
		log.Printf("Unknown client message type: %s", msg.Type)
	}
}

// handleSubscribe joins the connection to a topic key. Joining a key the
// connection already holds is a no-op.
func (ws *WebSocketService) handleSubscribe(conn *websocketConnection, msg clientMessage) {
	key, ok := subscriptionKey(msg.Payload)
	if !ok {
		return
	}

	conn.subMu.Lock()
	already := conn.subscriptions[key]
	if !already {
		conn.subscriptions[key] = true
	}
	conn.subMu.Unlock()

	if already {
		return
	}

	confirmation := models.StandardMessage{
		Type:  models.SubscriptionMessage,
		Event: "confirmed",
		Payload: map[string]interface{}{
			"topic": key,
		},
	}
	if data, err := json.Marshal(confirmation); err == nil {
		select {
		case conn.send <- data:
		default:
		}
	}
}

// handleUnsubscribe removes a topic key. Leaving a key the connection never
// joined is a no-op.
func (ws *WebSocketService) handleUnsubscribe(conn *websocketConnection, msg clientMessage) {
	key, ok := subscriptionKey(msg.Payload)
	if !ok {
		return
	}

	conn.subMu.Lock()
	delete(conn.subscriptions, key)
	conn.subMu.Unlock()
}

// subscriptionKey builds the topic key from a subscribe payload: "events"
// for the global stream, "event:{id}" for one event.
func subscriptionKey(payload json.RawMessage) (string, bool) {
	var body struct {
		Topic string `json:"topic"`
		ID    string `json:"id,omitempty"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		log.Printf("Error parsing subscription payload: %v", err)
		return "", false
	}
	if body.Topic == "" {
		return "", false
	}
	if body.ID != "" {
		return body.Topic + ":" + body.ID, true
	}
	return body.Topic, true
}

// Global instance
var WebSocketServiceInstance WebSocketServiceInterface
