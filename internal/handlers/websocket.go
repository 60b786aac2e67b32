package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"freestate-servicedelivery/internal/models"
	"freestate-servicedelivery/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is delegated to the CORS layer in front.
		return true
	},
}

// Hub fans issue lifecycle events out to live dashboard connections.
// Clients are grouped by municipality; staff dashboards subscribe to
// their own municipality and receive every event in it.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *FeedEvent

	mutex sync.RWMutex
}

type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	municipality string
}

// FeedEvent is one live dashboard update.
type FeedEvent struct {
	Type         string        `json:"type"`
	Municipality string        `json:"municipality"`
	Issue        *models.Issue `json:"issue,omitempty"`
}

// Feed event types pushed to dashboards.
const (
	FeedIssueReported = "issue_reported"
	FeedIssueUpdated  = "issue_updated"
	FeedIssueAssigned = "issue_assigned"
	FeedIssueRated    = "issue_rated"
)

type WebSocketHandler struct {
	hub        *Hub
	jwtManager *auth.JWTManager
}

func NewWebSocketHandler(jwtManager *auth.JWTManager) *WebSocketHandler {
	hub := &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *FeedEvent, 64),
	}
	return &WebSocketHandler{hub: hub, jwtManager: jwtManager}
}

func (h *WebSocketHandler) StartHub() {
	go h.hub.run()
}

// Publish queues a feed event for every dashboard watching the
// municipality. Never blocks the caller.
func (h *WebSocketHandler) Publish(eventType string, issue *models.Issue) {
	event := &FeedEvent{Type: eventType, Municipality: issue.Municipality, Issue: issue}
	select {
	case h.hub.broadcast <- event:
	default:
		logrus.Warn("Live feed backlog full, dropping event")
	}
}

func (hub *Hub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.mutex.Lock()
			if hub.clients[client.municipality] == nil {
				hub.clients[client.municipality] = make(map[*Client]bool)
			}
			hub.clients[client.municipality][client] = true
			hub.mutex.Unlock()
			logrus.WithField("municipality", client.municipality).Debug("Live feed client connected")

		case client := <-hub.unregister:
			hub.mutex.Lock()
			if clients, ok := hub.clients[client.municipality]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(hub.clients, client.municipality)
					}
				}
			}
			hub.mutex.Unlock()

		case event := <-hub.broadcast:
			hub.mutex.RLock()
			clients := hub.clients[event.Municipality]
			hub.mutex.RUnlock()

			payload, err := json.Marshal(event)
			if err != nil {
				logrus.WithError(err).Error("Failed to marshal feed event")
				continue
			}

			for client := range clients {
				select {
				case client.send <- payload:
				default:
					hub.mutex.Lock()
					close(client.send)
					delete(clients, client)
					if len(clients) == 0 {
						delete(hub.clients, event.Municipality)
					}
					hub.mutex.Unlock()
				}
			}
		}
	}
}

// HandleWebSocket upgrades a dashboard connection. The token arrives
// as a query parameter because browsers cannot set headers on
// websocket upgrades. Staff only; residents poll the REST API.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}

	claims, err := h.jwtManager.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	if !claims.Role.IsStaff() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Live feed is limited to municipal staff"})
		return
	}

	municipality := claims.Municipality
	if claims.Role == models.RoleExecutive || claims.Role == models.RoleAdmin {
		// Executives may watch any municipality.
		if requested := c.Query("municipality"); requested != "" {
			municipality = requested
		}
	}
	if municipality == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Municipality is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("WebSocket upgrade failed")
		return
	}

	client := &Client{
		hub:          h.hub,
		conn:         conn,
		send:         make(chan []byte, 256),
		municipality: municipality,
	}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// readPump drains the connection. The feed is one-way; inbound frames
// only keep the connection alive.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Debug("Live feed read error")
			}
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
