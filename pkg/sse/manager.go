package sse

import (
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const heartbeatInterval = 25 * time.Second

// Message is a single server-sent event addressed to one user
type Message struct {
	UserID string
	Event  string
	Data   interface{}
}

// Client is one open event stream
type Client struct {
	UserID string
	Send   chan Message
}

// Manager fans events out to every open stream of a user
type Manager struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	done       chan struct{}
	closeOnce  sync.Once
	mu         sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until Close is called
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			if m.clients[client.UserID] == nil {
				m.clients[client.UserID] = make(map[*Client]bool)
			}
			m.clients[client.UserID][client] = true
			m.mu.Unlock()
			log.Printf("[SSE] Client connected for user %s", client.UserID)

		case client := <-m.unregister:
			m.mu.Lock()
			if conns, ok := m.clients[client.UserID]; ok && conns[client] {
				delete(conns, client)
				close(client.Send)
				if len(conns) == 0 {
					delete(m.clients, client.UserID)
				}
			}
			m.mu.Unlock()
			log.Printf("[SSE] Client disconnected for user %s", client.UserID)

		case msg := <-m.broadcast:
			m.mu.RLock()
			for client := range m.clients[msg.UserID] {
				select {
				case client.Send <- msg:
				default:
					log.Printf("[SSE] Dropping %s event for slow client of user %s", msg.Event, msg.UserID)
				}
			}
			m.mu.RUnlock()

		case <-m.done:
			m.mu.Lock()
			for _, conns := range m.clients {
				for client := range conns {
					close(client.Send)
				}
			}
			m.clients = make(map[string]map[*Client]bool)
			m.mu.Unlock()
			return
		}
	}
}

// Close stops Run and ends all open streams
func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

// Subscribe opens a new stream for userID
func (m *Manager) Subscribe(userID string) *Client {
	client := &Client{UserID: userID, Send: make(chan Message, 32)}
	select {
	case m.register <- client:
	case <-m.done:
		close(client.Send)
	}
	return client
}

// Unsubscribe closes a stream opened by Subscribe
func (m *Manager) Unsubscribe(client *Client) {
	select {
	case m.unregister <- client:
	case <-m.done:
	}
}

// SendToUser queues an event for every stream of userID. It never blocks.
func (m *Manager) SendToUser(userID, event string, data interface{}) {
	select {
	case m.broadcast <- Message{UserID: userID, Event: event, Data: data}:
	default:
		log.Printf("[SSE] Broadcast queue full, dropping %s event for user %s", event, userID)
	}
}

// ClientCount returns the number of open streams of userID
func (m *Manager) ClientCount(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients[userID])
}

// ServeHTTP streams events of userID until the request ends
func (m *Manager) ServeHTTP(c *gin.Context, userID string) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	client := m.Subscribe(userID)
	defer m.Unsubscribe(client)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.SSEvent("connected", gin.H{"user_id": userID})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return false
			}
			c.SSEvent(msg.Event, msg.Data)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"time": time.Now().Unix()})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
