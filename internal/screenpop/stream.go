package screenpop

import (
	"encoding/json"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadline_backend/internal/calls/engine"
	"leadline_backend/platform/logger"
)

// EventType identifies a device push event.
type EventType string

const (
	// EventOpenCallScreen instructs the device to open the lead call screen.
	EventOpenCallScreen EventType = "open_call_screen"
	// EventCallUpdated tells the device a call record was written or patched,
	// so a visible lead screen should refresh its history.
	EventCallUpdated EventType = "call_updated"
)

// Event is one SSE payload pushed to a device.
type Event struct {
	Type    EventType `json:"type"`
	LeadID  uuid.UUID `json:"leadId,omitempty"`
	Phone   string    `json:"phone,omitempty"`
	Message string    `json:"message,omitempty"`
}

// client is one connected device stream.
type client struct {
	deviceID string
	events   chan Event
}

// Stream manages device SSE connections and implements Surface.
type Stream struct {
	mu      sync.RWMutex
	clients []*client
	log     *logger.Logger
}

// NewStream creates an empty Stream.
func NewStream(log *logger.Logger) *Stream {
	return &Stream{log: log}
}

// Ready reports whether any device is connected.
func (s *Stream) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients) > 0
}

// Open pushes an open-call-screen event to every connected device.
func (s *Stream) Open(phoneNumber string, lead *engine.Lead) {
	ev := Event{Type: EventOpenCallScreen, Phone: phoneNumber}
	if lead != nil {
		ev.LeadID = lead.ID
	}
	s.broadcast(ev)
}

// CallUpdated pushes a refresh hint for a lead's call history.
func (s *Stream) CallUpdated(leadID uuid.UUID, phoneNumber string) {
	s.broadcast(Event{Type: EventCallUpdated, LeadID: leadID, Phone: phoneNumber})
}

// broadcast sends while holding the read lock so removeClient cannot close a
// channel mid-send. Sends are non-blocking, so holding the lock is cheap.
func (s *Stream) broadcast(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clients {
		select {
		case c.events <- ev:
		default:
			s.log.Warn("device event buffer full", "device", c.deviceID)
		}
	}
}

func (s *Stream) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = append(s.clients, c)
}

func (s *Stream) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cl := range s.clients {
		if cl == c {
			s.clients = append(s.clients[:i], s.clients[i+1:]...)
			break
		}
	}
	close(c.events)
}

// Handler returns a Gin handler for device SSE connections. getDeviceID
// extracts the authenticated device from the request context.
func (s *Stream) Handler(getDeviceID func(*gin.Context) (string, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceID, ok := getDeviceID(c)
		if !ok {
			c.JSON(401, gin.H{"error": "unauthorized"})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{deviceID: deviceID, events: make(chan Event, 32)}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"deviceId": deviceID})
		c.Writer.Flush()

		s.log.Info("device stream connected", "device", deviceID)

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				s.log.Info("device stream disconnected", "device", deviceID)
				return
			case ev, ok := <-cl.events:
				if !ok {
					return
				}
				data, _ := json.Marshal(ev)
				c.SSEvent(string(ev.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}
