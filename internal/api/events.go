package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"chemviz/domain/core"
	"chemviz/domain/equipment"
	"chemviz/internal"
)

// eventKeepAlive is how long an idle stream waits before sending a ping
const eventKeepAlive = 30 * time.Second

// eventClient is one open stream for an owner
type eventClient struct {
	owner   core.UserID
	channel chan equipment.Event
}

// EventHub fans dataset events out to each owner's open Server-Sent Events streams
type EventHub struct {
	clients    map[core.UserID]map[chan equipment.Event]bool
	clientsMu  sync.RWMutex
	register   chan eventClient
	unregister chan eventClient
	broadcast  chan equipment.Event
	done       <-chan struct{}
	logger     *internal.Logger
}

// NewEventHub creates a hub whose dispatch loop runs until ctx is done
func NewEventHub(ctx context.Context, logger *internal.Logger) *EventHub {
	hub := &EventHub{
		clients:    make(map[core.UserID]map[chan equipment.Event]bool),
		register:   make(chan eventClient, 10),
		unregister: make(chan eventClient, 10),
		broadcast:  make(chan equipment.Event, 100),
		done:       ctx.Done(),
		logger:     logger,
	}

	go hub.run(ctx)
	return hub
}

func (h *EventHub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.owner] == nil {
				h.clients[client.owner] = make(map[chan equipment.Event]bool)
			}
			h.clients[client.owner][client.channel] = true
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.owner]; exists {
				delete(clients, client.channel)
				if len(clients) == 0 {
					delete(h.clients, client.owner)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for clientChan := range h.clients[event.OwnerID] {
				select {
				case clientChan <- event:
				default:
					h.logger.WithField("owner", event.OwnerID.String()).Warn("event stream full, dropping %s", event.Type)
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Publish queues an event for the owner's streams without blocking
func (h *EventHub) Publish(event equipment.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("event hub saturated, dropping %s", event.Type)
	}
}

// ClientCount returns the number of open streams for an owner
func (h *EventHub) ClientCount(owner core.UserID) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[owner])
}

// handleEvents streams the caller's dataset events until the client disconnects or the hub stops
func (h *EventHub) handleEvents(c *gin.Context) {
	owner := currentUser(c).ID
	ctx := c.Request.Context()
	clientChan := make(chan equipment.Event, 10)

	select {
	case h.register <- eventClient{owner: owner, channel: clientChan}:
	case <-h.done:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Event stream is shutting down."})
		return
	case <-ctx.Done():
		return
	}
	defer func() {
		select {
		case h.unregister <- eventClient{owner: owner, channel: clientChan}:
		case <-h.done:
		}
	}()

	// Streams outlive the server's WriteTimeout
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.WithError(err).Debug("could not clear write deadline for event stream")
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	keepAlive := time.NewTicker(eventKeepAlive)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event := <-clientChan:
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.WithError(err).Error("failed to marshal event")
				return true
			}
			c.SSEvent(string(event.Type), string(payload))
			return true

		case <-keepAlive.C:
			c.SSEvent("ping", `{"status":"alive"}`)
			return true

		case <-h.done:
			return false

		case <-ctx.Done():
			return false
		}
	})
}
