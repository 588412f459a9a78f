package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/patternlab/patternlab/internal/engine"
	"github.com/patternlab/patternlab/internal/logging"
)

const (
	// Time allowed to write a message to a peer.
	writeWait = 10 * time.Second

	// Outbound buffer per client; slow consumers are dropped when it
	// fills rather than blocking the hub.
	sendBuffer = 64
)

// Client is one connected websocket peer.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans execution events out to connected UI clients.
type Hub struct {
	logger logging.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mutex   sync.RWMutex
	clients map[*Client]struct{}

	stopOnce sync.Once
	stop     chan struct{}
}

// NewHub creates a hub. Call Start before accepting connections.
func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		logger:     logger.WithComponent("websocket"),
		register:   make(chan *Client, 8),
		unregister: make(chan *Client, 8),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*Client]struct{}),
		stop:       make(chan struct{}),
	}
}

// Start runs the hub loop until Stop is called or the context ends.
func (h *Hub) Start(ctx context.Context) {
	go h.run(ctx)
}

// Stop terminates the hub and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// ClientCount reports the connected peer count.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// BroadcastEvent queues a dispatch event for every connected client.
// Never blocks; events are dropped when the hub is saturated.
func (h *Hub) BroadcastEvent(event engine.Event) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":  "execution",
		"event": event,
		"time":  time.Now().UTC(),
	})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- payload:
	default:
	}
}

func (h *Hub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-h.stop:
			h.closeAll()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Debug(ctx, "websocket client connected", "total", count)

		case client := <-h.unregister:
			h.dropClient(ctx, client)

		case message := <-h.broadcast:
			h.mutex.RLock()
			var stalled []*Client
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					stalled = append(stalled, client)
				}
			}
			h.mutex.RUnlock()
			for _, client := range stalled {
				h.dropClient(ctx, client)
			}
		}
	}
}

func (h *Hub) dropClient(ctx context.Context, client *Client) {
	h.mutex.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mutex.Unlock()
	if ok {
		client.conn.Close(websocket.StatusNormalClosure, "")
		h.logger.Debug(ctx, "websocket client disconnected", "total", count)
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		close(client.send)
		client.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
	h.clients = make(map[*Client]struct{})
}

// HandleWebSocket upgrades a request after validating its origin
// against the allowed host list.
func (h *Hub) HandleWebSocket(allowedHosts []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !originAllowedForWS(r, allowedHosts) {
			http.Error(w, "Origin not allowed", http.StatusForbidden)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // origin already validated above
		})
		if err != nil {
			h.logger.Warn(r.Context(), err, "websocket upgrade failed")
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan []byte, sendBuffer),
		}

		go h.writePump(client)
		go h.readPump(client)

		select {
		case h.register <- client:
		case <-h.stop:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
}

// originAllowedForWS validates a websocket origin. Connections without
// an Origin header (non-browser clients) are accepted.
func originAllowedForWS(r *http.Request, allowedHosts []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return false
	}
	for _, allowed := range allowedHosts {
		if originURL.Host == allowed {
			return true
		}
	}
	return false
}

func (h *Hub) writePump(client *Client) {
	for message := range client.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := client.conn.Write(ctx, websocket.MessageText, message)
		cancel()
		if err != nil {
			select {
			case h.unregister <- client:
			case <-h.stop:
			}
			return
		}
	}
}

// readPump drains inbound frames. The feed is one-way; clients only
// send pings and close frames, but the read loop must run for the
// connection to process control frames.
func (h *Hub) readPump(client *Client) {
	ctx := context.Background()
	for {
		if _, _, err := client.conn.Read(ctx); err != nil {
			select {
			case h.unregister <- client:
			case <-h.stop:
			}
			return
		}
	}
}
