package app

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Spok95/hallboard/internal/tracker"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 4
)

// FrameMessage is what a tracker socket receives on connect and on every refresh.
type FrameMessage struct {
	Type      string        `json:"type"`
	Frame     tracker.Frame `json:"frame"`
	Timestamp int64         `json:"timestamp"`
}

type wsClient struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes tracker frames to every connected map.
type Hub struct {
	store    *tracker.Store
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[uuid.UUID]*wsClient
}

func NewHub(store *tracker.Store, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		store: store,
		log:   log.Named("hub"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: map[uuid.UUID]*wsClient{},
	}
}

// Start subscribes to the store and forwards frames to clients until ctx ends,
// then disconnects everyone. Frames replaced after Start returns are delivered.
func (h *Hub) Start(ctx context.Context) {
	frames, cancel := h.store.Subscribe()
	go func() {
		defer cancel()
		h.run(ctx, frames)
	}()
}

func (h *Hub) run(ctx context.Context, frames <-chan tracker.Frame) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case f := <-frames:
			h.broadcast(f)
		}
	}
}

func encodeFrame(f tracker.Frame) ([]byte, error) {
	return json.Marshal(FrameMessage{Type: "frame", Frame: f, Timestamp: time.Now().UnixMilli()})
}

func (h *Hub) broadcast(f tracker.Frame) {
	data, err := encodeFrame(f)
	if err != nil {
		h.log.Error("encode frame", zap.Error(err))
		return
	}
	h.mu.RLock()
	var slow []*wsClient
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range slow {
		h.log.Debug("dropping slow client", zap.Stringer("client", c.id))
		h.remove(c)
	}
}

func (h *Hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("client registered", zap.Stringer("client", c.id), zap.Int("total", n))
}

// remove closes c.send once; later calls are no-ops.
func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams frames, starting with the current one.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &wsClient{id: uuid.New(), conn: conn, send: make(chan []byte, sendBuffer)}
	if data, err := encodeFrame(h.store.Frame()); err == nil {
		c.send <- data
	}
	h.add(c)

	go h.writePump(c)
	h.readPump(c)
}

// readPump only watches for close and pongs; clients never send frames.
func (h *Hub) readPump(c *wsClient) {
	defer h.remove(c)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}
