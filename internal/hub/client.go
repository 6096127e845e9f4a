package hub

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/OlharAngolano/MB.olharAngolano/internal/event"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// tuning parameters
	writeWait      = 10 * time.Second    // time allowed to write a message to the peer
	pongWait       = 20 * time.Second    // time allowed to read the next pong from the peer
	pingInterval   = (pongWait * 9) / 10 // send pings with this period
	maxMessageSize = 64 * 1024           // max inbound frame size (64KB)
	sendBufSize    = 256                 // per-connection outbound buffer
)

// Client is one live transport-level connection. The identity fields move
// through the session lifecycle exactly once: userID is attached by the
// authenticate event and never rewritten; rooms tracks the connection's
// current memberships so disconnect can undo them.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn

	egress chan event.WsEvent

	mu            sync.RWMutex
	userID        string
	authenticated bool
	rooms         map[string]struct{}

	ctx            context.Context
	cancel         context.CancelFunc
	once           sync.Once
	connClosed     chan struct{}
	connClosedOnce sync.Once
	closed         bool
}

func newClient(conn *websocket.Conn, h *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		ID:         uuid.New().String(),
		hub:        h,
		conn:       conn,
		egress:     make(chan event.WsEvent, sendBufSize),
		rooms:      make(map[string]struct{}),
		ctx:        ctx,
		cancel:     cancel,
		connClosed: make(chan struct{}),
	}
}

// RegisterClient creates a client for a fresh connection, registers it
// with the hub, and starts its read and write pumps.
func RegisterClient(conn *websocket.Conn, h *Hub) *Client {
	c := newClient(conn, h)

	select {
	case h.register <- c:
		go c.readPump()
		go c.writePump()
		return c
	case <-h.ctx.Done():
		conn.Close()
		return nil
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
			c.Close()
		}
	}()

	c.conn.SetReadLimit(int64(maxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var ev event.WsEvent
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
			) {
				return
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return
			}
			// Malformed frame or transport error; either way the
			// connection is done.
			return
		}

		select {
		case c.hub.inbound <- inboundEvent{ev: ev, client: c}:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()
		c.connClosedOnce.Do(func() {
			close(c.connClosed)
		})
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-c.egress:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// trySend enqueues an event without blocking. A full egress queue or a
// closed client counts as unreachable and the event is dropped.
func (c *Client) trySend(ev event.WsEvent) bool {
	// Holding the read lock across the send pairs with Close taking the
	// write lock before it closes egress, so this can never send on a
	// closed channel.
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false
	}

	select {
	case c.egress <- ev:
		return true
	default:
		return false
	}
}

// Close tears the client down exactly once.
func (c *Client) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		c.cancel()
		close(c.egress)

		// Wait for the write pump to close the socket, or force it
		// after a grace period.
		go func() {
			select {
			case <-c.connClosed:
			case <-time.After(5 * time.Second):
				if c.conn != nil {
					_ = c.conn.Close()
				}
			}
		}()
	})
}

// UserID returns the registered identity, or "" before authentication.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// attachIdentity records the user identity. Returns false if the
// connection already authenticated; the existing identity is untouched.
func (c *Client) attachIdentity(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authenticated {
		return false
	}
	c.userID = userID
	c.authenticated = true
	return true
}

// isAuthenticated reports whether the session reached the authenticated
// state.
func (c *Client) isAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authenticated
}

func (c *Client) rememberRoom(room string) {
	c.mu.Lock()
	c.rooms[room] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) forgetRoom(room string) {
	c.mu.Lock()
	delete(c.rooms, room)
	c.mu.Unlock()
}

// memberships returns a snapshot of the rooms the connection has joined.
func (c *Client) memberships() map[string]struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snapshot := make(map[string]struct{}, len(c.rooms))
	for room := range c.rooms {
		snapshot[room] = struct{}{}
	}
	return snapshot
}

func (c *Client) roomCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rooms)
}
