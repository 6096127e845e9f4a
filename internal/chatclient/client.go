package chatclient

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/OlharAngolano/MB.olharAngolano/internal/event"

	"go.uber.org/zap"
)

const (
	// DefaultMaxReconnectAttempts bounds how many times the shim redials
	// after losing the connection before giving up silently.
	DefaultMaxReconnectAttempts = 5
	// DefaultReconnectDelay is the fixed pause between redial attempts.
	DefaultReconnectDelay = time.Second
)

// Conn is the slice of the websocket connection the shim needs.
// Satisfied by *websocket.Conn; tests substitute a scripted fake.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// DialFunc opens a transport connection.
type DialFunc func(ctx context.Context) (Conn, error)

// Handler consumes the raw payload of one inbound event.
type Handler func(payload json.RawMessage)

// Options configures a Client. URL and UserID are required unless a
// custom Dial is provided.
type Options struct {
	URL                  string
	UserID               string
	Dial                 DialFunc
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	Logger               *zap.Logger
}

// Client keeps one connection to the chat server alive for an
// authenticated user session. Emits are fire-and-forget: with no live
// connection they are no-ops, never errors. After a reconnect the shim
// re-authenticates but deliberately does not re-join rooms; the owning
// view re-issues joins so stale conversation views don't resubscribe.
type Client struct {
	userID      string
	dial        DialFunc
	maxAttempts int
	delay       time.Duration
	logger      *zap.Logger

	mu       sync.RWMutex
	conn     Conn
	handlers map[string]Handler
	closed   bool

	done chan struct{}
}

// New creates a client; call Connect to establish the connection.
func New(opts Options) *Client {
	dial := opts.Dial
	if dial == nil {
		dial = gorillaDial(opts.URL)
	}

	maxAttempts := opts.MaxReconnectAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxReconnectAttempts
	}

	delay := opts.ReconnectDelay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		userID:      opts.UserID,
		dial:        dial,
		maxAttempts: maxAttempts,
		delay:       delay,
		logger:      logger,
		handlers:    make(map[string]Handler),
		done:        make(chan struct{}),
	}
}

// Connect dials the server, authenticates, and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.setConn(conn)
	c.authenticate()

	go c.readLoop()

	return nil
}

// On registers a handler for an inbound event name. Events without a
// handler are silently ignored.
func (c *Client) On(eventName string, h Handler) {
	c.mu.Lock()
	c.handlers[eventName] = h
	c.mu.Unlock()
}

// OnNewMessage registers a typed callback for room broadcasts.
func (c *Client) OnNewMessage(fn func(event.NewMessagePayload)) {
	c.On(event.EventNewMessage, func(raw json.RawMessage) {
		var p event.NewMessagePayload
		if json.Unmarshal(raw, &p) == nil {
			fn(p)
		}
	})
}

// OnMessageNotification registers a typed callback for direct pushes.
func (c *Client) OnMessageNotification(fn func(event.MessageNotificationPayload)) {
	c.On(event.EventMessageNotification, func(raw json.RawMessage) {
		var p event.MessageNotificationPayload
		if json.Unmarshal(raw, &p) == nil {
			fn(p)
		}
	})
}

// OnUserTyping registers a typed callback for typing indicators. The
// caller owns the expiry timer; the shim only relays transitions.
func (c *Client) OnUserTyping(fn func(event.UserTypingPayload)) {
	c.On(event.EventUserTyping, func(raw json.RawMessage) {
		var p event.UserTypingPayload
		if json.Unmarshal(raw, &p) == nil {
			fn(p)
		}
	})
}

// OnMessageRead registers a typed callback for read receipts.
func (c *Client) OnMessageRead(fn func(event.MessageReadPayload)) {
	c.On(event.EventMessageRead, func(raw json.RawMessage) {
		var p event.MessageReadPayload
		if json.Unmarshal(raw, &p) == nil {
			fn(p)
		}
	})
}

// JoinConversation subscribes this connection to a conversation room.
func (c *Client) JoinConversation(conversationID string) {
	c.emit(event.EventJoinConversation, conversationID)
}

// LeaveConversation unsubscribes from a conversation room.
func (c *Client) LeaveConversation(conversationID string) {
	c.emit(event.EventLeaveConversation, conversationID)
}

// SendMessage emits a send-message intent.
func (c *Client) SendMessage(conversationID, content, receiverID string) {
	c.emit(event.EventSendMessage, event.SendMessagePayload{
		ConversationID: conversationID,
		Content:        content,
		ReceiverID:     receiverID,
	})
}

// SendTypingStatus emits a typing transition.
func (c *Client) SendTypingStatus(conversationID string, isTyping bool) {
	c.emit(event.EventTyping, event.TypingPayload{
		ConversationID: conversationID,
		IsTyping:       isTyping,
	})
}

// MarkMessageAsRead emits a read receipt.
func (c *Client) MarkMessageAsRead(conversationID, messageID string) {
	c.emit(event.EventMarkAsRead, event.MarkAsReadPayload{
		ConversationID: conversationID,
		MessageID:      messageID,
	})
}

// Close tears the client down; no reconnection follows.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	close(c.done)
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

// emit writes one envelope; a missing connection or a write failure makes
// it a no-op. Write failures are left for the read loop to notice so
// reconnection logic lives in one place.
func (c *Client) emit(eventName string, payload any) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return
	}

	if err := conn.WriteJSON(event.NewEvent(eventName, payload)); err != nil {
		c.logger.Debug("emit failed", zap.String("event", eventName), zap.Error(err))
	}
}

func (c *Client) authenticate() {
	c.emit(event.EventAuthenticate, c.userID)
}

func (c *Client) setConn(conn Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// readLoop reads envelopes and dispatches them until the connection
// fails, then hands off to reconnect.
func (c *Client) readLoop() {
	for {
		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		if conn == nil {
			return
		}

		var ev event.WsEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if c.isClosed() {
				return
			}
			c.logger.Info("connection lost", zap.Error(err))
			if !c.reconnect() {
				return
			}
			continue
		}

		c.dispatch(ev)
	}
}

func (c *Client) dispatch(ev event.WsEvent) {
	c.mu.RLock()
	h := c.handlers[ev.Event]
	c.mu.RUnlock()

	if h != nil {
		h(ev.Payload)
	}
}

// reconnect redials with a fixed delay up to the attempt ceiling. On
// success it re-authenticates and returns true; after the last failure it
// gives up silently and leaves the disconnected state for the UI to
// surface.
func (c *Client) reconnect() bool {
	c.setConn(nil)

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		select {
		case <-c.done:
			return false
		case <-time.After(c.delay):
		}

		conn, err := c.dial(context.Background())
		if err != nil {
			c.logger.Warn("reconnect attempt failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.maxAttempts),
				zap.Error(err),
			)
			continue
		}

		c.setConn(conn)
		c.authenticate()
		c.logger.Info("reconnected", zap.Int("attempt", attempt))
		return true
	}

	c.logger.Warn("max reconnection attempts reached")
	return false
}
