package hub

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/OlharAngolano/MB.olharAngolano/internal/event"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Store is the slice of persistence the broker touches when relaying a
// message. Implemented by service.ChatService; the broadcast never waits
// on it and never depends on it for in-memory correctness.
type Store interface {
	SaveMessage(ctx context.Context, conversationID, senderID, content string, sentAt time.Time) error
}

type inboundEvent struct {
	ev     event.WsEvent
	client *Client
}

// Hub is the realtime broker. It owns the identity registry (userID ->
// registered connection) and the room membership sets. Every mutation of
// those maps happens on the single run goroutine fed by the register,
// unregister, and inbound channels, so per-conversation event ordering
// matches arrival order. The mutex exists only so the monitor endpoint
// and the HTTP publish path can take read snapshots.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[string]*Client // room name -> connection id -> client
	online  map[string]*Client            // user id -> registered connection
	clients map[string]*Client            // connection id -> client

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent

	store    Store
	logger   *zap.Logger
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates the broker and starts its run loop. allowedOrigins is
// the whitelist for the websocket handshake Origin check; empty means
// same-host only.
func NewHub(logger *zap.Logger, allowedOrigins []string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		rooms:      make(map[string]map[string]*Client),
		online:     make(map[string]*Client),
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		inbound:    make(chan inboundEvent, 4096),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := origins[origin]
			return ok
		},
	}

	go h.run()

	return h
}

// SetStore wires the persistence layer in. Must be called before the hub
// starts accepting sendMessage events that should be persisted; a nil
// store leaves the broker relay-only.
func (h *Hub) SetStore(store Store) {
	h.store = store
}

// run is the single event loop. Registration, teardown, and every inbound
// protocol event are serialized here, which is what makes the registry
// and room maps race-free without callers taking locks.
func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.dropClient(c)
		case in := <-h.inbound:
			h.route(in.ev, in.client)
		}
	}
}

// roomName returns the broadcast group name for a conversation.
func roomName(conversationID string) string {
	return "conversation:" + conversationID
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	h.logger.Info("client connected", zap.String("connection_id", c.ID))

	c.trySend(event.NewEvent(event.EventMessage, event.SystemMessagePayload{
		Text:      "Welcome to Olhar Angolano Chat!",
		SenderID:  "system",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}))
}

// dropClient is the terminal transition: membership removal first, then
// the conditional identity unregister, then socket teardown.
func (h *Hub) dropClient(c *Client) {
	h.mu.Lock()

	for room := range c.memberships() {
		h.removeFromRoomLocked(room, c)
	}

	userID := c.UserID()
	if userID != "" {
		// Only drop the registry entry if it still points at this
		// connection; a reconnect may already have overwritten it.
		if current, ok := h.online[userID]; ok && current == c {
			delete(h.online, userID)
		}
	}

	delete(h.clients, c.ID)
	h.mu.Unlock()

	c.Close()

	h.logger.Info("client disconnected",
		zap.String("connection_id", c.ID),
		zap.String("user_id", userID),
	)
}

// removeFromRoomLocked deletes the membership and garbage-collects the
// room entry once its member set empties. Caller holds h.mu.
func (h *Hub) removeFromRoomLocked(room string, c *Client) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c.ID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
	c.forgetRoom(room)
}

// broadcastRoom delivers an event to every connection in the room except
// the optional excluded one. Unreachable connections are skipped; there
// is no retry or buffering beyond the per-client egress queue.
func (h *Hub) broadcastRoom(room string, ev event.WsEvent, excludeConnID string) {
	h.mu.RLock()
	members := h.rooms[room]
	targets := make([]*Client, 0, len(members))
	for id, c := range members {
		if id == excludeConnID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.trySend(ev) {
			h.logger.Debug("dropped event for unreachable client",
				zap.String("connection_id", c.ID),
				zap.String("event", ev.Event),
			)
		}
	}
}

// PublishMessage runs the two-step fan-out for a message that the HTTP
// layer already persisted: the room broadcast always comes first, then a
// direct notification to the receiver's registered connection when that
// connection is not itself a room member.
func (h *Hub) PublishMessage(conversationID, senderID, receiverID, content string, sentAt time.Time) {
	room := roomName(conversationID)
	ts := sentAt.UTC().Format(time.RFC3339)

	h.broadcastRoom(room, event.NewEvent(event.EventNewMessage, event.NewMessagePayload{
		ConversationID: conversationID,
		Content:        content,
		SenderID:       senderID,
		Timestamp:      ts,
	}), "")

	h.mu.RLock()
	receiver := h.online[receiverID]
	inRoom := false
	if receiver != nil {
		_, inRoom = h.rooms[room][receiver.ID]
	}
	h.mu.RUnlock()

	if receiver != nil && !inRoom {
		receiver.trySend(event.NewEvent(event.EventMessageNotification, event.MessageNotificationPayload{
			ConversationID: conversationID,
			SenderID:       senderID,
			Content:        content,
			Timestamp:      ts,
		}))
	}
}

// ServeWS upgrades the request and hands the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	RegisterClient(conn, h)
}

// Stop shuts the loop down and closes every live connection.
func (h *Hub) Stop() {
	h.cancel()
	<-h.done

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.rooms = make(map[string]map[string]*Client)
	h.online = make(map[string]*Client)
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
