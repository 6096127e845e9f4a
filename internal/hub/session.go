package hub

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/OlharAngolano/MB.olharAngolano/internal/event"

	"go.uber.org/zap"
)

// persistTimeout bounds the background write that follows a socket-path
// message broadcast.
const persistTimeout = 10 * time.Second

// route dispatches one inbound protocol event. It runs on the hub loop,
// so handlers mutate the registry and room maps without further
// coordination. A handler failure only ever affects the offending
// connection.
func (h *Hub) route(ev event.WsEvent, c *Client) {
	switch ev.Event {
	case event.EventAuthenticate:
		h.handleAuthenticate(ev, c)
	case event.EventJoinConversation:
		h.handleJoin(ev, c)
	case event.EventLeaveConversation:
		h.handleLeave(ev, c)
	case event.EventSendMessage:
		h.handleSendMessage(ev, c)
	case event.EventTyping:
		h.handleTyping(ev, c)
	case event.EventMarkAsRead:
		h.handleMarkAsRead(ev, c)
	default:
		h.logger.Warn("unknown event type",
			zap.String("event", ev.Event),
			zap.String("connection_id", c.ID),
		)
		h.sendError(c, "unknown event: "+ev.Event)
	}
}

func (h *Hub) sendError(c *Client, message string) {
	c.trySend(event.NewEvent(event.EventError, event.ErrorPayload{Error: message}))
}

// requireAuth gates every event other than authenticate. An
// unauthenticated connection holds no memberships and may not emit.
func (h *Hub) requireAuth(c *Client) bool {
	if c.isAuthenticated() {
		return true
	}
	h.sendError(c, "not authenticated")
	return false
}

// handleAuthenticate attaches the user identity to the connection and
// registers it. A later authenticate for the same user on another
// connection overwrites the registry entry; a second authenticate on the
// same connection is rejected and the existing identity stands.
func (h *Hub) handleAuthenticate(ev event.WsEvent, c *Client) {
	var userID string
	if err := json.Unmarshal(ev.Payload, &userID); err != nil || userID == "" {
		h.sendError(c, "invalid authenticate payload")
		return
	}

	if !c.attachIdentity(userID) {
		h.logger.Warn("duplicate authenticate rejected",
			zap.String("connection_id", c.ID),
			zap.String("user_id", c.UserID()),
		)
		h.sendError(c, "already authenticated")
		return
	}

	h.mu.Lock()
	h.online[userID] = c
	h.mu.Unlock()

	h.logger.Info("user authenticated",
		zap.String("user_id", userID),
		zap.String("connection_id", c.ID),
	)
}

// handleJoin adds the connection to the conversation room, creating the
// room on first join. Joining a room twice is a no-op.
func (h *Hub) handleJoin(ev event.WsEvent, c *Client) {
	if !h.requireAuth(c) {
		return
	}

	var conversationID string
	if err := json.Unmarshal(ev.Payload, &conversationID); err != nil || conversationID == "" {
		h.sendError(c, "invalid joinConversation payload")
		return
	}

	room := roomName(conversationID)

	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[c.ID] = c
	h.mu.Unlock()

	c.rememberRoom(room)

	h.logger.Debug("joined conversation",
		zap.String("user_id", c.UserID()),
		zap.String("conversation_id", conversationID),
	)
}

// handleLeave removes the connection from the room. Leaving a room the
// connection never joined, or leaving twice, is a no-op rather than an
// error.
func (h *Hub) handleLeave(ev event.WsEvent, c *Client) {
	if !h.requireAuth(c) {
		return
	}

	var conversationID string
	if err := json.Unmarshal(ev.Payload, &conversationID); err != nil || conversationID == "" {
		h.sendError(c, "invalid leaveConversation payload")
		return
	}

	h.mu.Lock()
	h.removeFromRoomLocked(roomName(conversationID), c)
	h.mu.Unlock()

	h.logger.Debug("left conversation",
		zap.String("user_id", c.UserID()),
		zap.String("conversation_id", conversationID),
	)
}

// handleSendMessage runs the fan-out for a socket-path message and then
// hands the durable write to the store in the background. The broadcast
// is built purely from room state, so a store failure never blocks or
// retracts the live delivery; it is reported back to the sender only.
func (h *Hub) handleSendMessage(ev event.WsEvent, c *Client) {
	if !h.requireAuth(c) {
		return
	}

	var payload event.SendMessagePayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		h.sendError(c, "invalid sendMessage payload")
		return
	}

	payload.Content = strings.TrimSpace(payload.Content)
	if payload.ConversationID == "" || payload.Content == "" || payload.ReceiverID == "" {
		h.sendError(c, "conversationId, content and receiverId are required")
		return
	}

	senderID := c.UserID()
	sentAt := time.Now().UTC()

	h.PublishMessage(payload.ConversationID, senderID, payload.ReceiverID, payload.Content, sentAt)

	if h.store != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()

			if err := h.store.SaveMessage(ctx, payload.ConversationID, senderID, payload.Content, sentAt); err != nil {
				h.logger.Error("failed to persist relayed message",
					zap.String("conversation_id", payload.ConversationID),
					zap.String("sender_id", senderID),
					zap.Error(err),
				)
				h.sendError(c, "Failed to send message")
			}
		}()
	}
}

// handleTyping relays the typing flag to everyone else in the room. The
// server keeps no typing state and runs no expiry timer; the receiving
// client times the indicator out.
func (h *Hub) handleTyping(ev event.WsEvent, c *Client) {
	if !h.requireAuth(c) {
		return
	}

	var payload event.TypingPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ConversationID == "" {
		h.sendError(c, "invalid typing payload")
		return
	}

	h.broadcastRoom(roomName(payload.ConversationID), event.NewEvent(event.EventUserTyping, event.UserTypingPayload{
		ConversationID: payload.ConversationID,
		UserID:         c.UserID(),
		IsTyping:       payload.IsTyping,
	}), c.ID)
}

// handleMarkAsRead relays the read receipt to the rest of the room.
func (h *Hub) handleMarkAsRead(ev event.WsEvent, c *Client) {
	if !h.requireAuth(c) {
		return
	}

	var payload event.MarkAsReadPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ConversationID == "" {
		h.sendError(c, "invalid markAsRead payload")
		return
	}

	h.broadcastRoom(roomName(payload.ConversationID), event.NewEvent(event.EventMessageRead, event.MessageReadPayload{
		ConversationID: payload.ConversationID,
		MessageID:      payload.MessageID,
		ReadBy:         c.UserID(),
	}), c.ID)
}
