package event

import "encoding/json"

// Client -> server events.
const (
	EventAuthenticate      = "authenticate"
	EventJoinConversation  = "joinConversation"
	EventLeaveConversation = "leaveConversation"
	EventSendMessage       = "sendMessage"
	EventTyping            = "typing"
	EventMarkAsRead        = "markAsRead"
)

// Server -> client events.
const (
	EventMessage             = "message"
	EventNewMessage          = "newMessage"
	EventMessageNotification = "messageNotification"
	EventUserTyping          = "userTyping"
	EventMessageRead         = "messageRead"
	EventError               = "errorMessage"
)

// WsEvent is the envelope every frame on the socket is wrapped in.
// Payload stays raw until the handler for the event name decodes it.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent wraps a payload into an envelope. Every payload type in this
// package marshals cleanly, so a marshal failure only means a caller bug;
// the envelope is still sent, just without a payload.
func NewEvent(name string, payload any) WsEvent {
	raw, err := json.Marshal(payload)
	if err != nil {
		return WsEvent{Event: name}
	}
	return WsEvent{Event: name, Payload: raw}
}
