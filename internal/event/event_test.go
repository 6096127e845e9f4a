package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventWrapsPayload(t *testing.T) {
	ev := NewEvent(EventSendMessage, SendMessagePayload{
		ConversationID: "conv-1",
		Content:        "oi",
		ReceiverID:     "u2",
	})

	assert.Equal(t, EventSendMessage, ev.Event)

	var p SendMessagePayload
	require.NoError(t, json.Unmarshal(ev.Payload, &p))
	assert.Equal(t, "conv-1", p.ConversationID)
	assert.Equal(t, "oi", p.Content)
}

func TestNewEventStringPayload(t *testing.T) {
	ev := NewEvent(EventAuthenticate, "u1")

	var userID string
	require.NoError(t, json.Unmarshal(ev.Payload, &userID))
	assert.Equal(t, "u1", userID)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	frame := []byte(`{"event":"typing","payload":{"conversationId":"conv-1","isTyping":true}}`)

	var ev WsEvent
	require.NoError(t, json.Unmarshal(frame, &ev))
	assert.Equal(t, EventTyping, ev.Event)

	var p TypingPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &p))
	assert.Equal(t, "conv-1", p.ConversationID)
	assert.True(t, p.IsTyping)
}
