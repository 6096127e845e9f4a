package event

// SendMessagePayload is the client's send-message intent.
type SendMessagePayload struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
	ReceiverID     string `json:"receiverId"`
}

// TypingPayload carries a typing-state transition from the client.
type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

// MarkAsReadPayload asks the server to relay a read receipt.
type MarkAsReadPayload struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}

// NewMessagePayload is broadcast to every member of the conversation room.
type NewMessagePayload struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
	SenderID       string `json:"senderId"`
	Timestamp      string `json:"timestamp"`
}

// MessageNotificationPayload is pushed directly to a receiver whose
// registered connection is not in the conversation room.
type MessageNotificationPayload struct {
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"senderId"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
}

// UserTypingPayload is the relayed typing indicator.
type UserTypingPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	IsTyping       bool   `json:"isTyping"`
}

// MessageReadPayload is the relayed read receipt.
type MessageReadPayload struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
	ReadBy         string `json:"readBy"`
}

// SystemMessagePayload is the greeting sent right after a connection
// registers with the hub.
type SystemMessagePayload struct {
	Text      string `json:"text"`
	SenderID  string `json:"senderId"`
	Timestamp string `json:"timestamp"`
}

// ErrorPayload is sent on the errorMessage event to the offending
// connection only.
type ErrorPayload struct {
	Error string `json:"error"`
}
