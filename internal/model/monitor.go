package model

// -----------------------------------------------------------------
// Monitor API Response Models
// -----------------------------------------------------------------

// MonitorResponse is the main response for the monitor API.
type MonitorResponse struct {
	Status      string          `json:"status"` // "healthy" or "idle"
	Connections ConnectionStats `json:"connections"`
	Rooms       RoomStats       `json:"rooms"`
	Clients     []ClientInfo    `json:"clients"`
}

// ConnectionStats holds connection-level statistics.
type ConnectionStats struct {
	TotalConnected     int `json:"totalConnected"`     // all live sockets
	TotalAuthenticated int `json:"totalAuthenticated"` // sockets with a registered identity
}

// RoomStats holds conversation-room statistics.
type RoomStats struct {
	TotalRooms  int        `json:"totalRooms"`
	RoomDetails []RoomInfo `json:"roomDetails"`
}

// RoomInfo describes one active conversation room.
type RoomInfo struct {
	ConversationID string   `json:"conversationId"`
	TotalMembers   int      `json:"totalMembers"`
	MemberIDs      []string `json:"memberIds"` // connection IDs
}

// ClientInfo describes one connected client.
type ClientInfo struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId,omitempty"`
	Rooms        int    `json:"rooms"`
}
