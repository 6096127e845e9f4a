package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorStatsIdle(t *testing.T) {
	h := newTestHub(t)
	ms := NewMonitorService(h)

	stats := ms.GetStats()
	assert.Equal(t, "idle", stats.Status)
	assert.Zero(t, stats.Connections.TotalConnected)
	assert.Zero(t, stats.Rooms.TotalRooms)
	assert.Empty(t, stats.Clients)
}

func TestMonitorStatsSnapshot(t *testing.T) {
	h := newTestHub(t)
	ms := NewMonitorService(h)

	c1 := connect(t, h)
	c2 := connect(t, h)
	c3 := connect(t, h)
	authenticate(t, h, c1, "u1")
	authenticate(t, h, c2, "u2")
	join(h, c1, "conv-1")
	join(h, c2, "conv-1")
	join(h, c2, "conv-2")

	stats := ms.GetStats()

	assert.Equal(t, "healthy", stats.Status)
	assert.Equal(t, 3, stats.Connections.TotalConnected)
	assert.Equal(t, 2, stats.Connections.TotalAuthenticated)

	require.Equal(t, 2, stats.Rooms.TotalRooms)
	require.Len(t, stats.Rooms.RoomDetails, 2)
	assert.Equal(t, roomName("conv-1"), stats.Rooms.RoomDetails[0].ConversationID)
	assert.Equal(t, 2, stats.Rooms.RoomDetails[0].TotalMembers)
	assert.Equal(t, roomName("conv-2"), stats.Rooms.RoomDetails[1].ConversationID)
	assert.Equal(t, 1, stats.Rooms.RoomDetails[1].TotalMembers)

	require.Len(t, stats.Clients, 3)
	for _, info := range stats.Clients {
		if info.ConnectionID == c3.ID {
			assert.Empty(t, info.UserID)
			assert.Zero(t, info.Rooms)
		}
	}
}

func TestMonitorStatsAfterDisconnect(t *testing.T) {
	h := newTestHub(t)
	ms := NewMonitorService(h)

	c1 := connect(t, h)
	c2 := connect(t, h)
	authenticate(t, h, c1, "u1")
	authenticate(t, h, c2, "u2")
	join(h, c1, "conv-1")
	join(h, c2, "conv-1")

	h.dropClient(c2)
	drain(c2)

	stats := ms.GetStats()
	assert.Equal(t, 1, stats.Connections.TotalConnected)
	assert.Equal(t, 1, stats.Connections.TotalAuthenticated)
	require.Equal(t, 1, stats.Rooms.TotalRooms)
	assert.Equal(t, []string{c1.ID}, stats.Rooms.RoomDetails[0].MemberIDs)
}
