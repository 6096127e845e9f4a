package hub

import (
	"sort"

	"github.com/OlharAngolano/MB.olharAngolano/internal/model"
)

// MonitorService gathers hub statistics for the monitor API.
type MonitorService struct {
	hub *Hub
}

// NewMonitorService creates a new monitor service.
func NewMonitorService(hub *Hub) *MonitorService {
	return &MonitorService{hub: hub}
}

// GetStats snapshots connection, registry, and room state.
func (ms *MonitorService) GetStats() model.MonitorResponse {
	connectionStats := ms.getConnectionStats()
	roomStats := ms.getRoomStats()
	clients := ms.getClientList()

	status := "healthy"
	if connectionStats.TotalConnected == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status:      status,
		Connections: connectionStats,
		Rooms:       roomStats,
		Clients:     clients,
	}
}

func (ms *MonitorService) getConnectionStats() model.ConnectionStats {
	ms.hub.mu.RLock()
	defer ms.hub.mu.RUnlock()

	return model.ConnectionStats{
		TotalConnected:     len(ms.hub.clients),
		TotalAuthenticated: len(ms.hub.online),
	}
}

func (ms *MonitorService) getRoomStats() model.RoomStats {
	ms.hub.mu.RLock()
	defer ms.hub.mu.RUnlock()

	stats := model.RoomStats{
		RoomDetails: make([]model.RoomInfo, 0, len(ms.hub.rooms)),
	}

	for room, members := range ms.hub.rooms {
		memberIDs := make([]string, 0, len(members))
		for id := range members {
			memberIDs = append(memberIDs, id)
		}
		sort.Strings(memberIDs)

		stats.RoomDetails = append(stats.RoomDetails, model.RoomInfo{
			ConversationID: room,
			TotalMembers:   len(members),
			MemberIDs:      memberIDs,
		})
		stats.TotalRooms++
	}

	sort.Slice(stats.RoomDetails, func(i, j int) bool {
		return stats.RoomDetails[i].ConversationID < stats.RoomDetails[j].ConversationID
	})

	return stats
}

func (ms *MonitorService) getClientList() []model.ClientInfo {
	ms.hub.mu.RLock()
	clients := make([]*Client, 0, len(ms.hub.clients))
	for _, c := range ms.hub.clients {
		clients = append(clients, c)
	}
	ms.hub.mu.RUnlock()

	infos := make([]model.ClientInfo, 0, len(clients))
	for _, c := range clients {
		infos = append(infos, model.ClientInfo{
			ConnectionID: c.ID,
			UserID:       c.UserID(),
			Rooms:        c.roomCount(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ConnectionID < infos[j].ConnectionID
	})

	return infos
}
