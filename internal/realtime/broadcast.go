package realtime

import (
	"time"

	"github.com/google/uuid"
)

// Server-originated broadcast surface, called by REST services after a
// database mutation commits. Unlike client relays there is no sender to
// exclude: every connection in the room receives the event, including other
// tabs and devices of the acting user.

func (g *Gateway) BroadcastTaskMoved(projectID uuid.UUID, p TaskMovedPayload, actor Actor) {
	g.broadcast(projectID, EventTaskMoved, p, actor)
}

func (g *Gateway) BroadcastTaskCreated(projectID uuid.UUID, p TaskCreatedPayload, actor Actor) {
	g.broadcast(projectID, EventTaskCreated, p, actor)
}

func (g *Gateway) BroadcastTaskUpdated(projectID uuid.UUID, p TaskUpdatedPayload, actor Actor) {
	g.broadcast(projectID, EventTaskUpdated, p, actor)
}

func (g *Gateway) BroadcastTaskDeleted(projectID uuid.UUID, p TaskDeletedPayload, actor Actor) {
	g.broadcast(projectID, EventTaskDeleted, p, actor)
}

func (g *Gateway) BroadcastTaskRestored(projectID uuid.UUID, p TaskRestoredPayload, actor Actor) {
	g.broadcast(projectID, EventTaskRestored, p, actor)
}

func (g *Gateway) BroadcastCommentAdded(projectID uuid.UUID, p CommentAddedPayload, actor Actor) {
	g.broadcast(projectID, EventCommentAdded, p, actor)
}

// broadcast stamps the server timestamp and emits to the whole room.
// Emitting to a room with no connections is a no-op, not an error.
func (g *Gateway) broadcast(projectID uuid.UUID, t EventType, payload any, actor Actor) {
	ev := Event{
		Type:      t,
		ProjectID: projectID,
		Payload:   payload,
		Actor:     &actor,
		Timestamp: time.Now(),
	}

	g.mu.Lock()
	g.broadcastLocked(projectID, ev, nil)
	g.mu.Unlock()
}

// ActiveUsers returns the presence records currently in the project's room.
func (g *Gateway) ActiveUsers(projectID uuid.UUID) []PresenceRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.presence.Snapshot(projectID)
}

// ActiveUsersCount returns how many connections are viewing the board.
func (g *Gateway) ActiveUsersCount(projectID uuid.UUID) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.presence.Count(projectID)
}

// ActiveRooms enumerates projects with at least one connected viewer.
func (g *Gateway) ActiveRooms() []uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.presence.Rooms()
}
