package realtime

import (
	"time"

	"github.com/google/uuid"
)

// PresenceRecord describes one connection's visible presence in one room.
// Multiple records may share a user ID (multi-device); each is keyed
// independently by connection ID.
type PresenceRecord struct {
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// PresenceRegistry maps project -> connection -> presence record. A room
// exists only while at least one record is present; the entry is deleted
// the moment its record set becomes empty.
//
// The registry is not safe for concurrent use. The Gateway owns one and
// serializes access behind its mutex; it is a bookkeeping structure for the
// "who is online" feature, separate from actual message delivery.
type PresenceRegistry struct {
	rooms map[uuid.UUID]map[uuid.UUID]PresenceRecord
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{rooms: make(map[uuid.UUID]map[uuid.UUID]PresenceRecord)}
}

// Add registers a presence record for (projectID, connID). Re-joining with
// the same connection replaces the existing record rather than appending.
func (p *PresenceRegistry) Add(projectID, connID uuid.UUID, rec PresenceRecord) {
	room, ok := p.rooms[projectID]
	if !ok {
		room = make(map[uuid.UUID]PresenceRecord)
		p.rooms[projectID] = room
	}
	room[connID] = rec
}

// Remove deletes the record for (projectID, connID) and garbage-collects the
// room if it became empty. Returns the removed record and whether one existed.
func (p *PresenceRegistry) Remove(projectID, connID uuid.UUID) (PresenceRecord, bool) {
	room, ok := p.rooms[projectID]
	if !ok {
		return PresenceRecord{}, false
	}
	rec, ok := room[connID]
	if !ok {
		return PresenceRecord{}, false
	}
	delete(room, connID)
	p.collect(projectID)
	return rec, true
}

// RemoveConnection sweeps every room the connection holds a record in,
// removing each and garbage-collecting emptied rooms. Returns the affected
// project IDs. Used on transport-level disconnect, where no explicit leave
// was sent.
func (p *PresenceRegistry) RemoveConnection(connID uuid.UUID) []uuid.UUID {
	var affected []uuid.UUID
	for projectID, room := range p.rooms {
		if _, ok := room[connID]; ok {
			delete(room, connID)
			affected = append(affected, projectID)
		}
	}
	for _, projectID := range affected {
		p.collect(projectID)
	}
	return affected
}

// collect deletes the room entry if its record set is empty.
func (p *PresenceRegistry) collect(projectID uuid.UUID) {
	if room, ok := p.rooms[projectID]; ok && len(room) == 0 {
		delete(p.rooms, projectID)
	}
}

// Snapshot returns all presence records currently in the room.
func (p *PresenceRegistry) Snapshot(projectID uuid.UUID) []PresenceRecord {
	room := p.rooms[projectID]
	records := make([]PresenceRecord, 0, len(room))
	for _, rec := range room {
		records = append(records, rec)
	}
	return records
}

// Count returns the number of presence records in the room. Zero for rooms
// that do not exist.
func (p *PresenceRegistry) Count(projectID uuid.UUID) int {
	return len(p.rooms[projectID])
}

// Rooms enumerates projects that currently have at least one record.
func (p *PresenceRegistry) Rooms() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.rooms))
	for id := range p.rooms {
		ids = append(ids, id)
	}
	return ids
}
