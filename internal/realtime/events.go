package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a message kind on the board socket, in either
// direction.
type EventType string

const (
	// Client -> server room membership messages.
	EventJoinRoom  EventType = "join_room"
	EventLeaveRoom EventType = "leave_room"

	// Board mutation events. Sent client -> server as relay intents and
	// server -> client as enriched broadcasts.
	EventTaskMoved    EventType = "task_moved"
	EventTaskCreated  EventType = "task_created"
	EventTaskUpdated  EventType = "task_updated"
	EventTaskDeleted  EventType = "task_deleted"
	EventTaskRestored EventType = "task_restored"
	EventCommentAdded EventType = "comment_added"

	// Server -> client only.
	EventUserJoined  EventType = "user_joined"
	EventUserLeft    EventType = "user_left"
	EventActiveUsers EventType = "active_users"
	EventAck         EventType = "ack"
	EventError       EventType = "error"
)

// Relayable reports whether t is a mutation kind a client may relay to its
// room peers. Every mutation kind must appear here; anything else coming
// from a client is rejected by the dispatcher.
func (t EventType) Relayable() bool {
	switch t {
	case EventTaskMoved, EventTaskCreated, EventTaskUpdated, EventTaskDeleted, EventTaskRestored, EventCommentAdded:
		return true
	case EventJoinRoom, EventLeaveRoom, EventUserJoined, EventUserLeft, EventActiveUsers, EventAck, EventError:
		return false
	}
	return false
}

// Actor identifies the user that caused a board mutation.
type Actor struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
}

// Envelope is the client -> server wire frame.
type Envelope struct {
	Type      EventType       `json:"type"`
	ProjectID uuid.UUID       `json:"project_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Event is the server -> client wire frame. Timestamp is assigned at
// broadcast time, not at business-event time.
type Event struct {
	Type      EventType `json:"type"`
	ProjectID uuid.UUID `json:"project_id,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Actor     *Actor    `json:"actor,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// Payload shapes for server-originated broadcasts. Client-relayed events
// carry the same fields as raw JSON from the sender.

type TaskMovedPayload struct {
	TaskID       uuid.UUID `json:"task_id"`
	FromColumnID uuid.UUID `json:"from_column_id"`
	ToColumnID   uuid.UUID `json:"to_column_id"`
	NewPosition  int       `json:"new_position"`
}

type TaskCreatedPayload struct {
	TaskID   uuid.UUID `json:"task_id"`
	ColumnID uuid.UUID `json:"column_id"`
	Title    string    `json:"title"`
	Priority string    `json:"priority"`
}

type TaskUpdatedPayload struct {
	TaskID        uuid.UUID      `json:"task_id"`
	ChangedFields map[string]any `json:"changed_fields"`
}

type TaskDeletedPayload struct {
	TaskID   uuid.UUID `json:"task_id"`
	ColumnID uuid.UUID `json:"column_id"`
}

type TaskRestoredPayload struct {
	TaskID   uuid.UUID `json:"task_id"`
	ColumnID uuid.UUID `json:"column_id"`
}

type CommentAddedPayload struct {
	TaskID    uuid.UUID `json:"task_id"`
	CommentID uuid.UUID `json:"comment_id"`
	Text      string    `json:"text"`
}

type ackPayload struct {
	Success bool `json:"success"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BoardRoom returns the room name for a project board. Deterministic and
// collision-free across distinct projects.
func BoardRoom(projectID uuid.UUID) string {
	return "board:" + projectID.String()
}
