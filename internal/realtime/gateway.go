package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Gateway is the realtime board synchronization hub. It accepts websocket
// connections, tracks per-project presence, manages room membership and
// fans mutation events out to collaborators on the same board.
//
// All shared state (transport rooms and the presence registry) is owned by
// the Gateway and guarded by one mutex; broadcasts enqueue onto per
// connection buffered writers under that mutex, so within a room events are
// delivered in the order they were processed. Presence and delivery are
// kept in one process; a multi-process deployment would need an external
// pub/sub backplane, which this gateway deliberately does not implement.
type Gateway struct {
	secret     string
	cookieName string

	mu       sync.Mutex
	presence *PresenceRegistry
	rooms    map[uuid.UUID]map[*conn]struct{}
}

// NewGateway creates a Gateway verifying handshake tokens with the shared
// JWT secret. cookieName selects the handshake cookie; empty means
// DefaultAuthCookie.
func NewGateway(jwtSecret, cookieName string) *Gateway {
	if cookieName == "" {
		cookieName = DefaultAuthCookie
	}
	return &Gateway{
		secret:     jwtSecret,
		cookieName: cookieName,
		presence:   NewPresenceRegistry(),
		rooms:      make(map[uuid.UUID]map[*conn]struct{}),
	}
}

// ServeBoard upgrades the request to a websocket session and runs it until
// the peer disconnects. Authentication failures keep the socket open but
// reject every board operation, so the client gets an explicit error event
// instead of a silent drop.
func (g *Gateway) ServeBoard(w http.ResponseWriter, r *http.Request) {
	identity, authErr := g.authenticate(r)

	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer ws.CloseNow()

	c := newConn(identity)
	c.closeSlow = func() {
		_ = ws.Close(websocket.StatusPolicyViolation, "connection too slow to keep up")
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go c.writePump(ctx, ws)

	if authErr != nil {
		if errors.Is(authErr, ErrNoToken) {
			g.sendError(c, "authentication_required", "no credentials in handshake")
		} else {
			log.Warn().Err(authErr).Msg("realtime: handshake token rejected")
			g.sendError(c, "unauthorized", "invalid or expired token")
		}
	} else {
		log.Debug().
			Stringer("conn_id", c.id).
			Stringer("user_id", identity.UserID).
			Msg("realtime: connection established")
	}

	g.readLoop(ctx, ws, c)
	g.disconnect(c)
}

// readLoop processes inbound frames until the peer closes or errors.
func (g *Gateway) readLoop(ctx context.Context, ws *websocket.Conn, c *conn) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			g.sendError(c, "bad_request", "malformed message")
			continue
		}

		g.dispatch(c, &env)
	}
}

// dispatch routes one client frame by message kind. Mutation kinds relay to
// room peers; anything unknown gets an error event back.
func (g *Gateway) dispatch(c *conn, env *Envelope) {
	switch env.Type {
	case EventJoinRoom:
		g.handleJoin(c, env.ProjectID)
	case EventLeaveRoom:
		g.handleLeave(c, env.ProjectID)
	case EventTaskMoved, EventTaskCreated, EventTaskUpdated, EventTaskDeleted, EventTaskRestored, EventCommentAdded:
		g.handleRelay(c, env)
	case EventUserJoined, EventUserLeft, EventActiveUsers, EventAck, EventError:
		g.sendError(c, "bad_request", "server-only message kind: "+string(env.Type))
	default:
		g.sendError(c, "bad_request", "unknown message kind: "+string(env.Type))
	}
}

// handleJoin adds the connection to the project room, registers its
// presence, notifies peers and replies to the joiner with the full presence
// list so it can render "who's online" immediately.
func (g *Gateway) handleJoin(c *conn, projectID uuid.UUID) {
	if c.identity == nil {
		g.sendError(c, "unauthorized", "join requires authentication")
		return
	}
	if projectID == uuid.Nil {
		g.sendError(c, "bad_request", "project_id is required")
		return
	}

	now := time.Now()
	rec := PresenceRecord{UserID: c.identity.UserID, Name: c.identity.Name, JoinedAt: now}

	g.mu.Lock()
	room, ok := g.rooms[projectID]
	if !ok {
		room = make(map[*conn]struct{})
		g.rooms[projectID] = room
	}
	room[c] = struct{}{}
	g.presence.Add(projectID, c.id, rec)

	g.broadcastLocked(projectID, Event{
		Type:      EventUserJoined,
		ProjectID: projectID,
		Payload:   rec,
		Timestamp: now,
	}, c)

	g.send(c, Event{
		Type:      EventActiveUsers,
		ProjectID: projectID,
		Payload:   g.presence.Snapshot(projectID),
		Timestamp: now,
	})
	g.mu.Unlock()

	log.Debug().
		Stringer("conn_id", c.id).
		Stringer("user_id", rec.UserID).
		Str("room", BoardRoom(projectID)).
		Msg("realtime: joined room")
}

// handleLeave removes the connection from the room, drops its presence
// record (garbage-collecting an emptied room) and notifies remaining peers.
func (g *Gateway) handleLeave(c *conn, projectID uuid.UUID) {
	if c.identity == nil {
		g.sendError(c, "unauthorized", "leave requires authentication")
		return
	}

	g.mu.Lock()
	g.removeFromRoomLocked(c, projectID)
	rec, removed := g.presence.Remove(projectID, c.id)
	if removed {
		g.broadcastLocked(projectID, Event{
			Type:      EventUserLeft,
			ProjectID: projectID,
			Payload:   Actor{UserID: rec.UserID, Name: rec.Name},
			Timestamp: time.Now(),
		}, nil)
	}
	g.mu.Unlock()

	if removed {
		log.Debug().
			Stringer("conn_id", c.id).
			Str("room", BoardRoom(projectID)).
			Msg("realtime: left room")
	}
}

// handleRelay re-emits a client mutation intent to every other connection
// in the room, enriched with the sender's identity and a server timestamp,
// then acks the sender.
func (g *Gateway) handleRelay(c *conn, env *Envelope) {
	if c.identity == nil {
		g.sendError(c, "unauthorized", string(env.Type)+" requires authentication")
		return
	}
	if env.ProjectID == uuid.Nil {
		g.sendError(c, "bad_request", "project_id is required")
		return
	}

	now := time.Now()
	ev := Event{
		Type:      env.Type,
		ProjectID: env.ProjectID,
		Payload:   env.Payload,
		Actor:     &Actor{UserID: c.identity.UserID, Name: c.identity.Name},
		Timestamp: now,
	}

	g.mu.Lock()
	g.broadcastLocked(env.ProjectID, ev, c)
	g.send(c, Event{Type: EventAck, ProjectID: env.ProjectID, Payload: ackPayload{Success: true}, Timestamp: now})
	g.mu.Unlock()
}

// disconnect sweeps every room the connection was part of, as if it had
// left each one explicitly. Handles peers that close without leave-room.
func (g *Gateway) disconnect(c *conn) {
	g.mu.Lock()
	affected := g.presence.RemoveConnection(c.id)
	for _, projectID := range affected {
		g.removeFromRoomLocked(c, projectID)
		g.broadcastLocked(projectID, Event{
			Type:      EventUserLeft,
			ProjectID: projectID,
			Payload:   Actor{UserID: c.identity.UserID, Name: c.identity.Name},
			Timestamp: time.Now(),
		}, nil)
	}
	g.mu.Unlock()

	if len(affected) > 0 {
		log.Debug().
			Stringer("conn_id", c.id).
			Int("rooms", len(affected)).
			Msg("realtime: disconnect cleanup")
	}
}

// removeFromRoomLocked drops the connection from the transport room and
// deletes the room entry when it empties. Caller holds g.mu.
func (g *Gateway) removeFromRoomLocked(c *conn, projectID uuid.UUID) {
	room, ok := g.rooms[projectID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(g.rooms, projectID)
	}
}

// broadcastLocked delivers an event to every connection in the room except
// exclude. An absent or empty room is a no-op. The transport room map is
// ground truth for delivery; the presence registry only answers "who is
// online". Caller holds g.mu.
func (g *Gateway) broadcastLocked(projectID uuid.UUID, ev Event, exclude *conn) {
	room, ok := g.rooms[projectID]
	if !ok {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("type", string(ev.Type)).Msg("realtime: marshal event")
		return
	}

	for member := range room {
		if member == exclude {
			continue
		}
		member.enqueue(data)
	}
}

// send marshals and queues one event to a single connection.
func (g *Gateway) send(c *conn, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("type", string(ev.Type)).Msg("realtime: marshal event")
		return
	}
	c.enqueue(data)
}

func (g *Gateway) sendError(c *conn, code, message string) {
	g.send(c, Event{
		Type:      EventError,
		Payload:   errorPayload{Code: code, Message: message},
		Timestamp: time.Now(),
	})
}
