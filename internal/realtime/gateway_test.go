package realtime_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowboardhq/flowboard/internal/auth"
	"github.com/flowboardhq/flowboard/internal/domain"
	"github.com/flowboardhq/flowboard/internal/realtime"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// wireEvent mirrors the server -> client frame for decoding in tests.
type wireEvent struct {
	Type      realtime.EventType `json:"type"`
	ProjectID uuid.UUID          `json:"project_id"`
	Payload   json.RawMessage    `json:"payload"`
	Actor     *realtime.Actor    `json:"actor"`
	Timestamp time.Time          `json:"ts"`
}

func newGatewayServer(t *testing.T) (*realtime.Gateway, *httptest.Server) {
	t.Helper()
	g := realtime.NewGateway(testSecret, "")
	srv := httptest.NewServer(http.HandlerFunc(g.ServeBoard))
	t.Cleanup(srv.Close)
	return g, srv
}

func issueToken(t *testing.T, name string) (string, uuid.UUID) {
	t.Helper()
	u := &domain.User{ID: uuid.New(), Email: name + "@example.com", Name: name, Role: "member"}
	tok, err := auth.IssueAccessToken(testSecret, u, time.Minute)
	require.NoError(t, err)
	return tok, u.ID
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// dial opens a board socket authenticated via the Authorization header.
// token may be empty for an unauthenticated handshake.
func dial(ctx context.Context, t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	opts := &websocket.DialOptions{}
	if token != "" {
		opts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + token}}
	}

	ws, _, err := websocket.Dial(ctx, wsURL(srv), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.CloseNow() })
	return ws
}

func readEvent(ctx context.Context, t *testing.T, ws *websocket.Conn) wireEvent {
	t.Helper()

	readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, data, err := ws.Read(readCtx)
	require.NoError(t, err)

	var ev wireEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func writeEnvelope(ctx context.Context, t *testing.T, ws *websocket.Conn, env realtime.Envelope) {
	t.Helper()

	data, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, ws.Write(ctx, websocket.MessageText, data))
}

func join(ctx context.Context, t *testing.T, ws *websocket.Conn, projectID uuid.UUID) wireEvent {
	t.Helper()

	writeEnvelope(ctx, t, ws, realtime.Envelope{Type: realtime.EventJoinRoom, ProjectID: projectID})
	ev := readEvent(ctx, t, ws)
	require.Equal(t, realtime.EventActiveUsers, ev.Type, "join should be answered with the presence snapshot")
	return ev
}

func TestJoinDeliversPresenceSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	g, srv := newGatewayServer(t)
	project := uuid.New()

	aliceTok, aliceID := issueToken(t, "alice")
	alice := dial(ctx, t, srv, aliceTok)

	snapshot := join(ctx, t, alice, project)
	var records []realtime.PresenceRecord
	require.NoError(t, json.Unmarshal(snapshot.Payload, &records))
	require.Len(t, records, 1)
	assert.Equal(t, aliceID, records[0].UserID)
	assert.Equal(t, "alice", records[0].Name)

	// Second participant: alice is told, bob's snapshot holds both.
	bobTok, bobID := issueToken(t, "bob")
	bob := dial(ctx, t, srv, bobTok)

	snapshot = join(ctx, t, bob, project)
	require.NoError(t, json.Unmarshal(snapshot.Payload, &records))
	assert.Len(t, records, 2)

	joined := readEvent(ctx, t, alice)
	assert.Equal(t, realtime.EventUserJoined, joined.Type)
	assert.Equal(t, project, joined.ProjectID)
	var rec realtime.PresenceRecord
	require.NoError(t, json.Unmarshal(joined.Payload, &rec))
	assert.Equal(t, bobID, rec.UserID)

	assert.Equal(t, 2, g.ActiveUsersCount(project))
}

func TestRelayReachesPeersNotSender(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, srv := newGatewayServer(t)
	project := uuid.New()

	aliceTok, aliceID := issueToken(t, "alice")
	alice := dial(ctx, t, srv, aliceTok)
	join(ctx, t, alice, project)

	bobTok, _ := issueToken(t, "bob")
	bob := dial(ctx, t, srv, bobTok)
	join(ctx, t, bob, project)
	readEvent(ctx, t, alice) // bob's user_joined

	payload, err := json.Marshal(realtime.TaskMovedPayload{
		TaskID:       uuid.New(),
		FromColumnID: uuid.New(),
		ToColumnID:   uuid.New(),
		NewPosition:  3,
	})
	require.NoError(t, err)

	writeEnvelope(ctx, t, alice, realtime.Envelope{
		Type:      realtime.EventTaskMoved,
		ProjectID: project,
		Payload:   payload,
	})

	// Sender gets an ack, not its own event back.
	ack := readEvent(ctx, t, alice)
	assert.Equal(t, realtime.EventAck, ack.Type)
	assert.JSONEq(t, `{"success":true}`, string(ack.Payload))

	// Peer gets the event enriched with the sender's identity and a
	// server timestamp.
	got := readEvent(ctx, t, bob)
	assert.Equal(t, realtime.EventTaskMoved, got.Type)
	assert.Equal(t, project, got.ProjectID)
	assert.JSONEq(t, string(payload), string(got.Payload))
	require.NotNil(t, got.Actor)
	assert.Equal(t, aliceID, got.Actor.UserID)
	assert.Equal(t, "alice", got.Actor.Name)
	assert.False(t, got.Timestamp.IsZero())
}

func TestRelayDoesNotCrossRooms(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	g, srv := newGatewayServer(t)
	projectA := uuid.New()
	projectB := uuid.New()

	aliceTok, _ := issueToken(t, "alice")
	alice := dial(ctx, t, srv, aliceTok)
	join(ctx, t, alice, projectA)

	bobTok, _ := issueToken(t, "bob")
	bob := dial(ctx, t, srv, bobTok)
	join(ctx, t, bob, projectB)

	writeEnvelope(ctx, t, alice, realtime.Envelope{
		Type:      realtime.EventTaskCreated,
		ProjectID: projectA,
		Payload:   json.RawMessage(`{"title":"secret"}`),
	})
	readEvent(ctx, t, alice) // ack

	// Flush a marker through bob's room: it must be the first thing bob
	// sees, proving alice's event never crossed over.
	g.BroadcastTaskUpdated(projectB, realtime.TaskUpdatedPayload{
		TaskID:        uuid.New(),
		ChangedFields: map[string]any{"title": "marker"},
	}, realtime.Actor{UserID: uuid.New(), Name: "system"})

	got := readEvent(ctx, t, bob)
	assert.Equal(t, realtime.EventTaskUpdated, got.Type)
	assert.Equal(t, projectB, got.ProjectID)
}

func TestServerBroadcastReachesWholeRoom(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	g, srv := newGatewayServer(t)
	project := uuid.New()

	aliceTok, aliceID := issueToken(t, "alice")
	alice := dial(ctx, t, srv, aliceTok)
	join(ctx, t, alice, project)

	bobTok, _ := issueToken(t, "bob")
	bob := dial(ctx, t, srv, bobTok)
	join(ctx, t, bob, project)
	readEvent(ctx, t, alice) // bob's user_joined

	taskID := uuid.New()
	g.BroadcastTaskCreated(project, realtime.TaskCreatedPayload{
		TaskID:   taskID,
		ColumnID: uuid.New(),
		Title:    "write the report",
		Priority: "high",
	}, realtime.Actor{UserID: aliceID, Name: "alice"})

	// REST-originated events have no socket sender: every connection in
	// the room receives them, the actor's own tabs included.
	for _, ws := range []*websocket.Conn{alice, bob} {
		got := readEvent(ctx, t, ws)
		assert.Equal(t, realtime.EventTaskCreated, got.Type)
		require.NotNil(t, got.Actor)
		assert.Equal(t, aliceID, got.Actor.UserID)

		var p realtime.TaskCreatedPayload
		require.NoError(t, json.Unmarshal(got.Payload, &p))
		assert.Equal(t, taskID, p.TaskID)
		assert.Equal(t, "write the report", p.Title)
	}
}

func TestBroadcastToEmptyRoomIsNoOp(t *testing.T) {
	t.Parallel()

	g, _ := newGatewayServer(t)

	// Must not panic or error with nobody connected.
	g.BroadcastTaskDeleted(uuid.New(), realtime.TaskDeletedPayload{
		TaskID:   uuid.New(),
		ColumnID: uuid.New(),
	}, realtime.Actor{UserID: uuid.New(), Name: "alice"})

	assert.Empty(t, g.ActiveRooms())
}

func TestLeaveRoomNotifiesPeers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	g, srv := newGatewayServer(t)
	project := uuid.New()

	aliceTok, _ := issueToken(t, "alice")
	alice := dial(ctx, t, srv, aliceTok)
	join(ctx, t, alice, project)

	bobTok, bobID := issueToken(t, "bob")
	bob := dial(ctx, t, srv, bobTok)
	join(ctx, t, bob, project)
	readEvent(ctx, t, alice) // bob's user_joined

	writeEnvelope(ctx, t, bob, realtime.Envelope{Type: realtime.EventLeaveRoom, ProjectID: project})

	left := readEvent(ctx, t, alice)
	assert.Equal(t, realtime.EventUserLeft, left.Type)
	var actor realtime.Actor
	require.NoError(t, json.Unmarshal(left.Payload, &actor))
	assert.Equal(t, bobID, actor.UserID)

	require.Eventually(t, func() bool {
		return g.ActiveUsersCount(project) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDisconnectSweepsRooms(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	g, srv := newGatewayServer(t)
	project := uuid.New()

	aliceTok, _ := issueToken(t, "alice")
	alice := dial(ctx, t, srv, aliceTok)
	join(ctx, t, alice, project)

	bobTok, bobID := issueToken(t, "bob")
	bob := dial(ctx, t, srv, bobTok)
	join(ctx, t, bob, project)
	readEvent(ctx, t, alice) // bob's user_joined

	// Close the transport without a leave_room frame, like a crashed tab.
	require.NoError(t, bob.Close(websocket.StatusNormalClosure, ""))

	left := readEvent(ctx, t, alice)
	assert.Equal(t, realtime.EventUserLeft, left.Type)
	var actor realtime.Actor
	require.NoError(t, json.Unmarshal(left.Payload, &actor))
	assert.Equal(t, bobID, actor.UserID)

	require.Eventually(t, func() bool {
		return g.ActiveUsersCount(project) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSameUserTwoTabs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	g, srv := newGatewayServer(t)
	project := uuid.New()

	tok, _ := issueToken(t, "alice")
	tab1 := dial(ctx, t, srv, tok)
	join(ctx, t, tab1, project)
	tab2 := dial(ctx, t, srv, tok)
	join(ctx, t, tab2, project)
	readEvent(ctx, t, tab1) // tab2's user_joined

	// Two connections, two presence records.
	assert.Equal(t, 2, g.ActiveUsersCount(project))

	// Closing one tab leaves the other's presence intact.
	require.NoError(t, closeNormally(tab2))
	readEvent(ctx, t, tab1) // tab2's user_left

	require.Eventually(t, func() bool {
		return g.ActiveUsersCount(project) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func closeNormally(ws *websocket.Conn) error {
	return ws.Close(websocket.StatusNormalClosure, "")
}

func TestUnauthenticatedHandshake(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	g, srv := newGatewayServer(t)

	// No credentials: the socket opens but immediately reports the problem.
	ws := dial(ctx, t, srv, "")

	ev := readEvent(ctx, t, ws)
	assert.Equal(t, realtime.EventError, ev.Type)
	assert.Contains(t, string(ev.Payload), "authentication_required")

	// Every board operation on the unauthenticated socket is refused.
	writeEnvelope(ctx, t, ws, realtime.Envelope{Type: realtime.EventJoinRoom, ProjectID: uuid.New()})
	ev = readEvent(ctx, t, ws)
	assert.Equal(t, realtime.EventError, ev.Type)
	assert.Contains(t, string(ev.Payload), "unauthorized")

	writeEnvelope(ctx, t, ws, realtime.Envelope{
		Type:      realtime.EventTaskMoved,
		ProjectID: uuid.New(),
		Payload:   json.RawMessage(`{}`),
	})
	ev = readEvent(ctx, t, ws)
	assert.Equal(t, realtime.EventError, ev.Type)

	assert.Empty(t, g.ActiveRooms())
}

func TestInvalidTokenHandshake(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, srv := newGatewayServer(t)

	ws := dial(ctx, t, srv, "not-a-jwt")

	ev := readEvent(ctx, t, ws)
	assert.Equal(t, realtime.EventError, ev.Type)
	assert.Contains(t, string(ev.Payload), "unauthorized")
}

func TestExpiredTokenHandshake(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, srv := newGatewayServer(t)

	u := &domain.User{ID: uuid.New(), Email: "old@example.com", Name: "old", Role: "member"}
	tok, err := auth.IssueAccessToken(testSecret, u, -time.Minute)
	require.NoError(t, err)

	ws := dial(ctx, t, srv, tok)

	ev := readEvent(ctx, t, ws)
	assert.Equal(t, realtime.EventError, ev.Type)
	assert.Contains(t, string(ev.Payload), "unauthorized")
}

func TestCookieHandshake(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, srv := newGatewayServer(t)
	project := uuid.New()

	tok, _ := issueToken(t, "alice")
	ws, _, err := websocket.Dial(ctx, wsURL(srv), &websocket.DialOptions{
		HTTPHeader: http.Header{"Cookie": []string{realtime.DefaultAuthCookie + "=" + tok}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.CloseNow() })

	join(ctx, t, ws, project)
}

func TestQueryParamHandshake(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, srv := newGatewayServer(t)
	project := uuid.New()

	tok, _ := issueToken(t, "alice")
	ws, _, err := websocket.Dial(ctx, wsURL(srv)+"?token="+tok, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.CloseNow() })

	join(ctx, t, ws, project)
}

func TestRejectsBadFrames(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, srv := newGatewayServer(t)

	tok, _ := issueToken(t, "alice")
	ws := dial(ctx, t, srv, tok)

	// Malformed JSON.
	require.NoError(t, ws.Write(ctx, websocket.MessageText, []byte("{nope")))
	ev := readEvent(ctx, t, ws)
	assert.Equal(t, realtime.EventError, ev.Type)
	assert.Contains(t, string(ev.Payload), "malformed")

	// Unknown kind.
	writeEnvelope(ctx, t, ws, realtime.Envelope{Type: "reticulate_splines", ProjectID: uuid.New()})
	ev = readEvent(ctx, t, ws)
	assert.Equal(t, realtime.EventError, ev.Type)
	assert.Contains(t, string(ev.Payload), "unknown message kind")

	// Server-only kind from a client.
	writeEnvelope(ctx, t, ws, realtime.Envelope{Type: realtime.EventActiveUsers, ProjectID: uuid.New()})
	ev = readEvent(ctx, t, ws)
	assert.Equal(t, realtime.EventError, ev.Type)
	assert.Contains(t, string(ev.Payload), "server-only")

	// Missing project ID on a relay.
	writeEnvelope(ctx, t, ws, realtime.Envelope{Type: realtime.EventTaskMoved})
	ev = readEvent(ctx, t, ws)
	assert.Equal(t, realtime.EventError, ev.Type)
	assert.Contains(t, string(ev.Payload), "project_id is required")
}
