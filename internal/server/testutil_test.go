package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"chesslink/internal/rules"
	"chesslink/internal/session"
)

// --- Test environment ---

type testEnv struct {
	ts  *httptest.Server
	mgr *session.Manager
}

func setupTestEnv(t *testing.T, cfg session.Config) *testEnv {
	t.Helper()
	mgr := session.NewManager(cfg)
	srv := New(mgr, session.NewMatchmaker(mgr), session.NewRooms(mgr))
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, mgr: mgr}
}

func quickConfig() session.Config {
	return session.Config{
		TurnBudget: time.Hour, // clock effectively off unless a test lowers it
		MissLimit:  3,
		GraceDelay: 20 * time.Millisecond,
	}
}

// --- Context helpers ---

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- WebSocket helpers ---

func matchURL(ts *httptest.Server) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/ws/match"
}

func roomURL(ts *httptest.Server, code string) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/ws/rooms/" + code
}

func wsDial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("ws dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

// wsSend marshals and writes a typed message, calling t.Fatal on error.
func wsSend(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal %s payload: %v", msgType, err)
		}
		raw = data
	}
	data, err := json.Marshal(session.Message{Type: msgType, Payload: raw})
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("ws write: %v", err)
	}
}

// wsRead reads and unmarshals the next message, calling t.Fatal on error.
func wsRead(t *testing.T, ctx context.Context, conn *websocket.Conn) session.Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	var msg session.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	return msg
}

// expect reads the next message and fails unless it has the wanted type,
// decoding its payload into v when v is non-nil.
func expect(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, v any) {
	t.Helper()
	msg := wsRead(t, ctx, conn)
	if msg.Type != msgType {
		t.Fatalf("expected %q message, got %q: %s", msgType, msg.Type, string(msg.Payload))
	}
	if v != nil {
		if err := json.Unmarshal(msg.Payload, v); err != nil {
			t.Fatalf("decode %s payload: %v", msgType, err)
		}
	}
}

// readUntil skips messages until one of the wanted type arrives.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, v any) {
	t.Helper()
	for {
		msg := wsRead(t, ctx, conn)
		if msg.Type != msgType {
			continue
		}
		if v != nil {
			if err := json.Unmarshal(msg.Payload, v); err != nil {
				t.Fatalf("decode %s payload: %v", msgType, err)
			}
		}
		return
	}
}

// --- Game helpers ---

func moveMsg(from, to string) rules.Move {
	return rules.Move{From: from, To: to}
}

// joinRoom dials a room socket and confirms the assigned role.
func joinRoom(t *testing.T, ctx context.Context, ts *httptest.Server, code string, wantRole session.Role) *websocket.Conn {
	t.Helper()
	conn := wsDial(t, ctx, roomURL(ts, code))
	var role session.RolePayload
	expect(t, ctx, conn, "role", &role)
	if role.Role != wantRole {
		t.Fatalf("role = %q, want %q", role.Role, wantRole)
	}
	return conn
}
