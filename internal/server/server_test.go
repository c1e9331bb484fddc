package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"chesslink/internal/session"
)

func TestHealthz(t *testing.T) {
	env := setupTestEnv(t, quickConfig())
	resp, err := http.Get(env.ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRoomInfoNotFound(t *testing.T) {
	env := setupTestEnv(t, quickConfig())
	resp, err := http.Get(env.ts.URL + "/api/rooms/nope")
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRoomInfo(t *testing.T) {
	env := setupTestEnv(t, quickConfig())
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	joinRoom(t, ctx, env.ts, "abc123", session.RoleWhite)

	resp, err := http.Get(env.ts.URL + "/api/rooms/abc123")
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var info session.Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.Code != "abc123" || info.Mode != session.ModeInvite || info.Status != session.StatusWaiting {
		t.Fatalf("unexpected info: %+v", info)
	}
	if len(info.Players) != 1 || info.HostID == "" {
		t.Fatalf("expected one seated host, got %+v", info)
	}
}
