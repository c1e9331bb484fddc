package server

import (
	"testing"
	"time"

	"chesslink/internal/rules"
	"chesslink/internal/session"
)

// Plays a full game over live sockets through to checkmate and checks both
// clients converge on the same single terminal outcome.
func TestIntegrationCheckmate(t *testing.T) {
	env := setupTestEnv(t, quickConfig())
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	x := joinRoom(t, ctx, env.ts, "match1", session.RoleWhite)
	y := joinRoom(t, ctx, env.ts, "match1", session.RoleBlack)
	wsSend(t, ctx, x, "start", nil)
	readUntil(t, ctx, x, "position", nil)
	readUntil(t, ctx, y, "position", nil)

	// Fool's mate.
	for i, mv := range []rules.Move{
		{From: "f2", To: "f3"},
		{From: "e7", To: "e5"},
		{From: "g2", To: "g4"},
		{From: "d8", To: "h4"},
	} {
		conn := x
		if i%2 == 1 {
			conn = y
		}
		wsSend(t, ctx, conn, "move", mv)
		readUntil(t, ctx, x, "position", nil)
		readUntil(t, ctx, y, "position", nil)
	}

	var overX, overY session.GameOverPayload
	readUntil(t, ctx, x, "game_over", &overX)
	readUntil(t, ctx, y, "game_over", &overY)
	if overX != overY {
		t.Fatalf("clients diverge: %+v vs %+v", overX, overY)
	}
	if overX.Winner != rules.SideBlack || overX.Reason != session.ReasonCheckmate {
		t.Fatalf("game_over payload: %+v", overX)
	}

	// The room is torn down after the grace delay.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := env.mgr.Get("match1"); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("finished session was not destroyed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Nobody moves: the server clock skips turns and eventually forfeits the
// match against the side that kept missing.
func TestIntegrationClockForfeit(t *testing.T) {
	cfg := quickConfig()
	cfg.TurnBudget = 25 * time.Millisecond
	env := setupTestEnv(t, cfg)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	x := joinRoom(t, ctx, env.ts, "slow", session.RoleWhite)
	y := joinRoom(t, ctx, env.ts, "slow", session.RoleBlack)
	wsSend(t, ctx, x, "start", nil)

	var skip session.TurnSkippedPayload
	readUntil(t, ctx, y, "turn_skipped", &skip)
	if skip.Skipped != rules.SideWhite || skip.Next != rules.SideBlack {
		t.Fatalf("first skip: %+v", skip)
	}

	var over session.GameOverPayload
	readUntil(t, ctx, y, "game_over", &over)
	if over.Reason != session.ReasonTimeout || over.Winner != rules.SideBlack {
		t.Fatalf("game_over payload: %+v", over)
	}
}
