package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"chesslink/internal/rules"
	"chesslink/internal/session"
)

// The gateway binds each WebSocket connection to at most one session and
// role, routes inbound intents to the bound session (or the matchmaker /
// room front while unbound), and drives the writer goroutine that fans
// session events back out. A connection's transport close is its
// disconnect; there is no reconnect with state recovery.

func (s *Server) handleMatchSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		log.Printf("websocket accept: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	p := session.NewParticipant(uuid.NewString())
	go writeLoop(ctx, conn, p)

	s.queue.Enqueue(p)
	s.readLoop(ctx, conn, p)

	// Transport closed. Either the connection was still waiting in the
	// queue, or it is bound to a session by now; pairing binds before the
	// queue lock is released, so exactly one branch applies.
	if s.queue.Remove(p.ID) {
		return
	}
	if sess := p.Session(); sess != nil {
		sess.Disconnect(p)
	}
}

func (s *Server) handleRoomSocket(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		http.Error(w, "room code required", http.StatusBadRequest)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		log.Printf("websocket accept: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	p := session.NewParticipant(uuid.NewString())
	go writeLoop(ctx, conn, p)

	s.rooms.Join(code, p)
	s.readLoop(ctx, conn, p)

	if sess := p.Session(); sess != nil {
		sess.Disconnect(p)
	}
}

// writeLoop copies queued session messages to the socket. It ends when the
// send channel closes (session destroyed) or a write fails, closing the
// socket either way so the reader unblocks.
func writeLoop(ctx context.Context, conn *websocket.Conn, p *session.Participant) {
	for msg := range p.Send {
		if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
			return
		}
	}
	conn.Close(websocket.StatusNormalClosure, "game over")
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, p *session.Participant) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var msg session.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			p.Notify("error", session.ErrorPayload{Message: "invalid message"})
			continue
		}
		s.handleMessage(p, msg)
	}
}

func (s *Server) handleMessage(p *session.Participant, msg session.Message) {
	switch msg.Type {
	case "move":
		var mv rules.Move
		if err := json.Unmarshal(msg.Payload, &mv); err != nil {
			p.Notify("error", session.ErrorPayload{Message: "invalid move payload"})
			return
		}
		sess := p.Session()
		if sess == nil {
			p.Notify("error", session.ErrorPayload{Message: "not in a game"})
			return
		}
		sess.SubmitMove(p, mv)

	case "start":
		sess := p.Session()
		if sess == nil {
			p.Notify("error", session.ErrorPayload{Message: "not in a game"})
			return
		}
		if err := sess.Start(p); err != nil {
			p.Notify("error", session.ErrorPayload{Message: err.Error()})
		}

	case "time_up":
		// Clients may report their clock hitting zero, but the server's
		// turn clock is authoritative; the skip happens on expiry here
		// regardless of what the client saw.

	default:
		p.Notify("error", session.ErrorPayload{Message: "unknown message type: " + msg.Type})
	}
}
