package server

import (
	"encoding/json"
	"net/http"

	"chesslink/internal/session"
)

// Server is the HTTP server: a small JSON API plus the WebSocket entry
// points for matchmaking and invite rooms.
type Server struct {
	mux     *http.ServeMux
	manager *session.Manager
	queue   *session.Matchmaker
	rooms   *session.Rooms
}

// New creates a server with all routes.
func New(manager *session.Manager, queue *session.Matchmaker, rooms *session.Rooms) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		manager: manager,
		queue:   queue,
		rooms:   rooms,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/rooms/{code}", s.handleRoomInfo)
	s.mux.HandleFunc("GET /ws/match", s.handleMatchSocket)
	s.mux.HandleFunc("GET /ws/rooms/{code}", s.handleRoomSocket)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRoomInfo(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	sess, ok := s.manager.Get(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
