package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"chesslink/internal/server"
	"chesslink/internal/session"
)

func main() {
	turnBudget := flag.Duration("turn-budget", 30*time.Second, "time each side has to move before the turn is skipped")
	missLimit := flag.Int("miss-limit", 3, "consecutive skipped turns that forfeit a match")
	grace := flag.Duration("grace", 2*time.Second, "delay between game over and session teardown")
	flag.Parse()

	addr := ":8080"
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}

	mgr := session.NewManager(session.Config{
		TurnBudget: *turnBudget,
		MissLimit:  *missLimit,
		GraceDelay: *grace,
	})

	// Sweep invite rooms whose host never started the game.
	go mgr.CleanupLoop(1*time.Minute, 1*time.Hour)

	srv := server.New(mgr, session.NewMatchmaker(mgr), session.NewRooms(mgr))

	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		log.Fatalf("server: %v", err)
	}
}
