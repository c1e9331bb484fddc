package session

import (
	"encoding/json"

	"chesslink/internal/rules"
)

// Message is the JSON envelope for everything sent over a connection.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Outbound payloads, fanned out to the connections bound to a session.

type RolePayload struct {
	Role Role `json:"role"`
}

type PositionPayload struct {
	FEN  string     `json:"fen"`
	Turn rules.Side `json:"turn"`
}

type MoveAppliedPayload struct {
	From      string     `json:"from"`
	To        string     `json:"to"`
	Promotion string     `json:"promotion,omitempty"`
	By        rules.Side `json:"by"`
}

type TurnSkippedPayload struct {
	Skipped rules.Side `json:"skipped"`
	Next    rules.Side `json:"next"`
}

type GameOverPayload struct {
	Winner rules.Side `json:"winner,omitempty"` // empty on draw
	Reason string     `json:"reason"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Encode marshals a typed message into its wire form.
func Encode(msgType string, payload any) []byte {
	var raw json.RawMessage
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	data, _ := json.Marshal(Message{Type: msgType, Payload: raw})
	return data
}
