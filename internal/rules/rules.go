// Package rules wraps the notnil/chess engine behind the small set of
// primitives the match core needs: legal-move application, terminal-state
// queries, and an administrative active-side override used for skipped
// turns. The engine is the sole authority on legality; nothing here
// re-implements chess rules.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// ErrIllegalMove is returned by Apply when the engine rejects a move.
var ErrIllegalMove = errors.New("illegal move")

// Side identifies one of the two players, using FEN color letters.
type Side string

const (
	SideWhite Side = "w"
	SideBlack Side = "b"
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == SideWhite {
		return SideBlack
	}
	return SideWhite
}

// Move is a move intent in coordinate form, e.g. {From: "e2", To: "e4"}.
// Promotion is the lowercase piece letter ("q", "r", "b", "n") or empty.
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// UCI returns the move in UCI notation ("e2e4", "e7e8q").
func (m Move) UCI() string {
	return strings.ToLower(m.From + m.To + m.Promotion)
}

// Position is an immutable board position. Apply and WithActiveSide return
// new positions and never mutate the receiver.
type Position struct {
	game *chess.Game
}

// NewPosition returns the standard chess starting position.
func NewPosition() *Position {
	return &Position{game: chess.NewGame(chess.UseNotation(chess.UCINotation{}))}
}

// FromFEN parses a FEN string into a position.
func FromFEN(fen string) (*Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}
	return &Position{game: chess.NewGame(opt, chess.UseNotation(chess.UCINotation{}))}, nil
}

// FEN serializes the position.
func (p *Position) FEN() string {
	return p.game.Position().String()
}

// ActiveSide returns the side to move.
func (p *Position) ActiveSide() Side {
	return Side(p.game.Position().Turn().String())
}

// Apply plays a move and returns the resulting position. The receiver is
// left untouched; ErrIllegalMove is returned when the engine rejects the
// move or the intent is malformed.
func (p *Position) Apply(m Move) (*Position, error) {
	if len(m.From) != 2 || len(m.To) != 2 {
		return nil, ErrIllegalMove
	}
	next := p.game.Clone()
	if err := next.MoveStr(m.UCI()); err != nil {
		return nil, ErrIllegalMove
	}
	return &Position{game: next}, nil
}

// WithActiveSide returns the same material with the side to move overridden.
// This is an administrative operation for skipped turns, not a move: the
// en passant square is cleared and no check or mate evaluation happens as
// part of the override.
func (p *Position) WithActiveSide(s Side) (*Position, error) {
	fields := strings.Fields(p.FEN())
	if len(fields) != 6 {
		return nil, fmt.Errorf("malformed fen %q", p.FEN())
	}
	fields[1] = string(s)
	fields[3] = "-"
	return FromFEN(strings.Join(fields, " "))
}

// IsCheckmate reports whether the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.game.Position().Status() == chess.Checkmate
}

// IsDraw reports whether the position is drawn: stalemate, insufficient
// material, fivefold repetition, or the seventy-five move rule.
func (p *Position) IsDraw() bool {
	if p.game.Position().Status() == chess.Stalemate {
		return true
	}
	return p.game.Outcome() == chess.Draw
}
