package entity

import (
	"fmt"
	"time"

	"github.com/playgrid/tictactoe-arena/internal/apperror"
)

const (
	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = ""

	boardSize = 9
)

// WinCombos are the 8 winning lines of a 3x3 board in canonical scan
// order: rows, columns, diagonals. The first matching line wins.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Players records which display name holds each mark. An empty string
// means the slot is unclaimed.
type Players struct {
	X string `json:"X,omitempty"`
	O string `json:"O,omitempty"`
}

// Game is one game instance. The registry owns the canonical copy;
// everything else works on clones and moves are applied functionally,
// never in place.
type Game struct {
	ID        string    `json:"id"`
	Board     [9]string `json:"board"`
	Turn      string    `json:"currentPlayer"`
	CreatedAt time.Time `json:"createdAt"`
	Players   *Players  `json:"players,omitempty"`
}

// NewGame - returns a fresh game with an empty board and X to move.
func NewGame(id string) *Game {
	return &Game{
		ID:        id,
		Board:     [9]string{},
		Turn:      PlayerX,
		CreatedAt: time.Now(),
	}
}

// Clone - deep-copies the game so callers can never alias the
// registry's canonical state.
func (that *Game) Clone() *Game {
	cloned := *that
	if that.Players != nil {
		players := *that.Players
		cloned.Players = &players
	}

	return &cloned
}

// ApplyMove - validates and applies a move for the current player,
// returning a new game state with the cell set and the turn flipped.
// The receiver is never mutated.
func (that *Game) ApplyMove(position int) (*Game, error) {
	if position < 0 || position >= boardSize {
		return nil, fmt.Errorf("%w: got %d", apperror.ErrInvalidPosition, position)
	}

	if that.Board[position] != EmptyCell {
		return nil, fmt.Errorf("%w: position %d", apperror.ErrCellOccupied, position)
	}

	if that.IsFinished() {
		return nil, apperror.ErrGameOver
	}

	next := that.Clone()
	next.Board[position] = that.Turn

	if that.Turn == PlayerX {
		next.Turn = PlayerO
	} else {
		next.Turn = PlayerX
	}

	return next, nil
}

// Winner - returns the mark occupying a complete line, or EmptyCell
// when no line is complete. A full board with no line is a tie and is
// up to the caller to detect via IsBoardFull.
func (that *Game) Winner() string {
	for _, combo := range WinCombos {
		a, b, c := that.Board[combo[0]], that.Board[combo[1]], that.Board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}

func (that *Game) IsBoardFull() bool {
	for _, cell := range that.Board {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// IsFinished - reports whether the game is terminal: a winning line
// exists or the board is fully occupied. Terminal games accept no
// further moves.
func (that *Game) IsFinished() bool {
	return that.Winner() != EmptyCell || that.IsBoardFull()
}
