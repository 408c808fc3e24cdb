package games

import (
	"fmt"
	"time"

	"github.com/hongminglow/minigames-be/internal/models"
)

// Mark is the content of a board cell.
type Mark uint8

const (
	Empty Mark = iota
	X
	O
)

func (m Mark) String() string {
	switch m {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return " "
	}
}

// Board is a 3x3 grid in row-major order.
type Board [9]Mark

// Full reports whether no cell is empty.
func (b Board) Full() bool {
	for _, m := range b {
		if m == Empty {
			return false
		}
	}
	return true
}

// BoardState classifies a board.
type BoardState int

const (
	InProgress BoardState = iota
	Won
	Tie
)

// lines are the rows, columns and diagonals that win.
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// CheckWinner returns the winning mark and Won when a line holds three equal
// marks, Tie for a full board without one, and InProgress otherwise.
func CheckWinner(b Board) (Mark, BoardState) {
	for _, l := range lines {
		if m := b[l[0]]; m != Empty && m == b[l[1]] && m == b[l[2]] {
			return m, Won
		}
	}
	if b.Full() {
		return Empty, Tie
	}
	return Empty, InProgress
}

// TicTacToe is a two-player game on one board, X moving first. Outcomes are
// reported from X's side. Tallies survive Reset.
type TicTacToe struct {
	board  Board
	turn   Mark
	winner Mark
	state  BoardState
	now    func() time.Time

	XWins int
	OWins int
	Ties  int
}

// NewTicTacToe returns an empty board with X to move.
func NewTicTacToe() *TicTacToe {
	return &TicTacToe{turn: X, now: time.Now}
}

// Board returns a copy of the grid.
func (g *TicTacToe) Board() Board { return g.board }

// Turn returns the mark that moves next.
func (g *TicTacToe) Turn() Mark { return g.turn }

// State returns the current board state and, when Won, the winner.
func (g *TicTacToe) State() (Mark, BoardState) { return g.winner, g.state }

// Move places the current player's mark on cell 0..8. The outcome is non-nil
// once the move ends the game.
func (g *TicTacToe) Move(cell int) (BoardState, *Outcome, error) {
	if g.state != InProgress {
		return g.state, nil, ErrGameOver
	}
	if cell < 0 || cell >= len(g.board) {
		return g.state, nil, fmt.Errorf("%w: cell %d out of range", ErrInvalidMove, cell)
	}
	if g.board[cell] != Empty {
		return g.state, nil, fmt.Errorf("%w: cell %d is taken", ErrInvalidMove, cell)
	}

	g.board[cell] = g.turn
	g.winner, g.state = CheckWinner(g.board)

	switch g.state {
	case InProgress:
		if g.turn == X {
			g.turn = O
		} else {
			g.turn = X
		}
		return g.state, nil, nil
	case Tie:
		g.Ties++
		return g.state, g.outcome(0, models.ResultTie), nil
	}

	if g.winner == X {
		g.XWins++
		return g.state, g.outcome(1, models.ResultWin), nil
	}
	g.OWins++
	return g.state, g.outcome(0, models.ResultLoss), nil
}

func (g *TicTacToe) outcome(score int, result models.Result) *Outcome {
	return &Outcome{
		GameType:  models.GameTicTacToe,
		Score:     score,
		Result:    result,
		Timestamp: g.now(),
	}
}

// Reset clears the board for a new game, X to move.
func (g *TicTacToe) Reset() {
	g.board = Board{}
	g.turn = X
	g.winner = Empty
	g.state = InProgress
}

// ResetScore clears the board and the tallies.
func (g *TicTacToe) ResetScore() {
	g.Reset()
	g.XWins, g.OWins, g.Ties = 0, 0, 0
}
