// Package games holds the rule engines for the four playable games. Engines
// are single-player, in-process state machines; each one reports a finished
// game as an Outcome that clients forward to the history API.
package games

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/hongminglow/minigames-be/internal/models"
)

var (
	// ErrGameOver is returned for moves made after a terminal state.
	ErrGameOver = errors.New("game is over")
	// ErrInvalidMove is returned for moves the rules do not allow.
	ErrInvalidMove = errors.New("invalid move")
)

// Outcome is the terminal result of one game, shared by every engine.
type Outcome struct {
	GameType  models.GameType
	Score     int
	Result    models.Result
	Timestamp time.Time
}

func newRand(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
