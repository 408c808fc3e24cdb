package games

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hongminglow/minigames-be/internal/models"
)

// Secret range for NumberGuess, inclusive.
const (
	MinSecret = 1
	MaxSecret = 100
)

// Hint tells the player where the secret lies relative to a guess.
type Hint int

const (
	TooLow Hint = iota + 1
	TooHigh
	Correct
)

func (h Hint) String() string {
	switch h {
	case TooLow:
		return "too low"
	case TooHigh:
		return "too high"
	case Correct:
		return "correct"
	default:
		return fmt.Sprintf("Hint(%d)", int(h))
	}
}

// NumberGuess is the number guessing game. There is no attempt limit, so the
// only terminal state is a correct guess.
type NumberGuess struct {
	rng      *rand.Rand
	now      func() time.Time
	secret   int
	attempts int
	over     bool
}

// NewNumberGuess starts a game with a secret drawn from rng, or from a
// randomly seeded source when rng is nil.
func NewNumberGuess(rng *rand.Rand) *NumberGuess {
	g := &NumberGuess{rng: newRand(rng), now: time.Now}
	g.Restart()
	return g
}

// Restart draws a new secret and clears the attempt count.
func (g *NumberGuess) Restart() {
	g.secret = MinSecret + g.rng.IntN(MaxSecret-MinSecret+1)
	g.attempts = 0
	g.over = false
}

// Attempts returns how many guesses have been made.
func (g *NumberGuess) Attempts() int { return g.attempts }

// Over reports whether the secret has been found.
func (g *NumberGuess) Over() bool { return g.over }

// Guess counts an attempt and compares n with the secret. The outcome is
// non-nil only for the correct guess.
func (g *NumberGuess) Guess(n int) (Hint, *Outcome, error) {
	if g.over {
		return 0, nil, ErrGameOver
	}
	g.attempts++

	switch {
	case n < g.secret:
		return TooLow, nil, nil
	case n > g.secret:
		return TooHigh, nil, nil
	}

	g.over = true
	return Correct, &Outcome{
		GameType:  models.GameNumberGuessing,
		Score:     g.attempts,
		Result:    models.ResultWin,
		Timestamp: g.now(),
	}, nil
}
