package games

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/hongminglow/minigames-be/internal/models"
)

// Choice is a rock-paper-scissors hand.
type Choice string

const (
	Rock     Choice = "rock"
	Paper    Choice = "paper"
	Scissors Choice = "scissors"
)

// Choices lists the hands in menu order.
var Choices = []Choice{Rock, Paper, Scissors}

// beats maps each hand to the hand it defeats.
var beats = map[Choice]Choice{
	Rock:     Scissors,
	Scissors: Paper,
	Paper:    Rock,
}

// ParseChoice accepts a hand name or its first letter, case-insensitively.
func ParseChoice(s string) (Choice, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Choices {
		if s == string(c) || (len(s) == 1 && s[0] == c[0]) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown choice %q", ErrInvalidMove, s)
}

// RandomChoice picks a hand uniformly.
func RandomChoice(rng *rand.Rand) Choice {
	return Choices[newRand(rng).IntN(len(Choices))]
}

// Side is who took a round.
type Side int

const (
	SideTie Side = iota
	SidePlayer
	SideComputer
)

// Winner applies the payoff matrix to one round.
func Winner(player, computer Choice) Side {
	switch {
	case player == computer:
		return SideTie
	case beats[player] == computer:
		return SidePlayer
	default:
		return SideComputer
	}
}

// Round is one played hand pair.
type Round struct {
	Player   Choice
	Computer Choice
	Winner   Side
}

// RockPaperScissors keeps a running tally across rounds. Every round is a
// finished game on its own.
type RockPaperScissors struct {
	PlayerWins   int
	ComputerWins int
	Ties         int
	History      []Round
	now          func() time.Time
}

// NewRockPaperScissors returns a game with an empty tally.
func NewRockPaperScissors() *RockPaperScissors {
	return &RockPaperScissors{now: time.Now}
}

// Play scores one round. The outcome score is the player's cumulative win
// count after this round; the result reflects this round only.
func (g *RockPaperScissors) Play(player, computer Choice) (Round, Outcome, error) {
	if _, ok := beats[player]; !ok {
		return Round{}, Outcome{}, fmt.Errorf("%w: unknown choice %q", ErrInvalidMove, player)
	}
	if _, ok := beats[computer]; !ok {
		return Round{}, Outcome{}, fmt.Errorf("%w: unknown choice %q", ErrInvalidMove, computer)
	}

	round := Round{Player: player, Computer: computer, Winner: Winner(player, computer)}
	result := models.ResultTie
	switch round.Winner {
	case SidePlayer:
		g.PlayerWins++
		result = models.ResultWin
	case SideComputer:
		g.ComputerWins++
		result = models.ResultLoss
	default:
		g.Ties++
	}
	g.History = append(g.History, round)

	return round, Outcome{
		GameType:  models.GameRockPaperScissors,
		Score:     g.PlayerWins,
		Result:    result,
		Timestamp: g.now(),
	}, nil
}

// Reset clears the tally and history.
func (g *RockPaperScissors) Reset() {
	g.PlayerWins, g.ComputerWins, g.Ties = 0, 0, 0
	g.History = nil
}
