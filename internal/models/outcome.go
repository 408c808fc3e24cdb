package models

import "time"

// GameType names one of the playable games.
type GameType string

const (
	GameNumberGuessing    GameType = "number-guessing"
	GameRockPaperScissors GameType = "rock-paper-scissors"
	GameTicTacToe         GameType = "tic-tac-toe"
	GameReactionTime      GameType = "reaction-time"
)

// GameTypes lists every supported game in display order.
var GameTypes = []GameType{
	GameNumberGuessing,
	GameRockPaperScissors,
	GameTicTacToe,
	GameReactionTime,
}

// Valid reports whether g is one of the known games.
func (g GameType) Valid() bool {
	for _, known := range GameTypes {
		if g == known {
			return true
		}
	}
	return false
}

// Result labels how a finished game ended for the player.
type Result string

const (
	ResultWin       Result = "win"
	ResultLoss      Result = "loss"
	ResultTie       Result = "tie"
	ResultCompleted Result = "completed"
)

// Results lists every result label.
var Results = []Result{ResultWin, ResultLoss, ResultTie, ResultCompleted}

// Valid reports whether r is one of the known result labels.
func (r Result) Valid() bool {
	for _, known := range Results {
		if r == known {
			return true
		}
	}
	return false
}

// Outcome is one recorded terminal game event. Score semantics depend on the
// game: attempts, cumulative wins, 0/1 or milliseconds.
type Outcome struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	GameType  GameType  `json:"game_type"`
	Score     int       `json:"score"`
	Result    Result    `json:"result"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// GameStats summarises a user's recent outcomes for one game.
type GameStats struct {
	GameType  GameType `json:"game_type"`
	Plays     int      `json:"plays"`
	Wins      int      `json:"wins"`
	Losses    int      `json:"losses"`
	Ties      int      `json:"ties"`
	BestScore *int     `json:"best_score,omitempty"`
}
