// Package gameplay records finished games and reads a player's history.
package gameplay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hongminglow/minigames-be/internal/metrics"
	"github.com/hongminglow/minigames-be/internal/models"
	"github.com/hongminglow/minigames-be/internal/storage"
	"github.com/hongminglow/minigames-be/internal/validation"
)

// RecordInput is a client-reported terminal game event. A zero Timestamp is
// replaced with the server time.
type RecordInput struct {
	GameType  models.GameType `json:"gameType" validate:"required,oneof=number-guessing rock-paper-scissors tic-tac-toe reaction-time"`
	Score     int             `json:"score" validate:"min=0"`
	Result    models.Result   `json:"result" validate:"required,oneof=win loss tie completed"`
	Timestamp time.Time       `json:"timestamp"`
}

// Service is the game result recorder and history reader.
type Service struct {
	store    storage.OutcomeStore
	metrics  metrics.Recorder
	validate *validation.Validator
	log      *slog.Logger
	now      func() time.Time
}

// NewService wires a Service to its store. A nil recorder disables metrics.
func NewService(store storage.OutcomeStore, rec metrics.Recorder, logger *slog.Logger) *Service {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		metrics:  rec,
		validate: validation.New(),
		log:      logger,
		now:      time.Now,
	}
}

// Record validates in and appends it to id's history.
func (s *Service) Record(ctx context.Context, id models.Identity, in RecordInput) (models.Outcome, error) {
	if err := s.validate.Struct(in); err != nil {
		return models.Outcome{}, err
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = s.now()
	}

	created, err := s.store.CreateOutcome(ctx, models.Outcome{
		UserID:    id.ID,
		GameType:  in.GameType,
		Score:     in.Score,
		Result:    in.Result,
		Timestamp: in.Timestamp.UTC(),
	})
	if err != nil {
		return models.Outcome{}, fmt.Errorf("record outcome: %w", err)
	}

	s.metrics.RecordOutcome(string(created.GameType), string(created.Result))
	s.log.InfoContext(ctx, "outcome recorded",
		slog.String("user_id", id.ID),
		slog.String("outcome_id", created.ID),
		slog.String("game_type", string(created.GameType)),
		slog.String("result", string(created.Result)),
		slog.Int("score", created.Score),
	)
	return created, nil
}

// History returns id's most recent outcomes, newest first, capped at
// storage.HistoryLimit.
func (s *Service) History(ctx context.Context, id models.Identity) ([]models.Outcome, error) {
	outcomes, err := s.store.ListOutcomes(ctx, id.ID, storage.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	return outcomes, nil
}

// Stats summarises the outcomes History returns, one entry per game type in
// models.GameTypes order.
func (s *Service) Stats(ctx context.Context, id models.Identity) ([]models.GameStats, error) {
	outcomes, err := s.History(ctx, id)
	if err != nil {
		return nil, err
	}
	return Summarize(outcomes), nil
}

// Summarize folds outcomes into per-game statistics. Best score is the lowest
// for games scored by attempts or milliseconds, the highest win tally for
// rock-paper-scissors, and absent for tic-tac-toe.
func Summarize(outcomes []models.Outcome) []models.GameStats {
	byGame := make(map[models.GameType]*models.GameStats, len(models.GameTypes))
	stats := make([]models.GameStats, len(models.GameTypes))
	for i, game := range models.GameTypes {
		stats[i].GameType = game
		byGame[game] = &stats[i]
	}

	for _, o := range outcomes {
		st, ok := byGame[o.GameType]
		if !ok {
			continue
		}
		st.Plays++
		switch o.Result {
		case models.ResultWin:
			st.Wins++
		case models.ResultLoss:
			st.Losses++
		case models.ResultTie:
			st.Ties++
		}

		score := o.Score
		switch o.GameType {
		case models.GameNumberGuessing, models.GameReactionTime:
			if st.BestScore == nil || score < *st.BestScore {
				st.BestScore = &score
			}
		case models.GameRockPaperScissors:
			if st.BestScore == nil || score > *st.BestScore {
				st.BestScore = &score
			}
		}
	}
	return stats
}
