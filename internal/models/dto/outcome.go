package dto

import (
	"time"

	"github.com/hongminglow/minigames-be/internal/models"
)

type RecordOutcomeRequest struct {
	GameType  models.GameType `json:"gameType"`
	Score     int             `json:"score"`
	Result    models.Result   `json:"result"`
	Timestamp *time.Time      `json:"timestamp"`
}

type OutcomeResponse struct {
	Outcome models.Outcome `json:"outcome"`
}

type OutcomesResponse struct {
	Outcomes []models.Outcome `json:"outcomes"`
}

type StatsResponse struct {
	Stats []models.GameStats `json:"stats"`
}
