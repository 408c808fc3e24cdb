package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/minigames-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// HistoryLimit caps how many outcomes a history read returns.
const HistoryLimit = 50

// UserStore captures credential persistence needed by handlers.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByID(ctx context.Context, id string) (models.User, error)
}

// OutcomeStore appends and reads game outcomes.
type OutcomeStore interface {
	CreateOutcome(ctx context.Context, outcome models.Outcome) (models.Outcome, error)
	// ListOutcomes returns at most limit outcomes owned by userID, newest
	// timestamp first.
	ListOutcomes(ctx context.Context, userID string, limit int) ([]models.Outcome, error)
}

// Store is the full persistence surface used by the server.
type Store interface {
	UserStore
	OutcomeStore
	Close() error
}
