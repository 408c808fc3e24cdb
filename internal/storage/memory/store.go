// Package memory provides a process-local Store used for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/minigames-be/internal/models"
	"github.com/hongminglow/minigames-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps users and outcomes in maps guarded by a mutex.
type Store struct {
	mu       sync.RWMutex
	users    map[string]models.User
	byEmail  map[string]string
	outcomes map[string][]models.Outcome
	now      func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]models.User),
		byEmail:  make(map[string]string),
		outcomes: make(map[string][]models.Outcome),
		now:      time.Now,
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// CreateUser stores user under a fresh id. Emails compare case-insensitively.
func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(user.Email))
	if _, ok := s.byEmail[key]; ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	now := s.now().UTC()
	user.ID = uuid.NewString()
	user.Email = key
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = user
	s.byEmail[key] = user.ID
	return user, nil
}

// FindUserByEmail fetches a user by email address.
func (s *Store) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

// FindUserByID fetches a user by id.
func (s *Store) FindUserByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

// CreateOutcome appends outcome for its owner. The owner must exist.
func (s *Store) CreateOutcome(_ context.Context, outcome models.Outcome) (models.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[outcome.UserID]; !ok {
		return models.Outcome{}, storage.ErrNotFound
	}
	outcome.ID = uuid.NewString()
	outcome.CreatedAt = s.now().UTC()
	s.outcomes[outcome.UserID] = append(s.outcomes[outcome.UserID], outcome)
	return outcome, nil
}

// ListOutcomes returns up to limit outcomes for userID, newest first.
func (s *Store) ListOutcomes(_ context.Context, userID string, limit int) ([]models.Outcome, error) {
	s.mu.RLock()
	owned := make([]models.Outcome, len(s.outcomes[userID]))
	copy(owned, s.outcomes[userID])
	s.mu.RUnlock()

	sort.SliceStable(owned, func(i, j int) bool {
		if owned[i].Timestamp.Equal(owned[j].Timestamp) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].Timestamp.After(owned[j].Timestamp)
	})
	if limit > 0 && len(owned) > limit {
		owned = owned[:limit]
	}
	return owned, nil
}
