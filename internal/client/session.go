package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hongminglow/minigames-be/internal/games"
	"github.com/hongminglow/minigames-be/internal/models"
	"github.com/hongminglow/minigames-be/internal/models/dto"
)

// ErrGuest is returned by calls that need a signed-in player.
var ErrGuest = errors.New("not signed in")

// Session is a player's sign-in state. Build one with NewSession, call Init
// once, and pass it to whatever needs to know who is playing.
type Session struct {
	api    *Client
	tokens TokenStore

	mu       sync.RWMutex
	token    string
	identity *models.Identity
}

// NewSession returns a guest session backed by api and tokens.
func NewSession(api *Client, tokens TokenStore) *Session {
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	return &Session{api: api, tokens: tokens}
}

// Init resolves the stored token once. A token the server no longer accepts
// is cleared and the session stays a guest. Only transport and storage
// failures are returned.
func (s *Session) Init(ctx context.Context) error {
	token, err := s.tokens.Load()
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}

	id, err := s.api.Session(ctx, token)
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			return fmt.Errorf("resolve session: %w", err)
		}
		id = nil
	}
	if id == nil {
		return s.tokens.Clear()
	}

	s.mu.Lock()
	s.token, s.identity = token, id
	s.mu.Unlock()
	return nil
}

// Login signs in and persists the token.
func (s *Session) Login(ctx context.Context, email, password string) (models.Identity, error) {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return models.Identity{}, err
	}
	if err := s.tokens.Save(resp.Token); err != nil {
		return models.Identity{}, err
	}

	s.mu.Lock()
	s.token = resp.Token
	id := resp.User
	s.identity = &id
	s.mu.Unlock()
	return resp.User, nil
}

// Signup creates an account. The session is unchanged; call Login afterwards.
func (s *Session) Signup(ctx context.Context, name, email, password string) (models.Identity, error) {
	return s.api.Signup(ctx, name, email, password)
}

// Logout forgets the token and identity.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.token, s.identity = "", nil
	s.mu.Unlock()
	return s.tokens.Clear()
}

// Identity reports the signed-in player, if any.
func (s *Session) Identity() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return models.Identity{}, false
	}
	return *s.identity, true
}

func (s *Session) currentToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.identity != nil
}

// Record forwards a finished game to the server. Guests play without a
// history, so Record is a no-op for them and reports false.
func (s *Session) Record(ctx context.Context, o games.Outcome) (bool, error) {
	token, ok := s.currentToken()
	if !ok {
		return false, nil
	}
	req := dto.RecordOutcomeRequest{GameType: o.GameType, Score: o.Score, Result: o.Result}
	if !o.Timestamp.IsZero() {
		ts := o.Timestamp
		req.Timestamp = &ts
	}
	if _, err := s.api.RecordOutcome(ctx, token, req); err != nil {
		return false, err
	}
	return true, nil
}

// History returns the signed-in player's recent outcomes.
func (s *Session) History(ctx context.Context) ([]models.Outcome, error) {
	token, ok := s.currentToken()
	if !ok {
		return nil, ErrGuest
	}
	return s.api.Outcomes(ctx, token)
}

// Stats returns per-game summaries for the signed-in player.
func (s *Session) Stats(ctx context.Context) ([]models.GameStats, error) {
	token, ok := s.currentToken()
	if !ok {
		return nil, ErrGuest
	}
	return s.api.Stats(ctx, token)
}
