// Package client is a typed HTTP client for the minigames API and the
// Session that holds a player's sign-in state between calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hongminglow/minigames-be/internal/models"
	"github.com/hongminglow/minigames-be/internal/models/dto"
)

// ErrUnauthenticated matches an *APIError with status 401.
var ErrUnauthenticated = errors.New("unauthenticated")

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int
	Message string
	Details []string
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Message, e.Status, strings.Join(e.Details, "; "))
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthenticated && e.Status == http.StatusUnauthorized
}

// Client calls the HTTP API. It holds no credentials; token-bearing calls
// take the token explicitly.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for baseURL. A nil httpClient gets a 10s timeout client.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Signup creates an account. It does not sign in.
func (c *Client) Signup(ctx context.Context, name, email, password string) (models.Identity, error) {
	var resp dto.SignupResponse
	err := c.do(ctx, http.MethodPost, "/signup", "", dto.SignupRequest{Name: name, Email: email, Password: password}, &resp)
	return resp.User, err
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (dto.LoginResponse, error) {
	var resp dto.LoginResponse
	err := c.do(ctx, http.MethodPost, "/login", "", dto.LoginRequest{Email: email, Password: password}, &resp)
	return resp, err
}

// Session resolves token to an identity. A nil identity means the server
// treats the caller as a guest.
func (c *Client) Session(ctx context.Context, token string) (*models.Identity, error) {
	var resp dto.SessionResponse
	if err := c.do(ctx, http.MethodGet, "/session", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// RecordOutcome stores a finished game for the token's user.
func (c *Client) RecordOutcome(ctx context.Context, token string, req dto.RecordOutcomeRequest) (models.Outcome, error) {
	var resp dto.OutcomeResponse
	err := c.do(ctx, http.MethodPost, "/outcomes", token, req, &resp)
	return resp.Outcome, err
}

// Outcomes lists the token user's most recent outcomes, newest first.
func (c *Client) Outcomes(ctx context.Context, token string) ([]models.Outcome, error) {
	var resp dto.OutcomesResponse
	err := c.do(ctx, http.MethodGet, "/outcomes", token, nil, &resp)
	return resp.Outcomes, err
}

// Stats returns per-game summaries of the token user's recent outcomes.
func (c *Client) Stats(ctx context.Context, token string) ([]models.GameStats, error) {
	var resp dto.StatsResponse
	err := c.do(ctx, http.MethodGet, "/outcomes/stats", token, nil, &resp)
	return resp.Stats, err
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var eb struct {
			Error   string   `json:"error"`
			Details []string `json:"details"`
		}
		if json.NewDecoder(resp.Body).Decode(&eb) == nil && eb.Error != "" {
			apiErr.Message = eb.Error
			apiErr.Details = eb.Details
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
