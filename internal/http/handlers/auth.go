package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/minigames-be/internal/auth"
	"github.com/hongminglow/minigames-be/internal/http/respond"
	"github.com/hongminglow/minigames-be/internal/metrics"
	"github.com/hongminglow/minigames-be/internal/models"
	"github.com/hongminglow/minigames-be/internal/models/dto"
	"github.com/hongminglow/minigames-be/internal/storage"
	"github.com/hongminglow/minigames-be/internal/validation"
)

// AuthHandler owns the signup and login endpoints.
type AuthHandler struct {
	store    storage.UserStore
	tokens   *auth.TokenManager
	validate *validation.Validator
	metrics  metrics.Recorder
	log      *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(store storage.UserStore, tokens *auth.TokenManager, rec metrics.Recorder, logger *slog.Logger) *AuthHandler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &AuthHandler{
		store:    store,
		tokens:   tokens,
		validate: validation.New(),
		metrics:  rec,
		log:      logger,
	}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/signup", h.handleSignup)
	r.Post("/login", h.handleLogin)
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if !h.valid(w, &req) {
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.ErrorContext(r.Context(), "hash password failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	created, err := h.store.CreateUser(r.Context(), models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "user already exists")
			return
		}
		h.log.ErrorContext(r.Context(), "create user failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	h.log.InfoContext(r.Context(), "user signed up", slog.String("user_id", created.ID))
	respond.JSON(w, http.StatusCreated, dto.SignupResponse{User: created.Identity()})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Email = normalizeEmail(req.Email)
	if !h.valid(w, &req) {
		return
	}

	user, err := h.store.FindUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.metrics.RecordAuthFailure("unknown_email")
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.log.ErrorContext(r.Context(), "find user failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		h.metrics.RecordAuthFailure("wrong_password")
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		h.log.ErrorContext(r.Context(), "generate token failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, dto.LoginResponse{Token: token, User: user.Identity()})
}

func (h *AuthHandler) valid(w http.ResponseWriter, req any) bool {
	err := h.validate.Struct(req)
	if err == nil {
		return true
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		respond.ValidationError(w, "invalid request", verr.Problems)
		return false
	}
	respond.Error(w, http.StatusBadRequest, "invalid request")
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
