package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/minigames-be/internal/auth"
	"github.com/hongminglow/minigames-be/internal/gameplay"
	"github.com/hongminglow/minigames-be/internal/http/respond"
	"github.com/hongminglow/minigames-be/internal/models/dto"
	"github.com/hongminglow/minigames-be/internal/storage"
	"github.com/hongminglow/minigames-be/internal/validation"
)

// OutcomeHandler records and lists game outcomes for the signed-in user.
// Routes must be mounted behind the strict auth middleware.
type OutcomeHandler struct {
	games *gameplay.Service
	log   *slog.Logger
}

// NewOutcomeHandler constructs the handler.
func NewOutcomeHandler(games *gameplay.Service, logger *slog.Logger) *OutcomeHandler {
	return &OutcomeHandler{games: games, log: logger}
}

// Register wires the outcome routes.
func (h *OutcomeHandler) Register(r chi.Router) {
	r.Route("/outcomes", func(r chi.Router) {
		r.Post("/", h.handleRecord)
		r.Get("/", h.handleList)
		r.Get("/stats", h.handleStats)
	})
}

func (h *OutcomeHandler) handleRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	var req dto.RecordOutcomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	in := gameplay.RecordInput{GameType: req.GameType, Score: req.Score, Result: req.Result}
	if req.Timestamp != nil {
		in.Timestamp = *req.Timestamp
	}
	created, err := h.games.Record(r.Context(), id, in)
	if err != nil {
		var verr *validation.Error
		switch {
		case errors.As(err, &verr):
			respond.ValidationError(w, "invalid outcome", verr.Problems)
		case errors.Is(err, storage.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "user not found")
		default:
			h.log.ErrorContext(r.Context(), "record outcome failed", slog.Any("error", err))
			respond.Error(w, http.StatusInternalServerError, "failed to record outcome")
		}
		return
	}
	respond.JSON(w, http.StatusCreated, dto.OutcomeResponse{Outcome: created})
}

func (h *OutcomeHandler) handleList(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	outcomes, err := h.games.History(r.Context(), id)
	if err != nil {
		h.log.ErrorContext(r.Context(), "list outcomes failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "failed to fetch outcomes")
		return
	}
	respond.JSON(w, http.StatusOK, dto.OutcomesResponse{Outcomes: outcomes})
}

func (h *OutcomeHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	stats, err := h.games.Stats(r.Context(), id)
	if err != nil {
		h.log.ErrorContext(r.Context(), "summarise outcomes failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "failed to fetch stats")
		return
	}
	respond.JSON(w, http.StatusOK, dto.StatsResponse{Stats: stats})
}
