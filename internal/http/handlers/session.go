package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/minigames-be/internal/auth"
	"github.com/hongminglow/minigames-be/internal/http/respond"
	"github.com/hongminglow/minigames-be/internal/models/dto"
)

// SessionHandler reports who the caller is. It expects to sit behind the
// guest-tolerant auth middleware, so a missing identity means a guest.
type SessionHandler struct{}

// NewSessionHandler creates the session handler.
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Register wires /session and its /verify alias.
func (h *SessionHandler) Register(r chi.Router) {
	r.Get("/session", h.handle)
	r.Get("/verify", h.handle)
}

func (h *SessionHandler) handle(w http.ResponseWriter, r *http.Request) {
	var resp dto.SessionResponse
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		resp.User = &id
	}
	respond.JSON(w, http.StatusOK, resp)
}
