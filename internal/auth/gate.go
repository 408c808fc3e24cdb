package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/hongminglow/minigames-be/internal/models"
	"github.com/hongminglow/minigames-be/internal/storage"
)

// ErrUnauthenticated means the request carries no usable identity: the
// header is missing or malformed, the token does not verify, or its user is
// gone.
var ErrUnauthenticated = errors.New("unauthenticated")

// UserFinder looks users up by id.
type UserFinder interface {
	FindUserByID(ctx context.Context, id string) (models.User, error)
}

// Gate resolves Authorization headers to identities.
type Gate struct {
	tokens *TokenManager
	users  UserFinder
}

// NewGate builds a Gate that verifies tokens with tokens and loads users from users.
func NewGate(tokens *TokenManager, users UserFinder) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Resolve turns an Authorization header value into the caller's identity.
// Errors other than ErrUnauthenticated come from the user store.
func (g *Gate) Resolve(ctx context.Context, header string) (models.Identity, error) {
	token, ok := BearerToken(header)
	if !ok {
		return models.Identity{}, ErrUnauthenticated
	}
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return models.Identity{}, errors.Join(ErrUnauthenticated, err)
	}
	user, err := g.users.FindUserByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Identity{}, errors.Join(ErrUnauthenticated, err)
		}
		return models.Identity{}, err
	}
	return user.Identity(), nil
}

// BearerToken extracts the token from a "Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

type ctxKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity, if any.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(models.Identity)
	return id, ok
}
