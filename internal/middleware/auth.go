// internal/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/parleyhq/parley/internal/auth"
	"github.com/parleyhq/parley/internal/repository"
)

type contextKey string

const identityKey = contextKey("parley_identity")

// IdentityFrom returns the resolved identity stored by the Resolver.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(auth.Identity)
	return ident, ok
}

// WithIdentity returns a context carrying ident. Exposed for handler tests.
func WithIdentity(ctx context.Context, ident auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// Resolver turns a bearer credential into an Identity. Org lookups are
// cached in a short-TTL LRU; a lookup failure degrades to treating the user
// as its own one-person organization rather than failing the request, so
// authorization keeps functioning with the user id as a stand-in key.
type Resolver struct {
	provider auth.Provider
	users    repository.UserRepositoryIface
	orgCache *expirable.LRU[uuid.UUID, uuid.UUID]
}

func NewResolver(provider auth.Provider, users repository.UserRepositoryIface) *Resolver {
	return &Resolver{
		provider: provider,
		users:    users,
		orgCache: expirable.NewLRU[uuid.UUID, uuid.UUID](1024, nil, time.Minute),
	}
}

// Invalidate drops the cached org resolution for a user. Called by the
// membership service after a mutation that retires the mapping.
func (rv *Resolver) Invalidate(userID uuid.UUID) {
	if rv == nil {
		return
	}
	rv.orgCache.Remove(userID)
}

// Middleware validates the Authorization header and attaches the resolved
// Identity to the request context.
func (rv *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, "No authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondWithError(w, http.StatusUnauthorized, "Invalid authorization header")
			return
		}

		userID, err := rv.provider.ValidateSession(r.Context(), parts[1])
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ident := auth.Identity{
			UserID:         userID,
			EffectiveOrgID: rv.resolveOrg(r.Context(), userID),
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
	})
}

func (rv *Resolver) resolveOrg(ctx context.Context, userID uuid.UUID) uuid.UUID {
	if orgID, ok := rv.orgCache.Get(userID); ok {
		return orgID
	}

	user, err := rv.users.FindByID(ctx, userID)
	if err != nil {
		// No detail record, or the lookup itself failed: fall back to the
		// degenerate one-person org. Fallbacks are not cached so a transient
		// store error does not pin a stale resolution.
		return userID
	}

	rv.orgCache.Add(userID, user.OrgID)
	return user.OrgID
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
