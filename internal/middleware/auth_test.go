package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/auth"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/middleware"
	"github.com/parleyhq/parley/internal/mocks"
	"github.com/parleyhq/parley/internal/model"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

// captureHandler records the identity the middleware attached.
func captureHandler(got *auth.Identity, ok *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, *ok = middleware.IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestResolverMiddleware(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()
	orgID := uuid.New()

	t.Run("resolves the org from the user record", func(t *testing.T) {
		provider := mocks.NewMockProvider(ctrl)
		users := mocks.NewMockUserRepositoryIface(ctrl)

		provider.EXPECT().ValidateSession(gomock.Any(), "good-token").Return(userID, nil)
		users.EXPECT().FindByID(gomock.Any(), userID).Return(&model.User{UserID: userID, OrgID: orgID}, nil)

		var ident auth.Identity
		var ok bool
		rv := middleware.NewResolver(provider, users)

		req := httptest.NewRequest(http.MethodGet, "/api/org", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		rv.Middleware(captureHandler(&ident, &ok)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, ok)
		assert.Equal(t, userID, ident.UserID)
		assert.Equal(t, orgID, ident.EffectiveOrgID)
	})

	t.Run("caches the resolution across requests", func(t *testing.T) {
		provider := mocks.NewMockProvider(ctrl)
		users := mocks.NewMockUserRepositoryIface(ctrl)

		provider.EXPECT().ValidateSession(gomock.Any(), "good-token").Return(userID, nil).Times(2)
		// The user record is read once; the second request hits the cache.
		users.EXPECT().FindByID(gomock.Any(), userID).Return(&model.User{UserID: userID, OrgID: orgID}, nil).Times(1)

		var ident auth.Identity
		var ok bool
		rv := middleware.NewResolver(provider, users)

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/org", nil)
			req.Header.Set("Authorization", "Bearer good-token")
			rec := httptest.NewRecorder()
			rv.Middleware(captureHandler(&ident, &ok)).ServeHTTP(rec, req)
			assert.Equal(t, orgID, ident.EffectiveOrgID)
		}
	})

	t.Run("invalidate drops the cached resolution", func(t *testing.T) {
		provider := mocks.NewMockProvider(ctrl)
		users := mocks.NewMockUserRepositoryIface(ctrl)

		provider.EXPECT().ValidateSession(gomock.Any(), "good-token").Return(userID, nil).Times(2)
		users.EXPECT().FindByID(gomock.Any(), userID).Return(&model.User{UserID: userID, OrgID: orgID}, nil).Times(2)

		var ident auth.Identity
		var ok bool
		rv := middleware.NewResolver(provider, users)

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/org", nil)
			req.Header.Set("Authorization", "Bearer good-token")
			rec := httptest.NewRecorder()
			rv.Middleware(captureHandler(&ident, &ok)).ServeHTTP(rec, req)
			rv.Invalidate(userID)
		}
	})

	t.Run("falls back to a one-person org when the record is missing", func(t *testing.T) {
		provider := mocks.NewMockProvider(ctrl)
		users := mocks.NewMockUserRepositoryIface(ctrl)

		provider.EXPECT().ValidateSession(gomock.Any(), "good-token").Return(userID, nil)
		users.EXPECT().FindByID(gomock.Any(), userID).Return(nil, domain.ErrUserNotFound)

		var ident auth.Identity
		var ok bool
		rv := middleware.NewResolver(provider, users)

		req := httptest.NewRequest(http.MethodGet, "/api/org", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		rv.Middleware(captureHandler(&ident, &ok)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, ident.EffectiveOrgID)
	})

	t.Run("transient lookup failures are not cached", func(t *testing.T) {
		provider := mocks.NewMockProvider(ctrl)
		users := mocks.NewMockUserRepositoryIface(ctrl)

		provider.EXPECT().ValidateSession(gomock.Any(), "good-token").Return(userID, nil).Times(2)
		gomock.InOrder(
			users.EXPECT().FindByID(gomock.Any(), userID).Return(nil, errors.New("connection reset")),
			users.EXPECT().FindByID(gomock.Any(), userID).Return(&model.User{UserID: userID, OrgID: orgID}, nil),
		)

		var ident auth.Identity
		var ok bool
		rv := middleware.NewResolver(provider, users)

		req := httptest.NewRequest(http.MethodGet, "/api/org", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		rv.Middleware(captureHandler(&ident, &ok)).ServeHTTP(rec, req)
		assert.Equal(t, userID, ident.EffectiveOrgID)

		req = httptest.NewRequest(http.MethodGet, "/api/org", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec = httptest.NewRecorder()
		rv.Middleware(captureHandler(&ident, &ok)).ServeHTTP(rec, req)
		assert.Equal(t, orgID, ident.EffectiveOrgID)
	})

	t.Run("rejects requests without a bearer token", func(t *testing.T) {
		provider := mocks.NewMockProvider(ctrl)
		users := mocks.NewMockUserRepositoryIface(ctrl)

		var ident auth.Identity
		var ok bool
		rv := middleware.NewResolver(provider, users)

		for _, header := range []string{"", "Basic dXNlcg==", "Bearer"} {
			req := httptest.NewRequest(http.MethodGet, "/api/org", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			rv.Middleware(captureHandler(&ident, &ok)).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		}
	})

	t.Run("rejects invalid sessions", func(t *testing.T) {
		provider := mocks.NewMockProvider(ctrl)
		users := mocks.NewMockUserRepositoryIface(ctrl)

		provider.EXPECT().
			ValidateSession(gomock.Any(), "bad-token").
			Return(uuid.Nil, domain.ErrUnauthenticated)

		var ident auth.Identity
		var ok bool
		rv := middleware.NewResolver(provider, users)

		req := httptest.NewRequest(http.MethodGet, "/api/org", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := httptest.NewRecorder()
		rv.Middleware(captureHandler(&ident, &ok)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, ok)
	})
}
