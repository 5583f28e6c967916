package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/auth"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/handler"
	"github.com/parleyhq/parley/internal/middleware"
	"github.com/parleyhq/parley/internal/mocks"
	"github.com/parleyhq/parley/internal/model"
	"github.com/parleyhq/parley/internal/perm"
	"github.com/parleyhq/parley/internal/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	userRepo *mocks.MockUserRepositoryIface
	orgRepo  *mocks.MockOrganizationRepositoryIface
	provider *mocks.MockProvider
	service  *service.MembershipService
}

func newFixture(ctrl *gomock.Controller) *fixture {
	f := &fixture{
		userRepo: mocks.NewMockUserRepositoryIface(ctrl),
		orgRepo:  mocks.NewMockOrganizationRepositoryIface(ctrl),
		provider: mocks.NewMockProvider(ctrl),
	}
	f.service = service.NewMembershipService(f.userRepo, f.orgRepo, f.provider, nil, nil, nil, &config.Config{})
	return f
}

func authedRequest(method, target string, body interface{}, ident auth.Identity) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	return req.WithContext(middleware.WithIdentity(req.Context(), ident))
}

func TestSubuserCreateHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	adminID := uuid.New()
	ident := auth.Identity{UserID: adminID, EffectiveOrgID: adminID}

	body := map[string]interface{}{
		"firstname": "Ada",
		"email":     "ada@example.com",
		"password":  "correct_horse",
	}

	t.Run("returns the created user", func(t *testing.T) {
		f := newFixture(ctrl)
		h := handler.NewSubuserHandler(f.service)

		memberID := uuid.New()
		f.provider.EXPECT().FindByEmail(gomock.Any(), "ada@example.com").Return(uuid.Nil, domain.ErrNotFound)
		f.provider.EXPECT().CreateIdentity(gomock.Any(), "ada@example.com", "correct_horse").Return(memberID, nil)
		f.orgRepo.EXPECT().AddSeat(gomock.Any(), adminID).Return(nil)
		f.userRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		rec := httptest.NewRecorder()
		h.CreateHandler(rec, authedRequest(http.MethodPost, "/api/subuser/create", body, ident))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp handler.CreateSubuserResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Ok)
		assert.Equal(t, memberID, resp.User.UserID)
	})

	t.Run("full organization reports 405", func(t *testing.T) {
		f := newFixture(ctrl)
		h := handler.NewSubuserHandler(f.service)

		memberID := uuid.New()
		f.provider.EXPECT().FindByEmail(gomock.Any(), "ada@example.com").Return(uuid.Nil, domain.ErrNotFound)
		f.provider.EXPECT().CreateIdentity(gomock.Any(), "ada@example.com", "correct_horse").Return(memberID, nil)
		f.orgRepo.EXPECT().AddSeat(gomock.Any(), adminID).Return(domain.ErrSeatLimitReached)
		f.provider.EXPECT().DeleteIdentity(gomock.Any(), memberID).Return(nil)

		rec := httptest.NewRecorder()
		h.CreateHandler(rec, authedRequest(http.MethodPost, "/api/subuser/create", body, ident))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Contains(t, rec.Body.String(), "Max number of users achieved")
	})

	t.Run("duplicate email reports 400", func(t *testing.T) {
		f := newFixture(ctrl)
		h := handler.NewSubuserHandler(f.service)

		f.provider.EXPECT().FindByEmail(gomock.Any(), "ada@example.com").Return(uuid.New(), nil)

		rec := httptest.NewRecorder()
		h.CreateHandler(rec, authedRequest(http.MethodPost, "/api/subuser/create", body, ident))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing identity reports 401", func(t *testing.T) {
		f := newFixture(ctrl)
		h := handler.NewSubuserHandler(f.service)

		var buf bytes.Buffer
		json.NewEncoder(&buf).Encode(body)
		rec := httptest.NewRecorder()
		h.CreateHandler(rec, httptest.NewRequest(http.MethodPost, "/api/subuser/create", &buf))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSubuserDeleteHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	adminID := uuid.New()
	ident := auth.Identity{UserID: adminID, EffectiveOrgID: adminID}

	t.Run("deleting the admin reports 403", func(t *testing.T) {
		f := newFixture(ctrl)
		h := handler.NewSubuserHandler(f.service)

		f.userRepo.EXPECT().
			FindByEmail(gomock.Any(), "admin@example.com").
			Return(&model.User{UserID: adminID, OrgID: adminID, Email: "admin@example.com"}, nil)

		rec := httptest.NewRecorder()
		h.DeleteHandler(rec, authedRequest(http.MethodPost, "/api/subuser/delete",
			map[string]string{"email": "admin@example.com"}, ident))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown member reports 404", func(t *testing.T) {
		f := newFixture(ctrl)
		h := handler.NewSubuserHandler(f.service)

		f.userRepo.EXPECT().
			FindByEmail(gomock.Any(), "ghost@example.com").
			Return(nil, domain.ErrUserNotFound)

		rec := httptest.NewRecorder()
		h.DeleteHandler(rec, authedRequest(http.MethodPost, "/api/subuser/delete",
			map[string]string{"email": "ghost@example.com"}, ident))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing email reports 400", func(t *testing.T) {
		f := newFixture(ctrl)
		h := handler.NewSubuserHandler(f.service)

		rec := httptest.NewRecorder()
		h.DeleteHandler(rec, authedRequest(http.MethodPost, "/api/subuser/delete",
			map[string]string{}, ident))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPermissionCheckHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("reports the held bit", func(t *testing.T) {
		f := newFixture(ctrl)
		h := handler.NewPermissionHandler(f.service)

		f.userRepo.EXPECT().
			FindByEmail(gomock.Any(), "viewer@example.com").
			Return(&model.User{Email: "viewer@example.com", Permissions: perm.ReadAnalytics}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/permissions/check?email=viewer@example.com&permission=2", nil)
		rec := httptest.NewRecorder()
		h.CheckHandler(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp handler.CheckPermissionResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.HasPermission)
	})

	t.Run("composite mask reports 400", func(t *testing.T) {
		f := newFixture(ctrl)
		h := handler.NewPermissionHandler(f.service)

		req := httptest.NewRequest(http.MethodGet, "/api/permissions/check?email=viewer@example.com&permission=6", nil)
		rec := httptest.NewRecorder()
		h.CheckHandler(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing query parameters report 400", func(t *testing.T) {
		f := newFixture(ctrl)
		h := handler.NewPermissionHandler(f.service)

		req := httptest.NewRequest(http.MethodGet, "/api/permissions/check?email=viewer@example.com", nil)
		rec := httptest.NewRecorder()
		h.CheckHandler(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPermissionSetHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	adminID := uuid.New()
	ident := auth.Identity{UserID: adminID, EffectiveOrgID: adminID}

	t.Run("returns the toggled user", func(t *testing.T) {
		f := newFixture(ctrl)
		h := handler.NewPermissionHandler(f.service)

		target := &model.User{Email: "viewer@example.com", Permissions: perm.ReadConversations}
		f.userRepo.EXPECT().FindByEmail(gomock.Any(), target.Email).Return(target, nil)
		f.userRepo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

		bit := uint32(perm.ReadAnalytics)
		rec := httptest.NewRecorder()
		h.SetHandler(rec, authedRequest(http.MethodPost, "/api/permissions/set",
			map[string]interface{}{"email": target.Email, "permissions": bit}, ident))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp handler.SetPermissionResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, perm.ReadAnalytics|perm.ReadConversations, resp.User.Permissions)
	})

	t.Run("invalid bit reports 500", func(t *testing.T) {
		f := newFixture(ctrl)
		h := handler.NewPermissionHandler(f.service)

		rec := httptest.NewRecorder()
		h.SetHandler(rec, authedRequest(http.MethodPost, "/api/permissions/set",
			map[string]interface{}{"email": "viewer@example.com", "permissions": 6}, ident))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("missing fields report 400", func(t *testing.T) {
		f := newFixture(ctrl)
		h := handler.NewPermissionHandler(f.service)

		rec := httptest.NewRecorder()
		h.SetHandler(rec, authedRequest(http.MethodPost, "/api/permissions/set",
			map[string]interface{}{"email": "viewer@example.com"}, ident))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
