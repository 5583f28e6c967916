// internal/handler/permission.go
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	chmw "github.com/go-chi/chi/v5/middleware"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/middleware"
	"github.com/parleyhq/parley/internal/model"
	"github.com/parleyhq/parley/internal/service"
)

type PermissionHandler struct {
	membership *service.MembershipService
}

func NewPermissionHandler(membership *service.MembershipService) *PermissionHandler {
	return &PermissionHandler{membership: membership}
}

type CheckPermissionResponse struct {
	BaseResponse
	HasPermission bool `json:"hasPermission"`
}

func (h *PermissionHandler) CheckHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	email := query.Get("email")
	rawPermission := query.Get("permission")

	if email == "" || rawPermission == "" {
		respondWithError(w, http.StatusBadRequest, "Email and permission are required")
		return
	}

	permission, err := strconv.ParseUint(rawPermission, 10, 32)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid permission value")
		return
	}

	has, err := h.membership.CheckPermission(r.Context(), email, uint32(permission))
	if err != nil {
		slog.ErrorContext(r.Context(), "Permission check error", "error", err, "requestID", chmw.GetReqID(r.Context()))
		switch {
		case errors.Is(err, domain.ErrInvalidPermission):
			respondWithError(w, http.StatusBadRequest, "Invalid permission value")
		case errors.Is(err, domain.ErrUserNotFound):
			respondWithError(w, http.StatusNotFound, "User not found")
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, CheckPermissionResponse{
		BaseResponse:  BaseResponse{Ok: true},
		HasPermission: has,
	})
}

type SetPermissionInput struct {
	Email       string  `json:"email"`
	Permissions *uint32 `json:"permissions"`
}

type SetPermissionResponse struct {
	BaseResponse
	User *model.User `json:"user"`
}

// SetHandler toggles one permission bit. An unrecognized bit reports 500,
// not 400: inherited wire behavior, kept for client compatibility.
func (h *PermissionHandler) SetHandler(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	var input SetPermissionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if input.Email == "" || input.Permissions == nil {
		respondWithError(w, http.StatusBadRequest, "Email and permissions are required")
		return
	}

	user, err := h.membership.SetPermission(r.Context(), ident, input.Email, *input.Permissions)
	if err != nil {
		slog.ErrorContext(r.Context(), "Permission set error", "error", err, "requestID", chmw.GetReqID(r.Context()))
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, SetPermissionResponse{
		BaseResponse: BaseResponse{Ok: true},
		User:         user,
	})
}
