// internal/handler/subuser.go
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chmw "github.com/go-chi/chi/v5/middleware"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/middleware"
	"github.com/parleyhq/parley/internal/model"
	"github.com/parleyhq/parley/internal/service"
)

type SubuserHandler struct {
	membership *service.MembershipService
}

func NewSubuserHandler(membership *service.MembershipService) *SubuserHandler {
	return &SubuserHandler{membership: membership}
}

type CreateSubuserResponse struct {
	BaseResponse
	User *model.User `json:"user"`
}

// CreateHandler adds a sub-user to the caller's organization. The 405 for a
// full organization is inherited wire behavior that existing clients match
// on; do not change it to 409.
func (h *SubuserHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	var input service.AddMemberInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	user, err := h.membership.AddMember(r.Context(), ident, input)
	if err != nil {
		slog.ErrorContext(r.Context(), "Subuser create error", "error", err, "requestID", chmw.GetReqID(r.Context()))
		switch {
		case errors.Is(err, domain.ErrEmailAlreadyExists):
			respondWithError(w, http.StatusBadRequest, "User already exists")
		case errors.Is(err, domain.ErrInvalidInput):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrOrganizationNotFound):
			respondWithError(w, http.StatusNotFound, "Organization not found")
		case errors.Is(err, domain.ErrSeatLimitReached):
			respondWithError(w, http.StatusMethodNotAllowed, "Max number of users achieved")
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, CreateSubuserResponse{
		BaseResponse: BaseResponse{Ok: true},
		User:         user,
	})
}

type DeleteSubuserInput struct {
	Email string `json:"email"`
}

func (h *SubuserHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	var input DeleteSubuserInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if input.Email == "" {
		respondWithError(w, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.membership.RemoveMember(r.Context(), ident, input.Email); err != nil {
		slog.ErrorContext(r.Context(), "Subuser delete error", "error", err, "requestID", chmw.GetReqID(r.Context()))
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrUserNotFound):
			respondWithError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, domain.ErrCrossOrgForbidden):
			respondWithError(w, http.StatusForbidden, "User belongs to a different organization")
		case errors.Is(err, domain.ErrCannotDeleteAdmin):
			respondWithError(w, http.StatusForbidden, "Organization admin cannot be deleted")
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}
