// internal/handler/organization.go
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

type OrganizationHandler struct {
	membership *service.MembershipService
}

func NewOrganizationHandler(membership *service.MembershipService) *OrganizationHandler {
	return &OrganizationHandler{membership: membership}
}

type OrganizationResponse struct {
	BaseResponse
	Organization *model.Organization `json:"organization"`
}

func (h *OrganizationHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	org, err := h.membership.Organization(r.Context(), ident)
	if err != nil {
		slog.ErrorContext(r.Context(), "Organization fetch error", "error", err, "requestID", chmw.GetReqID(r.Context()))
		if errors.Is(err, domain.ErrOrganizationNotFound) {
			respondWithError(w, http.StatusNotFound, "Organization not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, OrganizationResponse{
		BaseResponse: BaseResponse{Ok: true},
		Organization: org,
	})
}

func (h *OrganizationHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	var input service.UpdateOrganizationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	org, err := h.membership.UpdateOrganization(r.Context(), ident, input)
	if err != nil {
		slog.ErrorContext(r.Context(), "Organization update error", "error", err, "requestID", chmw.GetReqID(r.Context()))
		if errors.Is(err, domain.ErrOrganizationNotFound) {
			respondWithError(w, http.StatusNotFound, "Organization not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, OrganizationResponse{
		BaseResponse: BaseResponse{Ok: true},
		Organization: org,
	})
}

type MembersResponse struct {
	BaseResponse
	Members []*model.User `json:"members"`
}

func (h *OrganizationHandler) MembersHandler(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	members, err := h.membership.Members(r.Context(), ident)
	if err != nil {
		slog.ErrorContext(r.Context(), "Member list error", "error", err, "requestID", chmw.GetReqID(r.Context()))
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, MembersResponse{
		BaseResponse: BaseResponse{Ok: true},
		Members:      members,
	})
}
