// internal/handler/auth.go
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chmw "github.com/go-chi/chi/v5/middleware"
	"github.com/parleyhq/parley/internal/auth"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/model"
	"github.com/parleyhq/parley/internal/service"
)

type AuthHandler struct {
	membership *service.MembershipService
	provider   auth.Provider
}

func NewAuthHandler(membership *service.MembershipService, provider auth.Provider) *AuthHandler {
	return &AuthHandler{
		membership: membership,
		provider:   provider,
	}
}

type SignupResponse struct {
	BaseResponse
	User         *model.User         `json:"user"`
	Organization *model.Organization `json:"organization"`
	Token        string              `json:"token"`
}

func (h *AuthHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var input service.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	output, err := h.membership.Signup(r.Context(), input)
	if err != nil {
		slog.ErrorContext(r.Context(), "Signup error", "error", err, "requestID", chmw.GetReqID(r.Context()))
		switch {
		case errors.Is(err, domain.ErrEmailAlreadyExists):
			respondWithError(w, http.StatusConflict, "Email already exists")
		case errors.Is(err, domain.ErrInvalidInput):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrUnknownPlan):
			respondWithError(w, http.StatusBadRequest, "Unknown subscription plan")
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, SignupResponse{
		BaseResponse: BaseResponse{Ok: true},
		User:         output.User,
		Organization: output.Organization,
		Token:        output.Token,
	})
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	BaseResponse
	Token string `json:"token,omitempty"`
	Error string `json:"error,omitempty"`
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if input.Email == "" || input.Password == "" {
		respondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, err := h.provider.Authenticate(r.Context(), input.Email, input.Password)
	if err != nil {
		slog.ErrorContext(r.Context(), "Login error", "error", err, "requestID", chmw.GetReqID(r.Context()))
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			respondWithJSON(w, http.StatusUnauthorized, LoginResponse{
				Error: "Invalid email or password",
			})
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, LoginResponse{
		BaseResponse: BaseResponse{Ok: true},
		Token:        token,
	})
}
