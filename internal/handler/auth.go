package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bengaltrails/bengaltrails-go/internal/middleware"
	"github.com/bengaltrails/bengaltrails-go/internal/model"
	"github.com/bengaltrails/bengaltrails-go/internal/service"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service *service.AuthService
	cookie  middleware.SessionCookie
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, cookie middleware.SessionCookie) *AuthHandler {
	return &AuthHandler{service: svc, cookie: cookie}
}

// HandleSignup handles POST /auth/signup requests.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeDecodeError(w, err)
		return
	}

	res, err := h.service.Signup(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.cookie.Set(w, res.Token, res.ExpiresAt)
	slog.Info("user signed up", "user_id", res.User.ID)
	writeJSON(w, http.StatusCreated, model.UserEnvelope{User: res.User})
}

// HandleLogin handles POST /auth/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeDecodeError(w, err)
		return
	}

	res, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.cookie.Set(w, res.Token, res.ExpiresAt)
	writeJSON(w, http.StatusOK, model.UserEnvelope{User: res.User})
}

// HandleLogout handles POST /auth/logout requests. It always clears the
// cookie and succeeds unless the session store cannot be reached.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req model.LogoutRequest
	if err := decodeJSON(w, r, &req, true); errors.Is(err, errBodyTooLarge) {
		writeDecodeError(w, err)
		return
	}
	if req.Reason != "" {
		slog.Info("logout requested", "reason", req.Reason)
	}

	err := h.service.Logout(r.Context(), h.cookie.Read(r))
	h.cookie.Clear(w)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.OKResponse{OK: true})
}
