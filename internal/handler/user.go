package handler

import (
	"net/http"

	"github.com/bengaltrails/bengaltrails-go/internal/middleware"
	"github.com/bengaltrails/bengaltrails-go/internal/model"
	"github.com/bengaltrails/bengaltrails-go/internal/service"
)

// UserHandler serves the signed-in user's own record.
type UserHandler struct {
	service *service.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.AuthService) *UserHandler {
	return &UserHandler{service: svc}
}

// HandleProfile handles GET /user/profile requests.
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse(service.ErrUnauthorized.Error()))
		return
	}

	writeJSON(w, http.StatusOK, model.UserEnvelope{User: user.ToResponse()})
}

// HandleUpdate handles POST /user/update requests.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse(service.ErrUnauthorized.Error()))
		return
	}

	var req model.UpdateUserRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeDecodeError(w, err)
		return
	}

	updated, err := h.service.UpdateName(r.Context(), user.ID, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.UserEnvelope{User: updated})
}
