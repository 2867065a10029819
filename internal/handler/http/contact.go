package http

import (
	"log/slog"
	"net/http"

	"github.com/gamevault/gamevault/internal/forms"
	"github.com/gamevault/gamevault/internal/service"
	"github.com/gamevault/gamevault/pkg/httputil"
	"github.com/gamevault/gamevault/pkg/rules"
)

// ContactHandler handles the public support contact endpoint.
type ContactHandler struct {
	users     *service.UserService
	validator *rules.Validator
	logger    *slog.Logger
}

// NewContactHandler creates a new contact HTTP handler.
func NewContactHandler(users *service.UserService, validator *rules.Validator, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{
		users:     users,
		validator: validator,
		logger:    logger,
	}
}

// ContactRequest is the JSON request body for the support contact form.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Submit handles POST /api/v1/contact
// The submission is accepted and queued; delivery happens asynchronously.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result := h.validator.Validate(map[string]string{
		"name":    req.Name,
		"email":   req.Email,
		"phone":   req.Phone,
		"message": req.Message,
	}, forms.Contact)
	if !result.Valid {
		writeRuleErrors(w, result)
		return
	}

	id := h.users.SubmitContact(r.Context(), &service.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	})

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]any{
		"id": id,
	}})
}
