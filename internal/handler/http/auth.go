package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gamevault/gamevault/internal/forms"
	"github.com/gamevault/gamevault/internal/service"
	"github.com/gamevault/gamevault/pkg/httputil"
	"github.com/gamevault/gamevault/pkg/rules"
)

// AuthHandler handles registration and session endpoints.
type AuthHandler struct {
	users     *service.UserService
	validator *rules.Validator
	logger    *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(users *service.UserService, validator *rules.Validator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:     users,
		validator: validator,
		logger:    logger,
	}
}

// RegisterRequest is the JSON request body for creating an account.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	DisplayName     string `json:"display_name"`
}

// LoginRequest is the JSON request body for signing in.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.validator.ValidateAsync(r.Context(), map[string]string{
		"username":        req.Username,
		"email":           req.Email,
		"password":        req.Password,
		"confirmPassword": req.ConfirmPassword,
	}, forms.Registration)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if !result.Valid {
		writeRuleErrors(w, result)
		return
	}

	user, pair, err := h.users.Register(r.Context(), &service.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: map[string]any{
		"user":   user,
		"tokens": pair,
	}})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result := h.validator.Validate(map[string]string{
		"identifier": req.Identifier,
		"password":   req.Password,
	}, forms.Login)
	if !result.Valid {
		writeRuleErrors(w, result)
		return
	}

	user, pair, err := h.users.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"user":   user,
		"tokens": pair,
	}})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := h.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"tokens": pair,
	}})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.users.Logout(r.Context(), req.RefreshToken); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decodeJSON decodes a capped JSON request body, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}
	return true
}

// writeRuleErrors renders a failed rules.Result as a 422 with per-field details.
func writeRuleErrors(w http.ResponseWriter, result rules.Result) {
	fields := make(map[string]string, len(result.Errors))
	for field := range result.Errors {
		fields[field] = result.First(field)
	}
	httputil.WriteJSON(w, http.StatusUnprocessableEntity, httputil.Response{
		Error: &httputil.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "validation failed",
			Fields:  fields,
		},
	})
}
