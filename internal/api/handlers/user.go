package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/Harshitk-cp/outreach/internal/api/middleware"
	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/Harshitk-cp/outreach/internal/store"
	"go.uber.org/zap"
)

type UserHandler struct {
	store  domain.UserStore
	logger *zap.Logger
}

func NewUserHandler(store domain.UserStore, logger *zap.Logger) *UserHandler {
	return &UserHandler{store: store, logger: logger}
}

type createUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type createUserResponse struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

// Create registers a user and returns its API key. The key is not stored and
// cannot be shown again.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "email is malformed")
		return
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		h.logger.Error("failed to generate API key", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate API key")
		return
	}

	user := &domain.User{
		Email:      req.Email,
		Name:       strings.TrimSpace(req.Name),
		APIKeyHash: middleware.HashAPIKey(apiKey),
	}
	if err := h.store.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "user already exists")
			return
		}
		h.logger.Error("failed to create user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Message: "User created successfully",
		Result: createUserResponse{
			ID:     user.ID.String(),
			Email:  user.Email,
			Name:   user.Name,
			APIKey: apiKey,
		},
	})
}

func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "ok_" + hex.EncodeToString(b), nil
}
