package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/isdelr/scheduleu-web/internal/auth"
	"github.com/isdelr/scheduleu-web/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles JSON requests about the signed-in user.
type UserHandler struct {
	service services.AuthServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.AuthServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// GetMe retrieves the currently authenticated user from the auth service.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		http.Error(w, "Could not retrieve user from token", http.StatusUnauthorized)
		return
	}

	user, err := h.service.CurrentUser(r.Context(), claims.AccessToken)
	if err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Session no longer valid upstream")
		http.Error(w, "Session expired", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}
