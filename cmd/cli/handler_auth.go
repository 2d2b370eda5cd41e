package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sguter90/agrimaestro/pkg/database"
	"github.com/sguter90/agrimaestro/pkg/models"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	User      *UserInfo `json:"user,omitempty"`
	Message   string    `json:"message,omitempty"`
}

type UserInfo struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	CommunityID string `json:"community_id,omitempty"`
	Language    string `json:"language,omitempty"`
}

func newUserInfo(user *models.User) *UserInfo {
	return &UserInfo{
		ID:          user.ID.String(),
		Username:    user.Username,
		CommunityID: user.CommunityID,
		Language:    user.Language,
	}
}

func (rm *RouteManager) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, LoginResponse{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	// Validate credentials
	user, err := rm.store.ValidateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, database.ErrInvalidCredentials) {
			rm.logger.Error().Err(err).Msg("❌ Failed to validate user")
		}
		writeJSON(w, http.StatusUnauthorized, LoginResponse{
			Success: false,
			Message: "Invalid username or password",
		})
		return
	}

	rm.writeToken(w, user)
}

func (rm *RouteManager) handleLogout(w http.ResponseWriter, r *http.Request) {
	// With JWT, logout is handled client-side by removing the token
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (rm *RouteManager) handleMe(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// Fetch the stored profile so language changes show up without a new token
	stored, err := rm.store.GetUserByID(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		rm.logger.Error().Err(err).Msg("❌ Failed to load user")
		writeError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, newUserInfo(stored))
}

func (rm *RouteManager) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rm.writeToken(w, user)
}

func (rm *RouteManager) writeToken(w http.ResponseWriter, user *models.User) {
	token, expiresAt, err := rm.tokens.Generate(user)
	if err != nil {
		rm.logger.Error().Err(err).Msg("❌ Failed to generate token")
		writeJSON(w, http.StatusInternalServerError, LoginResponse{
			Success: false,
			Message: "Failed to generate token",
		})
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: expiresAt,
		User:      newUserInfo(user),
	})
}
