package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sguter90/agrimaestro/pkg/assistant"
)

// ChatRequest is the body of an assistant chat call
type ChatRequest struct {
	Messages []assistant.Message `json:"messages"`
	Language string              `json:"language"`
}

// chatHandler forwards a conversation to the farming assistant
func (rm *RouteManager) chatHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	language := req.Language
	if language == "" {
		language = user.Language
	}

	reply, err := rm.assistant.Chat(r.Context(), req.Messages, language)
	if err != nil {
		switch {
		case errors.Is(err, assistant.ErrInvalidMessages):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, assistant.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			rm.logger.Error().Err(err).Str("user", user.ID.String()).Msg("❌ Assistant request failed")
			writeError(w, http.StatusBadGateway, "Assistant request failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, reply)
}
