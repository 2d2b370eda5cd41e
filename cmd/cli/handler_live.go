package main

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/sguter90/agrimaestro/pkg/live"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// liveHandler upgrades to a websocket streaming the caller's community events.
// The token comes from the Authorization header or the token query parameter.
func (rm *RouteManager) liveHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	user, err := rm.tokens.Parse(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	if user.CommunityID == "" {
		writeError(w, http.StatusForbidden, "User is not assigned to a community")
		return
	}

	upgrader := upgrader
	upgrader.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || rm.allowedOrigin(origin) != ""
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		rm.logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	live.NewClient(rm.hub, conn, user.CommunityID).Serve()
}
