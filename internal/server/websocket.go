package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWS authenticates a player or spectator against the room actor and
// hands the upgraded socket over as a session.
func (s *Server) handleWS(w http.ResponseWriter, req *http.Request) {
	code := normalizeRoomCode(chi.URLParam(req, "code"))
	playerID := req.URL.Query().Get("player_id")
	token := req.URL.Query().Get("token")

	room, ok := s.store.Get(code)
	if !ok {
		writeError(w, http.StatusNotFound, errInvalidRoomCode, "room not found")
		return
	}
	reply := make(chan authReply, 1)
	if !room.post(authMsg{playerID: playerID, token: token, reply: reply}) {
		writeError(w, http.StatusNotFound, errInvalidRoomCode, "room not found")
		return
	}
	auth := <-reply
	if !auth.ok {
		writeError(w, http.StatusUnauthorized, errInvalidCommand, "invalid credentials")
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Warn().Err(err).Str("room_code", code).Msg("Websocket upgrade failed")
		return
	}
	sess := newSession(room, conn, identity{
		UserID:      playerID,
		Name:        auth.name,
		Avatar:      auth.avatar,
		IsHost:      auth.isHost,
		ConnectedAt: time.Now().UTC(),
	}, auth.spectator)
	if !room.post(attachMsg{sess: sess}) {
		sess.close("room closed")
		return
	}
	go sess.pingLoop()
	sess.readPump()
}

// handleAttach activates a session on the actor goroutine. A second socket
// for the same player supersedes the first: the old one is told why before
// the new one becomes authoritative.
func (r *Room) handleAttach(sess *session) {
	if sess.spectator {
		for old := range r.watchers {
			if old.identity.UserID == sess.identity.UserID {
				old.close("superseded")
				delete(r.watchers, old)
			}
		}
		r.watchers[sess] = struct{}{}
		sess.send(newEvent(evtStateSync, r.snapshot()))
		r.notifyLobby(lobbyRoomUpdated)
		return
	}
	if old, ok := r.sessions[sess.identity.UserID]; ok {
		old.close("superseded")
	}
	r.sessions[sess.identity.UserID] = sess

	player, ok := r.player(sess.identity.UserID)
	if !ok {
		sess.close("room closed")
		return
	}
	wasConnected := player.Connected
	player.Connected = true
	if !wasConnected {
		r.emit(evtPlayerConnection, playerConnectionPayload{
			PlayerID:  player.ID,
			Connected: true,
		}, player.ID)
	}
	sess.send(newEvent(evtStateSync, r.snapshot()))
	r.notifyLobby(lobbyRoomUpdated)
	log.Info().
		Str("room_code", r.code).
		Str("player_id", player.ID).
		Msg("Player connected")

	// A reconnect cancels a pending cleanup; in a live game the turn clock
	// restarts for whoever is on the clock now.
	if r.wakePurpose == wakeCleanup && r.status != statusCompleted {
		if r.status == statusPlaying {
			r.armTurnWake()
		} else {
			r.cancelWake()
		}
	}
}

// handleDetach deactivates a session. A superseded socket's detach is
// ignored: the replacement session is already live.
func (r *Room) handleDetach(sess *session) {
	if sess.spectator {
		if _, ok := r.watchers[sess]; ok {
			delete(r.watchers, sess)
			r.notifyLobby(lobbyRoomUpdated)
		}
		return
	}
	current, ok := r.sessions[sess.identity.UserID]
	if !ok || current != sess {
		return
	}
	delete(r.sessions, sess.identity.UserID)

	player, ok := r.player(sess.identity.UserID)
	if !ok {
		return
	}
	player.Connected = false
	r.emit(evtPlayerConnection, playerConnectionPayload{
		PlayerID:  player.ID,
		Connected: false,
	}, player.ID)
	r.notifyLobby(lobbyRoomUpdated)
	log.Info().
		Str("room_code", r.code).
		Str("player_id", player.ID).
		Msg("Player disconnected")
	r.afterDisconnect()
}
