package server

import (
	"net/http"
	"strings"

	"dicee/internal/config"
)

type createRoomRequest struct {
	Name            string `json:"name"`
	Avatar          string `json:"avatar"`
	MaxPlayers      int    `json:"max_players"`
	TurnTimeout     int    `json:"turn_timeout_seconds"`
	Public          bool   `json:"public"`
	AllowSpectators bool   `json:"allow_spectators"`
}

type joinRoomRequest struct {
	RoomCode string `json:"room_code"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
}

type roomCredentials struct {
	RoomCode  string `json:"room_code"`
	PlayerID  string `json:"player_id"`
	Token     string `json:"token"`
	Spectator bool   `json:"spectator,omitempty"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, req *http.Request) {
	var body createRoomRequest
	if err := readJSON(req, &body); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidCommand, "malformed request body")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, errInvalidCommand, "name is required")
		return
	}
	settings := normalizeSettings(body, s.cfg)
	room, host, err := s.createRoom(settings, name, body.Avatar)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errInternal, "could not create room")
		return
	}
	writeJSON(w, http.StatusCreated, roomCredentials{
		RoomCode: room.code,
		PlayerID: host.ID,
		Token:    host.Token,
	})
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, req *http.Request) {
	var body joinRoomRequest
	if err := readJSON(req, &body); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidCommand, "malformed request body")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, errInvalidCommand, "name is required")
		return
	}
	code := normalizeRoomCode(body.RoomCode)
	room, ok := s.store.Get(code)
	if !ok {
		writeError(w, http.StatusNotFound, errInvalidRoomCode, "room not found")
		return
	}
	reply := make(chan joinReply, 1)
	if !room.post(joinMsg{name: name, avatar: body.Avatar, reply: reply}) {
		writeError(w, http.StatusNotFound, errInvalidRoomCode, "room not found")
		return
	}
	result := <-reply
	if result.err != nil {
		status := http.StatusConflict
		if re, ok := result.err.(*roomError); ok && re.Code == errRoomFull {
			status = http.StatusForbidden
		}
		if re, ok := result.err.(*roomError); ok {
			writeError(w, status, re.Code, re.Message)
		} else {
			writeError(w, http.StatusInternalServerError, errInternal, "join failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, roomCredentials{
		RoomCode:  code,
		PlayerID:  result.playerID,
		Token:     result.token,
		Spectator: result.spectator,
	})
}

func (s *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms": s.lobby.Rooms(),
	})
}

func (s *Server) handleOnlineUsers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{
		"online": s.lobby.OnlineUsers(),
	})
}

// normalizeSettings clamps client-supplied settings to the configured
// bounds, falling back to defaults where fields are absent.
func normalizeSettings(body createRoomRequest, cfg config.Config) Settings {
	settings := Settings{
		MaxPlayers:         body.MaxPlayers,
		TurnTimeoutSeconds: body.TurnTimeout,
		Public:             body.Public,
		AllowSpectators:    body.AllowSpectators,
	}
	if settings.MaxPlayers == 0 {
		settings.MaxPlayers = cfg.MaxPlayers
	}
	if settings.MaxPlayers < minRoomPlayers {
		settings.MaxPlayers = minRoomPlayers
	}
	if settings.MaxPlayers > maxRoomPlayers {
		settings.MaxPlayers = maxRoomPlayers
	}
	if settings.TurnTimeoutSeconds <= 0 {
		settings.TurnTimeoutSeconds = cfg.TurnTimeoutSeconds
	}
	if settings.TurnTimeoutSeconds < 10 {
		settings.TurnTimeoutSeconds = 10
	}
	if settings.TurnTimeoutSeconds > 300 {
		settings.TurnTimeoutSeconds = 300
	}
	return settings
}
