package server

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	mrand "math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"dicee/internal/engine"
)

// Room messages. Everything that can touch room state arrives through the
// inbox: websocket commands, HTTP join requests, timer wakes, AI moves, and
// session attach/detach. The room goroutine drains them one at a time, which
// is what stands in for locking.
type roomMsg interface{ roomMsg() }

type commandMsg struct {
	sess *session
	cmd  Command
}

type aiActMsg struct {
	playerID string
	turnSeq  uint64
}

type wakeMsg struct {
	purpose wakePurpose
	gen     uint64
}

type joinMsg struct {
	name   string
	avatar string
	reply  chan joinReply
}

type joinReply struct {
	playerID  string
	token     string
	spectator bool
	err       error
}

type authMsg struct {
	playerID string
	token    string
	reply    chan authReply
}

type authReply struct {
	ok        bool
	name      string
	avatar    string
	isHost    bool
	spectator bool
}

type attachMsg struct{ sess *session }
type detachMsg struct{ sess *session }

func (commandMsg) roomMsg() {}
func (aiActMsg) roomMsg()   {}
func (wakeMsg) roomMsg()    {}
func (joinMsg) roomMsg()    {}
func (authMsg) roomMsg()    {}
func (attachMsg) roomMsg()  {}
func (detachMsg) roomMsg()  {}

// done is closed by stop(); post selects against it so senders never block on
// a dead room.
type roomHandle struct {
	done chan struct{}
}

func newRoom(srv *Server, code string, settings Settings, hostName, hostAvatar string) (*Room, *Player) {
	host := newHumanPlayer(hostName, hostAvatar, true)
	room := &Room{
		code:      code,
		status:    statusWaiting,
		settings:  settings,
		hostID:    host.ID,
		players:   []*Player{host},
		createdAt: time.Now().UTC(),
		rng:       mrand.New(mrand.NewSource(cryptoSeed())),
		inbox:     make(chan roomMsg, 64),
		sessions:  make(map[string]*session),
		watchers:  make(map[*session]struct{}),
		srv:       srv,
	}
	room.handle = &roomHandle{done: make(chan struct{})}
	return room, host
}

func newHumanPlayer(name, avatar string, isHost bool) *Player {
	return &Player{
		ID:        uuid.NewString(),
		Name:      name,
		Avatar:    avatar,
		Type:      playerHuman,
		IsHost:    isHost,
		Token:     newToken(),
		Scorecard: make(map[engine.Category]int),
		RollsLeft: rollsPerTurn,
	}
}

func newAIPlayer(name string) *Player {
	return &Player{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      playerAI,
		Connected: true,
		Scorecard: make(map[engine.Category]int),
		RollsLeft: rollsPerTurn,
	}
}

// cryptoSeed seeds the per-room dice RNG from the OS entropy pool so clients
// cannot predict or replay rolls.
func cryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

// post delivers a message to the room actor. It returns false once the room
// has been released.
func (r *Room) post(msg roomMsg) bool {
	select {
	case <-r.handle.done:
		return false
	case r.inbox <- msg:
		return true
	}
}

// run is the room's actor loop. It is the only goroutine that reads or
// writes room state.
func (r *Room) run() {
	for {
		select {
		case <-r.handle.done:
			return
		case msg := <-r.inbox:
			r.dispatch(msg)
			if r.stopped {
				return
			}
		}
	}
}

func (r *Room) dispatch(msg roomMsg) {
	switch m := msg.(type) {
	case commandMsg:
		r.handleCommand(m.sess, m.cmd)
	case aiActMsg:
		r.handleAIAct(m)
	case wakeMsg:
		r.handleWake(m)
	case joinMsg:
		m.reply <- r.handleJoin(m)
	case authMsg:
		m.reply <- r.handleAuth(m)
	case attachMsg:
		r.handleAttach(m.sess)
	case detachMsg:
		r.handleDetach(m.sess)
	}
}

// handleCommand validates the sender and routes the command. An invalid
// command produces a private GAME_ERROR to the sender and no state change.
func (r *Room) handleCommand(sess *session, cmd Command) {
	if sess.spectator {
		if cmd.Type == cmdRequestSync {
			sess.send(newEvent(evtStateSync, r.snapshot()))
			return
		}
		sess.send(errorEvent(errSpectatorsForbidden, "spectators cannot play"))
		return
	}
	player, ok := r.player(sess.identity.UserID)
	if !ok {
		sess.send(errorEvent(errInvalidCommand, "unknown player"))
		return
	}
	if err := r.applyCommand(player, cmd); err != nil {
		sess.send(roomErrorEvent(err))
		log.Debug().
			Str("room_code", r.code).
			Str("player_id", player.ID).
			Str("command", cmd.Type).
			Err(err).
			Msg("Command rejected")
	}
}

// applyCommand is the single validation and mutation path shared by human
// sessions and the AI scheduler.
func (r *Room) applyCommand(player *Player, cmd Command) error {
	switch cmd.Type {
	case cmdStartGame:
		return r.handleStartGame(player)
	case cmdAddAI:
		var payload addAIPayload
		if err := decodePayload(cmd.Payload, &payload); err != nil {
			return err
		}
		return r.handleAddAI(player, payload.Name)
	case cmdLeaveRoom:
		return r.handleLeave(player)
	case cmdRoll:
		return r.handleRoll(player)
	case cmdToggleKeep:
		var payload toggleKeepPayload
		if err := decodePayload(cmd.Payload, &payload); err != nil {
			return err
		}
		return r.handleToggleKeep(player, payload.Kept)
	case cmdScoreCategory:
		var payload scoreCategoryPayload
		if err := decodePayload(cmd.Payload, &payload); err != nil {
			return err
		}
		return r.handleScoreCategory(player, engine.Category(payload.Category))
	case cmdChat:
		var payload chatPayload
		if err := decodePayload(cmd.Payload, &payload); err != nil {
			return err
		}
		return r.handleChat(player, payload.Message)
	case cmdRequestSync:
		if sess, ok := r.sessions[player.ID]; ok {
			sess.send(newEvent(evtStateSync, r.snapshot()))
		}
		return nil
	default:
		return newRoomError(errInvalidCommand, "unknown command type")
	}
}

func decodePayload(raw json.RawMessage, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return newRoomError(errInvalidCommand, "malformed payload")
	}
	return nil
}

// handleJoin admits a new human player, or a spectator once play has begun.
func (r *Room) handleJoin(m joinMsg) joinReply {
	if r.status == statusWaiting {
		if len(r.players) >= r.settings.MaxPlayers {
			return joinReply{err: newRoomError(errRoomFull, "room is full")}
		}
		player := newHumanPlayer(m.name, m.avatar, false)
		r.players = append(r.players, player)
		r.emit(evtPlayerJoined, playerJoinedPayload{
			PlayerID: player.ID,
			Name:     player.Name,
			Avatar:   player.Avatar,
			IsHost:   false,
			Type:     string(playerHuman),
		}, player.ID)
		r.persistPlayerRecord(player)
		r.notifyLobby(lobbyRoomUpdated)
		log.Info().
			Str("room_code", r.code).
			Str("player_id", player.ID).
			Str("player_name", player.Name).
			Int("player_count", len(r.players)).
			Msg("Player joined room")
		return joinReply{playerID: player.ID, token: player.Token}
	}
	if r.status == statusStarting || r.status == statusPlaying {
		if !r.settings.AllowSpectators {
			return joinReply{err: newRoomError(errRoomNotJoinable, "game already started")}
		}
		id := uuid.NewString()
		token := newToken()
		if r.spectatorTokens == nil {
			r.spectatorTokens = make(map[string]spectatorInfo)
		}
		r.spectatorTokens[id] = spectatorInfo{name: m.name, token: token}
		return joinReply{playerID: id, token: token, spectator: true}
	}
	return joinReply{err: newRoomError(errRoomNotJoinable, "room is closed")}
}

// handleAuth answers the websocket upgrade's credential check.
func (r *Room) handleAuth(m authMsg) authReply {
	if player, ok := r.player(m.playerID); ok {
		if player.Type == playerHuman && player.Token == m.token {
			return authReply{ok: true, name: player.Name, avatar: player.Avatar, isHost: player.IsHost}
		}
		return authReply{}
	}
	if info, ok := r.spectatorTokens[m.playerID]; ok && info.token == m.token {
		return authReply{ok: true, name: info.name, spectator: true}
	}
	return authReply{}
}

func (r *Room) handleChat(player *Player, message string) error {
	message = trimChatMessage(message)
	if message == "" {
		return newRoomError(errInvalidCommand, "empty chat message")
	}
	r.emit(evtChatMessage, chatMessagePayload{
		PlayerID: player.ID,
		Name:     player.Name,
		Message:  message,
	}, player.ID)
	return nil
}

func errorEvent(code, message string) Event {
	return newEvent(evtGameError, gameErrorPayload{Code: code, Message: message})
}

func roomErrorEvent(err error) Event {
	if re, ok := err.(*roomError); ok {
		return errorEvent(re.Code, re.Message)
	}
	return errorEvent(errInternal, "internal error")
}
