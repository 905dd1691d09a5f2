package server

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"dicee/internal/engine"
)

// handleStartGame moves waiting → starting. Only the host may start, and at
// least two players must be present. Play begins after a short countdown.
func (r *Room) handleStartGame(player *Player) error {
	if player.ID != r.hostID {
		return newRoomError(errNotHost, "only the host can start the game")
	}
	if r.status != statusWaiting {
		return newRoomError(errRoomNotJoinable, "game already started")
	}
	if len(r.players) < minRoomPlayers {
		return newRoomError(errNotEnoughPlayers, "at least two players required")
	}
	r.status = statusStarting
	r.persistStatus()
	r.emit(evtGameStarting, gameStartingPayload{
		CountdownSeconds: r.srv.cfg.StartCountdownSeconds,
	}, "")
	r.scheduleWake(wakeStartCountdown, time.Duration(r.srv.cfg.StartCountdownSeconds)*time.Second)
	r.notifyLobby(lobbyRoomUpdated)
	return nil
}

// handleAddAI seats an AI participant while the room is still waiting. AI
// players count against max_players like anyone else.
func (r *Room) handleAddAI(player *Player, name string) error {
	if player.ID != r.hostID {
		return newRoomError(errNotHost, "only the host can add AI players")
	}
	if r.status != statusWaiting {
		return newRoomError(errRoomNotJoinable, "game already started")
	}
	if len(r.players) >= r.settings.MaxPlayers {
		return newRoomError(errRoomFull, "room is full")
	}
	if name == "" {
		name = fmt.Sprintf("Bot %d", len(r.players))
	}
	ai := newAIPlayer(name)
	r.players = append(r.players, ai)
	r.emit(evtAIJoined, playerJoinedPayload{
		PlayerID: ai.ID,
		Name:     ai.Name,
		IsHost:   false,
		Type:     string(playerAI),
	}, ai.ID)
	r.persistPlayerRecord(ai)
	r.notifyLobby(lobbyRoomUpdated)
	return nil
}

// handleLeave removes a waiting player from the roster. Once play has begun
// the roster and turn order are immutable, so leaving is treated as a
// disconnect; the AFK path skips the seat if it comes up.
func (r *Room) handleLeave(player *Player) error {
	if r.status == statusWaiting {
		remaining := make([]*Player, 0, len(r.players))
		for _, p := range r.players {
			if p.ID != player.ID {
				remaining = append(remaining, p)
			}
		}
		r.players = remaining
		if sess, ok := r.sessions[player.ID]; ok {
			delete(r.sessions, player.ID)
			sess.close("left room")
		}
		r.emit(evtPlayerLeft, playerLeftPayload{PlayerID: player.ID, Name: player.Name}, player.ID)
		if player.ID == r.hostID && len(r.players) > 0 {
			r.promoteHost()
		}
		if r.humanCount() == 0 {
			r.abandon("all players left")
			return nil
		}
		r.notifyLobby(lobbyRoomUpdated)
		return nil
	}
	player.Connected = false
	if sess, ok := r.sessions[player.ID]; ok {
		delete(r.sessions, player.ID)
		sess.close("left room")
	}
	r.emit(evtPlayerLeft, playerLeftPayload{PlayerID: player.ID, Name: player.Name}, player.ID)
	r.afterDisconnect()
	return nil
}

// promoteHost hands the host flag to the earliest-seated remaining human.
func (r *Room) promoteHost() {
	for _, p := range r.players {
		if p.Type == playerHuman {
			p.IsHost = true
			r.hostID = p.ID
			r.persistStatus()
			return
		}
	}
}

// beginPlaying runs when the start countdown fires: shuffle the turn order,
// freeze it, and hand the first turn out.
func (r *Room) beginPlaying() {
	order := make([]string, len(r.players))
	for i, p := range r.players {
		order[i] = p.ID
	}
	r.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	r.order = order
	r.current = 0
	r.status = statusPlaying
	r.startedAt = time.Now().UTC()
	r.persistStatus()
	r.emit(evtGameStarted, gameStartedPayload{TurnOrder: order}, "")
	log.Info().
		Str("room_code", r.code).
		Strs("turn_order", order).
		Msg("Game started")
	r.notifyLobby(lobbyRoomUpdated)
	r.startTurn()
}

// checkCompletion finishes the game once every scorecard is full. Fires at
// most once; completion is terminal.
func (r *Room) checkCompletion() bool {
	if r.status != statusPlaying {
		return false
	}
	for _, p := range r.players {
		if !p.scorecardComplete() {
			return false
		}
	}
	r.status = statusCompleted
	r.persistStatus()
	r.emit(evtGameCompleted, gameCompletedPayload{Rankings: r.rankings()}, "")
	log.Info().
		Str("room_code", r.code).
		Msg("Game completed")
	r.notifyLobby(lobbyRoomUpdated)
	// give clients time to read the result before the room is released
	r.scheduleWake(wakeCleanup, time.Duration(r.srv.cfg.CleanupGraceSeconds)*time.Second)
	return true
}

// rankings orders players by final total, descending. Equal totals share a
// rank; seat order breaks the listing order.
func (r *Room) rankings() []rankingEntry {
	entries := make([]rankingEntry, 0, len(r.players))
	for _, p := range r.players {
		bonus := 0
		if p.upperTotal() >= engine.UpperBonusThreshold {
			bonus = engine.UpperBonus
		}
		entries = append(entries, rankingEntry{
			PlayerID:   p.ID,
			Name:       p.Name,
			Total:      p.finalTotal(),
			UpperBonus: bonus,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Total > entries[j].Total
	})
	rank := 0
	prevTotal := -1
	for i := range entries {
		if entries[i].Total != prevTotal {
			rank = i + 1
			prevTotal = entries[i].Total
		}
		entries[i].Rank = rank
	}
	return entries
}

// afterDisconnect reassesses the room once a human connection is gone. When
// no humans remain connected the cleanup grace window starts; this
// deliberately overwrites any pending turn timer, and a reconnect restores
// the turn timer from current state.
func (r *Room) afterDisconnect() {
	if r.status == statusCompleted || r.status == statusAbandoned {
		return
	}
	if r.connectedHumans() > 0 {
		return
	}
	r.scheduleWake(wakeCleanup, time.Duration(r.srv.cfg.CleanupGraceSeconds)*time.Second)
	log.Info().
		Str("room_code", r.code).
		Int("grace_seconds", r.srv.cfg.CleanupGraceSeconds).
		Msg("Last connection closed, cleanup scheduled")
}

// abandon is the escape hatch out of any non-terminal state. Terminal; the
// room is released immediately.
func (r *Room) abandon(reason string) {
	if r.status == statusCompleted || r.status == statusAbandoned {
		r.release()
		return
	}
	r.status = statusAbandoned
	r.persistStatus()
	r.broadcast(newEvent(evtRoomState, map[string]any{"status": string(r.status), "reason": reason}))
	log.Info().
		Str("room_code", r.code).
		Str("reason", reason).
		Msg("Room abandoned")
	r.release()
}

// release tears the room down: timer stopped, sessions closed, registry and
// lobby told. The actor loop exits after the current message.
func (r *Room) release() {
	r.cancelWake()
	for id, sess := range r.sessions {
		delete(r.sessions, id)
		sess.close("room closed")
	}
	for sess := range r.watchers {
		delete(r.watchers, sess)
		sess.close("room closed")
	}
	r.stopped = true
	close(r.handle.done)
	r.srv.store.Remove(r.code)
	r.notifyLobby(lobbyRoomClosed)
}
