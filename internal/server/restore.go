package server

import (
	"encoding/json"
	mrand "math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"dicee/internal/db"
	"dicee/internal/engine"
)

// Restore loads every non-terminal room from the database back into the
// registry after a restart. Connections are gone, so each restored room
// starts its cleanup grace window; reconnecting players cancel it.
func (s *Server) Restore() error {
	if s.conn == nil {
		return nil
	}
	var records []db.Room
	err := s.conn.
		Where("status IN ?", []string{string(statusWaiting), string(statusStarting), string(statusPlaying)}).
		Find(&records).Error
	if err != nil {
		return err
	}
	restored := 0
	for i := range records {
		if err := s.restoreRoom(&records[i]); err != nil {
			log.Error().
				Str("room_code", records[i].Code).
				Err(err).
				Msg("Room restore failed, marking abandoned")
			s.conn.Model(&db.Room{}).
				Where("id = ?", records[i].ID).
				Update("status", string(statusAbandoned))
			continue
		}
		restored++
	}
	if restored > 0 {
		log.Info().Int("rooms", restored).Msg("Rooms restored from database")
	}
	return nil
}

func (s *Server) restoreRoom(record *db.Room) error {
	var playerRows []db.Player
	if err := s.conn.Where("room_id = ?", record.ID).Order("id").Find(&playerRows).Error; err != nil {
		return err
	}
	room, err := s.buildRoom(record, playerRows)
	if err != nil {
		return err
	}
	if !s.store.Add(room) {
		return newRoomError(errInternal, "room code already registered")
	}
	if room.status == statusPlaying {
		room.current = resumeIndex(room)
		room.startTurn()
	}
	// no one is connected yet; the grace window runs until someone returns
	room.scheduleWake(wakeCleanup, time.Duration(s.cfg.CleanupGraceSeconds)*time.Second)
	go room.run()
	room.notifyLobby(lobbyRoomCreated)
	return nil
}

// buildRoom reassembles an actor from its durable rows. The result is not
// yet registered or running.
func (s *Server) buildRoom(record *db.Room, playerRows []db.Player) (*Room, error) {
	room := &Room{
		code:   record.Code,
		status: RoomStatus(record.Status),
		settings: Settings{
			MaxPlayers:         record.MaxPlayers,
			TurnTimeoutSeconds: record.TurnTimeoutSeconds,
			Public:             record.Public,
			AllowSpectators:    record.AllowSpectators,
		},
		hostID:    record.HostID,
		createdAt: record.CreatedAt,
		dbID:      record.ID,
		rng:       mrand.New(mrand.NewSource(cryptoSeed())),
		inbox:     make(chan roomMsg, 64),
		sessions:  make(map[string]*session),
		watchers:  make(map[*session]struct{}),
		srv:       s,
	}
	room.handle = &roomHandle{done: make(chan struct{})}
	if record.StartedAt != nil {
		room.startedAt = *record.StartedAt
	}
	for _, row := range playerRows {
		player := &Player{
			ID:        row.PlayerID,
			Name:      row.Name,
			Avatar:    row.Avatar,
			Type:      PlayerType(row.Type),
			IsHost:    row.IsHost,
			Token:     row.Token,
			Scorecard: make(map[engine.Category]int),
			RollsLeft: rollsPerTurn,
		}
		if player.Type == playerAI {
			player.Connected = true
		}
		if len(row.Scorecard) > 0 {
			if err := json.Unmarshal(row.Scorecard, &player.Scorecard); err != nil {
				return nil, err
			}
		}
		room.players = append(room.players, player)
	}

	// A countdown interrupted by the restart is restarted from the lobby.
	if room.status == statusStarting {
		room.status = statusWaiting
	}
	if room.status == statusPlaying {
		if len(record.PlayerOrder) == 0 {
			room.status = statusWaiting
		} else if err := json.Unmarshal(record.PlayerOrder, &room.order); err != nil {
			return nil, err
		}
	}
	return room, nil
}

// resumeIndex picks the seat whose turn it was: the first player in order
// with the fewest scored categories.
func resumeIndex(room *Room) int {
	min := len(engine.Categories) + 1
	index := 0
	for i, id := range room.order {
		player, ok := room.player(id)
		if !ok {
			continue
		}
		if len(player.Scorecard) < min {
			min = len(player.Scorecard)
			index = i
		}
	}
	return index
}
