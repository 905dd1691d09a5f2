package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	"dicee/internal/db"
)

// emit persists an event, then broadcasts it. A persist failure gets one
// retry; a second failure abandons the room rather than let clients see
// state the record does not hold. playerID is empty for room-level events.
func (r *Room) emit(eventType string, payload any, playerID string) {
	evt := newEvent(eventType, payload)
	if err := r.persistEvent(evt, playerID); err != nil {
		log.Error().
			Str("room_code", r.code).
			Str("event_type", eventType).
			Err(err).
			Msg("Event persistence failed twice, abandoning room")
		r.broadcast(errorEvent(errInternal, "room state could not be saved"))
		r.abandon("storage failure")
		return
	}
	r.broadcast(evt)
}

// broadcast fans an event out to every player session and spectator.
func (r *Room) broadcast(evt Event) {
	if r.tap != nil {
		r.tap(evt)
	}
	for _, sess := range r.sessions {
		sess.send(evt)
	}
	for sess := range r.watchers {
		sess.send(evt)
	}
}

func (r *Room) persistEvent(evt Event, playerID string) error {
	if r.srv.conn == nil {
		return nil
	}
	raw, err := json.Marshal(evt.Payload)
	if err != nil {
		return err
	}
	record := db.Event{
		RoomID:    r.dbID,
		PlayerID:  playerID,
		Type:      evt.Type,
		Payload:   datatypes.JSON(raw),
		CreatedAt: evt.Timestamp,
	}
	if err := r.srv.conn.Create(&record).Error; err != nil {
		log.Warn().
			Str("room_code", r.code).
			Str("event_type", evt.Type).
			Err(err).
			Msg("Event persistence failed, retrying")
		record.ID = 0
		return r.srv.conn.Create(&record).Error
	}
	return nil
}

// persistStatus writes the room's durable snapshot: status, turn order, and
// start time. Failures are logged, not fatal; events carry recovery state.
func (r *Room) persistStatus() {
	if r.srv.conn == nil || r.dbID == 0 {
		return
	}
	updates := map[string]any{
		"status":  string(r.status),
		"host_id": r.hostID,
	}
	if len(r.order) > 0 {
		raw, err := json.Marshal(r.order)
		if err == nil {
			updates["player_order"] = datatypes.JSON(raw)
		}
	}
	if !r.startedAt.IsZero() {
		updates["started_at"] = r.startedAt
	}
	err := r.srv.conn.Model(&db.Room{}).Where("id = ?", r.dbID).Updates(updates).Error
	if err != nil {
		log.Error().
			Str("room_code", r.code).
			Err(err).
			Msg("Room status persistence failed")
	}
}

// playerRecord builds the durable row for one player, scorecard included.
func (r *Room) playerRecord(player *Player) (db.Player, error) {
	scorecard, err := json.Marshal(player.Scorecard)
	if err != nil {
		return db.Player{}, err
	}
	now := time.Now().UTC()
	return db.Player{
		RoomID:    r.dbID,
		PlayerID:  player.ID,
		Name:      player.Name,
		Avatar:    player.Avatar,
		Type:      string(player.Type),
		IsHost:    player.IsHost,
		Token:     player.Token,
		Scorecard: datatypes.JSON(scorecard),
		JoinedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// persistPlayerRecord upserts one player row.
func (r *Room) persistPlayerRecord(player *Player) {
	if r.srv.conn == nil || r.dbID == 0 {
		return
	}
	record, err := r.playerRecord(player)
	if err != nil {
		log.Error().Str("player_id", player.ID).Err(err).Msg("Scorecard marshal failed")
		return
	}
	err = r.srv.conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "avatar", "is_host", "scorecard", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		log.Error().
			Str("room_code", r.code).
			Str("player_id", player.ID).
			Err(err).
			Msg("Player persistence failed")
	}
}

// roomRecord builds the room's durable row as persistRoomRecord and
// persistStatus together would leave it.
func (r *Room) roomRecord() db.Room {
	record := db.Room{
		ID:                 r.dbID,
		Code:               r.code,
		Status:             string(r.status),
		HostID:             r.hostID,
		MaxPlayers:         r.settings.MaxPlayers,
		TurnTimeoutSeconds: r.settings.TurnTimeoutSeconds,
		Public:             r.settings.Public,
		AllowSpectators:    r.settings.AllowSpectators,
		CreatedAt:          r.createdAt,
		UpdatedAt:          r.createdAt,
	}
	if len(r.order) > 0 {
		if raw, err := json.Marshal(r.order); err == nil {
			record.PlayerOrder = datatypes.JSON(raw)
		}
	}
	if !r.startedAt.IsZero() {
		startedAt := r.startedAt
		record.StartedAt = &startedAt
	}
	return record
}

// persistRoomRecord inserts the room row at creation time and captures the
// generated id for later updates.
func (r *Room) persistRoomRecord() error {
	if r.srv.conn == nil {
		return nil
	}
	record := r.roomRecord()
	if err := r.srv.conn.Create(&record).Error; err != nil {
		return err
	}
	r.dbID = record.ID
	return nil
}

// isUniqueViolation reports whether err is a Postgres duplicate-key error,
// which is how a room-code collision surfaces.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
