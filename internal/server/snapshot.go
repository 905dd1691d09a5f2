package server

import (
	"time"

	"dicee/internal/engine"
)

// statePayload is the full authoritative room state sent on connect,
// reconnect, and explicit sync requests. A client can rebuild its entire
// view from one of these.
type statePayload struct {
	RoomCode        string          `json:"room_code"`
	Status          string          `json:"status"`
	Settings        Settings        `json:"settings"`
	HostID          string          `json:"host_id"`
	Players         []playerState   `json:"players"`
	TurnOrder       []string        `json:"turn_order,omitempty"`
	CurrentPlayerID string          `json:"current_player_id,omitempty"`
	Round           int             `json:"round,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	StartedAt       *time.Time      `json:"started_at,omitempty"`
	Rankings        []rankingEntry  `json:"rankings,omitempty"`
}

type playerState struct {
	ID        string                  `json:"player_id"`
	Name      string                  `json:"name"`
	Avatar    string                  `json:"avatar,omitempty"`
	Type      string                  `json:"player_type"`
	IsHost    bool                    `json:"is_host"`
	Connected bool                    `json:"connected"`
	Scorecard map[engine.Category]int `json:"scorecard"`
	Dice      []int                   `json:"dice,omitempty"`
	Kept      []bool                  `json:"kept,omitempty"`
	RollsLeft int                     `json:"rolls_left"`
	Total     int                     `json:"total"`
}

func (r *Room) snapshot() statePayload {
	payload := statePayload{
		RoomCode:  r.code,
		Status:    string(r.status),
		Settings:  r.settings,
		HostID:    r.hostID,
		CreatedAt: r.createdAt,
	}
	if !r.startedAt.IsZero() {
		startedAt := r.startedAt
		payload.StartedAt = &startedAt
	}
	for _, p := range r.players {
		state := playerState{
			ID:        p.ID,
			Name:      p.Name,
			Avatar:    p.Avatar,
			Type:      string(p.Type),
			IsHost:    p.IsHost,
			Connected: p.Connected,
			Scorecard: p.Scorecard,
			RollsLeft: p.RollsLeft,
			Total:     p.finalTotal(),
		}
		if p.HasRolled {
			state.Dice = append([]int(nil), p.Dice[:]...)
			state.Kept = append([]bool(nil), p.Kept[:]...)
		}
		payload.Players = append(payload.Players, state)
	}
	if r.status == statusPlaying {
		payload.TurnOrder = append([]string(nil), r.order...)
		if current, ok := r.currentPlayer(); ok {
			payload.CurrentPlayerID = current.ID
			payload.Round = r.roundNumber()
		}
	}
	if r.status == statusCompleted {
		payload.TurnOrder = append([]string(nil), r.order...)
		payload.Rankings = r.rankings()
	}
	return payload
}
