package server

import (
	"encoding/json"
	"time"

	"dicee/internal/engine"
)

// Command is the client-to-room half of the wire protocol. Every mutation of
// room state flows through one of these, AI turns included.
type Command struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	cmdRoll          = "roll"
	cmdToggleKeep    = "toggleKeep"
	cmdScoreCategory = "scoreCategory"
	cmdChat          = "chat"
	cmdStartGame     = "startGame"
	cmdAddAI         = "addAI"
	cmdLeaveRoom     = "leaveRoom"
	cmdRequestSync   = "requestSync"
)

type toggleKeepPayload struct {
	Kept [5]bool `json:"kept"`
}

type scoreCategoryPayload struct {
	Category string `json:"category"`
}

type chatPayload struct {
	Message string `json:"message"`
}

type addAIPayload struct {
	Name string `json:"name"`
}

// Event is the room-to-client half. Events are persisted before broadcast so
// clients never observe state the room cannot recover.
type Event struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	evtRoomCreated      = "ROOM_CREATED"
	evtRoomState        = "ROOM_STATE"
	evtPlayerJoined     = "PLAYER_JOINED"
	evtPlayerLeft       = "PLAYER_LEFT"
	evtAIJoined         = "AI_JOINED"
	evtPlayerConnection = "PLAYER_CONNECTION"
	evtGameStarting     = "GAME_STARTING"
	evtGameStarted      = "GAME_STARTED"
	evtTurnStarted      = "TURN_STARTED"
	evtTurnEnded        = "TURN_ENDED"
	evtTurnSkipped      = "TURN_SKIPPED"
	evtAFKWarning       = "AFK_WARNING"
	evtGameCompleted    = "GAME_COMPLETED"
	evtDiceRolled       = "DICE_ROLLED"
	evtDiceKept         = "DICE_KEPT"
	evtCategoryScored   = "CATEGORY_SCORED"
	evtStateSync        = "STATE_SYNC"
	evtGameError        = "GAME_ERROR"
	evtChatMessage      = "CHAT_MESSAGE"
)

func newEvent(eventType string, payload any) Event {
	return Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

type playerJoinedPayload struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
	IsHost   bool   `json:"is_host"`
	Type     string `json:"player_type"`
}

type playerLeftPayload struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

type playerConnectionPayload struct {
	PlayerID  string `json:"player_id"`
	Connected bool   `json:"connected"`
}

type gameStartingPayload struct {
	CountdownSeconds int `json:"countdown_seconds"`
}

type gameStartedPayload struct {
	TurnOrder []string `json:"turn_order"`
}

type turnStartedPayload struct {
	PlayerID       string `json:"player_id"`
	RollsLeft      int    `json:"rolls_left"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	Round          int    `json:"round"`
}

type turnEndedPayload struct {
	PlayerID string `json:"player_id"`
}

type turnSkippedPayload struct {
	PlayerID string `json:"player_id"`
	Category string `json:"category"`
	Score    int    `json:"score"`
}

type afkWarningPayload struct {
	PlayerID     string `json:"player_id"`
	GraceSeconds int    `json:"grace_seconds"`
}

type diceRolledPayload struct {
	PlayerID       string                  `json:"player_id"`
	Dice           [5]int                  `json:"dice"`
	RollsLeft      int                     `json:"rolls_left"`
	CategoryScores map[engine.Category]int `json:"category_scores"`
}

type diceKeptPayload struct {
	PlayerID string  `json:"player_id"`
	Kept     [5]bool `json:"kept"`
}

type categoryScoredPayload struct {
	PlayerID string `json:"player_id"`
	Category string `json:"category"`
	Score    int    `json:"score"`
	Total    int    `json:"total"`
}

type rankingEntry struct {
	Rank       int    `json:"rank"`
	PlayerID   string `json:"player_id"`
	Name       string `json:"name"`
	Total      int    `json:"total"`
	UpperBonus int    `json:"upper_bonus"`
}

type gameCompletedPayload struct {
	Rankings []rankingEntry `json:"rankings"`
}

type gameErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type chatMessagePayload struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Message  string `json:"message"`
}
