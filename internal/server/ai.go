package server

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"dicee/internal/engine"
)

// scheduleAIMove queues the AI player's next decision after a randomized
// thinking delay. The message carries the turn sequence so a decision queued
// for a turn that has since ended is dropped.
func (r *Room) scheduleAIMove(player *Player) {
	cfg := r.srv.cfg
	spread := cfg.AIThinkMaxMillis - cfg.AIThinkMinMillis
	delay := time.Duration(cfg.AIThinkMinMillis) * time.Millisecond
	if spread > 0 {
		delay += time.Duration(r.rng.Intn(spread)) * time.Millisecond
	}
	id := player.ID
	seq := r.turnSeq
	time.AfterFunc(delay, func() {
		r.post(aiActMsg{playerID: id, turnSeq: seq})
	})
}

// handleAIAct makes one decision for the AI player whose think delay just
// elapsed, then schedules the next one until the turn is over. Decisions go
// through applyCommand so the AI obeys the same rules as a human.
func (r *Room) handleAIAct(m aiActMsg) {
	if m.turnSeq != r.turnSeq || r.status != statusPlaying {
		return
	}
	player, ok := r.currentPlayer()
	if !ok || player.ID != m.playerID || player.Type != playerAI {
		return
	}
	cmd := r.aiDecide(player)
	if err := r.applyCommand(player, cmd); err != nil {
		log.Warn().
			Str("room_code", r.code).
			Str("player_id", player.ID).
			Str("command", cmd.Type).
			Err(err).
			Msg("AI command rejected, scoring best available")
		r.aiScoreFallback(player)
		return
	}
	if current, ok := r.currentPlayer(); ok && current.ID == player.ID && r.status == statusPlaying {
		r.scheduleAIMove(player)
	}
}

// aiDecide picks the AI's next command: roll first, then either bank the
// best immediate score or keep the optimal dice and reroll, whichever the
// expected value favors.
func (r *Room) aiDecide(player *Player) Command {
	if !player.HasRolled {
		return Command{Type: cmdRoll}
	}
	available := player.unscoredCategories()
	best, ok := engine.BestCategory(player.Dice, available)
	if !ok {
		return Command{Type: cmdRoll}
	}
	immediate := float64(engine.Score(player.Dice, best))
	if player.RollsLeft > 0 {
		mask := engine.OptimalKeepMask(player.Dice, player.RollsLeft, best)
		expected := engine.ExpectedValue(player.Dice, mask, player.RollsLeft, best)
		if expected > immediate {
			if mask != player.Kept {
				payload, _ := json.Marshal(toggleKeepPayload{Kept: mask})
				return Command{Type: cmdToggleKeep, Payload: payload}
			}
			return Command{Type: cmdRoll}
		}
	}
	payload, _ := json.Marshal(scoreCategoryPayload{Category: string(best)})
	return Command{Type: cmdScoreCategory, Payload: payload}
}

// aiScoreFallback ends a stuck AI turn by banking the best score still
// available, so a decision bug can never stall the room.
func (r *Room) aiScoreFallback(player *Player) {
	best, ok := engine.BestCategory(player.Dice, player.unscoredCategories())
	if !ok {
		return
	}
	if !player.HasRolled {
		if err := r.handleRoll(player); err != nil {
			return
		}
		best, ok = engine.BestCategory(player.Dice, player.unscoredCategories())
		if !ok {
			return
		}
	}
	_ = r.handleScoreCategory(player, best)
}
