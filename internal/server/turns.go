package server

import (
	"github.com/rs/zerolog/log"

	"dicee/internal/engine"
)

// startTurn resets the current player's per-turn state, announces the turn,
// and arms the turn-timeout wake. AI turns additionally get a thinking delay
// scheduled.
func (r *Room) startTurn() {
	player, ok := r.currentPlayer()
	if !ok {
		return
	}
	player.Dice = engine.Dice{}
	player.HasRolled = false
	player.Kept = engine.KeepMask{}
	player.RollsLeft = rollsPerTurn
	r.turnSeq++
	r.emit(evtTurnStarted, turnStartedPayload{
		PlayerID:       player.ID,
		RollsLeft:      player.RollsLeft,
		TimeoutSeconds: r.settings.TurnTimeoutSeconds,
		Round:          r.roundNumber(),
	}, player.ID)
	r.armTurnWake()
	if player.Type == playerAI {
		r.scheduleAIMove(player)
	}
}

// roundNumber is 1-based: one round per scored category.
func (r *Room) roundNumber() int {
	if player, ok := r.currentPlayer(); ok {
		return len(player.Scorecard) + 1
	}
	return 0
}

// requireTurn validates that the room is playing and it is this player's
// turn. All three turn commands funnel through it.
func (r *Room) requireTurn(player *Player) error {
	if r.status != statusPlaying {
		return newRoomError(errRoomNotJoinable, "game is not in progress")
	}
	current, ok := r.currentPlayer()
	if !ok || current.ID != player.ID {
		return newRoomError(errNotYourTurn, "not your turn")
	}
	return nil
}

// handleRoll rolls every die not covered by the kept mask. Rolls happen
// server-side only; the client never supplies die values.
func (r *Room) handleRoll(player *Player) error {
	if err := r.requireTurn(player); err != nil {
		return err
	}
	if player.RollsLeft <= 0 {
		return newRoomError(errNoRollsRemaining, "no rolls remaining")
	}
	for i := 0; i < 5; i++ {
		if !player.HasRolled || !player.Kept[i] {
			player.Dice[i] = r.rng.Intn(6) + 1
		}
	}
	player.HasRolled = true
	player.RollsLeft--
	r.emit(evtDiceRolled, diceRolledPayload{
		PlayerID:       player.ID,
		Dice:           player.Dice,
		RollsLeft:      player.RollsLeft,
		CategoryScores: engine.ScoreAll(player.Dice),
	}, player.ID)
	log.Debug().
		Str("room_code", r.code).
		Str("player_id", player.ID).
		Ints("dice", player.Dice[:]).
		Int("rolls_left", player.RollsLeft).
		Msg("Dice rolled")
	r.armTurnWake()
	return nil
}

// handleToggleKeep replaces the kept mask. Legal only after the first roll
// and while a reroll is still possible.
func (r *Room) handleToggleKeep(player *Player, kept [5]bool) error {
	if err := r.requireTurn(player); err != nil {
		return err
	}
	if !player.HasRolled {
		return newRoomError(errRollRequired, "roll before keeping dice")
	}
	if player.RollsLeft <= 0 {
		return newRoomError(errNoRollsRemaining, "no rolls remaining")
	}
	player.Kept = kept
	r.emit(evtDiceKept, diceKeptPayload{PlayerID: player.ID, Kept: kept}, player.ID)
	r.armTurnWake()
	return nil
}

// handleScoreCategory fills a category and ends the turn. A category can
// only ever be written once per player.
func (r *Room) handleScoreCategory(player *Player, category engine.Category) error {
	if err := r.requireTurn(player); err != nil {
		return err
	}
	if !category.Valid() {
		return newRoomError(errInvalidCommand, "unknown category")
	}
	if !player.HasRolled {
		return newRoomError(errRollRequired, "roll before scoring")
	}
	if player.scored(category) {
		return newRoomError(errCategoryScored, "category already scored")
	}
	score := engine.Score(player.Dice, category)
	player.Scorecard[category] = score
	r.persistPlayerRecord(player)
	r.emit(evtCategoryScored, categoryScoredPayload{
		PlayerID: player.ID,
		Category: string(category),
		Score:    score,
		Total:    player.finalTotal(),
	}, player.ID)
	log.Info().
		Str("room_code", r.code).
		Str("player_id", player.ID).
		Str("category", string(category)).
		Int("score", score).
		Msg("Category scored")
	r.endTurn(player)
	return nil
}

// endTurn closes out the current turn and advances, unless the game just
// finished.
func (r *Room) endTurn(player *Player) {
	r.emit(evtTurnEnded, turnEndedPayload{PlayerID: player.ID}, player.ID)
	if r.checkCompletion() {
		return
	}
	r.current = (r.current + 1) % len(r.order)
	r.startTurn()
}

// autoResolveTurn is the AFK terminal step: score the best remaining option
// for the dice on the table, or zero out the first open category when the
// player never rolled. Emits exactly one TURN_SKIPPED.
func (r *Room) autoResolveTurn() {
	player, ok := r.currentPlayer()
	if !ok {
		return
	}
	var category engine.Category
	var score int
	if player.HasRolled {
		best, found := engine.BestCategory(player.Dice, player.unscoredCategories())
		if !found {
			return
		}
		category = best
		score = engine.Score(player.Dice, category)
	} else {
		for _, cat := range engine.Categories {
			if !player.scored(cat) {
				category = cat
				break
			}
		}
		score = 0
	}
	player.Scorecard[category] = score
	r.persistPlayerRecord(player)
	r.emit(evtTurnSkipped, turnSkippedPayload{
		PlayerID: player.ID,
		Category: string(category),
		Score:    score,
	}, player.ID)
	log.Info().
		Str("room_code", r.code).
		Str("player_id", player.ID).
		Str("category", string(category)).
		Int("score", score).
		Msg("Turn auto-resolved after AFK escalation")
	r.endTurn(player)
}
