package server

import (
	"time"

	"github.com/rs/zerolog/log"
)

// wakePurpose names the one pending wake-up a room may hold. Scheduling a
// new wake replaces whatever was armed before.
type wakePurpose int

const (
	wakeNone wakePurpose = iota
	wakeTurnTimeout
	wakeAFKSkip
	wakeStartCountdown
	wakeCleanup
)

func (p wakePurpose) String() string {
	switch p {
	case wakeTurnTimeout:
		return "turn_timeout"
	case wakeAFKSkip:
		return "afk_skip"
	case wakeStartCountdown:
		return "start_countdown"
	case wakeCleanup:
		return "cleanup"
	default:
		return "none"
	}
}

// scheduleWake arms the room's single wake slot. The generation counter
// keeps a timer that already fired from acting after it was replaced: a
// wakeMsg carrying a stale generation is dropped in handleWake.
func (r *Room) scheduleWake(purpose wakePurpose, d time.Duration) {
	if r.wakeTimer != nil {
		r.wakeTimer.Stop()
	}
	r.wakeGen++
	r.wakePurpose = purpose
	gen := r.wakeGen
	r.wakeTimer = time.AfterFunc(d, func() {
		r.post(wakeMsg{purpose: purpose, gen: gen})
	})
}

// armTurnWake starts the turn clock. When the room is already counting down
// to abandonment and no human is connected, the countdown stands: AI turns
// must not keep a deserted room alive by rescheduling over it.
func (r *Room) armTurnWake() {
	if r.wakePurpose == wakeCleanup && r.connectedHumans() == 0 {
		return
	}
	r.scheduleWake(wakeTurnTimeout, time.Duration(r.settings.TurnTimeoutSeconds)*time.Second)
}

func (r *Room) cancelWake() {
	if r.wakeTimer != nil {
		r.wakeTimer.Stop()
		r.wakeTimer = nil
	}
	r.wakePurpose = wakeNone
	r.wakeGen++
}

// handleWake runs on the actor goroutine when the armed timer fires.
func (r *Room) handleWake(msg wakeMsg) {
	if msg.gen != r.wakeGen {
		return
	}
	r.wakePurpose = wakeNone
	log.Debug().
		Str("room_code", r.code).
		Str("purpose", msg.purpose.String()).
		Msg("Wake fired")
	switch msg.purpose {
	case wakeTurnTimeout:
		player, ok := r.currentPlayer()
		if !ok || r.status != statusPlaying {
			return
		}
		r.emit(evtAFKWarning, afkWarningPayload{
			PlayerID:     player.ID,
			GraceSeconds: r.srv.cfg.AFKGraceSeconds,
		}, player.ID)
		r.scheduleWake(wakeAFKSkip, time.Duration(r.srv.cfg.AFKGraceSeconds)*time.Second)
	case wakeAFKSkip:
		if r.status != statusPlaying {
			return
		}
		r.autoResolveTurn()
	case wakeStartCountdown:
		if r.status != statusStarting {
			return
		}
		r.beginPlaying()
	case wakeCleanup:
		// a completed room is released on schedule; anywhere else the
		// window only closes the room if nobody came back
		if r.status != statusCompleted && r.connectedHumans() > 0 {
			return
		}
		r.abandon("inactive")
	}
}
