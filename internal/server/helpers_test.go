package server

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dicee/internal/config"
)

// eventRecorder taps the broadcast stream so tests can assert on exactly
// what clients would have seen, in order.
type eventRecorder struct {
	events []Event
}

func (rec *eventRecorder) record(evt Event) {
	rec.events = append(rec.events, evt)
}

func (rec *eventRecorder) types() []string {
	out := make([]string, len(rec.events))
	for i, evt := range rec.events {
		out[i] = evt.Type
	}
	return out
}

func (rec *eventRecorder) count(eventType string) int {
	n := 0
	for _, evt := range rec.events {
		if evt.Type == eventType {
			n++
		}
	}
	return n
}

func (rec *eventRecorder) last(eventType string) (Event, bool) {
	for i := len(rec.events) - 1; i >= 0; i-- {
		if rec.events[i].Type == eventType {
			return rec.events[i], true
		}
	}
	return Event{}, false
}

func (rec *eventRecorder) reset() {
	rec.events = nil
}

// newTestRoom builds a room with the given number of extra human players
// seated after the host. The actor goroutine is not started; tests drive the
// handlers synchronously, which is equivalent to the inbox serializing them.
func newTestRoom(t *testing.T, extraHumans int) (*Room, *eventRecorder) {
	t.Helper()
	srv := New(nil, config.Default())
	room, _ := newRoom(srv, "AB12CD", Settings{
		MaxPlayers:         4,
		TurnTimeoutSeconds: 60,
		Public:             true,
		AllowSpectators:    true,
	}, "Alice", "")
	srv.store.Add(room)
	rec := &eventRecorder{}
	room.tap = rec.record
	names := []string{"Bob", "Cara", "Dan"}
	for i := 0; i < extraHumans; i++ {
		reply := room.handleJoin(joinMsg{name: names[i]})
		require.NoError(t, reply.err)
	}
	return room, rec
}

// startPlaying runs the host start command and fires the countdown wake by
// hand, leaving the room mid-game with a live current player.
func startPlaying(t *testing.T, room *Room) *Player {
	t.Helper()
	host, ok := room.player(room.hostID)
	require.True(t, ok)
	require.NoError(t, room.handleStartGame(host))
	require.Equal(t, statusStarting, room.status)
	room.handleWake(wakeMsg{purpose: wakeStartCountdown, gen: room.wakeGen})
	require.Equal(t, statusPlaying, room.status)
	current, ok := room.currentPlayer()
	require.True(t, ok)
	return current
}

func roll(t *testing.T, room *Room, player *Player) {
	t.Helper()
	require.NoError(t, room.applyCommand(player, Command{Type: cmdRoll}))
}
