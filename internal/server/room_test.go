package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dicee/internal/engine"
)

func TestJoinWaitingRoom(t *testing.T) {
	room, rec := newTestRoom(t, 0)

	reply := room.handleJoin(joinMsg{name: "Bob", avatar: "dog"})
	require.NoError(t, reply.err)
	assert.NotEmpty(t, reply.playerID)
	assert.Len(t, reply.token, 64)
	assert.False(t, reply.spectator)
	assert.Equal(t, 1, rec.count(evtPlayerJoined))

	player, ok := room.player(reply.playerID)
	require.True(t, ok)
	assert.Equal(t, "Bob", player.Name)
	assert.Equal(t, "dog", player.Avatar)
	assert.False(t, player.IsHost)
}

func TestJoinFullRoom(t *testing.T) {
	room, _ := newTestRoom(t, 3)

	reply := room.handleJoin(joinMsg{name: "Eve"})
	require.Error(t, reply.err)
	assert.Equal(t, errRoomFull, reply.err.(*roomError).Code)
	assert.Len(t, room.players, 4)
}

func TestJoinAfterStartBecomesSpectator(t *testing.T) {
	room, _ := newTestRoom(t, 1)
	startPlaying(t, room)

	reply := room.handleJoin(joinMsg{name: "Watcher"})
	require.NoError(t, reply.err)
	assert.True(t, reply.spectator)
	assert.Len(t, room.players, 2, "spectators never take a seat")

	auth := room.handleAuth(authMsg{playerID: reply.playerID, token: reply.token})
	assert.True(t, auth.ok)
	assert.True(t, auth.spectator)
	assert.Equal(t, "Watcher", auth.name)
}

func TestJoinAfterStartRejectedWithoutSpectators(t *testing.T) {
	room, _ := newTestRoom(t, 1)
	room.settings.AllowSpectators = false
	startPlaying(t, room)

	reply := room.handleJoin(joinMsg{name: "Late"})
	require.Error(t, reply.err)
	assert.Equal(t, errRoomNotJoinable, reply.err.(*roomError).Code)
}

func TestAuthRejectsBadToken(t *testing.T) {
	room, _ := newTestRoom(t, 0)
	host, _ := room.player(room.hostID)

	good := room.handleAuth(authMsg{playerID: host.ID, token: host.Token})
	assert.True(t, good.ok)
	assert.True(t, good.isHost)

	bad := room.handleAuth(authMsg{playerID: host.ID, token: "wrong"})
	assert.False(t, bad.ok)

	unknown := room.handleAuth(authMsg{playerID: "nobody", token: host.Token})
	assert.False(t, unknown.ok)
}

func TestAIPlayersCannotBeImpersonated(t *testing.T) {
	room, _ := newTestRoom(t, 0)
	host, _ := room.player(room.hostID)
	require.NoError(t, room.applyCommand(host, Command{Type: cmdAddAI}))

	ai := room.players[1]
	auth := room.handleAuth(authMsg{playerID: ai.ID, token: ai.Token})
	assert.False(t, auth.ok)
}

func TestChatMessages(t *testing.T) {
	room, rec := newTestRoom(t, 1)
	host, _ := room.player(room.hostID)

	require.NoError(t, room.handleChat(host, "  hello  "))
	evt, ok := rec.last(evtChatMessage)
	require.True(t, ok)
	assert.Equal(t, "hello", evt.Payload.(chatMessagePayload).Message)

	err := room.handleChat(host, "   ")
	require.Error(t, err)
	assert.Equal(t, errInvalidCommand, err.(*roomError).Code)
}

func TestUnknownCommandRejected(t *testing.T) {
	room, _ := newTestRoom(t, 0)
	host, _ := room.player(room.hostID)

	err := room.applyCommand(host, Command{Type: "selfDestruct"})
	require.Error(t, err)
	assert.Equal(t, errInvalidCommand, err.(*roomError).Code)
}

func TestMalformedPayloadRejected(t *testing.T) {
	room, _ := newTestRoom(t, 1)
	current := startPlaying(t, room)
	roll(t, room, current)

	mask := [5]bool{true, false, true, false, false}
	require.NoError(t, room.handleToggleKeep(current, mask))

	err := room.applyCommand(current, Command{
		Type:    cmdToggleKeep,
		Payload: json.RawMessage(`{"kept": "oops"`),
	})
	require.Error(t, err)
	assert.Equal(t, errInvalidCommand, err.(*roomError).Code)
	assert.Equal(t, engine.KeepMask(mask), current.Kept, "a garbled frame must not touch the keep mask")

	err = room.applyCommand(current, Command{
		Type:    cmdScoreCategory,
		Payload: json.RawMessage(`not json`),
	})
	require.Error(t, err)
	assert.Equal(t, errInvalidCommand, err.(*roomError).Code)
	assert.Empty(t, current.Scorecard)
}

func TestSnapshotCarriesFullState(t *testing.T) {
	room, _ := newTestRoom(t, 1)
	current := startPlaying(t, room)
	roll(t, room, current)

	snap := room.snapshot()
	assert.Equal(t, "AB12CD", snap.RoomCode)
	assert.Equal(t, string(statusPlaying), snap.Status)
	assert.Equal(t, current.ID, snap.CurrentPlayerID)
	assert.Len(t, snap.TurnOrder, 2)
	require.Len(t, snap.Players, 2)
	for _, p := range snap.Players {
		if p.ID == current.ID {
			assert.Len(t, p.Dice, 5)
			assert.Equal(t, 2, p.RollsLeft)
		} else {
			assert.Empty(t, p.Dice, "dice hidden until a player has rolled")
		}
	}
	assert.NotNil(t, snap.StartedAt)
}

func TestScoreUnknownCategory(t *testing.T) {
	room, _ := newTestRoom(t, 1)
	current := startPlaying(t, room)
	roll(t, room, current)

	err := room.handleScoreCategory(current, engine.Category("yahtzee"))
	require.Error(t, err)
	assert.Equal(t, errInvalidCommand, err.(*roomError).Code)
}
