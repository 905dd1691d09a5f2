package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dicee/internal/engine"
)

func TestStartGameValidation(t *testing.T) {
	room, _ := newTestRoom(t, 0)
	host, _ := room.player(room.hostID)

	err := room.handleStartGame(host)
	require.Error(t, err)
	assert.Equal(t, errNotEnoughPlayers, err.(*roomError).Code)

	reply := room.handleJoin(joinMsg{name: "Bob"})
	require.NoError(t, reply.err)
	guest, _ := room.player(reply.playerID)

	err = room.handleStartGame(guest)
	require.Error(t, err)
	assert.Equal(t, errNotHost, err.(*roomError).Code)

	require.NoError(t, room.handleStartGame(host))
	err = room.handleStartGame(host)
	require.Error(t, err)
	assert.Equal(t, errRoomNotJoinable, err.(*roomError).Code)
}

func TestAddAIPlayers(t *testing.T) {
	room, rec := newTestRoom(t, 0)
	host, _ := room.player(room.hostID)

	require.NoError(t, room.applyCommand(host, Command{Type: cmdAddAI}))
	assert.Equal(t, 1, rec.count(evtAIJoined))
	assert.Len(t, room.players, 2)
	assert.Equal(t, playerAI, room.players[1].Type)
	assert.True(t, room.players[1].Connected)

	payload, _ := json.Marshal(addAIPayload{Name: "Rusty"})
	require.NoError(t, room.applyCommand(host, Command{Type: cmdAddAI, Payload: payload}))
	assert.Equal(t, "Rusty", room.players[2].Name)

	require.NoError(t, room.applyCommand(host, Command{Type: cmdAddAI}))
	err := room.applyCommand(host, Command{Type: cmdAddAI})
	require.Error(t, err)
	assert.Equal(t, errRoomFull, err.(*roomError).Code)
}

func TestLeavePromotesHost(t *testing.T) {
	room, rec := newTestRoom(t, 1)
	host, _ := room.player(room.hostID)
	require.NoError(t, room.handleLeave(host))

	assert.Len(t, room.players, 1)
	assert.Equal(t, 1, rec.count(evtPlayerLeft))
	promoted := room.players[0]
	assert.Equal(t, "Bob", promoted.Name)
	assert.True(t, promoted.IsHost)
	assert.Equal(t, promoted.ID, room.hostID)
	assert.Equal(t, statusWaiting, room.status)
	// the durable row follows, so a restart restores the new host
	assert.Equal(t, promoted.ID, room.roomRecord().HostID)
}

func TestLastHumanLeavingAbandonsRoom(t *testing.T) {
	room, _ := newTestRoom(t, 0)
	host, _ := room.player(room.hostID)
	require.NoError(t, room.applyCommand(host, Command{Type: cmdAddAI}))

	require.NoError(t, room.handleLeave(host))
	assert.Equal(t, statusAbandoned, room.status)
	assert.True(t, room.stopped)
	_, found := room.srv.store.Get(room.code)
	assert.False(t, found)
}

func TestLeaveDuringPlayKeepsSeat(t *testing.T) {
	room, rec := newTestRoom(t, 2)
	startPlaying(t, room)
	rec.reset()

	leaver := room.players[1]
	require.NoError(t, room.handleLeave(leaver))

	assert.Len(t, room.players, 3, "roster is frozen once play begins")
	assert.False(t, leaver.Connected)
	assert.Equal(t, 1, rec.count(evtPlayerLeft))
	assert.Equal(t, statusPlaying, room.status)
}

func TestCleanupWakeAbandonsRoom(t *testing.T) {
	room, rec := newTestRoom(t, 1)
	startPlaying(t, room)
	rec.reset()

	// nobody holds a connection, so the grace window replaces the turn timer
	room.afterDisconnect()
	assert.Equal(t, wakeCleanup, room.wakePurpose)
	assert.Equal(t, statusPlaying, room.status, "not before the window elapses")

	room.handleWake(wakeMsg{purpose: wakeCleanup, gen: room.wakeGen})
	assert.Equal(t, statusAbandoned, room.status)
	assert.True(t, room.stopped)
	assert.Equal(t, 1, rec.count(evtRoomState))
}

func TestCleanupWakeSparesRoomWithConnection(t *testing.T) {
	room, _ := newTestRoom(t, 1)

	// a restored lobby carries the grace window even though a player is back
	room.players[0].Connected = true
	room.scheduleWake(wakeCleanup, time.Hour)

	room.handleWake(wakeMsg{purpose: wakeCleanup, gen: room.wakeGen})
	assert.Equal(t, statusWaiting, room.status)
	assert.False(t, room.stopped)
	_, found := room.srv.store.Get(room.code)
	assert.True(t, found)
}

func TestCompletedRoomCleanupIgnoresConnections(t *testing.T) {
	room, _ := newTestRoom(t, 1)
	startPlaying(t, room)
	room.players[0].Connected = true
	room.status = statusCompleted
	room.scheduleWake(wakeCleanup, time.Hour)

	room.handleWake(wakeMsg{purpose: wakeCleanup, gen: room.wakeGen})
	assert.True(t, room.stopped)
	_, found := room.srv.store.Get(room.code)
	assert.False(t, found)
}

func TestAITurnsKeepDesertedCountdown(t *testing.T) {
	room, _ := newTestRoom(t, 0)
	host, _ := room.player(room.hostID)
	require.NoError(t, room.applyCommand(host, Command{Type: cmdAddAI}))
	startPlaying(t, room)

	// last human gone: the grace window replaces the turn timer
	room.afterDisconnect()
	require.Equal(t, wakeCleanup, room.wakePurpose)

	// AI play must not resurrect the turn timer over the countdown
	current, ok := room.currentPlayer()
	require.True(t, ok)
	if current.Type == playerAI {
		room.handleAIAct(aiActMsg{playerID: current.ID, turnSeq: room.turnSeq})
	} else {
		roll(t, room, current)
	}
	assert.Equal(t, wakeCleanup, room.wakePurpose)
}

func TestCompletionFiresOnceWithRankings(t *testing.T) {
	room, rec := newTestRoom(t, 1)
	current := startPlaying(t, room)
	var other *Player
	for _, p := range room.players {
		if p.ID != current.ID {
			other = p
		}
	}

	// everything but the current player's last category is already filled
	for _, cat := range engine.Categories {
		other.Scorecard[cat] = 10
		if cat != engine.Chance {
			current.Scorecard[cat] = 0
		}
	}
	rec.reset()

	roll(t, room, current)
	current.Dice = engine.Dice{6, 6, 6, 6, 6}
	score, _ := json.Marshal(scoreCategoryPayload{Category: string(engine.Chance)})
	require.NoError(t, room.applyCommand(current, Command{Type: cmdScoreCategory, Payload: score}))

	assert.Equal(t, statusCompleted, room.status)
	assert.Equal(t, 1, rec.count(evtGameCompleted))
	assert.Equal(t, 0, rec.count(evtTurnStarted))
	assert.Equal(t, wakeCleanup, room.wakePurpose)

	completed, ok := rec.last(evtGameCompleted)
	require.True(t, ok)
	rankings := completed.Payload.(gameCompletedPayload).Rankings
	require.Len(t, rankings, 2)
	assert.Equal(t, 1, rankings[0].Rank)
	assert.Equal(t, other.ID, rankings[0].PlayerID)
	assert.Equal(t, 130, rankings[0].Total)
	assert.Equal(t, 2, rankings[1].Rank)
	assert.Equal(t, 30, rankings[1].Total)
}

func TestRankingsShareRankOnTies(t *testing.T) {
	room, _ := newTestRoom(t, 2)
	a, b, c := room.players[0], room.players[1], room.players[2]
	a.Scorecard[engine.Chance] = 20
	b.Scorecard[engine.Chance] = 20
	c.Scorecard[engine.Chance] = 5

	rankings := room.rankings()
	require.Len(t, rankings, 3)
	assert.Equal(t, 1, rankings[0].Rank)
	assert.Equal(t, a.ID, rankings[0].PlayerID, "seat order breaks listing order within a tie")
	assert.Equal(t, 1, rankings[1].Rank)
	assert.Equal(t, b.ID, rankings[1].PlayerID)
	assert.Equal(t, 3, rankings[2].Rank)
}

func TestRankingsIncludeUpperBonus(t *testing.T) {
	room, _ := newTestRoom(t, 1)
	a, b := room.players[0], room.players[1]
	for _, cat := range engine.UpperCategories {
		a.Scorecard[cat] = 12
	}
	b.Scorecard[engine.Chance] = 30

	rankings := room.rankings()
	assert.Equal(t, engine.UpperBonus, rankings[0].UpperBonus)
	assert.Equal(t, a.upperTotal()+engine.UpperBonus, rankings[0].Total)
	assert.Equal(t, 0, rankings[1].UpperBonus)
}
