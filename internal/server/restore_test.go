package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dicee/internal/config"
	"dicee/internal/db"
	"dicee/internal/engine"
)

func TestResumeIndexPicksLeastScoredSeat(t *testing.T) {
	room, _ := newTestRoom(t, 2)
	startPlaying(t, room)

	a, _ := room.player(room.order[0])
	b, _ := room.player(room.order[1])
	c, _ := room.player(room.order[2])

	// a and b have finished round two, c is still on it
	a.Scorecard[engine.Ones] = 1
	a.Scorecard[engine.Twos] = 2
	b.Scorecard[engine.Ones] = 1
	b.Scorecard[engine.Twos] = 2
	c.Scorecard[engine.Ones] = 1

	assert.Equal(t, 2, resumeIndex(room))

	// a fresh game resumes at the first seat
	c.Scorecard = map[engine.Category]int{engine.Ones: 1}
	a.Scorecard = map[engine.Category]int{}
	b.Scorecard = map[engine.Category]int{}
	assert.Equal(t, 0, resumeIndex(room))
}

func TestRestoreWithoutDatabaseIsNoOp(t *testing.T) {
	room, _ := newTestRoom(t, 0)
	require.NoError(t, room.srv.Restore())
}

// The rows the persistence layer writes must rebuild an equivalent room.
func TestRoomRecordsRoundTrip(t *testing.T) {
	room, _ := newTestRoom(t, 1)
	host, _ := room.player(room.hostID)
	require.NoError(t, room.applyCommand(host, Command{Type: cmdAddAI}))
	startPlaying(t, room)
	room.dbID = 7

	a, _ := room.player(room.order[0])
	a.Scorecard[engine.Ones] = 3
	a.Scorecard[engine.FullHouse] = 25
	b, _ := room.player(room.order[1])
	b.Scorecard[engine.Sixes] = 18

	record := room.roomRecord()
	var playerRows []db.Player
	for _, p := range room.players {
		row, err := room.playerRecord(p)
		require.NoError(t, err)
		playerRows = append(playerRows, row)
	}

	restored, err := New(nil, config.Default()).buildRoom(&record, playerRows)
	require.NoError(t, err)

	assert.Equal(t, room.code, restored.code)
	assert.Equal(t, statusPlaying, restored.status)
	assert.Equal(t, room.settings, restored.settings)
	assert.Equal(t, room.hostID, restored.hostID)
	assert.Equal(t, room.order, restored.order)
	assert.Equal(t, room.dbID, restored.dbID)
	assert.Equal(t, room.startedAt.Unix(), restored.startedAt.Unix())

	require.Len(t, restored.players, len(room.players))
	for i, p := range room.players {
		got := restored.players[i]
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, p.Name, got.Name)
		assert.Equal(t, p.Type, got.Type)
		assert.Equal(t, p.IsHost, got.IsHost)
		assert.Equal(t, p.Token, got.Token)
		assert.Equal(t, p.Scorecard, got.Scorecard)
		assert.Equal(t, p.Type == playerAI, got.Connected)
	}
}
