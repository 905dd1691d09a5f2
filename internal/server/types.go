package server

import (
	"math/rand"
	"time"

	"dicee/internal/engine"
)

// RoomStatus is the room-level lifecycle state. Transitions are monotonic
// except for abandonment, which is reachable from any non-terminal state.
type RoomStatus string

const (
	statusWaiting   RoomStatus = "waiting"
	statusStarting  RoomStatus = "starting"
	statusPlaying   RoomStatus = "playing"
	statusCompleted RoomStatus = "completed"
	statusAbandoned RoomStatus = "abandoned"
)

type PlayerType string

const (
	playerHuman PlayerType = "human"
	playerAI    PlayerType = "ai"
)

const (
	minRoomPlayers = 2
	maxRoomPlayers = 4
	rollsPerTurn   = 3
)

// Settings are fixed at room creation.
type Settings struct {
	MaxPlayers         int  `json:"max_players"`
	TurnTimeoutSeconds int  `json:"turn_timeout_seconds"`
	Public             bool `json:"public"`
	AllowSpectators    bool `json:"allow_spectators"`
}

// Player is one participant, human or AI. Turn state (dice, kept mask, rolls
// remaining) lives here and is reset at every turn start.
type Player struct {
	ID        string
	Name      string
	Avatar    string
	Type      PlayerType
	IsHost    bool
	Token     string
	Connected bool

	Scorecard map[engine.Category]int
	Dice      engine.Dice
	HasRolled bool
	Kept      engine.KeepMask
	RollsLeft int
}

// scored reports whether the category is already filled.
func (p *Player) scored(cat engine.Category) bool {
	_, ok := p.Scorecard[cat]
	return ok
}

// scorecardComplete reports whether all 13 categories are filled.
func (p *Player) scorecardComplete() bool {
	return len(p.Scorecard) == len(engine.Categories)
}

// unscoredCategories returns the categories still open, keyed for the engine.
func (p *Player) unscoredCategories() map[engine.Category]bool {
	open := make(map[engine.Category]bool)
	for _, cat := range engine.Categories {
		if !p.scored(cat) {
			open[cat] = true
		}
	}
	return open
}

// total is the raw scorecard sum without the upper bonus.
func (p *Player) total() int {
	sum := 0
	for _, score := range p.Scorecard {
		sum += score
	}
	return sum
}

// upperTotal is the upper-section sum used for the bonus check.
func (p *Player) upperTotal() int {
	sum := 0
	for _, cat := range engine.UpperCategories {
		if score, ok := p.Scorecard[cat]; ok {
			sum += score
		}
	}
	return sum
}

// finalTotal includes the upper-section bonus.
func (p *Player) finalTotal() int {
	total := p.total()
	if p.upperTotal() >= engine.UpperBonusThreshold {
		total += engine.UpperBonus
	}
	return total
}

// Room is one game session. All fields are owned by the room's goroutine;
// nothing outside the actor loop may touch them (see room.go).
type Room struct {
	code      string
	status    RoomStatus
	settings  Settings
	hostID    string
	players   []*Player
	order     []string
	current   int
	createdAt time.Time
	startedAt time.Time
	dbID      uint

	rng             *rand.Rand
	inbox           chan roomMsg
	handle          *roomHandle
	sessions        map[string]*session
	watchers        map[*session]struct{}
	spectatorTokens map[string]spectatorInfo

	wakeTimer   *time.Timer
	wakePurpose wakePurpose
	wakeGen     uint64
	turnSeq     uint64

	srv     *Server
	stopped bool

	// optional observer for the broadcast stream, used by tests
	tap func(Event)
}

func (r *Room) player(id string) (*Player, bool) {
	for _, p := range r.players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// currentPlayer returns the player whose turn it is. Only meaningful while
// status is playing.
func (r *Room) currentPlayer() (*Player, bool) {
	if r.status != statusPlaying || len(r.order) == 0 {
		return nil, false
	}
	return r.player(r.order[r.current])
}

func (r *Room) connectedHumans() int {
	count := 0
	for _, p := range r.players {
		if p.Type == playerHuman && p.Connected {
			count++
		}
	}
	return count
}

func (r *Room) humanCount() int {
	count := 0
	for _, p := range r.players {
		if p.Type == playerHuman {
			count++
		}
	}
	return count
}

// RoomSummary is the lobby's public listing entry.
type RoomSummary struct {
	Code       string `json:"room_code"`
	Status     string `json:"status"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
	HostName   string `json:"host_name"`
}

func (r *Room) summary() RoomSummary {
	hostName := ""
	if host, ok := r.player(r.hostID); ok {
		hostName = host.Name
	}
	return RoomSummary{
		Code:       r.code,
		Status:     string(r.status),
		Players:    len(r.players),
		MaxPlayers: r.settings.MaxPlayers,
		HostName:   hostName,
	}
}
