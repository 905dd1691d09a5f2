package server

import (
	"sort"

	"github.com/rs/zerolog/log"
)

type lobbyNoticeKind int

const (
	lobbyRoomCreated lobbyNoticeKind = iota
	lobbyRoomUpdated
	lobbyRoomClosed
)

type lobbyNotice struct {
	kind    lobbyNoticeKind
	code    string
	summary RoomSummary
	online  int
	public  bool
}

type lobbyEntry struct {
	summary RoomSummary
	online  int
	public  bool
}

type lobbyQuery struct {
	rooms chan []RoomSummary
	users chan int
}

// Lobby is a single goroutine holding the cross-room view: public listings
// and the online-user count. Rooms push updates; HTTP handlers query through
// reply channels, so no room state is ever read off its own goroutine.
type Lobby struct {
	notices chan lobbyNotice
	queries chan lobbyQuery
	entries map[string]lobbyEntry
}

func newLobby() *Lobby {
	return &Lobby{
		notices: make(chan lobbyNotice, 256),
		queries: make(chan lobbyQuery),
		entries: make(map[string]lobbyEntry),
	}
}

func (l *Lobby) run() {
	for {
		select {
		case n := <-l.notices:
			l.apply(n)
		case q := <-l.queries:
			l.answer(q)
		}
	}
}

func (l *Lobby) apply(n lobbyNotice) {
	switch n.kind {
	case lobbyRoomClosed:
		delete(l.entries, n.code)
	default:
		l.entries[n.code] = lobbyEntry{summary: n.summary, online: n.online, public: n.public}
	}
}

func (l *Lobby) answer(q lobbyQuery) {
	if q.rooms != nil {
		listings := make([]RoomSummary, 0, len(l.entries))
		for _, entry := range l.entries {
			if entry.public && entry.summary.Status == string(statusWaiting) {
				listings = append(listings, entry.summary)
			}
		}
		sort.Slice(listings, func(i, j int) bool {
			return listings[i].Code < listings[j].Code
		})
		q.rooms <- listings
	}
	if q.users != nil {
		total := 0
		for _, entry := range l.entries {
			total += entry.online
		}
		q.users <- total
	}
}

// Rooms returns the public rooms currently accepting players.
func (l *Lobby) Rooms() []RoomSummary {
	reply := make(chan []RoomSummary, 1)
	l.queries <- lobbyQuery{rooms: reply}
	return <-reply
}

// OnlineUsers counts live connections across every room.
func (l *Lobby) OnlineUsers() int {
	reply := make(chan int, 1)
	l.queries <- lobbyQuery{users: reply}
	return <-reply
}

// notifyLobby pushes this room's current listing to the lobby. Non-blocking;
// a full lobby queue drops the update rather than stall the room actor.
func (r *Room) notifyLobby(kind lobbyNoticeKind) {
	notice := lobbyNotice{
		kind:    kind,
		code:    r.code,
		summary: r.summary(),
		online:  len(r.sessions) + len(r.watchers),
		public:  r.settings.Public,
	}
	select {
	case r.srv.lobby.notices <- notice:
	default:
		log.Warn().Str("room_code", r.code).Msg("Lobby queue full, update dropped")
	}
}
