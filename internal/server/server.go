package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"dicee/internal/config"
)

// Server owns the room registry, the lobby, the database handle, and the
// HTTP surface. conn may be nil, in which case rooms run purely in memory.
type Server struct {
	store *Store
	lobby *Lobby
	conn  *gorm.DB
	cfg   config.Config
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	srv := &Server{
		store: NewStore(),
		lobby: newLobby(),
		conn:  conn,
		cfg:   cfg,
	}
	go srv.lobby.run()
	return srv
}

// Handler wires the HTTP API: REST for room management, one websocket route
// for play.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Post("/rooms", s.handleCreateRoom)
		r.Post("/rooms/join", s.handleJoinRoom)
		r.Get("/rooms", s.handleListRooms)
		r.Get("/users/online", s.handleOnlineUsers)
	})
	r.Get("/ws/rooms/{code}", s.handleWS)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

// createRoom allocates a code, persists the room record, and starts the
// actor goroutine. Code collisions (registry or database) get fresh codes.
func (s *Server) createRoom(settings Settings, hostName, hostAvatar string) (*Room, *Player, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code := newRoomCode()
		room, host := newRoom(s, code, settings, hostName, hostAvatar)
		if !s.store.Add(room) {
			continue
		}
		if err := room.persistRoomRecord(); err != nil {
			s.store.Remove(code)
			if isUniqueViolation(err) {
				continue
			}
			return nil, nil, err
		}
		room.persistPlayerRecord(host)
		room.emit(evtRoomCreated, room.summary(), host.ID)
		room.notifyLobby(lobbyRoomCreated)
		go room.run()
		log.Info().
			Str("room_code", code).
			Str("host_id", host.ID).
			Str("host_name", host.Name).
			Msg("Room created")
		return room, host, nil
	}
	return nil, nil, newRoomError(errInternal, "could not allocate a room code")
}
