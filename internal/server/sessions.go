package server

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	maxChatLength  = 500
)

// identity is the authenticated principal behind a socket.
type identity struct {
	UserID      string
	Name        string
	Avatar      string
	IsHost      bool
	ConnectedAt time.Time
}

// spectatorInfo is a watch-only credential handed out after a game starts.
type spectatorInfo struct {
	name  string
	token string
}

// session is one websocket connection bound to a room. Reads are pumped into
// the room inbox; writes are serialized by writeMu because broadcasts and
// private errors come from different call sites.
type session struct {
	room      *Room
	conn      *websocket.Conn
	identity  identity
	spectator bool

	writeMu   sync.Mutex
	limiter   *rate.Limiter
	closeOnce sync.Once
}

func newSession(room *Room, conn *websocket.Conn, id identity, spectator bool) *session {
	return &session{
		room:      room,
		conn:      conn,
		identity:  id,
		spectator: spectator,
		limiter:   rate.NewLimiter(rate.Limit(10), 20),
	}
}

// send writes one event frame. Errors are left to the read pump, which will
// observe the broken connection and detach.
func (s *session) send(evt Event) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(evt); err != nil {
		log.Debug().
			Str("user_id", s.identity.UserID).
			Str("event_type", evt.Type).
			Err(err).
			Msg("Session write failed")
	}
}

// close sends a normal-closure frame carrying the reason, then closes the
// socket. Safe to call more than once.
func (s *session) close(reason string) {
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = s.conn.WriteMessage(websocket.CloseMessage, msg)
		s.writeMu.Unlock()
		s.conn.Close()
	})
}

// readPump decodes command frames and posts them to the room actor. It owns
// the connection's read side and drives detach on any error.
func (s *session) readPump() {
	defer func() {
		s.room.post(detachMsg{sess: s})
		s.conn.Close()
	}()
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		var cmd Command
		if err := s.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().
					Str("user_id", s.identity.UserID).
					Err(err).
					Msg("Websocket read error")
			}
			return
		}
		if !s.limiter.Allow() {
			s.send(errorEvent(errInvalidCommand, "slow down"))
			continue
		}
		if !s.room.post(commandMsg{sess: s, cmd: cmd}) {
			return
		}
	}
}

// pingLoop keeps the connection alive until the socket dies.
func (s *session) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for range ticker.C {
		s.writeMu.Lock()
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := s.conn.WriteMessage(websocket.PingMessage, nil)
		s.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

// newToken mints an opaque per-player credential.
func newToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

func trimChatMessage(message string) string {
	message = strings.TrimSpace(message)
	if len(message) > maxChatLength {
		message = message[:maxChatLength]
	}
	return message
}
