// Package conn holds the per-connection session: identity, current room
// and the websocket pumps.
package conn

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"drawing-board/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// Identity is what a connection is known as once admitted to a room.
type Identity struct {
	Username string
	Room     string
	Color    string
}

// Session is one live websocket connection.
type Session struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
	log  zerolog.Logger

	mu     sync.Mutex
	closed bool
	ident  Identity
}

// New wraps ws with a fresh connection id and a send buffer of the given
// size.
func New(ws *websocket.Conn, buffer int, log zerolog.Logger) *Session {
	if buffer <= 0 {
		buffer = 256
	}
	id := uuid.NewString()
	return &Session{
		id:   id,
		ws:   ws,
		send: make(chan []byte, buffer),
		log:  log.With().Str("module", "conn").Str("conn", id).Logger(),
	}
}

func (s *Session) ID() string { return s.id }

// Send queues frame for the write pump. A full buffer drops the frame.
func (s *Session) Send(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// Emit encodes and queues a single event for this connection only.
func (s *Session) Emit(event string, data any) bool {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		s.log.Error().Err(err).Str("event", event).Msg("encode failed")
		return false
	}
	if !s.Send(frame) {
		s.log.Warn().Str("event", event).Msg("message dropped")
		return false
	}
	return true
}

// Admit records the identity assigned on joining a room.
func (s *Session) Admit(username, room, color string) {
	s.mu.Lock()
	s.ident = Identity{Username: username, Room: room, Color: color}
	s.mu.Unlock()
}

// Depart forgets the current room. The username is kept.
func (s *Session) Depart() {
	s.mu.Lock()
	s.ident.Room = ""
	s.ident.Color = ""
	s.mu.Unlock()
}

func (s *Session) Identity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ident
}

// Close stops the write pump. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

// WritePump pumps frames from the send buffer to the websocket and keeps
// the connection alive with pings.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.log.Debug().Err(err).Msg("write failed")
				return
			}
		case <-ticker.C:
			s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump decodes inbound frames and hands them to handle, one at a time
// and in arrival order, until the connection fails.
func (s *Session) ReadPump(handle func(protocol.Envelope)) {
	s.ws.SetReadLimit(maxMessageSize)
	s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		s.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn().Err(err).Msg("websocket error")
			}
			return
		}

		env, err := protocol.Decode(frame)
		if err != nil {
			s.log.Debug().Err(err).Msg("bad frame")
			continue
		}
		handle(env)
	}
}
