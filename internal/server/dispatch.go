package server

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"drawing-board/internal/action"
	"drawing-board/internal/conn"
	"drawing-board/internal/metrics"
	"drawing-board/internal/protocol"
	"drawing-board/internal/room"
	"drawing-board/internal/store"
)

// peer handles the inbound events of one connection. Its fields are only
// touched from the connection's read loop.
type peer struct {
	srv  *Server
	sess *conn.Session
	room *room.Room
	log  zerolog.Logger
}

func (p *peer) handle(env protocol.Envelope) {
	metrics.EventsReceived.WithLabelValues(env.Event).Inc()

	switch env.Event {
	case protocol.EventCreateRoom:
		var req protocol.CreateRoom
		if err := env.Bind(&req); err != nil {
			p.fail("Invalid create request")
			return
		}
		p.create(req)
	case protocol.EventJoinRoom:
		var req protocol.JoinRoom
		if err := env.Bind(&req); err != nil {
			p.fail("Invalid join request")
			return
		}
		p.join(req)
	case protocol.EventListSessions:
		p.list()
	default:
		p.roomEvent(env)
	}
}

func (p *peer) create(req protocol.CreateRoom) {
	if p.inRoom(req.RoomName) {
		p.fail(describe(room.ErrAlreadyExists, p.room.Name()))
		return
	}
	p.leave()

	rm, part, err := p.srv.rooms.Create(p.sess, req.Username, req.RoomName, req.IsPrivate, req.Password)
	if err != nil {
		p.fail(describe(err, req.RoomName))
		return
	}
	p.enter(rm, part)

	if rm.IsPrivate() {
		p.sess.Emit(protocol.EventPrivateRoomCreated, p.shareLink(rm.Name(), req.Password))
	}
}

func (p *peer) join(req protocol.JoinRoom) {
	if p.inRoom(req.RoomName) {
		p.sess.Emit(protocol.EventNotification, fmt.Sprintf("You are already in room %s", p.room.Name()))
		return
	}
	p.leave()

	rm, part, err := p.srv.rooms.Join(p.sess, req.Username, req.RoomName, req.Password)
	if err != nil {
		p.fail(describe(err, req.RoomName))
		return
	}
	p.enter(rm, part)
}

func (p *peer) enter(rm *room.Room, part room.Participant) {
	p.room = rm
	p.sess.Admit(part.Username, rm.Name(), part.Color)
	p.log.Info().Str("room", rm.Name()).Str("username", part.Username).Msg("joined room")
}

// inRoom reports whether the connection is already a member of the room
// called name.
func (p *peer) inRoom(name string) bool {
	if p.room == nil {
		return false
	}
	name, err := room.NormalizeName(name)
	return err == nil && name == p.sess.Identity().Room
}

// leave takes the connection out of its current room, if any.
func (p *peer) leave() {
	if p.room == nil {
		return
	}
	ident := p.sess.Identity()
	p.srv.rooms.Leave(p.room, p.sess.ID())
	p.room = nil
	p.sess.Depart()
	p.log.Info().Str("room", ident.Room).Str("username", ident.Username).Msg("left room")
}

// roomEvent handles everything that needs a room. Events that arrive
// before the connection joined one are dropped.
func (p *peer) roomEvent(env protocol.Envelope) {
	rm := p.room
	if rm == nil {
		p.log.Debug().Str("event", env.Event).Msg("no room, event dropped")
		return
	}

	var err error
	switch env.Event {
	case protocol.EventDrawing:
		var seg protocol.Segment
		if env.Bind(&seg) != nil {
			return
		}
		err = rm.Preview(p.sess.ID(), seg)
	case protocol.EventCursorMove:
		var c protocol.Cursor
		if env.Bind(&c) != nil {
			return
		}
		err = rm.Cursor(p.sess.ID(), c)
	case protocol.EventActionComplete:
		a, derr := action.Decode(env.Data)
		if derr != nil {
			p.log.Debug().Err(derr).Msg("rejected action")
			p.fail("Invalid drawing action")
			return
		}
		err = rm.Commit(a)
	case protocol.EventUndo:
		err = rm.Undo()
	case protocol.EventRedo:
		err = rm.Redo()
	case protocol.EventClearCanvas:
		err = rm.Clear()
	case protocol.EventSaveSession:
		p.save(rm)
	case protocol.EventLoadSession:
		var name string
		if env.Bind(&name) != nil {
			p.fail("Invalid session name")
			return
		}
		p.load(rm, strings.TrimSpace(name))
	default:
		p.log.Debug().Str("event", env.Event).Msg("unknown event")
	}

	if err != nil {
		p.log.Debug().Err(err).Str("event", env.Event).Msg("room gone, event dropped")
	}
}

// save snapshots the room on its own goroutine, then writes the snapshot
// off the room so storage latency never stalls room traffic.
func (p *peer) save(rm *room.Room) {
	l, err := rm.Snapshot()
	if err != nil {
		return
	}
	name := rm.Name()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.srv.opts.StoreTimeout)
		defer cancel()

		if err := p.srv.sessions.Save(ctx, name, l); err != nil {
			p.log.Error().Err(err).Str("session", name).Msg("save failed")
			p.sess.Emit(protocol.EventError, describe(err, name))
			return
		}
		rev, err := store.RevisionOf(ctx, p.srv.sessions, name)
		if err != nil {
			p.log.Warn().Err(err).Str("session", name).Msg("revision unavailable")
		}
		p.log.Info().Str("session", name).Str("revision", rev).Int("actions", len(l)).Msg("session saved")
		p.sess.Emit(protocol.EventNotification, fmt.Sprintf("Session saved as %s", name))
	}()
}

// load reads a snapshot off the room goroutine and installs it through the
// room mailbox. A failed load leaves the room untouched.
func (p *peer) load(rm *room.Room, name string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.srv.opts.StoreTimeout)
		defer cancel()

		l, err := p.srv.sessions.Load(ctx, name)
		if err != nil {
			p.log.Warn().Err(err).Str("session", name).Msg("load failed")
			p.sess.Emit(protocol.EventError, describe(err, name))
			return
		}
		if err := rm.Install(name, l); err != nil {
			p.log.Debug().Err(err).Str("session", name).Msg("room gone before load completed")
		}
	}()
}

func (p *peer) list() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.srv.opts.StoreTimeout)
		defer cancel()

		names, err := p.srv.sessions.List(ctx)
		if err != nil {
			p.log.Error().Err(err).Msg("list sessions failed")
			p.sess.Emit(protocol.EventError, describe(err, ""))
			return
		}
		p.sess.Emit(protocol.EventSessionList, names)
	}()
}

func (p *peer) fail(msg string) {
	p.sess.Emit(protocol.EventError, msg)
}

func (p *peer) shareLink(name, password string) string {
	q := url.Values{}
	q.Set("room", name)
	q.Set("password", password)
	return p.srv.opts.PublicURL + "/?" + q.Encode()
}

// describe turns an operation error into the message shown to the user.
func describe(err error, name string) string {
	switch {
	case errors.Is(err, room.ErrAlreadyExists):
		return fmt.Sprintf("Room %s already exists", name)
	case errors.Is(err, room.ErrNotFound):
		return fmt.Sprintf("Room %s does not exist", name)
	case errors.Is(err, room.ErrUnauthorized):
		return "Incorrect password"
	case errors.Is(err, room.ErrInvalidName):
		return "Room name is required"
	case errors.Is(err, store.ErrNotFound):
		return fmt.Sprintf("No saved session named %s", name)
	case errors.Is(err, store.ErrInvalidFormat):
		return fmt.Sprintf("Saved session %s is corrupted", name)
	case errors.Is(err, store.ErrInvalidName):
		return fmt.Sprintf("Invalid session name %q", name)
	case errors.Is(err, store.ErrIO), errors.Is(err, context.DeadlineExceeded):
		if name == "" {
			return "Could not read saved sessions"
		}
		return fmt.Sprintf("Could not access session %s", name)
	default:
		return "Something went wrong"
	}
}
