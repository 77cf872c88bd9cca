package room

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"

	"drawing-board/internal/action"
	"drawing-board/internal/broadcast"
	"drawing-board/internal/history"
	"drawing-board/internal/metrics"
	"drawing-board/internal/protocol"
)

// ErrClosed is returned for operations on a room that has been destroyed.
var ErrClosed = errors.New("room: closed")

// Participant is a connection's identity inside one room.
type Participant struct {
	ID       string
	Username string
	Color    string
}

// Room is the single authority over one board. Its history, roster and
// broadcast channel are only touched by the room's own goroutine; every
// exported method hands work to that goroutine through the mailbox.
type Room struct {
	name     string
	private  bool
	password string

	hist    *history.Engine
	members map[string]Participant
	ch      *broadcast.Channel

	mailbox chan func()
	done    chan struct{}
	stop    sync.Once
	log     zerolog.Logger
}

func newRoom(name string, private bool, password string, mailbox int, log zerolog.Logger) *Room {
	log = log.With().Str("module", "room").Str("room", name).Logger()
	return &Room{
		name:     name,
		private:  private,
		password: password,
		hist:     history.New(),
		members:  make(map[string]Participant),
		ch:       broadcast.NewChannel(name, log),
		mailbox:  make(chan func(), mailbox),
		done:     make(chan struct{}),
		log:      log,
	}
}

func (r *Room) Name() string    { return r.name }
func (r *Room) IsPrivate() bool { return r.private }

func (r *Room) run() {
	for {
		select {
		case fn := <-r.mailbox:
			fn()
		case <-r.done:
			return
		}
	}
}

func (r *Room) close() {
	r.stop.Do(func() { close(r.done) })
}

// post queues fn for the room goroutine without waiting for it to run.
func (r *Room) post(fn func()) error {
	select {
	case <-r.done:
		return ErrClosed
	default:
	}
	select {
	case r.mailbox <- fn:
		return nil
	case <-r.done:
		return ErrClosed
	}
}

// call runs fn on the room goroutine and waits for it.
func (r *Room) call(fn func()) error {
	finished := make(chan struct{})
	if err := r.post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-r.done:
		return ErrClosed
	}
}

func (r *Room) admit(sink broadcast.Sink, username string) (Participant, error) {
	p := Participant{ID: sink.ID(), Username: username, Color: randomColor()}
	err := r.call(func() {
		r.members[p.ID] = p
		r.ch.Join(sink)

		r.ch.ToOne(p.ID, protocol.EventRoomJoined, protocol.RoomJoined{
			Room:      r.name,
			ID:        p.ID,
			Color:     p.Color,
			IsPrivate: r.private,
		})
		r.ch.ToOne(p.ID, protocol.EventDrawHistory, r.hist.Actions())
		r.ch.ToAll(protocol.EventUsersUpdate, r.roster())
		r.ch.ToOthers(p.ID, protocol.EventNotification, fmt.Sprintf("%s joined the room", p.Username))
		r.log.Info().Str("id", p.ID).Str("username", p.Username).Int("members", len(r.members)).Msg("participant admitted")
	})
	return p, err
}

// remove drops id from the room and returns how many members remain.
func (r *Room) remove(id string) (int, error) {
	remaining := 0
	err := r.call(func() {
		p, ok := r.members[id]
		if ok {
			delete(r.members, id)
			r.ch.Leave(id)
		}
		remaining = len(r.members)
		if !ok || remaining == 0 {
			return
		}
		r.ch.ToAll(protocol.EventUsersUpdate, r.roster())
		r.ch.ToAll(protocol.EventNotification, fmt.Sprintf("%s left the room", p.Username))
		r.log.Info().Str("id", id).Int("members", remaining).Msg("participant removed")
	})
	return remaining, err
}

func (r *Room) roster() map[string]protocol.UserInfo {
	users := make(map[string]protocol.UserInfo, len(r.members))
	for id, p := range r.members {
		users[id] = protocol.UserInfo{Username: p.Username, Color: p.Color}
	}
	return users
}

// Commit appends a to the history and sends it to every member.
func (r *Room) Commit(a action.Action) error {
	return r.post(func() {
		r.hist.Commit(a)
		metrics.ActionsCommitted.WithLabelValues(string(a.Kind())).Inc()
		r.ch.ToAll(protocol.EventNewAction, a)
	})
}

// Undo reverts the last action. Members only hear about it when the
// history actually changed.
func (r *Room) Undo() error {
	return r.post(func() {
		if r.hist.Undo() {
			metrics.HistoryChanges.WithLabelValues("undo").Inc()
			r.ch.ToAll(protocol.EventDrawHistory, r.hist.Actions())
		}
	})
}

func (r *Room) Redo() error {
	return r.post(func() {
		if r.hist.Redo() {
			metrics.HistoryChanges.WithLabelValues("redo").Inc()
			r.ch.ToAll(protocol.EventDrawHistory, r.hist.Actions())
		}
	})
}

// Clear commits a clear marker and resends the full history.
func (r *Room) Clear() error {
	return r.post(func() {
		r.hist.Clear()
		metrics.ActionsCommitted.WithLabelValues(string(action.KindClear)).Inc()
		r.ch.ToAll(protocol.EventDrawHistory, r.hist.Actions())
	})
}

// Preview relays a live stroke segment to everyone but its author.
func (r *Room) Preview(from string, seg protocol.Segment) error {
	return r.post(func() {
		if _, ok := r.members[from]; !ok {
			return
		}
		r.ch.ToOthers(from, protocol.EventDrawing, seg)
	})
}

// Cursor relays a pointer position to every member, the author included.
func (r *Room) Cursor(from string, c protocol.Cursor) error {
	return r.post(func() {
		if _, ok := r.members[from]; !ok {
			return
		}
		r.ch.ToAll(protocol.EventCursorUpdate, protocol.CursorUpdate{ID: from, X: c.X, Y: c.Y})
	})
}

// Snapshot returns a copy of the current history.
func (r *Room) Snapshot() (action.List, error) {
	var l action.List
	err := r.call(func() { l = r.hist.Actions() })
	return l, err
}

// Install replaces the history with l, as loaded from session snapshot
// name, and resends it to every member.
func (r *Room) Install(name string, l action.List) error {
	return r.post(func() {
		r.hist.Replace(l)
		metrics.HistoryChanges.WithLabelValues("load").Inc()
		r.ch.ToAll(protocol.EventDrawHistory, r.hist.Actions())
		r.ch.ToAll(protocol.EventNotification, fmt.Sprintf("Session %s loaded", name))
		r.log.Info().Str("session", name).Int("actions", len(l)).Msg("session installed")
	})
}

// Members returns the current roster.
func (r *Room) Members() ([]Participant, error) {
	var out []Participant
	err := r.call(func() {
		for _, id := range r.ch.IDs() {
			out = append(out, r.members[id])
		}
	})
	return out, err
}

// randomColor picks an independent uniform RGB color. Two members of a room
// may end up with the same one.
func randomColor() string {
	return fmt.Sprintf("#%06X", rand.Intn(1<<24))
}
