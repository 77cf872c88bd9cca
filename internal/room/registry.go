// Package room owns room lifecycle: creation, password-gated admission,
// departure and destruction of rooms that have no participants left.
package room

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"drawing-board/internal/broadcast"
	"drawing-board/internal/metrics"
)

var (
	ErrAlreadyExists = errors.New("room: already exists")
	ErrNotFound      = errors.New("room: not found")
	ErrUnauthorized  = errors.New("room: wrong password")
	ErrInvalidName   = errors.New("room: invalid name")
)

const maxNameLen = 100

// Info is a public summary of a live room.
type Info struct {
	Name      string `json:"name"`
	IsPrivate bool   `json:"isPrivate"`
	Members   int    `json:"members"`
}

// Registry maps room names to live rooms. Admission and departure hold the
// registry lock while the room applies the change, so a room can never be
// joined after its last participant left.
type Registry struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	mailbox int
	log     zerolog.Logger
}

// Option customises a Registry.
type Option func(*Registry)

// WithMailbox sets the per-room mailbox capacity. Default: 64.
func WithMailbox(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.mailbox = n
		}
	}
}

func NewRegistry(log zerolog.Logger, opts ...Option) *Registry {
	r := &Registry{
		rooms:   make(map[string]*Room),
		mailbox: 64,
		log:     log.With().Str("module", "registry").Logger(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// NormalizeName trims a requested room name and rejects unusable ones.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLen {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}

// Create makes a new room and admits sink as its first participant.
// The password is stored verbatim and only checked when private is set.
func (r *Registry) Create(sink broadcast.Sink, username, name string, private bool, password string) (*Room, Participant, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, Participant{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[name]; ok {
		return nil, Participant{}, fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}

	rm := newRoom(name, private, password, r.mailbox, r.log)
	go rm.run()

	p, err := rm.admit(sink, username)
	if err != nil {
		rm.close()
		return nil, Participant{}, err
	}
	r.rooms[name] = rm
	metrics.Rooms.Set(float64(len(r.rooms)))
	r.log.Info().Str("room", name).Bool("private", private).Str("creator", username).Msg("room created")
	return rm, p, nil
}

// Join admits sink into an existing room.
func (r *Registry) Join(sink broadcast.Sink, username, name, password string) (*Room, Participant, error) {
	name = strings.TrimSpace(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[name]
	if !ok {
		return nil, Participant{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	// Plain string equality, kept for compatibility with existing clients.
	if rm.private && password != rm.password {
		return nil, Participant{}, fmt.Errorf("%w: %s", ErrUnauthorized, name)
	}

	p, err := rm.admit(sink, username)
	if err != nil {
		return nil, Participant{}, err
	}
	return rm, p, nil
}

// Leave removes participant id from rm and destroys rm once it is empty.
func (r *Registry) Leave(rm *Room, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	remaining, err := rm.remove(id)
	if err != nil {
		r.log.Debug().Err(err).Str("room", rm.name).Str("id", id).Msg("leave on closed room")
		return
	}
	if remaining > 0 {
		return
	}
	if r.rooms[rm.name] == rm {
		delete(r.rooms, rm.name)
	}
	rm.close()
	metrics.Rooms.Set(float64(len(r.rooms)))
	r.log.Info().Str("room", rm.name).Msg("room destroyed")
}

// Lookup returns the live room called name.
func (r *Registry) Lookup(name string) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[name]
	return rm, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// List summarises the live rooms, sorted by name. Private rooms are left
// out unless includePrivate is set.
func (r *Registry) List(includePrivate bool) []Info {
	r.mu.Lock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		if rm.private && !includePrivate {
			continue
		}
		rooms = append(rooms, rm)
	}
	r.mu.Unlock()

	out := make([]Info, 0, len(rooms))
	for _, rm := range rooms {
		members, err := rm.Members()
		if err != nil {
			continue
		}
		out = append(out, Info{Name: rm.name, IsPrivate: rm.private, Members: len(members)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close stops every room.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, rm := range r.rooms {
		rm.close()
		delete(r.rooms, name)
	}
	metrics.Rooms.Set(0)
}
