// Package broadcast fans events out to the members of a single room.
package broadcast

import (
	"sort"

	"github.com/rs/zerolog"

	"drawing-board/internal/metrics"
	"drawing-board/internal/protocol"
)

// Sink is the outbound side of one connection.
type Sink interface {
	ID() string
	// Send queues a frame without blocking. It returns false when the frame
	// was dropped.
	Send(frame []byte) bool
}

// Channel is the set of sinks of one room. Frames are encoded once per
// publish and handed to every addressed sink.
//
// A Channel is not safe for concurrent use; the owning room serializes
// every call.
type Channel struct {
	room    string
	members map[string]Sink
	log     zerolog.Logger
}

func NewChannel(room string, log zerolog.Logger) *Channel {
	return &Channel{
		room:    room,
		members: make(map[string]Sink),
		log:     log.With().Str("module", "broadcast").Str("room", room).Logger(),
	}
}

func (c *Channel) Join(s Sink) {
	c.members[s.ID()] = s
}

func (c *Channel) Leave(id string) {
	delete(c.members, id)
}

func (c *Channel) Len() int {
	return len(c.members)
}

// IDs returns the member ids in a stable order.
func (c *Channel) IDs() []string {
	ids := make([]string, 0, len(c.members))
	for id := range c.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ToAll delivers to every member, the originator included.
func (c *Channel) ToAll(event string, data any) {
	c.publish(event, data, "")
}

// ToOthers delivers to every member except from.
func (c *Channel) ToOthers(from, event string, data any) {
	c.publish(event, data, from)
}

// ToOne delivers to a single member. It reports false when id is not a
// member or the frame was dropped.
func (c *Channel) ToOne(id, event string, data any) bool {
	s, ok := c.members[id]
	if !ok {
		return false
	}
	frame, err := protocol.Encode(event, data)
	if err != nil {
		c.log.Error().Err(err).Str("event", event).Msg("encode failed")
		return false
	}
	if !s.Send(frame) {
		metrics.MessagesDropped.Inc()
		c.log.Warn().Str("event", event).Str("to", id).Msg("message dropped")
		return false
	}
	return true
}

func (c *Channel) publish(event string, data any, exclude string) {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		c.log.Error().Err(err).Str("event", event).Msg("encode failed")
		return
	}
	var dropped []string
	for id, s := range c.members {
		if id == exclude {
			continue
		}
		if !s.Send(frame) {
			dropped = append(dropped, id)
		}
	}
	if len(dropped) > 0 {
		metrics.MessagesDropped.Add(float64(len(dropped)))
		c.log.Warn().Str("event", event).Strs("dropped", dropped).Msg("slow consumers")
	}
}
