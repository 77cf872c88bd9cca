package conn

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSendDropsWhenFull(t *testing.T) {
	s := New(nil, 1, zerolog.Nop())
	assert.True(t, s.Send([]byte("a")))
	assert.False(t, s.Send([]byte("b")))
	assert.Equal(t, []byte("a"), <-s.send)
}

func TestSendAfterClose(t *testing.T) {
	s := New(nil, 4, zerolog.Nop())
	s.Close()
	s.Close()
	assert.False(t, s.Send([]byte("a")))
	assert.False(t, s.Emit("notification", "hi"))
}

func TestAdmitAndDepart(t *testing.T) {
	s := New(nil, 4, zerolog.Nop())
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, Identity{}, s.Identity())

	s.Admit("Alice", "art", "#112233")
	assert.Equal(t, Identity{Username: "Alice", Room: "art", Color: "#112233"}, s.Identity())

	s.Depart()
	assert.Equal(t, Identity{Username: "Alice"}, s.Identity())
}

func TestIDsAreUnique(t *testing.T) {
	a := New(nil, 1, zerolog.Nop())
	b := New(nil, 1, zerolog.Nop())
	assert.NotEqual(t, a.ID(), b.ID())
}
