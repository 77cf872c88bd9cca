package history

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drawing-board/internal/action"
)

func rect(x float64) action.Action {
	return action.Rect{X: x, Y: x, Width: 50, Height: 50, Color: "#000000", StrokeWidth: 2}
}

func TestUndoRedo(t *testing.T) {
	e := New()
	e.Commit(rect(1))
	e.Commit(rect(2))

	require.True(t, e.Undo())
	assert.Equal(t, action.List{rect(1)}, e.Actions())
	assert.Equal(t, 1, e.RedoDepth())

	require.True(t, e.Redo())
	assert.Equal(t, action.List{rect(1), rect(2)}, e.Actions())
	assert.Equal(t, 0, e.RedoDepth())
}

func TestUndoEmptyIsNoop(t *testing.T) {
	e := New()
	assert.False(t, e.Undo())
	assert.Equal(t, 0, e.Len())
	assert.Equal(t, 0, e.RedoDepth())
}

func TestRedoEmptyIsNoop(t *testing.T) {
	e := New()
	e.Commit(rect(1))
	assert.False(t, e.Redo())
	assert.Equal(t, action.List{rect(1)}, e.Actions())
}

func TestRedoKeepsRemainingEntries(t *testing.T) {
	e := New()
	e.Commit(rect(1))
	e.Commit(rect(2))
	e.Commit(rect(3))
	require.True(t, e.Undo())
	require.True(t, e.Undo())
	require.True(t, e.Redo())

	assert.Equal(t, action.List{rect(1), rect(2)}, e.Actions())
	assert.Equal(t, 1, e.RedoDepth())
	require.True(t, e.Redo())
	assert.Equal(t, action.List{rect(1), rect(2), rect(3)}, e.Actions())
}

func TestCommitAfterUndoDropsRedo(t *testing.T) {
	e := New()
	e.Commit(rect(1))
	e.Commit(rect(2))
	require.True(t, e.Undo())

	e.Commit(rect(9))
	assert.Equal(t, 0, e.RedoDepth())
	assert.False(t, e.Redo())
	assert.Equal(t, action.List{rect(1), rect(9)}, e.Actions())
}

func TestClearAfterUndoDropsRedo(t *testing.T) {
	e := New()
	e.Commit(rect(1))
	require.True(t, e.Undo())

	e.Clear()
	assert.Equal(t, 0, e.RedoDepth())
	assert.Equal(t, action.List{action.Clear{}}, e.Actions())
}

func TestClearKeepsEarlierActions(t *testing.T) {
	e := New()
	e.Commit(rect(1))
	e.Clear()
	e.Commit(rect(2))

	assert.Equal(t, action.List{rect(1), action.Clear{}, rect(2)}, e.Actions())
	assert.Equal(t, action.List{rect(2)}, visible(e.Actions()))

	require.True(t, e.Undo())
	require.True(t, e.Undo())
	assert.Equal(t, action.List{rect(1)}, visible(e.Actions()))
}

func TestReplace(t *testing.T) {
	e := New()
	e.Commit(rect(1))
	e.Commit(rect(2))
	require.True(t, e.Undo())

	loaded := action.List{rect(7), action.Clear{}}
	e.Replace(loaded)
	assert.Equal(t, loaded, e.Actions())
	assert.Equal(t, 0, e.RedoDepth())

	loaded[0] = rect(8)
	assert.Equal(t, rect(7), e.Actions()[0])
}

func TestActionsIsACopy(t *testing.T) {
	e := New()
	e.Commit(rect(1))
	got := e.Actions()
	got[0] = rect(5)
	assert.Equal(t, action.List{rect(1)}, e.Actions())
}

// visible replays l the way a canvas does: every Clear wipes what came
// before it.
func visible(l action.List) action.List {
	start := 0
	for i, a := range l {
		if a.Kind() == action.KindClear {
			start = i + 1
		}
	}
	return l[start:].Clone()
}

// Undo/redo round trips without an intervening commit always land back on
// the same replayed canvas.
func TestUndoRedoRoundTripsPreserveReplay(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 50; trial++ {
		e := New()
		n := 1 + rng.Intn(8)
		for i := 0; i < n; i++ {
			if rng.Intn(4) == 0 {
				e.Clear()
			} else {
				e.Commit(rect(float64(i)))
			}
		}
		want := visible(e.Actions())

		undone := 0
		for i := 0; i < 20; i++ {
			if rng.Intn(2) == 0 {
				if e.Undo() {
					undone++
				}
			} else if e.Redo() {
				undone--
			}
		}
		for ; undone > 0; undone-- {
			require.True(t, e.Redo())
		}

		assert.Equal(t, want, visible(e.Actions()), "trial %d", trial)
		assert.Equal(t, 0, e.RedoDepth())
	}
}
