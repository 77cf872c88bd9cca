// Package history keeps a room's ordered action log together with its redo
// stack.
//
// An Engine is not safe for concurrent use. Each room owns exactly one and
// only touches it from the room's own goroutine.
package history

import "drawing-board/internal/action"

type Engine struct {
	actions action.List
	redo    action.List
}

func New() *Engine {
	return &Engine{}
}

// Commit appends a to the history. Any pending redo entries are dropped
// because they no longer follow from the new past.
func (e *Engine) Commit(a action.Action) {
	e.actions = append(e.actions, a)
	e.redo = nil
}

// Undo moves the last action onto the redo stack. It reports whether
// anything changed.
func (e *Engine) Undo() bool {
	n := len(e.actions)
	if n == 0 {
		return false
	}
	last := e.actions[n-1]
	e.actions[n-1] = nil
	e.actions = e.actions[:n-1]
	e.redo = append(e.redo, last)
	return true
}

// Redo moves the most recently undone action back onto the history.
// The rest of the redo stack stays available.
func (e *Engine) Redo() bool {
	n := len(e.redo)
	if n == 0 {
		return false
	}
	last := e.redo[n-1]
	e.redo[n-1] = nil
	e.redo = e.redo[:n-1]
	e.actions = append(e.actions, last)
	return true
}

// Clear commits a clear marker. Earlier actions stay in the log.
func (e *Engine) Clear() {
	e.Commit(action.Clear{})
}

// Replace installs l as the whole history, as after a session load.
func (e *Engine) Replace(l action.List) {
	e.actions = l.Clone()
	e.redo = nil
}

// Actions returns a copy of the history.
func (e *Engine) Actions() action.List {
	return e.actions.Clone()
}

func (e *Engine) Len() int       { return len(e.actions) }
func (e *Engine) RedoDepth() int { return len(e.redo) }
