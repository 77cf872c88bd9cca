// Package protocol defines the event envelope exchanged over a board
// websocket and the payloads carried by each event.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Client to server events.
const (
	EventCreateRoom     = "createRoom"
	EventJoinRoom       = "joinRoom"
	EventDrawing        = "drawing"
	EventActionComplete = "actionComplete"
	EventUndo           = "undo"
	EventRedo           = "redo"
	EventClearCanvas    = "clearCanvas"
	EventCursorMove     = "cursorMove"
	EventSaveSession    = "saveSession"
	EventLoadSession    = "loadSession"
	EventListSessions   = "listSessions"
)

// Server to client events. EventDrawing is relayed in both directions.
const (
	EventDrawHistory        = "drawHistory"
	EventNewAction          = "newAction"
	EventCursorUpdate       = "cursorUpdate"
	EventUsersUpdate        = "usersUpdate"
	EventRoomJoined         = "roomJoined"
	EventPrivateRoomCreated = "privateRoomCreated"
	EventNotification       = "notification"
	EventError              = "error"
	EventSessionList        = "sessionList"
)

// Envelope is the frame for every websocket message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode builds a ready-to-send frame for event with data as payload.
func Encode(event string, data any) ([]byte, error) {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("protocol: encode %s: %w", event, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

// Decode parses an inbound frame.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("protocol: decode frame: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("protocol: decode frame: missing event")
	}
	return env, nil
}

// Bind unmarshals the envelope payload into v.
func (e Envelope) Bind(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("protocol: %s: missing data", e.Event)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("protocol: %s: %w", e.Event, err)
	}
	return nil
}

type CreateRoom struct {
	Username  string `json:"username"`
	RoomName  string `json:"roomName"`
	IsPrivate bool   `json:"isPrivate"`
	Password  string `json:"password"`
}

type JoinRoom struct {
	Username string `json:"username"`
	RoomName string `json:"roomName"`
	Password string `json:"password"`
}

// Segment is one live stroke preview segment.
type Segment struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Width float64 `json:"width"`
	Color string  `json:"color"`
}

type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type CursorUpdate struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// UserInfo is one roster entry of a usersUpdate, keyed by connection id.
type UserInfo struct {
	Username string `json:"username"`
	Color    string `json:"color"`
}

// RoomJoined tells an admitted connection who it is.
type RoomJoined struct {
	Room      string `json:"room"`
	ID        string `json:"id"`
	Color     string `json:"color"`
	IsPrivate bool   `json:"isPrivate"`
}
