// Package action defines the committed drawing operations that make up a
// room's history, and their JSON wire form.
package action

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind discriminates the Action variants on the wire.
type Kind string

const (
	KindStroke   Kind = "stroke"
	KindRect     Kind = "rect"
	KindCircle   Kind = "circle"
	KindTriangle Kind = "triangle"
	KindClear    Kind = "clear"
)

var (
	ErrUnknownKind = errors.New("action: unknown type")
	ErrMalformed   = errors.New("action: malformed")
)

// Action is one immutable, completed drawing operation.
// The concrete types are Stroke, Rect, Circle, Triangle and Clear.
type Action interface {
	Kind() Kind
	isAction()
}

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is a freehand polyline. The eraser is a white stroke.
type Stroke struct {
	Points []Point `json:"points"`
	Width  float64 `json:"width"`
	Color  string  `json:"color"`
}

// Rect is an axis-aligned rectangle. Width and Height keep the sign of the
// drag direction.
type Rect struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
}

type Circle struct {
	CX          float64 `json:"cx"`
	CY          float64 `json:"cy"`
	Radius      float64 `json:"radius"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
}

type Triangle struct {
	P1          Point   `json:"p1"`
	P2          Point   `json:"p2"`
	P3          Point   `json:"p3"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// Clear marks a full canvas reset at its position in the history.
type Clear struct{}

func (Stroke) Kind() Kind   { return KindStroke }
func (Rect) Kind() Kind     { return KindRect }
func (Circle) Kind() Kind   { return KindCircle }
func (Triangle) Kind() Kind { return KindTriangle }
func (Clear) Kind() Kind    { return KindClear }

func (Stroke) isAction()   {}
func (Rect) isAction()     {}
func (Circle) isAction()   {}
func (Triangle) isAction() {}
func (Clear) isAction()    {}

func (s Stroke) MarshalJSON() ([]byte, error) {
	type plain Stroke
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindStroke, plain(s)})
}

func (r Rect) MarshalJSON() ([]byte, error) {
	type plain Rect
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindRect, plain(r)})
}

func (c Circle) MarshalJSON() ([]byte, error) {
	type plain Circle
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindCircle, plain(c)})
}

func (t Triangle) MarshalJSON() ([]byte, error) {
	type plain Triangle
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindTriangle, plain(t)})
}

func (Clear) MarshalJSON() ([]byte, error) {
	return []byte(`{"type":"clear"}`), nil
}

// Decode parses a single action object. An object without a type but with
// a points array is a stroke, which is what older clients send.
func Decode(data []byte) (Action, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	var head struct {
		Type   *Kind           `json:"type"`
		Points json.RawMessage `json:"points"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	kind := KindStroke
	switch {
	case head.Type != nil:
		kind = *head.Type
	case head.Points == nil:
		return nil, fmt.Errorf("%w: missing type", ErrUnknownKind)
	}

	switch kind {
	case KindStroke:
		var s Stroke
		return decodeInto(data, &s, func() Action { return s })
	case KindRect:
		var r Rect
		return decodeInto(data, &r, func() Action { return r })
	case KindCircle:
		var c Circle
		return decodeInto(data, &c, func() Action { return c })
	case KindTriangle:
		var t Triangle
		return decodeInto(data, &t, func() Action { return t })
	case KindClear:
		return Clear{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func decodeInto(data []byte, v any, get func() Action) (Action, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return get(), nil
}
