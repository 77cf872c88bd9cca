package action

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeVariants(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Action
	}{
		{
			name: "stroke",
			in:   `{"type":"stroke","points":[{"x":1,"y":2},{"x":3,"y":4}],"width":5,"color":"#000000"}`,
			want: Stroke{Points: []Point{{1, 2}, {3, 4}}, Width: 5, Color: "#000000"},
		},
		{
			name: "untagged stroke",
			in:   `{"points":[{"x":1,"y":2}],"width":5,"color":"#FFFFFF"}`,
			want: Stroke{Points: []Point{{1, 2}}, Width: 5, Color: "#FFFFFF"},
		},
		{
			name: "negative rect",
			in:   `{"type":"rect","x":10,"y":10,"width":-50,"height":-20,"color":"#ff0000","strokeWidth":2}`,
			want: Rect{X: 10, Y: 10, Width: -50, Height: -20, Color: "#ff0000", StrokeWidth: 2},
		},
		{
			name: "circle",
			in:   `{"type":"circle","cx":5,"cy":6,"radius":0,"color":"#00ff00","strokeWidth":1}`,
			want: Circle{CX: 5, CY: 6, Radius: 0, Color: "#00ff00", StrokeWidth: 1},
		},
		{
			name: "triangle",
			in:   `{"type":"triangle","p1":{"x":0,"y":0},"p2":{"x":4,"y":0},"p3":{"x":2,"y":3},"color":"#0000ff","strokeWidth":3}`,
			want: Triangle{P1: Point{0, 0}, P2: Point{4, 0}, P3: Point{2, 3}, Color: "#0000ff", StrokeWidth: 3},
		},
		{
			name: "clear",
			in:   `{"type":"clear"}`,
			want: Clear{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	_, err := Decode([]byte(`{"type":"hexagon"}`))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Decode([]byte(`{"width":3}`))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Decode([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Decode([]byte(`{"type":"rect","x":"left"}`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestListRoundTrip(t *testing.T) {
	in := List{
		Stroke{Points: []Point{{1.5, 2.25}, {3, 4}}, Width: 5, Color: "#123456"},
		Rect{X: 10, Y: 10, Width: 50, Height: 50, Color: "#000000", StrokeWidth: 2},
		Clear{},
		Circle{CX: 1, CY: 2, Radius: 3.75, Color: "#abcdef", StrokeWidth: 4},
		Triangle{P1: Point{0, 0}, P2: Point{1, 1}, P3: Point{-1, 1}, Color: "#fedcba", StrokeWidth: 1},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out List
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestListEncodesEmptyAsArray(t *testing.T) {
	data, err := json.Marshal(List(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestListRejectsNonArray(t *testing.T) {
	var l List
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"type":"clear"}`), &l), ErrMalformed)
	assert.ErrorIs(t, json.Unmarshal([]byte(`[{"type":"clear"},{"type":"blob"}]`), &l), ErrUnknownKind)
}
