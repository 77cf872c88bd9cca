package action

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// List is an ordered sequence of actions. It encodes as a JSON array and
// never as null.
type List []Action

func (l List) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Action(l))
}

func (l *List) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return fmt.Errorf("%w: not an array", ErrMalformed)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	out := make(List, 0, len(raw))
	for i, r := range raw {
		a, err := Decode(r)
		if err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
		out = append(out, a)
	}
	*l = out
	return nil
}

// Clone returns a copy of l that shares the (immutable) actions.
func (l List) Clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}
