package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorrupt marks a persisted session that could not be decoded.
var ErrCorrupt = errors.New("state: corrupt session payload")

// Encode serializes a session for persistence. Version is not part of the payload.
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("state: encode nil session")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("state: encode: %w", err)
	}
	return data, nil
}

// Decode restores a session from its payload. Numbers in scratch data are
// kept as json.Number so ids do not lose precision.
func Decode(data []byte, version int64) (*Session, error) {
	s := NewSession()
	s.Version = version
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(s); err != nil {
		fresh := NewSession()
		fresh.Version = version
		return fresh, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if s.Scratch == nil {
		s.Scratch = make(map[string]any)
	}
	return s, nil
}
