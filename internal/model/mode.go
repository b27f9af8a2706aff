package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned by ParseMode for anything but classic/hourly.
var ErrUnknownMode = errors.New("unknown booking mode")

// Mode is the booking mode. The zero value is invalid so a request that
// never set a mode cannot be priced by accident.
type Mode uint8

const (
	ModeUnknown Mode = iota
	ModeClassic
	ModeHourly
)

// ParseMode accepts "classic" or "hourly" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "classic":
		return ModeClassic, nil
	case "hourly":
		return ModeHourly, nil
	default:
		return ModeUnknown, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) Valid() bool {
	return m == ModeClassic || m == ModeHourly
}

func (m Mode) String() string {
	switch m {
	case ModeClassic:
		return "classic"
	case ModeHourly:
		return "hourly"
	default:
		return "unknown"
	}
}

func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Mode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
