package jfa

import (
	"fmt"
	"strings"
)

// Mode selects how the composite pass turns the field into colour.
type Mode int

const (
	// ModeDistance shades each pixel by its distance to the seed.
	ModeDistance Mode = iota
	// ModeContour draws coloured iso-distance bands.
	ModeContour
	// ModeField shows the low bytes of the stored seed coordinate.
	ModeField

	modeCount
)

var modeNames = [...]string{
	ModeDistance: "distance",
	ModeContour:  "contour",
	ModeField:    "field",
}

func (m Mode) String() string {
	if m < 0 || m >= modeCount {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Next cycles to the following mode.
func (m Mode) Next() Mode { return (m + 1) % modeCount }

// Modes lists every display mode in order.
func Modes() []Mode {
	out := make([]Mode, 0, modeCount)
	for m := Mode(0); m < modeCount; m++ {
		out = append(out, m)
	}
	return out
}

// ParseMode accepts a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(m), nil
		}
	}
	return 0, fmt.Errorf("unknown display mode %q (want one of %s)", s, strings.Join(modeNames[:], ", "))
}

// MarshalText implements encoding.TextMarshaler so modes round-trip
// through config files.
func (m Mode) MarshalText() ([]byte, error) {
	if m < 0 || m >= modeCount {
		return nil, fmt.Errorf("invalid display mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
