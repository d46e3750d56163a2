package brush

import (
	"strings"

	"github.com/pkg/errors"
)

// MapFormat is the dialect of the map file a brush comes from. It decides which texture
// coordinate system new faces get.
type MapFormat int

const (
	Standard MapFormat = iota
	Quake2
	Quake2Valve
	Quake3
	Quake3Valve
	Quake3Legacy
	Valve
	Hexen2
	Daikatana
)

var mapFormatNames = map[MapFormat]string{
	Standard:     "Standard",
	Quake2:       "Quake2",
	Quake2Valve:  "Quake2 (Valve)",
	Quake3:       "Quake3",
	Quake3Valve:  "Quake3 (Valve)",
	Quake3Legacy: "Quake3 (legacy)",
	Valve:        "Valve",
	Hexen2:       "Hexen2",
	Daikatana:    "Daikatana",
}

func (f MapFormat) String() string {
	if name, ok := mapFormatNames[f]; ok {
		return name
	}
	return "Unknown"
}

// IsParallel reports whether faces of this format store explicit texture axes.
func (f MapFormat) IsParallel() bool {
	switch f {
	case Valve, Quake2Valve, Quake3Valve:
		return true
	}
	return false
}

// ParseMapFormat accepts the names returned by String, case-insensitively.
func ParseMapFormat(name string) (MapFormat, error) {
	for format, formatName := range mapFormatNames {
		if strings.EqualFold(formatName, name) {
			return format, nil
		}
	}
	return Standard, errors.Errorf("unknown map format %q", name)
}

func (f MapFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *MapFormat) UnmarshalText(text []byte) error {
	format, err := ParseMapFormat(string(text))
	if err != nil {
		return err
	}
	*f = format
	return nil
}
