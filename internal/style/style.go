// Package style holds the symbol rules that drive building generation.
package style

import (
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// DefaultFloorHeight is used when a building symbol gives no floor height.
const DefaultFloorHeight = 3.5

// ClampingMode says how generated geometry relates to the terrain.
type ClampingMode int

const (
	ClampNone ClampingMode = iota
	ClampTerrain
	ClampRelative
	ClampAbsolute
)

var clampingNames = map[ClampingMode]string{
	ClampNone:     "none",
	ClampTerrain:  "terrain",
	ClampRelative: "relative",
	ClampAbsolute: "absolute",
}

func (m ClampingMode) String() string {
	if s, ok := clampingNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseClampingMode accepts the names printed by String.
func ParseClampingMode(s string) (ClampingMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ClampNone, nil
	}
	for m, name := range clampingNames {
		if name == s {
			return m, nil
		}
	}
	return ClampNone, errors.Newf("unknown clamping mode %q", s)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *ClampingMode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	mode, err := ParseClampingMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (m ClampingMode) MarshalYAML() (any, error) {
	return m.String(), nil
}

// AltitudeSymbol controls vertical placement.
type AltitudeSymbol struct {
	Clamping ClampingMode `yaml:"clamping"`
}

// BuildingSymbol controls height and floor layout.
type BuildingSymbol struct {
	Height      *NumericExpression `yaml:"height"`
	FloorHeight float64            `yaml:"floor_height"`
}

// UnitHeight returns the floor height, falling back to DefaultFloorHeight.
func (b *BuildingSymbol) UnitHeight() float64 {
	if b == nil || b.FloorHeight <= 0 {
		return DefaultFloorHeight
	}
	return b.FloorHeight
}

// Style is a named bundle of symbols. A nil *Style is valid and means
// "use defaults everywhere".
type Style struct {
	Name     string          `yaml:"-"`
	Altitude *AltitudeSymbol `yaml:"altitude,omitempty"`
	Building *BuildingSymbol `yaml:"building,omitempty"`
}

// Clamping returns the clamping mode, ClampNone when unset.
func (s *Style) Clamping() ClampingMode {
	if s == nil || s.Altitude == nil {
		return ClampNone
	}
	return s.Altitude.Clamping
}

// NeedsClamping reports whether terrain must be sampled for this style.
func (s *Style) NeedsClamping() bool {
	return s.Clamping() != ClampNone
}

// BuildingSymbol returns the building symbol or nil.
func (s *Style) BuildingSymbol() *BuildingSymbol {
	if s == nil {
		return nil
	}
	return s.Building
}
