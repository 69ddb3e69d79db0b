package style

import (
	"os"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/buildings/pkg/geo"
)

// Sheet is a collection of named styles plus the skins they may use.
// It is built once and then only read, so it is safe for concurrent use.
type Sheet struct {
	Name        string
	Library     *ResourceLibrary
	styles      map[string]*Style
	defaultName string
}

// NewSheet creates an empty sheet.
func NewSheet(name string) *Sheet {
	return &Sheet{Name: name, styles: map[string]*Style{}}
}

// AddStyle adds or replaces a style. The first style added becomes the
// default unless SetDefault says otherwise.
func (s *Sheet) AddStyle(st *Style) {
	if s.defaultName == "" {
		s.defaultName = st.Name
	}
	s.styles[st.Name] = st
}

// SetDefault names the default style.
func (s *Sheet) SetDefault(name string) {
	s.defaultName = name
}

// Style returns the named style or nil.
func (s *Sheet) Style(name string) *Style {
	if s == nil {
		return nil
	}
	return s.styles[name]
}

// DefaultStyle returns the default style or nil.
func (s *Sheet) DefaultStyle() *Style {
	if s == nil {
		return nil
	}
	return s.styles[s.defaultName]
}

// Names returns the style names, numeric names first in numeric order.
func (s *Sheet) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.styles))
	for n := range s.styles {
		names = append(names, n)
	}
	sortStyleNames(names)
	return names
}

// sortStyleNames orders numeric names first in numeric order, then the rest
// lexically.
func sortStyleNames(names []string) {
	sort.Slice(names, func(i, j int) bool {
		a, errA := strconv.Atoi(names[i])
		b, errB := strconv.Atoi(names[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return names[i] < names[j]
	})
}

// Session is the read-only style context threaded through generation.
type Session struct {
	Styles *Sheet
	MapSRS *geo.SRS
}

// NewSession binds a sheet to the map SRS.
func NewSession(sheet *Sheet, mapSRS *geo.SRS) *Session {
	return &Session{Styles: sheet, MapSRS: mapSRS}
}

// Resources returns the session's skin library or nil.
func (s *Session) Resources() *ResourceLibrary {
	if s == nil || s.Styles == nil {
		return nil
	}
	return s.Styles.Library
}

// Style looks a style up by name; nil on miss.
func (s *Session) Style(name string) *Style {
	if s == nil {
		return nil
	}
	return s.Styles.Style(name)
}

// DefaultStyle returns the sheet's default style or nil.
func (s *Session) DefaultStyle() *Style {
	if s == nil {
		return nil
	}
	return s.Styles.DefaultStyle()
}

type sheetFile struct {
	Name      string            `yaml:"name"`
	Default   string            `yaml:"default"`
	Styles    map[string]*Style `yaml:"styles"`
	Resources struct {
		Name  string          `yaml:"name"`
		Skins []*SkinResource `yaml:"skins"`
	} `yaml:"resources"`
}

// ParseSheet decodes a YAML style sheet.
func ParseSheet(data []byte) (*Sheet, error) {
	var f sheetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decoding style sheet")
	}

	sheet := NewSheet(f.Name)
	names := make([]string, 0, len(f.Styles))
	for name := range f.Styles {
		names = append(names, name)
	}
	// Without a default key the lowest level wins.
	sortStyleNames(names)
	for _, name := range names {
		st := f.Styles[name]
		if st == nil {
			st = &Style{}
		}
		st.Name = name
		sheet.AddStyle(st)
	}
	if f.Default != "" {
		if sheet.Style(f.Default) == nil {
			return nil, errors.Newf("default style %q is not defined", f.Default)
		}
		sheet.SetDefault(f.Default)
	}

	if len(f.Resources.Skins) > 0 {
		sheet.Library = NewResourceLibrary(f.Resources.Name)
		for i, skin := range f.Resources.Skins {
			if skin == nil || skin.Name == "" {
				return nil, errors.Newf("skin %d has no name", i)
			}
			sheet.Library.AddSkin(skin)
		}
	}
	return sheet, nil
}

// LoadSheet reads a YAML style sheet from disk.
func LoadSheet(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading style sheet %s", path)
	}
	sheet, err := ParseSheet(data)
	if err != nil {
		return nil, errors.Wrapf(err, "style sheet %s", path)
	}
	return sheet, nil
}
