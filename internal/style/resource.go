package style

import "slices"

// SkinResource is a texture that can be applied to walls or roofs.
// ImageWidth and ImageHeight are the real-world size of one image repeat.
type SkinResource struct {
	Name        string   `yaml:"name"`
	ImageURI    string   `yaml:"image"`
	ImageWidth  float64  `yaml:"image_width"`
	ImageHeight float64  `yaml:"image_height"`
	Tags        []string `yaml:"tags,omitempty"`
}

// HasTag reports whether the skin carries tag.
func (s *SkinResource) HasTag(tag string) bool {
	return slices.Contains(s.Tags, tag)
}

// ResourceLibrary is a named set of skins. Lookups on a nil library miss.
type ResourceLibrary struct {
	Name  string
	skins map[string]*SkinResource
	order []*SkinResource
}

// NewResourceLibrary creates an empty library.
func NewResourceLibrary(name string) *ResourceLibrary {
	return &ResourceLibrary{Name: name, skins: map[string]*SkinResource{}}
}

// AddSkin adds or replaces a skin by name.
func (l *ResourceLibrary) AddSkin(s *SkinResource) {
	if old, ok := l.skins[s.Name]; ok {
		i := slices.Index(l.order, old)
		l.order[i] = s
	} else {
		l.order = append(l.order, s)
	}
	l.skins[s.Name] = s
}

// Skin looks a skin up by name; nil on miss.
func (l *ResourceLibrary) Skin(name string) *SkinResource {
	if l == nil {
		return nil
	}
	return l.skins[name]
}

// SkinsWithTags returns, in insertion order, the skins carrying every tag.
func (l *ResourceLibrary) SkinsWithTags(tags ...string) []*SkinResource {
	if l == nil {
		return nil
	}
	var out []*SkinResource
	for _, s := range l.order {
		match := true
		for _, t := range tags {
			if !s.HasTag(t) {
				match = false
				break
			}
		}
		if match {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of skins.
func (l *ResourceLibrary) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}
