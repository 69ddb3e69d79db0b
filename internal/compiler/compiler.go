package compiler

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/buildings/internal/building"
	"github.com/Faultbox/buildings/internal/logger"
	"github.com/Faultbox/buildings/internal/style"
	"github.com/Faultbox/buildings/pkg/math"
)

// ErrEmptyOutput is returned when a scene graph is requested for an output
// without geometry.
var ErrEmptyOutput = errors.New("compiled output has no geometry")

// Compiler converts buildings to meshes. It holds no per-call state and may
// be shared between goroutines.
type Compiler struct {
	settings Settings
}

// New creates a compiler with the given settings.
func New(settings Settings) *Compiler {
	return &Compiler{settings: settings}
}

// Compile builds one mesh per building. Buildings without walls are skipped.
func (c *Compiler) Compile(buildings []*building.Building) (*Output, error) {
	start := time.Now()
	out := &Output{}
	for i, b := range buildings {
		if b == nil {
			return nil, errors.Newf("building %d is nil", i)
		}
		if m := buildMesh(b, c.settings); m != nil {
			out.Meshes = append(out.Meshes, m)
		}
	}
	logger.Named("compiler").Debug("compiled buildings",
		zap.Int("buildings", len(buildings)),
		zap.Int("meshes", len(out.Meshes)),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

// Output is the compiled geometry of one tile.
type Output struct {
	Meshes   []*Mesh
	MinRange float64
	MaxRange float64
}

// SetRange sets the farthest viewer distance at which the output is shown.
func (o *Output) SetRange(maxRange float64) {
	o.MaxRange = maxRange
}

// CreateSceneGraph assembles a node from the output. Skins are resolved
// against the session's resource library; unknown skins stay untextured.
func (o *Output) CreateSceneGraph(session *style.Session, settings Settings) (*Node, error) {
	if o == nil || len(o.Meshes) == 0 {
		return nil, ErrEmptyOutput
	}

	meshes := o.Meshes
	if settings.Merge && len(meshes) > 1 {
		meshes = []*Mesh{merge(meshes)}
	}

	node := &Node{
		Name:      fmt.Sprintf("buildings[%d]", len(o.Meshes)),
		MinRange:  o.MinRange,
		MaxRange:  o.MaxRange,
		Meshes:    meshes,
		Materials: make(map[string]Material),
	}
	lib := session.Resources()
	for _, m := range meshes {
		for _, g := range m.Groups {
			if g.Skin == "" {
				continue
			}
			if _, ok := node.Materials[g.Skin]; ok {
				continue
			}
			if s := lib.Skin(g.Skin); s != nil {
				node.Materials[g.Skin] = Material{Skin: s.Name, ImageURI: s.ImageURI}
			}
		}
	}
	return node, nil
}

// merge re-expresses every mesh in the frame of the first one and
// concatenates them, keeping one group per skin.
func merge(meshes []*Mesh) *Mesh {
	anchor := meshes[0].Transform
	toAnchor := anchor.Inverse()

	mb := newMeshBuilder()
	for _, m := range meshes {
		rel := toAnchor.Mul(m.Transform)
		for _, g := range m.Groups {
			for _, i := range m.Indices[g.StartIndex : g.StartIndex+g.IndexCount] {
				v := m.Vertices[i]
				v.Position = rel.TransformPoint(vec3(v.Position)).Float32()
				v.Normal = rel.TransformDirection(vec3(v.Normal)).Normalize().Float32()
				mb.add(g.Skin, v)
			}
		}
	}
	return mb.mesh(meshes[0].UID, anchor)
}

func vec3(v [3]float32) math.Vec3 {
	return math.Vec3{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}
