package compiler

import (
	"bufio"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
)

// WriteOBJ writes the node as Wavefront OBJ. Every mesh is expressed in the
// frame of the node's first mesh so the file opens as one coherent scene.
func WriteOBJ(node *Node, w io.Writer) error {
	if node == nil || len(node.Meshes) == 0 {
		return ErrEmptyOutput
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s: %d meshes, %d triangles\n", node.Name, len(node.Meshes), node.Triangles())

	toAnchor := node.Meshes[0].Transform.Inverse()
	offset := 1
	for _, m := range node.Meshes {
		rel := toAnchor.Mul(m.Transform)
		fmt.Fprintf(bw, "o building_%d\n", m.UID)
		for _, v := range m.Vertices {
			p := rel.TransformPoint(vec3(v.Position))
			fmt.Fprintf(bw, "v %.4f %.4f %.4f %.3f %.3f %.3f\n", p.X, p.Y, p.Z, v.Color[0], v.Color[1], v.Color[2])
		}
		for _, v := range m.Vertices {
			fmt.Fprintf(bw, "vt %.4f %.4f\n", v.TexCoord[0], v.TexCoord[1])
		}
		for _, v := range m.Vertices {
			n := rel.TransformDirection(vec3(v.Normal)).Normalize()
			fmt.Fprintf(bw, "vn %.4f %.4f %.4f\n", n.X, n.Y, n.Z)
		}
		for _, g := range m.Groups {
			if g.Skin != "" {
				fmt.Fprintf(bw, "usemtl %s\n", g.Skin)
			} else {
				fmt.Fprintln(bw, "usemtl default")
			}
			idx := m.Indices[g.StartIndex : g.StartIndex+g.IndexCount]
			for t := 0; t+2 < len(idx); t += 3 {
				a, b, c := int(idx[t])+offset, int(idx[t+1])+offset, int(idx[t+2])+offset
				fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
			}
		}
		offset += len(m.Vertices)
	}
	return errors.Wrap(bw.Flush(), "write obj")
}
