package building

// ClampToTerrain lifts every wall corner of every elevation by offset.
func ClampToTerrain(buildings []*Building, offset float64) {
	for _, b := range buildings {
		if b == nil {
			continue
		}
		b.Walk(func(_ ElevationID, e *Elevation, _ int) {
			for w := range e.Walls {
				faces := e.Walls[w].Faces
				for i := range faces {
					faces[i].Left.Lower.Z += offset
					faces[i].Left.Upper.Z += offset
					faces[i].Right.Lower.Z += offset
					faces[i].Right.Upper.Z += offset
				}
			}
		})
	}
}
