package geometry

// TriangleRow lays out n triangles side by side across clip space, x from -1 to 1,
// each with its base at y = -0.5 and its apex at y = 0.5.
//
// Parameters:
//   - n: the number of triangles, values < 1 yield empty slices
//
// Returns:
//   - []float32: 9 floats (three xyz vertices) per triangle
//   - []uint32: 3 indices per triangle
func TriangleRow(n int) ([]float32, []uint32) {
	if n < 1 {
		return nil, nil
	}
	vertices := make([]float32, 0, n*9)
	indices := make([]uint32, 0, n*3)

	width := float32(2.0) / float32(n)
	x := float32(-1.0)
	for i := range n {
		vertices = append(vertices,
			x, -0.5, 0,
			x+width, -0.5, 0,
			x+width/2, 0.5, 0,
		)
		base := uint32(i * 3)
		indices = append(indices, base, base+1, base+2)
		x += width
	}
	return vertices, indices
}
