package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"r3d/gpu"
	rmath "r3d/math"
)

// Vertex is the interleaved layout uploaded to the device; see gpu.VertexStride.
type Vertex struct {
	Position mgl32.Vec3
	TexCoord mgl32.Vec2
	Normal   mgl32.Vec3
	Tangent  mgl32.Vec4 // w holds the bitangent sign
	Color    mgl32.Vec4
}

// Mesh holds CPU-side vertex/index data and, once uploaded, its vertex array.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32

	// Bounds is the local-space AABB computed by NewMesh.
	Bounds rmath.AABB

	// VAO is set by Upload; zero means not resident.
	VAO gpu.VertexArray
}

// NewMesh builds a Mesh and pre-computes its local-space AABB.
func NewMesh(name string, vertices []Vertex, indices []uint32) *Mesh {
	m := &Mesh{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
	}
	m.UpdateBounds()
	return m
}

// UpdateBounds recomputes Bounds from the vertex positions.
func (m *Mesh) UpdateBounds() {
	if len(m.Vertices) == 0 {
		m.Bounds = rmath.AABB{}
		return
	}
	p := m.Vertices[0].Position
	box := rmath.AABB{Min: p, Max: p}
	for i := 1; i < len(m.Vertices); i++ {
		box = box.Extend(m.Vertices[i].Position)
	}
	m.Bounds = box
}

func (m *Mesh) VertexCount() int32 { return int32(len(m.Vertices)) }
func (m *Mesh) IndexCount() int32  { return int32(len(m.Indices)) }

// Interleave flattens the vertices into the device layout.
func (m *Mesh) Interleave() []float32 {
	out := make([]float32, 0, len(m.Vertices)*gpu.VertexStride)
	for _, v := range m.Vertices {
		out = append(out, v.Position[:]...)
		out = append(out, v.TexCoord[:]...)
		out = append(out, v.Normal[:]...)
		out = append(out, v.Tangent[:]...)
		out = append(out, v.Color[:]...)
	}
	return out
}

// Upload creates the vertex array. Calling it on a resident mesh is a no-op.
func (m *Mesh) Upload(dev gpu.Device) error {
	if m.VAO != 0 {
		return nil
	}
	vao, err := dev.UploadMesh(m.Interleave(), m.Indices)
	if err != nil {
		return fmt.Errorf("upload mesh %q: %w", m.Name, err)
	}
	m.VAO = vao
	return nil
}

// Unload releases the vertex array, keeping the CPU data.
func (m *Mesh) Unload(dev gpu.Device) {
	if m.VAO != 0 {
		dev.DeleteMesh(m.VAO)
		m.VAO = 0
	}
}
