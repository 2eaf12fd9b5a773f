package scene

import (
	"fmt"
	"path/filepath"
	"strings"

	"r3d/gpu"
	rmath "r3d/math"
)

// Model is a set of meshes with their materials. MeshMaterials[i] indexes
// Materials for Meshes[i].
type Model struct {
	Meshes        []*Mesh
	Materials     []*Material
	MeshMaterials []int
	Bounds        rmath.AABB
}

// NewModelFromMesh wraps a single mesh with the default material.
func NewModelFromMesh(mesh *Mesh) *Model {
	m := &Model{
		Meshes:        []*Mesh{mesh},
		Materials:     []*Material{DefaultMaterial()},
		MeshMaterials: []int{0},
	}
	m.UpdateBounds()
	return m
}

// LoadModel loads a glTF (.gltf / .glb) or Wavefront (.obj) model file.
func LoadModel(path string) (*Model, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return LoadGLTF(path)
	case ".obj":
		return LoadOBJ(path)
	}
	return nil, fmt.Errorf("load model %q: unsupported format", path)
}

// MaterialFor returns the material of mesh i, or the default material.
func (m *Model) MaterialFor(i int) *Material {
	if i < len(m.MeshMaterials) {
		if mi := m.MeshMaterials[i]; mi >= 0 && mi < len(m.Materials) && m.Materials[mi] != nil {
			return m.Materials[mi]
		}
	}
	return DefaultMaterial()
}

// UpdateBounds recomputes the union of the mesh bounds.
func (m *Model) UpdateBounds() {
	first := true
	for _, mesh := range m.Meshes {
		if len(mesh.Vertices) == 0 {
			continue
		}
		if first {
			m.Bounds = mesh.Bounds
			first = false
			continue
		}
		m.Bounds = m.Bounds.Extend(mesh.Bounds.Min).Extend(mesh.Bounds.Max)
	}
}

// Upload makes every mesh and texture resident. It stops at the first error.
func (m *Model) Upload(dev gpu.Device) error {
	for _, mesh := range m.Meshes {
		if err := mesh.Upload(dev); err != nil {
			return err
		}
	}
	for _, mat := range m.Materials {
		for _, tex := range mat.Textures() {
			if err := tex.Upload(dev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Unload releases every device resource of the model.
func (m *Model) Unload(dev gpu.Device) {
	for _, mesh := range m.Meshes {
		mesh.Unload(dev)
	}
	for _, mat := range m.Materials {
		for _, tex := range mat.Textures() {
			tex.Unload(dev)
		}
	}
}
