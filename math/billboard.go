package math

import "github.com/go-gl/mathgl/mgl32"

// BillboardFront replaces the rotation of transform with the camera basis
// taken from invView, keeping the per-axis scale and the translation.
func BillboardFront(transform, invView mgl32.Mat4) mgl32.Mat4 {
	sx := transform.Col(0).Vec3().Len()
	sy := transform.Col(1).Vec3().Len()
	sz := transform.Col(2).Vec3().Len()

	out := transform
	out.SetCol(0, invView.Col(0).Vec3().Normalize().Mul(sx).Vec4(0))
	out.SetCol(1, invView.Col(1).Vec3().Normalize().Mul(sy).Vec4(0))
	out.SetCol(2, invView.Col(2).Vec3().Normalize().Mul(sz).Vec4(0))
	return out
}

// BillboardY rotates transform around the world Y axis so that its local X
// follows the camera right vector of invView flattened onto the XZ plane.
// Every billboard of a frame shares the same orientation. A camera whose
// right vector is vertical leaves transform unchanged.
func BillboardY(transform, invView mgl32.Mat4) mgl32.Mat4 {
	right := invView.Col(0).Vec3()
	right[1] = 0
	if right.LenSqr() < 1e-12 {
		return transform
	}
	right = right.Normalize()
	up := mgl32.Vec3{0, 1, 0}
	look := right.Cross(up)

	sx := transform.Col(0).Vec3().Len()
	sy := transform.Col(1).Vec3().Len()
	sz := transform.Col(2).Vec3().Len()

	out := transform
	out.SetCol(0, right.Mul(sx).Vec4(0))
	out.SetCol(1, up.Mul(sy).Vec4(0))
	out.SetCol(2, look.Mul(sz).Vec4(0))
	return out
}

// SquaredDistance returns the squared distance between p and the
// translation of m.
func SquaredDistance(p mgl32.Vec3, m mgl32.Mat4) float32 {
	return p.Sub(m.Col(3).Vec3()).LenSqr()
}
