// Package camera builds the view and projection matrices the rasterizer
// needs each frame from a pinhole camera descriptor.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/dbauer15/splatgo/math/lin"
)

// Camera describes a right-handed pinhole camera. Pos, At and Up are set
// by the caller; Forward, Right and Up are (re)derived every time View is
// called, matching the original reference's camera_get_view behavior of
// writing the basis vectors back onto the camera.
type Camera struct {
	Pos lin.V3
	At  lin.V3
	Up  lin.V3

	Fovy   float32 // radians
	Near   float32
	Far    float32
	Aspect float32 // width / height

	Forward lin.V3
	Right   lin.V3
}

// New returns a camera with the given pose and lens parameters. Aspect is
// width/height and fovy is the full vertical field of view in radians.
func New(pos, at, up lin.V3, fovy, near, far, aspect float32) *Camera {
	return &Camera{Pos: pos, At: at, Up: up, Fovy: fovy, Near: near, Far: far, Aspect: aspect}
}

// View computes and returns the look-at view matrix for the camera's
// current pose, updating Forward, Right and Up in place.
//
// forward = normalize(at - pos), right = normalize(forward x up),
// up' = normalize(right x forward). math/lin multiplies a point as a row
// vector against the matrix (v' = v*M, see matrix.go), so the upper 3x3
// here stores right/up/forward as columns rather than the textbook
// row-major [right; up'; forward] layout, which assumes the point is a
// column vector on the matrix's right (M*v): column x = right, column y
// = up', column z = forward. That puts dot(forward, p-pos) in the
// transformed Z, matching this library's row-vector convention. The
// translation row holds -(right.pos, up'.pos, forward.pos).
func (c *Camera) View() *lin.M4 {
	forward := (&lin.V3{}).Sub(&c.At, &c.Pos).Unit()
	right := (&lin.V3{}).Cross(forward, &c.Up).Unit()
	up := (&lin.V3{}).Cross(right, forward).Unit()

	c.Forward, c.Right, c.Up = *forward, *right, *up

	m := lin.NewM4I()
	m.Xx, m.Yx, m.Zx = right.X, right.Y, right.Z
	m.Xy, m.Yy, m.Zy = up.X, up.Y, up.Z
	m.Xz, m.Yz, m.Zz = forward.X, forward.Y, forward.Z
	m.Wx = -right.Dot(&c.Pos)
	m.Wy = -up.Dot(&c.Pos)
	m.Wz = -forward.Dot(&c.Pos)
	m.Xw, m.Yw, m.Zw, m.Ww = 0, 0, 0, 1
	return m
}

// Proj builds the GL-style perspective projection matrix for the
// camera's current lens parameters.
func (c *Camera) Proj() *lin.M4 {
	return lin.NewM4().Persp(c.Fovy, c.Aspect, c.Near, c.Far)
}

// TanFovy returns tan(fovy/2), the half-angle tangent preprocess uses to
// derive the focal lengths and screen-space Jacobian clamp range.
func (c *Camera) TanFovy() float32 { return math32.Tan(c.Fovy * 0.5) }

// TanFovx returns TanFovy scaled by the camera's aspect ratio.
func (c *Camera) TanFovx() float32 { return c.TanFovy() * c.Aspect }
