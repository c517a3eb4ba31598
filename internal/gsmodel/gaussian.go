package gsmodel

import (
	"github.com/chewxy/math32"

	"github.com/dbauer15/splatgo/math/lin"
)

// sigmoid maps a raw opacity logit to (0,1).
func sigmoid(logit float32) float32 {
	return 1 / (1 + math32.Exp(-logit))
}

// dcToColor converts a zero-order spherical-harmonic DC coefficient to
// linear RGB in [0,1].
func dcToColor(dc lin.V3) lin.V3 {
	return lin.V3{
		X: dc.X*C0 + 0.5,
		Y: dc.Y*C0 + 0.5,
		Z: dc.Z*C0 + 0.5,
	}
}

// cov3D builds cov3d = R*S*(R*S)^T from the point's unit rotation
// quaternion (r,x,y,z) and its per-axis log-scale. The quaternion is
// consumed as-is, with no renormalization, per the loader contract.
func cov3D(r, x, y, z float32, logScale lin.V3) lin.M3 {
	q := &lin.Q{X: x, Y: y, Z: z, W: r}
	rot := (&lin.M3{}).SetQ(q)

	scale := lin.V3{X: math32.Exp(logScale.X), Y: math32.Exp(logScale.Y), Z: math32.Exp(logScale.Z)}
	rs := (&lin.M3{}).Set(rot).ScaleV(&scale)

	rst := (&lin.M3{}).Transpose(rs)
	return *(&lin.M3{}).Mult(rs, rst)
}
