// Package gsmodel loads a point-cloud of 3D Gaussians and materializes the
// immutable model the rasterizer consumes: positions, first-order
// spherical-harmonic colors, sigmoid opacities, and world-space 3x3
// covariances.
package gsmodel

import "github.com/dbauer15/splatgo/math/lin"

// C0 is the zero-order spherical-harmonic basis constant used to convert a
// DC color coefficient to linear RGB around 0.5.
const C0 = 0.28209

// Model is the immutable set of Gaussians produced by Load. All slices
// have length N. The rasterizer context holds a non-owning reference to a
// Model valid for the context's lifetime; nothing after Load mutates it.
type Model struct {
	Positions []lin.V3
	Colors    []lin.V3
	Opacities []float32
	Cov3D     []lin.M3
}

// N returns the number of points in the model.
func (m *Model) N() int { return len(m.Positions) }
