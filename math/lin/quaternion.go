// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

// Quaternion deals with quaternion math specifically for linear algebra
// rotations.
//
// The rasterizer's only consumer of quaternions is the per-splat rotation
// stored alongside each Gaussian: Q is a plain data holder carrying the
// PLY file's (rot_0..rot_3) fields unchanged into M3.SetQ, which reads its
// X/Y/Z/W fields directly. No quaternion arithmetic (add, multiply,
// normalize, interpolate) has a caller in this domain, so none is kept
// here; see DESIGN.md for the trim.
type Q struct {
	X float32 // X component of direction vector.
	Y float32 // Y component of direction vector.
	Z float32 // Z component of direction vector.
	W float32 // Angle of rotation.
}
