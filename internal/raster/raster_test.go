package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbauer15/splatgo/internal/camera"
	"github.com/dbauer15/splatgo/internal/gsmodel"
	"github.com/dbauer15/splatgo/math/lin"
)

func isotropicCov(sigma float32) lin.M3 {
	return lin.M3{Xx: sigma, Yy: sigma, Zz: sigma}
}

func newTestCamera(pos, at lin.V3, fovy float32, width, height int) *camera.Camera {
	return camera.New(pos, at, lin.V3{X: 0, Y: 1, Z: 0}, fovy, 0.01, 100, float32(width)/float32(height))
}

// scenario 1: single red opaque splat at the origin.
func TestSingleOpaqueSplatAtOrigin(t *testing.T) {
	model := &gsmodel.Model{
		Positions: []lin.V3{{X: 0, Y: 0, Z: 0}},
		Colors:    []lin.V3{{X: 1, Y: 0, Z: 0}},
		Opacities: []float32{1},
		Cov3D:     []lin.M3{isotropicCov(0.005)},
	}
	frame := NewFrame(64, 64)
	cam := newTestCamera(lin.V3{X: 0, Y: 0, Z: -1}, lin.V3{}, 0.35*lin.PI, 64, 64)

	ctx := NewContext(model, frame, DefaultTileSize, DefaultTileSize, 4, DefaultBatchSize)
	defer ctx.Destroy()

	ctx.Preprocess(cam)
	ctx.Render(cam)

	r, _, _ := frame.At(32, 32)
	assert.InDelta(t, 0.99, r, 0.02)

	// every pixel clearly outside the splat's 3-sigma extent plus a pixel
	// of slack is exactly black.
	r, g, b := frame.At(0, 0)
	assert.Equal(t, float32(0), r)
	assert.Equal(t, float32(0), g)
	assert.Equal(t, float32(0), b)
}

// scenario 2: two stacked, semi-transparent splats at the same screen
// center; swapping their depth order reverses the composited color.
func TestTwoStackedSplatsFrontToBack(t *testing.T) {
	run := func(redZ, greenZ float32) (r, g, b float32) {
		model := &gsmodel.Model{
			Positions: []lin.V3{{X: 0, Y: 0, Z: redZ}, {X: 0, Y: 0, Z: greenZ}},
			Colors:    []lin.V3{{X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
			Opacities: []float32{0.5, 0.5},
			Cov3D:     []lin.M3{isotropicCov(0.01), isotropicCov(0.01)},
		}
		frame := NewFrame(32, 32)
		cam := newTestCamera(lin.V3{X: 0, Y: 0, Z: -5}, lin.V3{}, 0.35*lin.PI, 32, 32)

		ctx := NewContext(model, frame, DefaultTileSize, DefaultTileSize, 4, DefaultBatchSize)
		defer ctx.Destroy()

		ctx.Preprocess(cam)
		ctx.Render(cam)
		return frame.At(16, 16)
	}

	r, g, b := run(0, 1)
	assert.InDelta(t, 0.5, r, 0.02)
	assert.InDelta(t, 0.25, g, 0.02)
	assert.InDelta(t, 0, b, 0.02)

	r, g, b = run(1, 0)
	assert.InDelta(t, 0.25, r, 0.02)
	assert.InDelta(t, 0.5, g, 0.02)
	assert.InDelta(t, 0, b, 0.02)
}

// scenario 3: a point behind the camera is culled; the same point survives
// from a camera pose that has it in front.
func TestBehindCameraCull(t *testing.T) {
	model := &gsmodel.Model{
		Positions: []lin.V3{{X: 0, Y: 0, Z: 1}},
		Colors:    []lin.V3{{X: 1, Y: 1, Z: 1}},
		Opacities: []float32{1},
		Cov3D:     []lin.M3{isotropicCov(0.005)},
	}
	frame := NewFrame(16, 16)

	camFront := newTestCamera(lin.V3{X: 0, Y: 0, Z: -1}, lin.V3{}, 0.35*lin.PI, 16, 16)
	ctx := NewContext(model, frame, DefaultTileSize, DefaultTileSize, 2, DefaultBatchSize)
	ctx.Preprocess(camFront)
	assert.Equal(t, 1, ctx.numSurvivors)
	ctx.Destroy()

	// Point the camera away from the point (forward leads further from it
	// instead of toward it) so the point falls behind the eye.
	frame2 := NewFrame(16, 16)
	camAway := newTestCamera(lin.V3{X: 0, Y: 0, Z: 2}, lin.V3{X: 0, Y: 0, Z: 3}, 0.35*lin.PI, 16, 16)
	ctx2 := NewContext(model, frame2, DefaultTileSize, DefaultTileSize, 2, DefaultBatchSize)
	defer ctx2.Destroy()
	ctx2.Preprocess(camAway)
	assert.Equal(t, 0, ctx2.numSurvivors)

	ctx2.Render(camAway)
	for i := range frame2.Pixels {
		assert.Equal(t, float32(0), frame2.Pixels[i])
	}
}

// scenario 4: tile-binning count for a splat whose screen footprint spans
// a known tile range.
func TestTileBinningCount(t *testing.T) {
	model := &gsmodel.Model{
		Positions: []lin.V3{{X: 0, Y: 0, Z: 0}},
		Colors:    []lin.V3{{X: 1, Y: 1, Z: 1}},
		Opacities: []float32{1},
		Cov3D:     []lin.M3{isotropicCov(2)},
	}
	frame := NewFrame(200, 200)
	cam := newTestCamera(lin.V3{X: 0, Y: 0, Z: -1}, lin.V3{}, 0.35*lin.PI, 200, 200)

	ctx := NewContext(model, frame, 8, 8, 2, DefaultBatchSize)
	defer ctx.Destroy()
	ctx.Preprocess(cam)

	total := 0
	for _, c := range ctx.counts {
		total += c
	}
	require.Equal(t, 1, ctx.numSurvivors)
	assert.Greater(t, total, 0)

	// every tile touched by the splat's rectangle shows exactly one count.
	for _, c := range ctx.counts {
		assert.LessOrEqual(t, c, 1)
	}
}

// scenario 5: an empty tile bin leaves its rectangle untouched.
func TestEmptyTileBinFastPath(t *testing.T) {
	model := &gsmodel.Model{
		Positions: []lin.V3{{X: 5, Y: 5, Z: 0}},
		Colors:    []lin.V3{{X: 1, Y: 1, Z: 1}},
		Opacities: []float32{1},
		Cov3D:     []lin.M3{isotropicCov(0.0001)},
	}
	frame := NewFrame(64, 64)
	cam := newTestCamera(lin.V3{X: 5, Y: 5, Z: -1}, lin.V3{X: 5, Y: 5, Z: 0}, 0.1, 64, 64)

	ctx := NewContext(model, frame, 8, 8, 2, DefaultBatchSize)
	defer ctx.Destroy()

	ctx.Preprocess(cam)
	ctx.Render(cam)

	// the last tile (bottom-right corner) should see no visible splats and
	// stay at the pre-clear value.
	lastTile := ctx.NTiles() - 1
	assert.Equal(t, ctx.offsets[lastTile], ctx.offsets[lastTile+1])
	for y := 56; y < 64; y++ {
		for x := 56; x < 64; x++ {
			r, g, b := frame.At(x, y)
			assert.Equal(t, float32(0), r)
			assert.Equal(t, float32(0), g)
			assert.Equal(t, float32(0), b)
		}
	}
}

// scenario 6: pool size has no effect on the rendered frame, since tiles
// are disjoint and the kernel uses no cross-tile atomics.
func TestParallelConsistencyAcrossPoolSizes(t *testing.T) {
	model := &gsmodel.Model{
		Positions: []lin.V3{
			{X: -0.3, Y: 0.2, Z: 0}, {X: 0.1, Y: -0.2, Z: 0.2},
			{X: 0.2, Y: 0.3, Z: -0.1}, {X: -0.1, Y: -0.1, Z: 0.1},
		},
		Colors: []lin.V3{
			{X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 0},
		},
		Opacities: []float32{0.6, 0.5, 0.7, 0.4},
		Cov3D: []lin.M3{
			isotropicCov(0.01), isotropicCov(0.015), isotropicCov(0.008), isotropicCov(0.02),
		},
	}

	render := func(threads int) []float32 {
		frame := NewFrame(48, 48)
		cam := newTestCamera(lin.V3{X: 0, Y: 0, Z: -2}, lin.V3{}, 0.6, 48, 48)
		ctx := NewContext(model, frame, 8, 8, threads, 4)
		defer ctx.Destroy()
		ctx.Preprocess(cam)
		ctx.Render(cam)
		out := make([]float32, len(frame.Pixels))
		copy(out, frame.Pixels)
		return out
	}

	single := render(1)
	many := render(16)
	require.Equal(t, len(single), len(many))
	for i := range single {
		assert.Equal(t, single[i], many[i])
	}
}

// boundary (d): an empty model renders a fully zero frame.
func TestEmptyModelRendersZeroFrame(t *testing.T) {
	model := &gsmodel.Model{}
	frame := NewFrame(16, 16)
	cam := newTestCamera(lin.V3{X: 0, Y: 0, Z: -1}, lin.V3{}, 0.35*lin.PI, 16, 16)

	ctx := NewContext(model, frame, DefaultTileSize, DefaultTileSize, 2, DefaultBatchSize)
	defer ctx.Destroy()

	ctx.Preprocess(cam)
	ctx.Render(cam)

	for _, v := range frame.Pixels {
		assert.Equal(t, float32(0), v)
	}
}

// boundary (e): a tile size that doesn't evenly divide the frame still
// covers every pixel exactly once (no overlap, no gaps in coverage).
func TestTileSizeNotDividingFrameCoversAllPixels(t *testing.T) {
	frame := NewFrame(50, 37)
	model := &gsmodel.Model{}
	ctx := NewContext(model, frame, 8, 8, 2, DefaultBatchSize)
	defer ctx.Destroy()

	seen := make([]bool, frame.Width*frame.Height)
	for ty := 0; ty < ctx.NTilesY; ty++ {
		for tx := 0; tx < ctx.NTilesX; tx++ {
			xStart, yStart := tx*ctx.TileW, ty*ctx.TileH
			xEnd := minInt(xStart+ctx.TileW, frame.Width)
			yEnd := minInt(yStart+ctx.TileH, frame.Height)
			for y := yStart; y < yEnd; y++ {
				for x := xStart; x < xEnd; x++ {
					idx := y*frame.Width + x
					require.False(t, seen[idx], "pixel (%d,%d) covered twice", x, y)
					seen[idx] = true
				}
			}
		}
	}
	for i, s := range seen {
		require.True(t, s, "pixel index %d never covered", i)
	}
}

// invariant: after preprocess, offsets[t+1]-offsets[t] equals the CSR
// bucket size actually scattered for tile t.
func TestOffsetsMatchScatteredCounts(t *testing.T) {
	model := &gsmodel.Model{
		Positions: []lin.V3{{X: 0, Y: 0, Z: 0}, {X: 0.2, Y: 0.1, Z: 0.1}},
		Colors:    []lin.V3{{X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}},
		Opacities: []float32{0.9, 0.8},
		Cov3D:     []lin.M3{isotropicCov(0.01), isotropicCov(0.01)},
	}
	frame := NewFrame(64, 64)
	cam := newTestCamera(lin.V3{X: 0, Y: 0, Z: -2}, lin.V3{}, 0.5, 64, 64)

	ctx := NewContext(model, frame, DefaultTileSize, DefaultTileSize, 2, DefaultBatchSize)
	defer ctx.Destroy()
	ctx.Preprocess(cam)

	for tile := 0; tile < ctx.NTiles(); tile++ {
		want := ctx.offsets[tile+1] - ctx.offsets[tile]
		assert.Equal(t, want, ctx.counts[tile])
	}
}

// invariant: every surviving splat's radius is at least 1 and its inverse
// covariance is the exact inverse of the regularized 2D covariance.
func TestRadiusAndInverseCovarianceInvariant(t *testing.T) {
	model := &gsmodel.Model{
		Positions: []lin.V3{{X: 0, Y: 0, Z: 0}},
		Colors:    []lin.V3{{X: 1, Y: 1, Z: 1}},
		Opacities: []float32{1},
		Cov3D:     []lin.M3{isotropicCov(0.02)},
	}
	frame := NewFrame(64, 64)
	cam := newTestCamera(lin.V3{X: 0, Y: 0, Z: -1}, lin.V3{}, 0.35*lin.PI, 64, 64)

	ctx := NewContext(model, frame, DefaultTileSize, DefaultTileSize, 2, DefaultBatchSize)
	defer ctx.Destroy()
	ctx.Preprocess(cam)

	require.Equal(t, 1, ctx.numSurvivors)
	assert.GreaterOrEqual(t, ctx.radii[0], float32(1))

	inv := ctx.invCov2D[0]
	// the stored inverse is positive definite.
	det := inv.XX*inv.YY - inv.XY*inv.XY
	assert.Greater(t, det, float32(0))

	// recompute the regularized covariance (xx,xy,yy) for the survivor; the
	// stored inverse multiplied against it must give the identity.
	tp := ctx.transPoints[0]
	tanFovy, tanFovx := cam.TanFovy(), cam.TanFovx()
	focalY := float32(frame.Height) / (2 * tanFovy)
	focalX := float32(frame.Width) / (2 * tanFovx)
	cov := ctx.computeCov2D(&tp.view, cam.View(), &model.Cov3D[0], focalX, focalY, tanFovx, tanFovy)
	cxx, cxy, cyy := cov.XX+covRegular, cov.XY, cov.YY+covRegular
	assert.InDelta(t, 1, inv.XX*cxx+inv.XY*cxy, 1e-4)
	assert.InDelta(t, 0, inv.XX*cxy+inv.XY*cyy, 1e-4)
	assert.InDelta(t, 1, inv.XY*cxy+inv.YY*cyy, 1e-4)
}
