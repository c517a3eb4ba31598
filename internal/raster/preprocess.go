package raster

import (
	"sort"

	"github.com/chewxy/math32"

	"github.com/dbauer15/splatgo/internal/camera"
	"github.com/dbauer15/splatgo/math/lin"
)

const (
	ndcEpsilon  = 1e-5
	covRegular  = 0.3
	lambdaFloor = 0.1
	jacobianLim = 1.3
)

// tileRange is the inclusive-exclusive tile rectangle a splat's screen
// bounding box touches.
type tileRange struct{ lx, ux, ly, uy int }

// binnedPoint is a survivor that passed every per-splat validity check
// and needs to be scattered into the CSR index array.
type binnedPoint struct {
	idx int
	tr  tileRange
}

// Preprocess runs the once-per-frame transform, cull, sort, screen-space
// covariance, and CSR tile-binning pipeline described in spec.md §4.4.
// It is single-threaded.
func (c *Context) Preprocess(cam *camera.Camera) {
	for i := range c.counts {
		c.counts[i] = 0
	}

	view := cam.View()
	proj := cam.Proj()

	tanFovy := cam.TanFovy()
	tanFovx := cam.TanFovx()
	focalY := float32(c.Frame.Height) / (2 * tanFovy)
	focalX := float32(c.Frame.Width) / (2 * tanFovx)

	c.numSurvivors = 0
	for i := 0; i < c.Model.N(); i++ {
		pos := c.Model.Positions[i]
		vertex := lin.V4{X: pos.X, Y: pos.Y, Z: pos.Z, W: 1}
		vview := (&lin.V4{}).MultvM(&vertex, view)
		if vview.Z < 0 {
			continue
		}
		vproj := (&lin.V4{}).MultvM(vview, proj)
		rw := 1 / (vproj.W + ndcEpsilon)
		ndcX, ndcY, ndcZ := vproj.X*rw, vproj.Y*rw, vproj.Z*rw
		if outsideNDC(ndcX) || outsideNDC(ndcY) || outsideNDC(ndcZ) {
			continue
		}

		c.ndcPoints[i] = lin.V3{X: ndcX, Y: ndcY, Z: ndcZ}
		sx, sy := ndcToScreen(ndcX, ndcY, c.Frame.Width, c.Frame.Height)
		c.transPoints[c.numSurvivors] = transformedPoint{view: *vview, screen: [2]float32{sx, sy}, idx: i}
		c.numSurvivors++
	}

	survivors := c.transPoints[:c.numSurvivors]
	sort.Slice(survivors, func(a, b int) bool { return survivors[a].view.Z < survivors[b].view.Z })

	binned := make([]binnedPoint, 0, c.numSurvivors)
	for s := 0; s < c.numSurvivors; s++ {
		tp := survivors[s]
		idx := tp.idx

		cov := c.computeCov2D(&tp.view, view, &c.Model.Cov3D[idx], focalX, focalY, tanFovx, tanFovy)
		cxx, cxy, cyy := cov.XX+covRegular, cov.XY, cov.YY+covRegular
		det := cxx*cyy - cxy*cxy
		if det == 0 {
			continue
		}
		detInv := 1 / det
		inv := cov2D{XX: cyy * detInv, XY: -cxy * detInv, YY: cxx * detInv}

		mid := 0.5 * (cxx + cyy)
		disc := math32.Max(lambdaFloor, mid*mid-det)
		lambda1 := mid + math32.Sqrt(disc)
		lambda2 := mid - math32.Sqrt(disc)
		radius := math32.Ceil(3 * math32.Sqrt(math32.Max(lambda1, lambda2)))
		if radius < 1 {
			continue
		}

		cx, cy := tp.screen[0], tp.screen[1]
		rectMinX := clampI(int(math32.Floor(cx-radius)), 0, c.Frame.Width)
		rectMinY := clampI(int(math32.Floor(cy-radius)), 0, c.Frame.Height)
		rectMaxX := clampI(int(math32.Min(cx+radius, float32(c.Frame.Width))), 0, c.Frame.Width)
		rectMaxY := clampI(int(math32.Min(cy+radius, float32(c.Frame.Height))), 0, c.Frame.Height)
		if (rectMaxX-rectMinX)*(rectMaxY-rectMinY) == 0 {
			continue
		}

		tr := tileRange{
			lx: minInt(rectMinX/c.TileW, c.NTilesX),
			ux: minInt(ceilDiv(rectMaxX, c.TileW), c.NTilesX),
			ly: minInt(rectMinY/c.TileH, c.NTilesY),
			uy: minInt(ceilDiv(rectMaxY, c.TileH), c.NTilesY),
		}
		for ty := tr.ly; ty < tr.uy; ty++ {
			for tx := tr.lx; tx < tr.ux; tx++ {
				c.counts[ty*c.NTilesX+tx]++
			}
		}

		c.invCov2D[idx] = inv
		c.radii[idx] = radius
		c.ndcPoints[idx].X = cx
		c.ndcPoints[idx].Y = cy

		binned = append(binned, binnedPoint{idx: idx, tr: tr})
	}

	c.offsets[0] = 0
	for t := 0; t < c.NTiles(); t++ {
		c.offsets[t+1] = c.offsets[t] + c.counts[t]
	}
	c.indices = make([]int, c.offsets[c.NTiles()])

	for i := range c.counts {
		c.counts[i] = 0
	}
	for _, bp := range binned {
		for ty := bp.tr.ly; ty < bp.tr.uy; ty++ {
			for tx := bp.tr.lx; tx < bp.tr.ux; tx++ {
				tile := ty*c.NTilesX + tx
				c.indices[c.offsets[tile]+c.counts[tile]] = bp.idx
				c.counts[tile]++
			}
		}
	}
}

func outsideNDC(v float32) bool { return v < -1 || v > 1 }

func ndcToScreen(x, y float32, w, h int) (float32, float32) {
	return (0.5*x + 0.5) * float32(w), (0.5*y + 0.5) * float32(h)
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

// computeCov2D projects the point's 3D covariance to screen space via
// the EWA splatting Jacobian J and the view's 3x3 rotation W, returning
// the (xx, xy, yy) entries of J*W*Sigma3*W^T*J^T.
func (c *Context) computeCov2D(vview *lin.V4, view *lin.M4, cov3d *lin.M3, focalX, focalY, tanFovx, tanFovy float32) cov2D {
	tx, ty, tz := vview.X, vview.Y, vview.Z

	limX := jacobianLim * tanFovx
	limY := jacobianLim * tanFovy
	txtz := tx / tz
	tytz := ty / tz
	tx = math32.Min(limX, math32.Max(-limX, txtz)) * tz
	ty = math32.Min(limY, math32.Max(-limY, tytz)) * tz

	j := lin.M3{
		Xx: focalX / tz, Xy: 0, Xz: -(focalX * tx) / (tz * tz),
		Yx: 0, Yy: focalY / tz, Yz: -(focalY * ty) / (tz * tz),
		Zx: 0, Zy: 0, Zz: 0,
	}

	// W is the view's 3x3 rotation, with rows taken from the view
	// matrix's columns (W = transpose of view's upper-left 3x3).
	w := lin.M3{
		Xx: view.Xx, Xy: view.Yx, Xz: view.Zx,
		Yx: view.Xy, Yy: view.Yy, Yz: view.Zy,
		Zx: view.Xz, Zy: view.Yz, Zz: view.Zz,
	}

	t := (&lin.M3{}).Mult(&j, &w)
	tt := (&lin.M3{}).Transpose(t)
	cov := (&lin.M3{}).Mult(t, (&lin.M3{}).Mult(cov3d, tt))

	return cov2D{XX: cov.Xx, XY: cov.Xy, YY: cov.Yy}
}
