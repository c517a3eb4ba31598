package raster

import (
	"github.com/chewxy/math32"

	"github.com/dbauer15/splatgo/internal/camera"
)

// log2E is 1/ln(2), used to evaluate exp(x) as exp2(x*log2E) — the
// base-2 fast-exp variant the original reference uses for alpha.
const log2E = 1.4426950408889634

const (
	alphaCap           = 0.99
	alphaMin           = 1.0 / 255.0
	transmittanceFloor = 0.001
)

// Render dispatches the tiled compositing kernel over the thread pool,
// batching consecutive tiles per spec.md §5, and blocks until every
// batch has completed.
func (c *Context) Render(cam *camera.Camera) {
	nTiles := c.NTiles()
	for start := 0; start < nTiles; start += c.BatchSize {
		end := minInt(start+c.BatchSize, nTiles)
		start, end := start, end
		c.pool.AddWork(func() {
			for t := start; t < end; t++ {
				c.renderTile(t)
			}
		})
	}
	c.pool.Wait()
}

// renderTile runs the front-to-back alpha compositing kernel for tile t.
// It allocates only the small per-tile done[] flag array; all other
// scratch is owned by the context.
func (c *Context) renderTile(t int) {
	begin, end := c.offsets[t], c.offsets[t+1]
	if begin == end {
		return
	}

	xStart := (t % c.NTilesX) * c.TileW
	yStart := (t / c.NTilesX) * c.TileH
	xEnd := minInt(xStart+c.TileW, c.Frame.Width)
	yEnd := minInt(yStart+c.TileH, c.Frame.Height)

	tileArea := c.TileW * c.TileH
	base := t * tileArea
	throughputs := c.throughputs[base : base+tileArea]
	for i := range throughputs {
		throughputs[i].X, throughputs[i].Y, throughputs[i].Z = 1, 1, 1
	}
	done := make([]bool, tileArea)

	// Every splat assigned to this tile scans the tile's full pixel
	// window; the per-pixel |dx|>radius / |dy|>radius check below is
	// what actually restricts the contribution to the splat's footprint
	// rather than a pre-clipped sub-rectangle. A pixel that crosses the
	// transmittance floor breaks out of the x loop for the *current*
	// splat and row only — later rows, and later splats checking
	// done[], still see it correctly, but this splat's contribution to
	// any remaining pixel in that same row is skipped. That asymmetry
	// is carried over unchanged from the reference kernel.
	for _, idx := range c.indices[begin:end] {
		color := c.Model.Colors[idx]
		opacity := c.Model.Opacities[idx]
		inv := c.invCov2D[idx]
		radius := c.radii[idx]
		px, py := c.ndcPoints[idx].X, c.ndcPoints[idx].Y

		for y := yStart; y < yEnd; y++ {
			rowOff := y * c.Frame.Width
			for x := xStart; x < xEnd; x++ {
				local := (y-yStart)*c.TileW + (x - xStart)
				if done[local] {
					continue
				}

				dx, dy := px-float32(x), py-float32(y)
				if math32.Abs(dx) > radius || math32.Abs(dy) > radius {
					continue
				}

				power := -0.5*(inv.XX*dx*dx+inv.YY*dy*dy) - inv.XY*dx*dy
				if power > 0 {
					continue
				}

				alpha := opacity * math32.Exp2(power*log2E)
				if alpha > alphaCap {
					alpha = alphaCap
				}
				if alpha < alphaMin {
					continue
				}

				pix := 3 * (rowOff + x)
				tp := &throughputs[local]
				c.Frame.Pixels[pix+0] += color.X * alpha * tp.X
				c.Frame.Pixels[pix+1] += color.Y * alpha * tp.Y
				c.Frame.Pixels[pix+2] += color.Z * alpha * tp.Z
				tp.X *= 1 - alpha
				tp.Y *= 1 - alpha
				tp.Z *= 1 - alpha

				if math32.Min(tp.X, math32.Min(tp.Y, tp.Z)) < transmittanceFloor {
					done[local] = true
					break
				}
			}
		}
	}
}
