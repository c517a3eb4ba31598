package raster

import (
	"github.com/dbauer15/splatgo/internal/gsmodel"
	"github.com/dbauer15/splatgo/internal/threadpool"
	"github.com/dbauer15/splatgo/math/lin"
)

// DefaultTileSize is the default square tile side, in pixels.
const DefaultTileSize = 8

// DefaultThreads is the default worker pool size.
const DefaultThreads = 16

// DefaultBatchSize is the default number of tiles dispatched as one work
// item to the thread pool.
const DefaultBatchSize = 32

// cov2D holds the inverse 2D screen-space covariance, stored as its
// (xx, xy, yy) entries (the matrix is symmetric).
type cov2D struct {
	XX, XY, YY float32
}

// transformedPoint is the compact per-survivor record built by the
// culling pass and consumed by depth sort and the per-survivor Gaussian
// projection step.
type transformedPoint struct {
	view   lin.V4
	screen [2]float32
	idx    int
}

// Context owns every buffer the rasterizer needs across the lifetime of
// a model+frame pairing: per-frame transform scratch, the CSR tile
// visibility bins, per-tile compositing scratch, and the thread pool.
// It is created once and reused across frames; Preprocess mutates all
// per-frame buffers, Render only writes into the caller's frame and this
// context's throughput scratch.
type Context struct {
	Model *gsmodel.Model
	Frame *Frame

	TileW, TileH int
	NTilesX      int
	NTilesY      int

	BatchSize int

	transPoints  []transformedPoint // compact prefix, length numSurvivors
	numSurvivors int

	ndcPoints []lin.V3 // indexed by original point index; xy screen center after preprocess, z is NDC depth
	radii     []float32
	invCov2D  []cov2D

	counts  []int
	offsets []int
	indices []int

	throughputs []lin.V3 // T * tileArea, partitioned per tile

	pool *threadpool.Pool
}

// NewContext creates a raster context for the given model and frame,
// using a tileW x tileH tile grid and a pool of numThreads workers. The
// context owns the pool and must be destroyed with Destroy.
func NewContext(model *gsmodel.Model, frame *Frame, tileW, tileH, numThreads, batchSize int) *Context {
	nTilesX := (frame.Width + tileW - 1) / tileW
	nTilesY := (frame.Height + tileH - 1) / tileH
	t := nTilesX * nTilesY
	tileArea := tileW * tileH

	n := model.N()
	return &Context{
		Model:       model,
		Frame:       frame,
		TileW:       tileW,
		TileH:       tileH,
		NTilesX:     nTilesX,
		NTilesY:     nTilesY,
		BatchSize:   batchSize,
		transPoints: make([]transformedPoint, n),
		ndcPoints:   make([]lin.V3, n),
		radii:       make([]float32, n),
		invCov2D:    make([]cov2D, n),
		counts:      make([]int, t),
		offsets:     make([]int, t+1),
		throughputs: make([]lin.V3, t*tileArea),
		pool:        threadpool.New(numThreads),
	}
}

// NTiles returns the total tile count.
func (c *Context) NTiles() int { return c.NTilesX * c.NTilesY }

// Destroy stops the context's thread pool. The context's buffers are
// otherwise ordinary Go slices and need no explicit release.
func (c *Context) Destroy() { c.pool.Destroy() }
