// Command splatgo rasterizes a 3D Gaussian point cloud from a single
// camera pose into a framebuffer, optionally dumping the result as a PPM
// image.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbauer15/splatgo/internal/camera"
	"github.com/dbauer15/splatgo/internal/gsmodel"
	"github.com/dbauer15/splatgo/internal/ppm"
	"github.com/dbauer15/splatgo/internal/raster"
	"github.com/dbauer15/splatgo/internal/sceneconfig"
	"github.com/dbauer15/splatgo/math/lin"
)

var flags struct {
	width, height int
	tileSize      int
	threads       int
	batch         int
	out           string
	config        string

	eye, lookAt, up string
	fovy, near, far float32
}

var rootCmd = &cobra.Command{
	Use:   "splatgo <model-file>",
	Short: "CPU rasterizer for 3D Gaussian Splatting point clouds",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	f := rootCmd.Flags()
	f.IntVar(&flags.width, "width", 800, "framebuffer width in pixels")
	f.IntVar(&flags.height, "height", 600, "framebuffer height in pixels")
	f.IntVar(&flags.tileSize, "tile-size", raster.DefaultTileSize, "square tile side in pixels")
	f.IntVar(&flags.threads, "threads", raster.DefaultThreads, "worker pool size")
	f.IntVar(&flags.batch, "batch", raster.DefaultBatchSize, "tiles dispatched per work item")
	f.StringVar(&flags.out, "out", "render.ppm", "PPM output path; empty suppresses the dump")
	f.StringVar(&flags.config, "config", "", "optional YAML scene/camera descriptor")

	f.StringVar(&flags.eye, "eye", "0,0,-1", "camera eye position, comma-separated x,y,z")
	f.StringVar(&flags.lookAt, "look-at", "0,0,0", "camera look-at point, comma-separated x,y,z")
	f.StringVar(&flags.up, "up", "0,1,0", "camera up vector, comma-separated x,y,z")
	f.Float32Var(&flags.fovy, "fovy", 0.35*lin.PI, "vertical field of view, radians")
	f.Float32Var(&flags.near, "near", 0.1, "near clip plane, > 0")
	f.Float32Var(&flags.far, "far", 50, "far clip plane, > near")
}

func run(cmd *cobra.Command, args []string) error {
	model, err := gsmodel.Load(args[0])
	if err != nil {
		return err
	}

	width, height := flags.width, flags.height
	tileSize, threads, batch := flags.tileSize, flags.threads, flags.batch
	fovy, near, far := flags.fovy, flags.near, flags.far

	eye, err := parseV3(flags.eye)
	if err != nil {
		return fmt.Errorf("splatgo: --eye: %w", err)
	}
	lookAt, err := parseV3(flags.lookAt)
	if err != nil {
		return fmt.Errorf("splatgo: --look-at: %w", err)
	}
	up, err := parseV3(flags.up)
	if err != nil {
		return fmt.Errorf("splatgo: --up: %w", err)
	}

	if flags.config != "" {
		cfg, err := sceneconfig.Load(flags.config)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("width") && cfg.Width != 0 {
			width = cfg.Width
		}
		if !cmd.Flags().Changed("height") && cfg.Height != 0 {
			height = cfg.Height
		}
		if !cmd.Flags().Changed("tile-size") && cfg.TileSize != 0 {
			tileSize = cfg.TileSize
		}
		if !cmd.Flags().Changed("threads") && cfg.Threads != 0 {
			threads = cfg.Threads
		}
		if !cmd.Flags().Changed("batch") && cfg.Batch != 0 {
			batch = cfg.Batch
		}
		if cfg.HaveCamera {
			if !cmd.Flags().Changed("eye") {
				eye = cfg.Eye
			}
			if !cmd.Flags().Changed("look-at") {
				lookAt = cfg.LookAt
			}
			if !cmd.Flags().Changed("up") {
				up = cfg.Up
			}
			if !cmd.Flags().Changed("fovy") && cfg.Fovy != 0 {
				fovy = cfg.Fovy
			}
			if !cmd.Flags().Changed("near") && cfg.Near != 0 {
				near = cfg.Near
			}
			if !cmd.Flags().Changed("far") && cfg.Far != 0 {
				far = cfg.Far
			}
		}
	}

	frame := raster.NewFrame(width, height)
	cam := camera.New(eye, lookAt, up, fovy, near, far, frame.Aspect())

	ctx := raster.NewContext(model, frame, tileSize, tileSize, threads, batch)
	defer ctx.Destroy()

	ctx.Preprocess(cam)
	ctx.Render(cam)

	if flags.out == "" {
		return nil
	}
	if err := ppm.Write(flags.out, frame); err != nil {
		return err
	}
	return nil
}

func parseV3(s string) (lin.V3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return lin.V3{}, fmt.Errorf("want 3 comma-separated components, got %d", len(parts))
	}
	var v [3]float32
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return lin.V3{}, fmt.Errorf("component %d: %w", i, err)
		}
		v[i] = float32(f)
	}
	return lin.V3{X: v[0], Y: v[1], Z: v[2]}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
