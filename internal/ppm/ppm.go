// Package ppm writes a rendered frame to the ASCII PPM (P3) image format.
package ppm

import (
	"bufio"
	"fmt"
	"os"

	"github.com/chewxy/math32"

	"github.com/dbauer15/splatgo/internal/raster"
)

// Write encodes frame as a P3 PPM image to the given path. Pixel rows are
// written in render order (top row first), each component clamped to
// [0,1] and rounded to a byte via round(255*clamp(v,0,1)).
func Write(path string, frame *raster.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ppm: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "P3\n%d %d\n255\n", frame.Width, frame.Height)

	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			r, g, b := frame.At(x, y)
			fmt.Fprintf(w, "%d %d %d  ", toByte(r), toByte(g), toByte(b))
		}
		fmt.Fprint(w, "\n")
	}

	return w.Flush()
}

func toByte(v float32) int {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return int(math32.Round(255 * v))
}
