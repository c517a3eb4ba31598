package gsmodel

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dbauer15/splatgo/math/lin"
)

// loadPLY streams an ASCII-format PLY point cloud. The loader is
// single-threaded and reads one vertex line at a time; it never
// normalizes positions.
//
// Only the "format ascii 1.0" variant is implemented. Binary PLY
// (little or big endian) is a recognized-but-unsupported format: see
// DESIGN.md for why no binary decoder is wired here.
func loadPLY(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner, props, n, err := readPLYHeader(f)
	if err != nil {
		return nil, err
	}
	idx, err := propertyIndex(props)
	if err != nil {
		return nil, err
	}

	model := &Model{
		Positions: make([]lin.V3, 0, n),
		Colors:    make([]lin.V3, 0, n),
		Opacities: make([]float32, 0, n),
		Cov3D:     make([]lin.M3, 0, n),
	}

	for i := 0; i < n; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("%s: unexpected end of vertex data at point %d of %d", path, i, n)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < len(props) {
			return nil, fmt.Errorf("%s: vertex line %d has %d fields, want %d", path, i, len(fields), len(props))
		}
		values := make([]float32, len(props))
		for j, tok := range fields[:len(props)] {
			v, perr := strconv.ParseFloat(tok, 32)
			if perr != nil {
				return nil, fmt.Errorf("%s: vertex line %d field %d: %w", path, i, j, perr)
			}
			values[j] = float32(v)
		}

		pos := lin.V3{X: values[idx["x"]], Y: values[idx["y"]], Z: values[idx["z"]]}
		dc := lin.V3{X: values[idx["f_dc_0"]], Y: values[idx["f_dc_1"]], Z: values[idx["f_dc_2"]]}
		logScale := lin.V3{X: values[idx["scale_0"]], Y: values[idx["scale_1"]], Z: values[idx["scale_2"]]}
		r, x, y, z := values[idx["rot_0"]], values[idx["rot_1"]], values[idx["rot_2"]], values[idx["rot_3"]]
		opacity := values[idx["opacity"]]

		model.Positions = append(model.Positions, pos)
		model.Colors = append(model.Colors, dcToColor(dc))
		model.Opacities = append(model.Opacities, sigmoid(opacity))
		model.Cov3D = append(model.Cov3D, cov3D(r, x, y, z, logScale))
	}

	return model, nil
}

// readPLYHeader reads up to and including "end_header", returning the
// scanner positioned at the first vertex line, the ordered vertex
// property names, and the vertex element count. The scanner must be
// reused for the vertex loop: bufio.Scanner reads ahead in ~4KB chunks,
// so a second scanner created after this one would find the underlying
// reader already past the vertex data for any file small enough to fit
// in one read.
func readPLYHeader(r io.Reader) (scanner *bufio.Scanner, props []string, n int, err error) {
	scanner = bufio.NewScanner(r)
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "ply" {
		return nil, nil, 0, fmt.Errorf("not a PLY file")
	}

	inVertex := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) < 2 || fields[1] != "ascii" {
				return nil, nil, 0, fmt.Errorf("unsupported PLY format %q: %w", line, ErrFormatUnsupported)
			}
		case "element":
			if len(fields) >= 3 && fields[1] == "vertex" {
				inVertex = true
				n, err = strconv.Atoi(fields[2])
				if err != nil {
					return nil, nil, 0, fmt.Errorf("bad vertex element count %q", line)
				}
			} else {
				inVertex = false
			}
		case "property":
			if inVertex && len(fields) >= 3 {
				props = append(props, fields[len(fields)-1])
			}
		case "end_header":
			if err := requireProperties(props); err != nil {
				return nil, nil, 0, err
			}
			return scanner, props, n, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, 0, err
	}
	return nil, nil, 0, fmt.Errorf("missing end_header")
}

func requireProperties(props []string) error {
	have := make(map[string]bool, len(props))
	for _, p := range props {
		have[p] = true
	}
	for _, want := range requiredProperties {
		if !have[want] {
			return fmt.Errorf("missing required vertex property %q", want)
		}
	}
	return nil
}

func propertyIndex(props []string) (map[string]int, error) {
	idx := make(map[string]int, len(props))
	for i, p := range props {
		idx[p] = i
	}
	return idx, nil
}
