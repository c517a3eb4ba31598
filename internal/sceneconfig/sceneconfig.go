// Package sceneconfig loads an optional YAML descriptor overriding frame
// size, tile size, thread count and camera pose, so repeated scenario runs
// don't require long command-line flag lines.
package sceneconfig

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dbauer15/splatgo/math/lin"
)

// Config is the decoded, validated scene descriptor. Zero-value fields
// mean "not set in the file"; Load only fills in what the file specifies,
// leaving the caller to apply its own defaults/CLI overrides on top.
type Config struct {
	Width, Height int
	TileSize      int
	Threads       int
	Batch         int

	Eye, LookAt, Up lin.V3
	HaveCamera      bool

	Fovy, Near, Far float32
}

// rawConfig mirrors the YAML document shape before validation. Every key
// is optional; KnownFields rejects anything not listed here.
type rawConfig struct {
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	TileSize int `yaml:"tile_size"`
	Threads  int `yaml:"threads"`
	Batch    int `yaml:"batch"`

	Camera *struct {
		Eye    []float32 `yaml:"eye"`
		LookAt []float32 `yaml:"look_at"`
		Up     []float32 `yaml:"up"`
		Fovy   float32   `yaml:"fovy"`
		Near   float32   `yaml:"near"`
		Far    float32   `yaml:"far"`
	} `yaml:"camera"`
}

// Load reads and validates a scene descriptor from path. Unknown keys are
// a load error, matching yaml.v3's strict-decode idiom.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sceneconfig: %w", err)
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("sceneconfig: yaml: %w", err)
	}

	cfg := &Config{
		Width:    raw.Width,
		Height:   raw.Height,
		TileSize: raw.TileSize,
		Threads:  raw.Threads,
		Batch:    raw.Batch,
	}

	if raw.Camera != nil {
		eye, err := vec3(raw.Camera.Eye, "camera.eye")
		if err != nil {
			return nil, fmt.Errorf("sceneconfig: %w", err)
		}
		lookAt, err := vec3(raw.Camera.LookAt, "camera.look_at")
		if err != nil {
			return nil, fmt.Errorf("sceneconfig: %w", err)
		}
		up, err := vec3(raw.Camera.Up, "camera.up")
		if err != nil {
			return nil, fmt.Errorf("sceneconfig: %w", err)
		}
		cfg.Eye, cfg.LookAt, cfg.Up = eye, lookAt, up
		cfg.Fovy, cfg.Near, cfg.Far = raw.Camera.Fovy, raw.Camera.Near, raw.Camera.Far
		cfg.HaveCamera = true
	}

	return cfg, nil
}

func vec3(v []float32, field string) (lin.V3, error) {
	if len(v) != 3 {
		return lin.V3{}, fmt.Errorf("%s: want 3 components, got %d", field, len(v))
	}
	return lin.V3{X: v[0], Y: v[1], Z: v[2]}, nil
}
