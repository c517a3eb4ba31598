package gsmodel

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Load dispatches on the model file's extension and returns the parsed
// Model, or a wrapped error on load failure. A load failure leaves the
// caller with a nil Model to recover from; nothing partially loads.
func Load(path string) (*Model, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".ply":
		model, err := loadPLY(path)
		if err != nil {
			return nil, fmt.Errorf("gsmodel: %w", err)
		}
		return model, nil
	case ".splat":
		return nil, fmt.Errorf("gsmodel: %q: %w", ext, ErrFormatUnsupported)
	case ".sogs":
		return nil, fmt.Errorf("gsmodel: %q: %w", ext, ErrFormatUnsupported)
	default:
		return nil, fmt.Errorf("gsmodel: unrecognized extension %q", ext)
	}
}
