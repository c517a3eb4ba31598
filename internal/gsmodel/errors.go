package gsmodel

import "errors"

// ErrFormatUnsupported is returned for a recognized but not-yet-implemented
// point-cloud container format.
var ErrFormatUnsupported = errors.New("gsmodel: format not supported")

// requiredProperties are the PLY vertex properties every Gaussian point
// cloud must carry. Order does not matter in the file; all must be present.
var requiredProperties = []string{
	"x", "y", "z",
	"f_dc_0", "f_dc_1", "f_dc_2",
	"scale_0", "scale_1", "scale_2",
	"rot_0", "rot_1", "rot_2", "rot_3",
	"opacity",
}
