package swf

import (
	"errors"

	"github.com/gogpu/swf/bitstream"
	"github.com/gogpu/swf/diag"
	"github.com/gogpu/swf/library"
	"github.com/gogpu/swf/tag"
)

// ErrUnsupportedHeader is returned for an unrecognised signature or an
// unsupported format version.
var ErrUnsupportedHeader = errors.New("swf: unsupported header")

// Fatal decode errors of the pipeline stages, re-exported for errors.Is
// checks against Decode and Convert results.
var (
	ErrTruncatedInput      = bitstream.ErrTruncatedInput
	ErrTagOverrun          = tag.ErrTagOverrun
	ErrDuplicateDefinition = library.ErrDuplicateDefinition
)

// Warning is a recoverable anomaly found while converting a movie.
type Warning = diag.Warning
