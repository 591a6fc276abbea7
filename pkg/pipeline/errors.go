package pipeline

import (
	"errors"
	"fmt"
)

// ErrEngineRequired is returned when settings omit the engine name.
var ErrEngineRequired = errors.New("pipeline: engine is required")

// RenderError reports a failed render, attributing the failure to the file
// and the layout involved. Phase-1 failures (template warming) carry the
// same shape; the driver wraps them with the phase they surfaced from.
type RenderError struct {
	File   string
	Layout string
	Err    error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	return fmt.Sprintf("pipeline: render %q with layout %q: %v", e.File, e.Layout, e.Err)
}

// Unwrap exposes the underlying renderer error.
func (e *RenderError) Unwrap() error {
	return e.Err
}
