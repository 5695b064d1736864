package jfa

import (
	"context"
	"errors"
	"fmt"

	"jumpflood/internal/gpu"
)

// ErrPipelineClosed is returned once a fatal error or Close stopped the
// pipeline.
var ErrPipelineClosed = errors.New("jfa: pipeline closed")

// Class tells the frame loop how to react to a failed frame.
type Class int

const (
	// ClassTransient: skip this frame and continue with the next one.
	ClassTransient Class = iota
	// ClassSurface: the surface is reconfigured before the next frame.
	ClassSurface
	// ClassAllocation: a resize or allocation failed; the previous buffers
	// stay in use and the request is not retried.
	ClassAllocation
	// ClassFatal: the pipeline is unusable and the render loop must stop.
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassSurface:
		return "surface"
	case ClassAllocation:
		return "allocation"
	case ClassFatal:
		return "fatal"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// FrameError is the error type returned by Pipeline.RenderFrame.
type FrameError struct {
	Class Class
	Op    string
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %s (%s): %v", e.Op, e.Class, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// Fatal reports whether the render loop has to stop.
func (e *FrameError) Fatal() bool { return e.Class == ClassFatal }

// Classify maps a backend failure onto the frame error taxonomy.
func Classify(op string, err error) *FrameError {
	var fe *FrameError
	if errors.As(err, &fe) {
		return fe
	}
	return &FrameError{Class: classOf(err), Op: op, Err: err}
}

func classOf(err error) Class {
	switch {
	case errors.Is(err, gpu.ErrOutOfMemory),
		errors.Is(err, gpu.ErrDeviceLost),
		errors.Is(err, ErrPipelineClosed):
		return ClassFatal
	case errors.Is(err, gpu.ErrSurfaceLost),
		errors.Is(err, gpu.ErrSurfaceOutdated):
		return ClassSurface
	case errors.Is(err, gpu.ErrResourceAllocation):
		return ClassAllocation
	case errors.Is(err, gpu.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return ClassTransient
	default:
		return ClassFatal
	}
}
