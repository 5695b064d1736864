package gpu

import "errors"

// Failure signals reported by backends. Each backend wraps these so callers
// can classify failures with errors.Is.
var (
	// ErrResourceAllocation reports that a texture or buffer could not be
	// created with the requested format or size.
	ErrResourceAllocation = errors.New("gpu: resource allocation failed")
	// ErrSurfaceLost reports that the presentation surface went away.
	ErrSurfaceLost = errors.New("gpu: surface lost")
	// ErrSurfaceOutdated reports that the surface no longer matches its
	// configuration and must be reconfigured.
	ErrSurfaceOutdated = errors.New("gpu: surface outdated")
	// ErrOutOfMemory reports device memory exhaustion.
	ErrOutOfMemory = errors.New("gpu: out of memory")
	// ErrDeviceLost reports that the device stopped responding.
	ErrDeviceLost = errors.New("gpu: device lost")
	// ErrTimeout reports that acquiring or presenting a surface timed out.
	ErrTimeout = errors.New("gpu: timeout")
	// ErrInvalidPass reports a malformed pass or command list.
	ErrInvalidPass = errors.New("gpu: invalid pass")
)
