// Package services provides the error taxonomy and context annotation
// helpers shared by the daemon, the render queue, and the API surface.
// Interactive editing never surfaces errors (invalid operations clamp or
// no-op); the sentinels here classify the asynchronous failure surface:
// rendering, persistence, and export.
package services
