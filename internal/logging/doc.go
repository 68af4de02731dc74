// Package logging wires log/slog with a human-readable console handler and
// a JSON handler, plus attribute helpers shared across the repository.
package logging
