// Package engine implements the resource-feedback ecology: a fixed grid of
// resource-bearing cells, mobile agents that harvest them to survive, and
// the per-tick update that ties allocation, movement, metabolism, and death
// feedback together. The engine is a plain in-process library: it has no
// timers and no goroutines, and a World must only ever be mutated by one
// caller making sequential Update calls.
package engine

// Updatable is implemented by everything that advances one simulation
// step: a cell regenerates, an agent metabolizes, the world runs a full
// tick.
type Updatable interface {
	Update() error
}

var (
	_ Updatable = (*Cell)(nil)
	_ Updatable = (*Agent)(nil)
	_ Updatable = (*World)(nil)
)
