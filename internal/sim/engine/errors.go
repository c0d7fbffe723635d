package engine

import (
	"errors"
	"fmt"
)

// ErrNotAlive is returned when an operation is invoked on a dead agent.
// The tick algorithm filters dead agents before every call, so seeing this
// error escape World.Update means the sequencing contract was broken by
// the caller, not that the simulation hit a transient fault.
var ErrNotAlive = errors.New("agent is not alive")

// NotEnoughResourcesError reports a deduction that exceeds what a cell
// currently holds. The failing cell is left unchanged.
type NotEnoughResourcesError struct {
	Requested int
	Available int
}

func (e *NotEnoughResourcesError) Error() string {
	return fmt.Sprintf("not enough resources: requested %d, available %d", e.Requested, e.Available)
}
