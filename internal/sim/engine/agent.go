package engine

// MoveCost is the health paid for every move between cells.
const MoveCost = 1

// NeighborInfo is a read-only resource reading of one adjacent cell,
// produced by the world's adjacency function.
type NeighborInfo struct {
	CellID   int
	Resource int
}

// Agent is a mobile entity that harvests cell resource to stay alive.
// Death is terminal: once alive flips to false the agent is frozen and is
// skipped by every later allocation and movement pass, but its record
// survives for inspection.
type Agent struct {
	id              int
	cellID          int
	consumptionRate int
	allocated       int
	hp              int
	alive           bool
}

// NewAgent builds an agent occupying cellID with the given per-tick
// consumption rate and initial health.
func NewAgent(id, cellID, consumptionRate, hp int) *Agent {
	if hp < 0 {
		hp = 0
	}
	return &Agent{
		id:              id,
		cellID:          cellID,
		consumptionRate: consumptionRate,
		hp:              hp,
		alive:           hp > 0,
	}
}

// RetrieveResource accepts up to the agent's consumption rate from the
// offered amount as this tick's harvest and returns the unused remainder,
// which the caller refunds to the cell.
func (a *Agent) RetrieveResource(offered int) (int, error) {
	if !a.alive {
		return 0, ErrNotAlive
	}
	if offered < 0 {
		offered = 0
	}
	take := min(offered, a.consumptionRate)
	a.allocated = take
	return offered - take, nil
}

// DecideMove picks a destination from the neighbor readings, which arrive
// in up, down, left, right order (edge cells pass fewer entries). The
// highest reading wins and ties resolve to the last candidate checked, so
// fully tied neighborhoods bias toward "right". That bias is part of the
// behavior, not an accident. There is nothing to pick when the agent is
// already fed for this tick or when every neighbor reads zero resource.
func (a *Agent) DecideMove(neighbors []NeighborInfo) (int, bool) {
	if !a.Hungry() {
		return 0, false
	}
	bestID, bestRes := 0, 0
	found := false
	for _, n := range neighbors {
		if n.Resource <= 0 {
			continue
		}
		if !found || n.Resource >= bestRes {
			bestID, bestRes = n.CellID, n.Resource
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return bestID, true
}

// MoveTo relocates the agent and charges the movement cost. If the cost
// exhausts the agent's health it dies in the same call; the caller decides
// where the death feedback lands.
func (a *Agent) MoveTo(cellID int) error {
	if !a.alive {
		return ErrNotAlive
	}
	a.cellID = cellID
	a.hp = satSub(a.hp, MoveCost)
	if a.hp == 0 {
		a.alive = false
	}
	return nil
}

// Update implements Updatable: one metabolism step. An agent allocated
// less than its consumption rate loses one health point; the allocation is
// spent either way and resets to zero for the next tick.
func (a *Agent) Update() error {
	if !a.alive {
		return ErrNotAlive
	}
	if a.allocated < a.consumptionRate {
		a.hp = satSub(a.hp, 1)
	}
	a.allocated = 0
	if a.hp == 0 {
		a.alive = false
	}
	return nil
}

func (a *Agent) ID() int              { return a.id }
func (a *Agent) CellID() int          { return a.cellID }
func (a *Agent) ConsumptionRate() int { return a.consumptionRate }
func (a *Agent) Allocated() int       { return a.allocated }
func (a *Agent) HP() int              { return a.hp }
func (a *Agent) Alive() bool          { return a.alive }

// Hungry reports whether this tick's allocation fell short of the agent's
// consumption rate.
func (a *Agent) Hungry() bool { return a.allocated < a.consumptionRate }

// satSub is saturating subtraction: health and resource never go negative.
func satSub(v, d int) int {
	if d >= v {
		return 0
	}
	return v - d
}
