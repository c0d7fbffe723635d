package engine

import (
	"fmt"
	"math/rand/v2"
)

// World owns the full cell grid and agent population and advances both by
// exactly one tick per Update call. Cells live in row-major order with
// index == cell id; agents with index == agent id. All mutation happens
// inside Update. Between ticks callers read value snapshots only; nothing
// handed out aliases the owned state.
type World struct {
	width  int
	height int
	cells  []*Cell
	agents []*Agent
	tick   uint64

	// Deaths recorded during the most recent Update, in agent-id order.
	// Each entry names the cell that received the feedback.
	deaths []Death
}

// Death records one agent death and the cell its feedback landed on.
type Death struct {
	AgentID int
	CellID  int
}

// CellState is a read-only snapshot of one cell.
type CellState struct {
	ID           int
	Resource     int
	MaxResource  int
	RegenRate    int
	MaxRegenRate int
}

// AgentState is a read-only snapshot of one agent.
type AgentState struct {
	ID              int
	CellID          int
	ConsumptionRate int
	Allocated       int
	HP              int
	Alive           bool
	Hungry          bool
}

// New builds a randomized world from cfg. Sampling is uniform within the
// configured ranges and fully determined by cfg.Seed: equal configs build
// identical worlds.
func New(cfg Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("world config: %w", err)
	}
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), 0))

	cellCount := cfg.Width * cfg.Height
	cells := make([]*Cell, cellCount)
	for id := range cells {
		res := sampleRange(rng, cfg.MinResource, cfg.MaxResource)
		regen := sampleRange(rng, cfg.MinRegenRate, cfg.MaxRegenRate)
		cells[id] = NewCell(id, res, cfg.MaxResource, regen, cfg.MaxRegenRate)
	}

	agentCount := sampleRange(rng, cfg.MinAgents, cfg.MaxAgents)
	agents := make([]*Agent, agentCount)
	for id := range agents {
		rate := sampleRange(rng, cfg.MinConsumptionRate, cfg.MaxConsumptionRate)
		cid := rng.IntN(cellCount)
		agents[id] = NewAgent(id, cid, rate, cfg.AgentHP)
	}

	return &World{width: cfg.Width, height: cfg.Height, cells: cells, agents: agents}, nil
}

// NewFromParts assembles a world from explicit cells and agents. Cell ids
// must match their row-major position and every agent must start on a
// valid cell. Intended for tests and tools that need exact layouts.
func NewFromParts(width, height int, cells []*Cell, agents []*Agent) (*World, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid must be at least 1x1, got %dx%d", width, height)
	}
	if len(cells) != width*height {
		return nil, fmt.Errorf("grid %dx%d needs %d cells, got %d", width, height, width*height, len(cells))
	}
	for i, c := range cells {
		if c == nil || c.ID() != i {
			return nil, fmt.Errorf("cell at index %d must have id %d", i, i)
		}
	}
	for i, a := range agents {
		if a == nil || a.ID() != i {
			return nil, fmt.Errorf("agent at index %d must have id %d", i, i)
		}
		if a.CellID() < 0 || a.CellID() >= len(cells) {
			return nil, fmt.Errorf("agent %d placed on invalid cell %d", i, a.CellID())
		}
	}
	return &World{width: width, height: height, cells: cells, agents: agents}, nil
}

// sampleRange returns a uniform value in the inclusive range [lo, hi].
func sampleRange(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo+1)
}

// Neighbors returns resource readings for the 4-connected neighborhood of
// cellID, in up, down, left, right order. Edge cells get fewer entries;
// the grid does not wrap.
func (w *World) Neighbors(cellID int) []NeighborInfo {
	x := cellID % w.width
	y := cellID / w.width
	out := make([]NeighborInfo, 0, 4)
	add := func(nx, ny int) {
		if nx < 0 || nx >= w.width || ny < 0 || ny >= w.height {
			return
		}
		id := ny*w.width + nx
		out = append(out, NeighborInfo{CellID: id, Resource: w.cells[id].Resource()})
	}
	add(x, y-1)
	add(x, y+1)
	add(x-1, y)
	add(x+1, y)
	return out
}

// Update implements Updatable for the whole world: one tick of
// regeneration, allocation, and the agent step, in that strict order.
// Per-entity errors cannot fire under this ordering; one escaping here
// means the sequencing itself is broken, so it is returned rather than
// swallowed.
func (w *World) Update() error {
	w.deaths = w.deaths[:0]

	// Regeneration, cell-id order.
	for _, c := range w.cells {
		c.Regenerate()
	}

	// Allocation. Occupants are collected in agent-id order so the equal
	// split is deterministic. Each occupant is offered the integer base
	// share; whatever it leaves untaken stays with the cell rather than
	// being redistributed to the other occupants this tick.
	occupants := make([][]int, len(w.cells))
	for _, a := range w.agents {
		if !a.Alive() {
			continue
		}
		occupants[a.CellID()] = append(occupants[a.CellID()], a.ID())
	}
	for cid, ids := range occupants {
		if len(ids) == 0 {
			continue
		}
		cell := w.cells[cid]
		base := cell.Resource() / len(ids)
		consumed := 0
		for _, aid := range ids {
			leftover, err := w.agents[aid].RetrieveResource(base)
			if err != nil {
				return fmt.Errorf("tick %d: allocate to agent %d: %w", w.tick, aid, err)
			}
			consumed += base - leftover
		}
		if consumed > 0 {
			if err := cell.Consume(consumed); err != nil {
				return fmt.Errorf("tick %d: deduct %d from cell %d: %w", w.tick, consumed, cid, err)
			}
		}
	}

	// Agent step, agent-id order. A hungry agent moves greedily toward
	// the richest neighbor; dying on the way drops the feedback on the
	// cell it left and skips metabolism. A survivor always metabolizes,
	// spending whatever it harvested before moving.
	for _, a := range w.agents {
		if !a.Alive() {
			continue
		}
		if a.Hungry() {
			if target, ok := a.DecideMove(w.Neighbors(a.CellID())); ok {
				from := a.CellID()
				if err := a.MoveTo(target); err != nil {
					return fmt.Errorf("tick %d: move agent %d: %w", w.tick, a.ID(), err)
				}
				if !a.Alive() {
					w.cells[from].ApplyDeathFeedback()
					w.deaths = append(w.deaths, Death{AgentID: a.ID(), CellID: from})
					continue
				}
			}
		}
		if err := a.Update(); err != nil {
			return fmt.Errorf("tick %d: metabolize agent %d: %w", w.tick, a.ID(), err)
		}
		if !a.Alive() {
			w.cells[a.CellID()].ApplyDeathFeedback()
			w.deaths = append(w.deaths, Death{AgentID: a.ID(), CellID: a.CellID()})
		}
	}

	w.tick++
	return nil
}

func (w *World) Width() int      { return w.width }
func (w *World) Height() int     { return w.height }
func (w *World) Tick() uint64    { return w.tick }
func (w *World) CellCount() int  { return len(w.cells) }
func (w *World) AgentCount() int { return len(w.agents) }

// CellState returns a snapshot of one cell.
func (w *World) CellState(id int) (CellState, bool) {
	if id < 0 || id >= len(w.cells) {
		return CellState{}, false
	}
	return cellState(w.cells[id]), true
}

// CellStates returns snapshots of every cell in id order.
func (w *World) CellStates() []CellState {
	out := make([]CellState, len(w.cells))
	for i, c := range w.cells {
		out[i] = cellState(c)
	}
	return out
}

// AgentState returns a snapshot of one agent.
func (w *World) AgentState(id int) (AgentState, bool) {
	if id < 0 || id >= len(w.agents) {
		return AgentState{}, false
	}
	return agentState(w.agents[id]), true
}

// AgentStates returns snapshots of every agent in id order, dead ones
// included.
func (w *World) AgentStates() []AgentState {
	out := make([]AgentState, len(w.agents))
	for i, a := range w.agents {
		out[i] = agentState(a)
	}
	return out
}

// DeathsLastTick returns the deaths recorded by the most recent Update.
func (w *World) DeathsLastTick() []Death {
	out := make([]Death, len(w.deaths))
	copy(out, w.deaths)
	return out
}

// AliveAgents counts agents still alive.
func (w *World) AliveAgents() int {
	n := 0
	for _, a := range w.agents {
		if a.Alive() {
			n++
		}
	}
	return n
}

// TotalResource sums the resource stored across the grid.
func (w *World) TotalResource() int {
	total := 0
	for _, c := range w.cells {
		total += c.Resource()
	}
	return total
}

func cellState(c *Cell) CellState {
	return CellState{
		ID:           c.ID(),
		Resource:     c.Resource(),
		MaxResource:  c.MaxResource(),
		RegenRate:    c.RegenRate(),
		MaxRegenRate: c.MaxRegenRate(),
	}
}

func agentState(a *Agent) AgentState {
	return AgentState{
		ID:              a.ID(),
		CellID:          a.CellID(),
		ConsumptionRate: a.ConsumptionRate(),
		Allocated:       a.Allocated(),
		HP:              a.HP(),
		Alive:           a.Alive(),
		Hungry:          a.Hungry(),
	}
}
