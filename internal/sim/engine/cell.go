package engine

// Death feedback: when an agent dies on a cell, its remains enrich it with
// an immediate resource boost and a permanent bump to the regeneration
// rate. Both are capped by the cell's fixed maxima.
const (
	DeathResourceBoost = 10
	DeathRegenBonus    = 1
)

// Cell is one grid slot. It stores resource up to a fixed capacity and
// regenerates some of it every tick. Cells are created at world-build time
// and live for the whole run; the grid never changes shape.
type Cell struct {
	id           int
	curResource  int
	maxResource  int
	regenRate    int
	maxRegenRate int
}

// NewCell builds a cell with the given id and initial values. Initial
// values are clamped into their legal ranges so a cell can never start
// outside its own invariants.
func NewCell(id, curResource, maxResource, regenRate, maxRegenRate int) *Cell {
	if maxResource < 0 {
		maxResource = 0
	}
	if maxRegenRate < 0 {
		maxRegenRate = 0
	}
	return &Cell{
		id:           id,
		curResource:  clamp(curResource, 0, maxResource),
		maxResource:  maxResource,
		regenRate:    clamp(regenRate, 0, maxRegenRate),
		maxRegenRate: maxRegenRate,
	}
}

// Regenerate adds the regeneration rate to the stored resource, saturating
// at capacity. Repeated calls simply stay pinned at the cap.
func (c *Cell) Regenerate() {
	c.curResource = min(c.curResource+c.regenRate, c.maxResource)
}

// AddResource credits the cell, saturating at capacity.
func (c *Cell) AddResource(amount int) {
	if amount <= 0 {
		return
	}
	c.curResource = min(c.curResource+amount, c.maxResource)
}

// Consume removes exactly amount from the cell. The deduction is
// all-or-nothing: when the cell holds less than amount, nothing is
// deducted and a NotEnoughResourcesError is returned.
func (c *Cell) Consume(amount int) error {
	if amount < 0 {
		amount = 0
	}
	if amount > c.curResource {
		return &NotEnoughResourcesError{Requested: amount, Available: c.curResource}
	}
	c.curResource -= amount
	return nil
}

// IncreaseRegenRate raises the regeneration rate, saturating at the fixed
// ceiling.
func (c *Cell) IncreaseRegenRate(amount int) {
	if amount <= 0 {
		return
	}
	c.regenRate = min(c.regenRate+amount, c.maxRegenRate)
}

// ApplyDeathFeedback credits the cell with the fixed death boost and regen
// bonus. It always succeeds; both additions saturate at the cell's maxima.
func (c *Cell) ApplyDeathFeedback() {
	c.AddResource(DeathResourceBoost)
	c.IncreaseRegenRate(DeathRegenBonus)
}

func (c *Cell) ID() int           { return c.id }
func (c *Cell) Resource() int     { return c.curResource }
func (c *Cell) MaxResource() int  { return c.maxResource }
func (c *Cell) RegenRate() int    { return c.regenRate }
func (c *Cell) MaxRegenRate() int { return c.maxRegenRate }

// Update implements Updatable. A cell's step is regeneration; it cannot
// fail.
func (c *Cell) Update() error {
	c.Regenerate()
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
