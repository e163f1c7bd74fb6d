package engine

// Planner collects the ordered step manifest before execution begins.
// Append-only during planning, read-only during execution; a test asserts
// against the manifest to verify the right steps were scheduled regardless
// of whether they later succeed.
type Planner struct {
	steps []Step
}

// NewPlanner returns an empty planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// AddStep appends a step to the plan.
func (p *Planner) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// Plan returns the planned steps in call order. The returned slice is a
// copy; executing it never mutates the planner.
func (p *Planner) Plan() []Step {
	plan := make([]Step, len(p.steps))
	copy(plan, p.steps)
	return plan
}

// Descriptions returns the human-readable manifest in call order.
func (p *Planner) Descriptions() []string {
	descs := make([]string, len(p.steps))
	for i, step := range p.steps {
		descs[i] = step.Description
	}
	return descs
}

// Len returns the number of planned steps.
func (p *Planner) Len() int {
	return len(p.steps)
}

// Reset clears the manifest so sequential invocations in the same process
// don't leak steps into each other.
func (p *Planner) Reset() {
	p.steps = nil
}
