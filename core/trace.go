package core

// Step is one transition taken during an episode
type Step struct {
	Outcome

	Misc map[string]interface{}
}

type Trace struct {
	steps []*Step
	err   error
}

func NewTrace() *Trace {
	return &Trace{
		steps: make([]*Step, 0),
	}
}

func (t *Trace) AddStep(s *Step) {
	t.steps = append(t.steps, s)
}

func (t *Trace) Step(i int) *Step {
	return t.steps[i]
}

func (t *Trace) Len() int {
	return len(t.steps)
}

func (t *Trace) Last() *Step {
	if len(t.steps) == 0 {
		return nil
	}
	return t.steps[len(t.steps)-1]
}

// SetError records the error that ended the episode
func (t *Trace) SetError(err error) {
	t.err = err
}

func (t *Trace) Error() error {
	return t.err
}

// Return is the undiscounted sum of rewards along the trace
func (t *Trace) Return() float64 {
	sum := float64(0)
	for _, s := range t.steps {
		sum += s.Reward
	}
	return sum
}

// DiscountedReturn is the sum of rewards discounted by gamma per step
func (t *Trace) DiscountedReturn(gamma float64) float64 {
	sum := float64(0)
	w := float64(1)
	for _, s := range t.steps {
		sum += w * s.Reward
		w *= gamma
	}
	return sum
}
