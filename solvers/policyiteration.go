package solvers

import (
	"math"

	"github.com/pkg/errors"
	"github.com/zeu5/tictactoe-rl/core"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// improveTolerance is the margin by which a greedy action must beat the
// current action before the policy is changed.
const improveTolerance = 1e-9

// PolicyIteration alternates policy evaluation and greedy policy improvement
// until the policy is stable.
type PolicyIteration struct {
	model  core.Model
	params Params

	rand   *rand.Rand
	states []core.State
	index  map[string]int

	// values under the current policy, not optimal values
	values *ValueTable
	policy *core.Policy
}

var _ core.Trainer = &PolicyIteration{}

// NewPolicyIteration validates the model, sets every value to 0 and draws a
// random legal initial policy from src.
func NewPolicyIteration(model core.Model, params Params, src rand.Source) (*PolicyIteration, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := core.ValidateModel(model); err != nil {
		return nil, errors.WithMessage(err, "policy iteration")
	}
	p := &PolicyIteration{
		model:  model,
		params: params,
		rand:   rand.New(src),
		states: nonTerminal(model),
		index:  make(map[string]int),
	}
	for i, s := range p.states {
		p.index[s.Hash()] = i
	}
	p.Reset()
	return p, nil
}

func (p *PolicyIteration) Name() string {
	return "policy-iteration"
}

// Reset zeroes the values and draws a fresh random policy from the source
func (p *PolicyIteration) Reset() {
	p.values = NewValueTable(p.model.States())
	p.policy = RandomPolicy(p.model, p.rand)
}

// SetPolicy replaces the current policy. Every non-terminal state must be
// mapped to one of its legal actions.
func (p *PolicyIteration) SetPolicy(policy *core.Policy) error {
	for _, s := range p.states {
		a, ok := policy.ActionFor(s)
		if !ok {
			return errors.Wrapf(core.ErrNoLegalActions, "policy has no action for state %s", s.Hash())
		}
		if !isLegal(p.model, s, a) {
			return errors.Wrapf(core.ErrIllegalMove, "action %s in state %s", a.Hash(), s.Hash())
		}
	}
	p.policy = policy.Copy()
	return nil
}

// EvaluatePolicy sweeps the non-terminal states, updating each value in place
// from the Bellman expectation for the current policy, until the largest
// change of a sweep is at most delta. The number of sweeps is bounded by
// Params.MaxEvalSweeps. Returns the sweeps performed and whether the values
// converged.
func (p *PolicyIteration) EvaluatePolicy(delta float64) (int, bool, error) {
	for sweep := 1; sweep <= p.params.MaxEvalSweeps; sweep++ {
		maxDelta := float64(0)
		for _, s := range p.states {
			a, _ := p.policy.ActionFor(s)
			val, err := lookahead(p.model, p.values, s, a, p.params.Gamma)
			if err != nil {
				return sweep - 1, false, err
			}
			if d := math.Abs(val - p.values.Get(s)); d > maxDelta {
				maxDelta = d
			}
			p.values.Set(s, val)
		}
		if maxDelta <= delta {
			return sweep, true, nil
		}
	}
	p.params.Logger.Warn().
		Int("sweeps", p.params.MaxEvalSweeps).
		Float64("delta", delta).
		Msg("policy evaluation did not converge, using best effort values")
	return p.params.MaxEvalSweeps, false, nil
}

// EvaluatePolicyExact solves V = R + gamma P V for the current policy as a
// linear system over the non-terminal states.
func (p *PolicyIteration) EvaluatePolicyExact() error {
	n := len(p.states)
	if n == 0 {
		return nil
	}
	a := mat.NewDense(n, n, nil)
	b := mat.NewVecDense(n, nil)
	for i, s := range p.states {
		a.Set(i, i, 1)
		action, _ := p.policy.ActionFor(s)
		transitions, err := p.model.Transitions(s, action)
		if err != nil {
			return errors.WithMessagef(err, "transitions of state %s", s.Hash())
		}
		if err := core.CheckDistribution(s, action, transitions); err != nil {
			return err
		}
		for _, t := range transitions {
			b.SetVec(i, b.AtVec(i)+t.Prob*t.Outcome.Reward)
			// terminal successors are valued 0 and drop out
			if j, ok := p.index[t.Outcome.NextState.Hash()]; ok {
				a.Set(i, j, a.At(i, j)-p.params.Gamma*t.Prob)
			}
		}
	}
	var v mat.VecDense
	if err := v.SolveVec(a, b); err != nil {
		return errors.Wrap(err, "solving policy evaluation system")
	}
	for i, s := range p.states {
		p.values.Set(s, v.AtVec(i))
	}
	return nil
}

// ImprovePolicy makes the policy greedy with respect to the current values.
// A state's action is only replaced by a strictly better one. It returns true
// iff the action of at least one state changed.
func (p *PolicyIteration) ImprovePolicy() (bool, error) {
	changed := false
	for _, s := range p.states {
		current, _ := p.policy.ActionFor(s)
		currentVal, err := lookahead(p.model, p.values, s, current, p.params.Gamma)
		if err != nil {
			return changed, err
		}
		best, bestVal, err := greedy(p.model, p.values, s, p.params.Gamma)
		if err != nil {
			return changed, err
		}
		if bestVal > currentVal+improveTolerance {
			p.policy.Set(s, best)
			changed = true
		}
	}
	return changed, nil
}

func (p *PolicyIteration) evaluate() error {
	if p.params.ExactEvaluation {
		return p.EvaluatePolicyExact()
	}
	_, _, err := p.EvaluatePolicy(p.params.Delta)
	return err
}

// Train alternates evaluation and improvement until ImprovePolicy reports
// that no action changed, or Params.MaxIterations is reached.
func (p *PolicyIteration) Train() (*core.Policy, error) {
	for iter := 1; iter <= p.params.MaxIterations; iter++ {
		if err := p.evaluate(); err != nil {
			return nil, err
		}
		changed, err := p.ImprovePolicy()
		if err != nil {
			return nil, err
		}
		p.params.Logger.Debug().Int("iteration", iter).Bool("changed", changed).Msg("policy improvement")
		if !changed {
			return p.policy.Copy(), nil
		}
	}
	p.params.Logger.Warn().
		Int("iterations", p.params.MaxIterations).
		Msg("policy iteration did not stabilize, returning current policy")
	return p.policy.Copy(), nil
}

// Policy returns a copy of the current policy
func (p *PolicyIteration) Policy() *core.Policy {
	return p.policy.Copy()
}

func (p *PolicyIteration) Value(s core.State) float64 {
	return p.values.Get(s)
}

func (p *PolicyIteration) Values() *ValueTable {
	return p.values.Copy()
}

func isLegal(space core.StateSpace, s core.State, a core.Action) bool {
	for _, l := range space.LegalActions(s) {
		if l.Hash() == a.Hash() {
			return true
		}
	}
	return false
}

type PolicyIterationConstructor struct {
	Model  core.Model
	Params Params
	Seed   uint64
}

var _ core.TrainerConstructor = &PolicyIterationConstructor{}

func (c *PolicyIterationConstructor) NewTrainer() (core.Trainer, error) {
	return NewPolicyIteration(c.Model, c.Params, rand.NewSource(c.Seed))
}
