package solvers

import (
	"math"

	"github.com/pkg/errors"
	"github.com/zeu5/tictactoe-rl/core"
)

// ValueIteration computes optimal state values with synchronous
// Bellman-optimality backups and derives a greedy policy from them.
type ValueIteration struct {
	model  core.Model
	params Params

	states []core.State
	values *ValueTable
}

var _ core.Trainer = &ValueIteration{}

// NewValueIteration validates the model and creates a solver with all values
// set to 0.
func NewValueIteration(model core.Model, params Params) (*ValueIteration, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := core.ValidateModel(model); err != nil {
		return nil, errors.WithMessage(err, "value iteration")
	}
	v := &ValueIteration{
		model:  model,
		params: params,
		states: nonTerminal(model),
	}
	v.Reset()
	return v, nil
}

func (v *ValueIteration) Name() string {
	return "value-iteration"
}

// Reset sets every value back to 0
func (v *ValueIteration) Reset() {
	v.values = NewValueTable(v.model.States())
}

// Iterate performs up to maxSweeps sweeps over the non-terminal states. Each
// sweep computes the new values from a snapshot of the previous sweep, so an
// update is never visible to other states of the same sweep. Iteration stops
// early once the largest change of a sweep drops below Params.Delta. It
// returns the number of sweeps performed and whether the values converged.
func (v *ValueIteration) Iterate(maxSweeps int) (int, bool, error) {
	for sweep := 1; sweep <= maxSweeps; sweep++ {
		next := v.values.Copy()
		maxDelta := float64(0)
		for _, s := range v.states {
			_, best, err := greedy(v.model, v.values, s, v.params.Gamma)
			if err != nil {
				return sweep - 1, false, err
			}
			if d := math.Abs(best - v.values.Get(s)); d > maxDelta {
				maxDelta = d
			}
			next.Set(s, best)
		}
		v.values = next

		v.params.Logger.Debug().Int("sweep", sweep).Float64("max_delta", maxDelta).Msg("value iteration sweep")
		if maxDelta < v.params.Delta || maxDelta == 0 {
			return sweep, true, nil
		}
	}
	if maxSweeps > 0 {
		v.params.Logger.Warn().
			Int("sweeps", maxSweeps).
			Float64("delta", v.params.Delta).
			Msg("value iteration did not converge, using best effort values")
	}
	return maxSweeps, false, nil
}

// ExtractPolicy picks, for every non-terminal state, the action with the
// largest one-step lookahead under the current values.
func (v *ValueIteration) ExtractPolicy() (*core.Policy, error) {
	policy := core.NewPolicy()
	for _, s := range v.states {
		a, _, err := greedy(v.model, v.values, s, v.params.Gamma)
		if err != nil {
			return nil, err
		}
		policy.Set(s, a)
	}
	return policy, nil
}

func (v *ValueIteration) Train() (*core.Policy, error) {
	if _, _, err := v.Iterate(v.params.MaxSweeps); err != nil {
		return nil, err
	}
	return v.ExtractPolicy()
}

// Value returns the current estimate for the state
func (v *ValueIteration) Value(s core.State) float64 {
	return v.values.Get(s)
}

// Values returns a copy of the value table
func (v *ValueIteration) Values() *ValueTable {
	return v.values.Copy()
}

type ValueIterationConstructor struct {
	Model  core.Model
	Params Params
}

var _ core.TrainerConstructor = &ValueIterationConstructor{}

func (c *ValueIterationConstructor) NewTrainer() (core.Trainer, error) {
	return NewValueIteration(c.Model, c.Params)
}
