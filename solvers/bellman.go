package solvers

import (
	"github.com/pkg/errors"
	"github.com/zeu5/tictactoe-rl/core"
	"gonum.org/v1/gonum/floats"
)

// lookahead returns the expected one-step return of taking a in s when
// successors are valued by v:
//
//	sum over outcomes of P(o|s,a) * (r(o) + gamma * v(next(o)))
func lookahead(m core.Model, v *ValueTable, s core.State, a core.Action, gamma float64) (float64, error) {
	transitions, err := m.Transitions(s, a)
	if err != nil {
		return 0, errors.WithMessagef(err, "transitions of state %s", s.Hash())
	}
	if err := core.CheckDistribution(s, a, transitions); err != nil {
		return 0, err
	}
	val := float64(0)
	for _, t := range transitions {
		val += t.Prob * (t.Outcome.Reward + gamma*v.Get(t.Outcome.NextState))
	}
	return val, nil
}

// greedy returns the action of s with the largest lookahead value. Ties go to
// the action listed first by the model.
func greedy(m core.Model, v *ValueTable, s core.State, gamma float64) (core.Action, float64, error) {
	actions := m.LegalActions(s)
	if len(actions) == 0 {
		return nil, 0, errors.Wrapf(core.ErrNoLegalActions, "state %s", s.Hash())
	}
	values := make([]float64, len(actions))
	for i, a := range actions {
		val, err := lookahead(m, v, s, a, gamma)
		if err != nil {
			return nil, 0, err
		}
		values[i] = val
	}
	best := floats.MaxIdx(values)
	return actions[best], values[best], nil
}

// nonTerminal returns the non terminal states of the space in space order
func nonTerminal(space core.StateSpace) []core.State {
	out := make([]core.State, 0)
	for _, s := range space.States() {
		if !space.IsTerminal(s) {
			out = append(out, s)
		}
	}
	return out
}
