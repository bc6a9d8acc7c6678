package core

import (
	"math"

	"github.com/pkg/errors"
)

// CheckDistribution returns ErrBadDistribution if the probabilities of the
// transitions do not sum to 1 within ProbTolerance or any of them is negative.
func CheckDistribution(s State, a Action, transitions []Transition) error {
	sum := float64(0)
	for _, t := range transitions {
		if t.Prob < 0 || math.IsNaN(t.Prob) {
			return errors.Wrapf(ErrBadDistribution, "state %s action %s: probability %v", s.Hash(), a.Hash(), t.Prob)
		}
		sum += t.Prob
	}
	if math.Abs(sum-1) > ProbTolerance {
		return errors.Wrapf(ErrBadDistribution, "state %s action %s: total %v", s.Hash(), a.Hash(), sum)
	}
	return nil
}

// ValidateStateSpace checks that terminal states have no legal actions and
// that every other state has at least one.
func ValidateStateSpace(space StateSpace) error {
	for _, s := range space.States() {
		actions := space.LegalActions(s)
		terminal := space.IsTerminal(s)
		if !terminal && len(actions) == 0 {
			return errors.Wrapf(ErrNoLegalActions, "state %s", s.Hash())
		}
		if terminal && len(actions) != 0 {
			return errors.Wrapf(ErrNoLegalActions, "terminal state %s has %d actions", s.Hash(), len(actions))
		}
	}
	return nil
}

// ValidateModel runs ValidateStateSpace and checks every transition
// distribution of the model. Successor states must be part of the state
// space.
func ValidateModel(m Model) error {
	if err := ValidateStateSpace(m); err != nil {
		return err
	}
	known := make(map[string]bool)
	for _, s := range m.States() {
		known[s.Hash()] = true
	}
	for _, s := range m.States() {
		for _, a := range m.LegalActions(s) {
			transitions, err := m.Transitions(s, a)
			if err != nil {
				return errors.WithMessagef(err, "transitions of state %s action %s", s.Hash(), a.Hash())
			}
			if err := CheckDistribution(s, a, transitions); err != nil {
				return err
			}
			for _, t := range transitions {
				if !known[t.Outcome.NextState.Hash()] {
					return errors.Wrapf(ErrUnknownState, "successor %s of state %s", t.Outcome.NextState.Hash(), s.Hash())
				}
			}
		}
	}
	return nil
}
