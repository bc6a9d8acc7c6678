// Package solvers implements Value Iteration, Policy Iteration and tabular
// Q-Learning over a finite core.Model.
package solvers

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var ErrInvalidParams = errors.New("invalid solver parameters")

// Params holds the options shared by all solvers. Each solver reads only the
// fields it needs.
type Params struct {
	// Discount factor, in [0, 1)
	Gamma float64
	// Convergence threshold on the largest per-state value change of a sweep
	Delta float64

	// Value iteration sweep bound
	MaxSweeps int
	// Policy evaluation sweep bound
	MaxEvalSweeps int
	// Policy iteration outer loop bound
	MaxIterations int
	// Solve policy evaluation as a linear system instead of sweeping
	ExactEvaluation bool

	// Learning rate, in (0, 1]
	Alpha float64
	// Exploration rate, in [0, 1]
	Epsilon float64
	// Multiplicative decay applied to Epsilon after every episode
	EpsilonDecay float64
	MinEpsilon   float64
	Episodes     int
	// Upper bound on the steps of an episode, 0 disables the check
	MaxEpisodeSteps int

	Logger zerolog.Logger
}

func DefaultParams() Params {
	return Params{
		Gamma:           0.9,
		Delta:           0.1,
		MaxSweeps:       100,
		MaxEvalSweeps:   1000,
		MaxIterations:   100,
		Alpha:           0.1,
		Epsilon:         0.1,
		EpsilonDecay:    1,
		MinEpsilon:      0,
		Episodes:        1000,
		MaxEpisodeSteps: 1000,
		Logger:          zerolog.Nop(),
	}
}

func (p Params) Validate() error {
	switch {
	case p.Gamma < 0 || p.Gamma >= 1:
		return errors.Wrapf(ErrInvalidParams, "gamma %v not in [0, 1)", p.Gamma)
	case p.Delta < 0:
		return errors.Wrapf(ErrInvalidParams, "delta %v is negative", p.Delta)
	case p.Alpha <= 0 || p.Alpha > 1:
		return errors.Wrapf(ErrInvalidParams, "alpha %v not in (0, 1]", p.Alpha)
	case p.Epsilon < 0 || p.Epsilon > 1:
		return errors.Wrapf(ErrInvalidParams, "epsilon %v not in [0, 1]", p.Epsilon)
	case p.EpsilonDecay <= 0 || p.EpsilonDecay > 1:
		return errors.Wrapf(ErrInvalidParams, "epsilon decay %v not in (0, 1]", p.EpsilonDecay)
	case p.MinEpsilon < 0 || p.MinEpsilon > p.Epsilon:
		return errors.Wrapf(ErrInvalidParams, "min epsilon %v not in [0, epsilon]", p.MinEpsilon)
	case p.MaxSweeps < 0 || p.MaxEvalSweeps < 1 || p.MaxIterations < 1:
		return errors.Wrap(ErrInvalidParams, "iteration bounds must be positive")
	case p.Episodes < 0 || p.MaxEpisodeSteps < 0:
		return errors.Wrap(ErrInvalidParams, "episode counts must not be negative")
	}
	return nil
}

// WithLogger returns a copy of the parameters logging to l
func (p Params) WithLogger(l zerolog.Logger) Params {
	p.Logger = l
	return p
}
