package core

import "github.com/pkg/errors"

var (
	// ErrNoLegalActions is returned when a non-terminal state has no legal
	// actions or a terminal state reports some.
	ErrNoLegalActions = errors.New("non-terminal state without legal actions")
	// ErrBadDistribution is returned when the transition probabilities for a
	// state-action pair do not sum to one.
	ErrBadDistribution = errors.New("transition probabilities do not sum to 1")
	// ErrIllegalMove is returned when an action is not legal in the state it
	// is applied to.
	ErrIllegalMove = errors.New("illegal move")
	// ErrUnknownState is returned when a state was not enumerated by the
	// state space.
	ErrUnknownState = errors.New("state not in state space")
)

// ProbTolerance is the allowed deviation of a transition distribution's
// total probability from 1.
const ProbTolerance = 1e-9
