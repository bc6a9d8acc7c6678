package solvers

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/tictactoe-rl/core"
)

func TestValueIterationTwoActions(t *testing.T) {
	params := DefaultParams()
	params.Delta = 0
	vi, err := NewValueIteration(twoActionMDP(), params)
	require.NoError(t, err)

	for _, sweeps := range []int{1, 5, 50} {
		vi.Reset()
		_, _, err := vi.Iterate(sweeps)
		require.NoError(t, err)
		require.InDelta(t, 1.0, vi.Value(testState("S0")), 1e-12)
	}

	policy, err := vi.ExtractPolicy()
	require.NoError(t, err)
	a, ok := policy.ActionFor(testState("S0"))
	require.True(t, ok)
	require.Equal(t, "A1", a.Hash())

	// terminal states keep value 0 and never appear in the policy
	for _, s := range []string{"T1", "T2"} {
		require.Zero(t, vi.Value(testState(s)))
		_, ok := policy.ActionFor(testState(s))
		require.False(t, ok)
	}
	require.Equal(t, 1, policy.Len())
}

func TestValueIterationChain(t *testing.T) {
	params := DefaultParams()
	params.Delta = 1e-12
	vi, err := NewValueIteration(chainMDP(), params)
	require.NoError(t, err)

	sweeps, converged, err := vi.Iterate(100)
	require.NoError(t, err)
	require.True(t, converged)
	require.Less(t, sweeps, 100)

	require.InDelta(t, 2.0, vi.Value(testState("S2")), 1e-9)
	require.InDelta(t, 5.0, vi.Value(testState("S1")), 1e-9)
	require.InDelta(t, 4.5, vi.Value(testState("S0")), 1e-9)

	policy, err := vi.ExtractPolicy()
	require.NoError(t, err)
	expected := map[string]string{"S0": "left", "S1": "a", "S2": "a"}
	require.Equal(t, expected, policy.Map())
}

// A sweep must read only values from the previous sweep. With in-place
// updates S0 would already see S1's new value after the first sweep.
func TestValueIterationSynchronousSweep(t *testing.T) {
	m := newTestMDP().
		state("S1", false).
		state("S0", false).
		state("T", true).
		edge("S1", "go", 1, 10, "T").
		edge("S0", "go", 1, 0, "S1")
	params := DefaultParams()
	params.Delta = 0
	vi, err := NewValueIteration(m, params)
	require.NoError(t, err)

	_, _, err = vi.Iterate(1)
	require.NoError(t, err)
	require.InDelta(t, 10.0, vi.Value(testState("S1")), 1e-12)
	require.InDelta(t, 0.0, vi.Value(testState("S0")), 1e-12)

	_, _, err = vi.Iterate(1)
	require.NoError(t, err)
	require.InDelta(t, 9.0, vi.Value(testState("S0")), 1e-12)
}

func TestValueIterationTiesPickFirstAction(t *testing.T) {
	m := newTestMDP().
		state("S0", false).
		state("T", true).
		edge("S0", "b", 1, 1, "T").
		edge("S0", "a", 1, 1, "T")
	vi, err := NewValueIteration(m, DefaultParams())
	require.NoError(t, err)
	policy, err := vi.Train()
	require.NoError(t, err)
	a, _ := policy.ActionFor(testState("S0"))
	require.Equal(t, "b", a.Hash())
}

func TestValueIterationStopsOnDelta(t *testing.T) {
	params := DefaultParams()
	params.Delta = 0.1
	vi, err := NewValueIteration(stochasticMDP(), params)
	require.NoError(t, err)

	sweeps, converged, err := vi.Iterate(1000)
	require.NoError(t, err)
	require.True(t, converged)
	require.Less(t, sweeps, 1000)

	// bounded runs report non convergence but keep their values
	vi.Reset()
	sweeps, converged, err = vi.Iterate(1)
	require.NoError(t, err)
	require.False(t, converged)
	require.Equal(t, 1, sweeps)
	require.NotZero(t, vi.Value(testState("S0")))
}

func TestValueIterationRejectsBadModels(t *testing.T) {
	noActions := newTestMDP().
		state("S0", false).
		state("S1", false).
		state("T", true).
		edge("S0", "go", 1, 0, "S1")
	_, err := NewValueIteration(noActions, DefaultParams())
	require.True(t, errors.Is(err, core.ErrNoLegalActions))

	badProb := newTestMDP().
		state("S0", false).
		state("T", true).
		edge("S0", "go", 0.5, 0, "T").
		edge("S0", "go", 0.4, 0, "T")
	_, err = NewValueIteration(badProb, DefaultParams())
	require.True(t, errors.Is(err, core.ErrBadDistribution))

	params := DefaultParams()
	params.Gamma = 1
	_, err = NewValueIteration(twoActionMDP(), params)
	require.True(t, errors.Is(err, ErrInvalidParams))
}
