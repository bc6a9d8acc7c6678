package solvers

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/tictactoe-rl/core"
	"golang.org/x/exp/rand"
)

func chainLearner(t *testing.T, seed uint64) *QLearning {
	m := chainMDP()
	env := core.NewModelEnvironment(m, testState("S0"), rand.NewSource(seed))
	params := DefaultParams()
	params.Alpha = 0.5
	params.Epsilon = 1
	params.EpsilonDecay = 0.995
	params.MinEpsilon = 0.1
	params.Episodes = 2000
	q, err := NewQLearning(m, env, params, rand.NewSource(seed))
	require.NoError(t, err)
	return q
}

func TestQLearningMatchesValueIteration(t *testing.T) {
	params := DefaultParams()
	params.Delta = 1e-12
	vi, err := NewValueIteration(chainMDP(), params)
	require.NoError(t, err)
	expected, err := vi.Train()
	require.NoError(t, err)

	q := chainLearner(t, 7)
	policy, err := q.Train()
	require.NoError(t, err)
	require.Equal(t, expected.Map(), policy.Map())

	val, err := q.QTable().Get(testState("S1"), testAction("a"))
	require.NoError(t, err)
	require.InDelta(t, 5.0, val, 1e-3)
	val, err = q.QTable().Get(testState("S0"), testAction("left"))
	require.NoError(t, err)
	require.InDelta(t, 4.5, val, 1e-3)
}

func TestQLearningEpsilonDecay(t *testing.T) {
	q := chainLearner(t, 1)
	_, err := q.Train()
	require.NoError(t, err)
	require.InDelta(t, 0.1, q.Epsilon(), 1e-12)

	q.Reset()
	require.Equal(t, 1.0, q.Epsilon())
	for _, s := range q.QTable().States() {
		for _, v := range q.QTable().Values(s) {
			require.Zero(t, v)
		}
	}
}

func TestQLearningUpdateTerminalSuccessor(t *testing.T) {
	m := chainMDP()
	env := core.NewModelEnvironment(m, testState("S0"), rand.NewSource(1))
	params := DefaultParams()
	params.Alpha = 1
	q, err := NewQLearning(m, env, params, rand.NewSource(1))
	require.NoError(t, err)

	// a large value elsewhere must not leak into a terminal successor
	require.NoError(t, q.QTable().Set(testState("S2"), testAction("a"), 100))
	require.NoError(t, q.Update(core.Outcome{
		State:     testState("S1"),
		Action:    testAction("a"),
		Reward:    5,
		NextState: testState("T1"),
	}))
	val, err := q.QTable().Get(testState("S1"), testAction("a"))
	require.NoError(t, err)
	require.Equal(t, 5.0, val)

	require.NoError(t, q.Update(core.Outcome{
		State:     testState("S1"),
		Action:    testAction("b"),
		Reward:    0,
		NextState: testState("S2"),
	}))
	val, err = q.QTable().Get(testState("S1"), testAction("b"))
	require.NoError(t, err)
	require.InDelta(t, 90.0, val, 1e-12)
}

func TestQLearningUpdateLearningRate(t *testing.T) {
	m := twoActionMDP()
	env := core.NewModelEnvironment(m, testState("S0"), rand.NewSource(1))
	params := DefaultParams()
	params.Alpha = 0.1
	q, err := NewQLearning(m, env, params, rand.NewSource(1))
	require.NoError(t, err)

	o := core.Outcome{State: testState("S0"), Action: testAction("A1"), Reward: 1, NextState: testState("T1")}
	require.NoError(t, q.Update(o))
	require.NoError(t, q.Update(o))
	val, err := q.QTable().Get(testState("S0"), testAction("A1"))
	require.NoError(t, err)
	// 0.1, then 0.9*0.1 + 0.1
	require.InDelta(t, 0.19, val, 1e-12)
}

// illegalEnv rejects every move
type illegalEnv struct {
	resets int
}

func (e *illegalEnv) Reset() (core.State, error) {
	e.resets++
	return testState("S0"), nil
}

func (e *illegalEnv) CurrentState() core.State {
	return testState("S0")
}

func (e *illegalEnv) ExecuteMove(a core.Action) (core.Outcome, error) {
	return core.Outcome{}, errors.Wrapf(core.ErrIllegalMove, "action %s", a.Hash())
}

func TestQLearningAbortsOnIllegalMove(t *testing.T) {
	env := &illegalEnv{}
	q, err := NewQLearning(twoActionMDP(), env, DefaultParams(), rand.NewSource(1))
	require.NoError(t, err)

	var observed *core.EpisodeContext
	q.SetObserver(core.EpisodeObserverFunc(func(e *core.EpisodeContext) {
		observed = e
	}))
	policy, err := q.Train()
	require.Nil(t, policy)
	require.True(t, errors.Is(err, core.ErrIllegalMove))
	require.NotNil(t, observed)
	require.Equal(t, 0, observed.Episode)
	require.Error(t, observed.Trace.Error())
	require.Equal(t, 1, env.resets)
}

// loopEnv never reaches a terminal state
type loopEnv struct{}

func (loopEnv) Reset() (core.State, error) { return testState("S0"), nil }

func (loopEnv) CurrentState() core.State { return testState("S0") }

func (loopEnv) ExecuteMove(a core.Action) (core.Outcome, error) {
	return core.Outcome{State: testState("S0"), Action: a, NextState: testState("S0")}, nil
}

func TestQLearningStepLimit(t *testing.T) {
	m := newTestMDP().
		state("S0", false).
		state("T", true).
		edge("S0", "go", 1, 0, "T")
	params := DefaultParams()
	params.MaxEpisodeSteps = 10
	q, err := NewQLearning(m, loopEnv{}, params, rand.NewSource(1))
	require.NoError(t, err)
	_, err = q.Train()
	require.True(t, errors.Is(err, ErrEpisodeTooLong))
}

func TestQLearningObserverSeesEveryEpisode(t *testing.T) {
	q := chainLearner(t, 3)
	episodes := 0
	prevEpsilon := 2.0
	q.SetObserver(core.EpisodeObserverFunc(func(e *core.EpisodeContext) {
		require.Equal(t, episodes, e.Episode)
		require.LessOrEqual(t, e.Epsilon, prevEpsilon)
		require.Greater(t, e.Trace.Len(), 0)
		prevEpsilon = e.Epsilon
		episodes++
	}))
	_, err := q.Train()
	require.NoError(t, err)
	require.Equal(t, 2000, episodes)
}

func TestExtractPolicySkipsTerminalStates(t *testing.T) {
	q := chainLearner(t, 5)
	policy := q.ExtractPolicy()
	require.Equal(t, 3, policy.Len())
	for _, s := range []string{"T1", "T2"} {
		_, ok := policy.ActionFor(testState(s))
		require.False(t, ok)
	}
	// untrained tables pick the first listed action
	a, _ := policy.ActionFor(testState("S0"))
	require.Equal(t, "left", a.Hash())
}
