package solvers

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/tictactoe-rl/core"
	"golang.org/x/exp/rand"
)

func TestQTableOnlyHoldsLegalPairs(t *testing.T) {
	q := NewQTable(chainMDP())
	require.Equal(t, 3, q.Size())
	require.False(t, q.HasState(testState("T1")))

	_, err := q.Get(testState("T1"), testAction("a"))
	require.True(t, errors.Is(err, core.ErrUnknownState))
	err = q.Set(testState("S0"), testAction("a"), 1)
	require.True(t, errors.Is(err, core.ErrIllegalMove))

	require.Zero(t, q.Max(testState("T1")))
	_, _, ok := q.ArgMax(testState("T1"))
	require.False(t, ok)
}

func TestQTableArgMax(t *testing.T) {
	q := NewQTable(chainMDP())
	s := testState("S0")

	a, val, ok := q.ArgMax(s)
	require.True(t, ok)
	require.Equal(t, "left", a.Hash())
	require.Zero(t, val)

	require.NoError(t, q.Set(s, testAction("right"), 2))
	a, val, _ = q.ArgMax(s)
	require.Equal(t, "right", a.Hash())
	require.Equal(t, 2.0, val)
	require.Equal(t, 2.0, q.Max(s))
	require.Equal(t, []float64{0, 2}, q.Values(s))
}

func TestQTableMaxAmongBreaksTiesRandomly(t *testing.T) {
	q := NewQTable(chainMDP())
	s := testState("S0")
	rnd := rand.New(rand.NewSource(1))

	seen := make(map[string]int)
	for i := 0; i < 200; i++ {
		a, _, ok := q.MaxAmong(s, rnd)
		require.True(t, ok)
		seen[a.Hash()]++
	}
	require.Len(t, seen, 2)

	require.NoError(t, q.Set(s, testAction("right"), -1))
	for i := 0; i < 20; i++ {
		a, val, _ := q.MaxAmong(s, rnd)
		require.Equal(t, "left", a.Hash())
		require.Zero(t, val)
	}
}

func TestQTableRecordRead(t *testing.T) {
	q := NewQTable(chainMDP())
	require.NoError(t, q.Set(testState("S1"), testAction("a"), 5))
	require.NoError(t, q.Set(testState("S2"), testAction("b"), -1.5))

	path := filepath.Join(t.TempDir(), "qtable.jsonl")
	require.NoError(t, q.Record(path))

	other := NewQTable(chainMDP())
	require.NoError(t, other.Read(path))
	for _, s := range q.States() {
		require.Equal(t, q.Values(s), other.Values(s))
	}

	q.Reset()
	require.Zero(t, q.Max(testState("S1")))

	// S0 exists in both models but with other actions
	small := NewQTable(twoActionMDP())
	require.True(t, errors.Is(small.Read(path), core.ErrIllegalMove))
}

func TestValueTableCopyIsIndependent(t *testing.T) {
	v := NewValueTable(chainMDP().States())
	require.Equal(t, 5, v.Len())
	v.Set(testState("S0"), 1)
	c := v.Copy()
	c.Set(testState("S0"), 2)
	require.Equal(t, 1.0, v.Get(testState("S0")))
	require.Equal(t, 2.0, c.Map()["S0"])
	require.Zero(t, v.Get(testState("unknown")))
}

func TestEGreedyExploresWithFullEpsilon(t *testing.T) {
	m := chainMDP()
	q := NewQTable(m)
	s := testState("S0")
	require.NoError(t, q.Set(s, testAction("left"), 10))

	e := NewEGreedy(rand.New(rand.NewSource(1)))
	seen := make(map[string]int)
	for i := 0; i < 200; i++ {
		a, err := e.Pick(q, s, m.LegalActions(s), 1)
		require.NoError(t, err)
		seen[a.Hash()]++
	}
	require.Len(t, seen, 2)

	for i := 0; i < 50; i++ {
		a, err := e.Pick(q, s, m.LegalActions(s), 0)
		require.NoError(t, err)
		require.Equal(t, "left", a.Hash())
	}

	_, err := e.Pick(q, testState("T1"), nil, 0)
	require.True(t, errors.Is(err, core.ErrNoLegalActions))
}

func TestSoftMaxPrefersHigherValues(t *testing.T) {
	m := chainMDP()
	q := NewQTable(m)
	s := testState("S0")
	require.NoError(t, q.Set(s, testAction("right"), 5))

	sm := NewSoftMax(0.5, rand.NewSource(1))
	counts := make(map[string]int)
	for i := 0; i < 500; i++ {
		a, err := sm.Pick(q, s, m.LegalActions(s), 0)
		require.NoError(t, err)
		counts[a.Hash()]++
	}
	require.Greater(t, counts["right"], counts["left"])
}

func TestRandomPolicyIsLegalAndReproducible(t *testing.T) {
	m := chainMDP()
	r := NewRandom(m, 9)
	first, err := r.Train()
	require.NoError(t, err)
	require.Equal(t, 3, first.Len())
	for _, s := range first.States() {
		a, _ := first.ActionFor(s)
		require.True(t, isLegal(m, s, a))
	}
	r.Reset()
	second, err := r.Train()
	require.NoError(t, err)
	require.Equal(t, first.Map(), second.Map())
}

func TestUCBTriesEveryActionFirst(t *testing.T) {
	m := chainMDP()
	q := NewQTable(m)
	s := testState("S0")
	require.NoError(t, q.Set(s, testAction("left"), 10))

	u := NewUCB(1)
	first, err := u.Pick(q, s, m.LegalActions(s), 0)
	require.NoError(t, err)
	second, err := u.Pick(q, s, m.LegalActions(s), 0)
	require.NoError(t, err)
	require.Equal(t, "left", first.Hash())
	require.Equal(t, "right", second.Hash())

	// afterwards the far better action wins
	for i := 0; i < 10; i++ {
		a, err := u.Pick(q, s, m.LegalActions(s), 0)
		require.NoError(t, err)
		require.Equal(t, "left", a.Hash())
	}

	u.Reset()
	a, err := u.Pick(q, testState("S1"), m.LegalActions(testState("S1")), 0)
	require.NoError(t, err)
	require.Equal(t, "a", a.Hash())
}
