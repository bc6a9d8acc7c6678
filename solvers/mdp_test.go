package solvers

import (
	"github.com/pkg/errors"
	"github.com/zeu5/tictactoe-rl/core"
)

type testState string

func (s testState) Hash() string { return string(s) }

type testAction string

func (a testAction) Hash() string { return string(a) }

// testMDP is a hand built model. States keep insertion order.
type testMDP struct {
	states      []core.State
	terminal    map[string]bool
	actions     map[string][]core.Action
	transitions map[string]map[string][]core.Transition
}

func newTestMDP() *testMDP {
	return &testMDP{
		terminal:    make(map[string]bool),
		actions:     make(map[string][]core.Action),
		transitions: make(map[string]map[string][]core.Transition),
	}
}

func (m *testMDP) state(name string, terminal bool) *testMDP {
	m.states = append(m.states, testState(name))
	m.terminal[name] = terminal
	m.transitions[name] = make(map[string][]core.Transition)
	return m
}

func (m *testMDP) edge(s, a string, prob, reward float64, next string) *testMDP {
	if _, ok := m.transitions[s][a]; !ok {
		m.actions[s] = append(m.actions[s], testAction(a))
	}
	m.transitions[s][a] = append(m.transitions[s][a], core.Transition{
		Prob: prob,
		Outcome: core.Outcome{
			State:     testState(s),
			Action:    testAction(a),
			Reward:    reward,
			NextState: testState(next),
		},
	})
	return m
}

func (m *testMDP) States() []core.State { return m.states }

func (m *testMDP) IsTerminal(s core.State) bool { return m.terminal[s.Hash()] }

func (m *testMDP) LegalActions(s core.State) []core.Action { return m.actions[s.Hash()] }

func (m *testMDP) Transitions(s core.State, a core.Action) ([]core.Transition, error) {
	t, ok := m.transitions[s.Hash()][a.Hash()]
	if !ok {
		return nil, errors.Wrapf(core.ErrIllegalMove, "%s in %s", a.Hash(), s.Hash())
	}
	return t, nil
}

// twoActionMDP: S0 has A1 -> T1 (+1) and A2 -> T2 (-1)
func twoActionMDP() *testMDP {
	return newTestMDP().
		state("S0", false).
		state("T1", true).
		state("T2", true).
		edge("S0", "A1", 1, 1, "T1").
		edge("S0", "A2", 1, -1, "T2")
}

// chainMDP is deterministic with optimal policy S0->left, S1->a, S2->a
// under gamma 0.9: V(S2)=2, V(S1)=5, V(S0)=4.5
func chainMDP() *testMDP {
	return newTestMDP().
		state("S0", false).
		state("S1", false).
		state("S2", false).
		state("T1", true).
		state("T2", true).
		edge("S0", "left", 1, 0, "S1").
		edge("S0", "right", 1, 0, "S2").
		edge("S1", "a", 1, 5, "T1").
		edge("S1", "b", 1, 0, "S2").
		edge("S2", "a", 1, 2, "T1").
		edge("S2", "b", 1, -1, "T2")
}

// stochasticMDP has cycles and random outcomes
func stochasticMDP() *testMDP {
	return newTestMDP().
		state("S0", false).
		state("S1", false).
		state("S2", false).
		state("T", true).
		edge("S0", "stay", 0.5, 1, "S0").
		edge("S0", "stay", 0.5, 0, "S1").
		edge("S0", "jump", 0.2, 3, "S2").
		edge("S0", "jump", 0.8, -1, "T").
		edge("S1", "go", 0.7, 2, "S2").
		edge("S1", "go", 0.3, 0, "S0").
		edge("S1", "quit", 1, 0.5, "T").
		edge("S2", "go", 0.6, 1, "T").
		edge("S2", "go", 0.4, -2, "S1")
}
