package tictactoe

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/zeu5/tictactoe-rl/core"
)

// Rewards are the rewards handed to X
type Rewards struct {
	Win    float64 `json:"win"`
	Lose   float64 `json:"lose"`
	Draw   float64 `json:"draw"`
	Living float64 `json:"living"`
}

func DefaultRewards() Rewards {
	return Rewards{
		Win:    10,
		Lose:   -10,
		Draw:   0,
		Living: 0,
	}
}

// Reward returns the reward for arriving in g
func (r Rewards) Reward(g Game) float64 {
	switch g.Winner() {
	case X:
		return r.Win
	case O:
		return r.Lose
	}
	if g.IsDraw() {
		return r.Draw
	}
	return r.Living
}

// MDP is the game seen by X when O answers every move with a uniformly
// random legal move. Its states are all games reachable from the empty board
// in which X is to move, plus all terminal games.
type MDP struct {
	rewards Rewards
	states  []core.State
}

var _ core.Model = &MDP{}

func NewMDP(rewards Rewards) *MDP {
	m := &MDP{rewards: rewards}
	m.states = generateStates()
	return m
}

func (m *MDP) Rewards() Rewards {
	return m.rewards
}

// States returns the reachable states ordered by hash
func (m *MDP) States() []core.State {
	out := make([]core.State, len(m.states))
	copy(out, m.states)
	return out
}

func (m *MDP) IsTerminal(s core.State) bool {
	return s.(Game).IsTerminal()
}

func (m *MDP) LegalActions(s core.State) []core.Action {
	moves := s.(Game).Moves()
	out := make([]core.Action, len(moves))
	for i, mv := range moves {
		out[i] = mv
	}
	return out
}

// Transitions plays the move for X and, unless the game ends, spreads the
// probability evenly over O's replies.
func (m *MDP) Transitions(s core.State, a core.Action) ([]core.Transition, error) {
	g, ok := s.(Game)
	if !ok {
		return nil, errors.Wrapf(core.ErrUnknownState, "%T is not a tictactoe game", s)
	}
	mv, ok := a.(Move)
	if !ok {
		return nil, errors.Wrapf(core.ErrIllegalMove, "%T is not a tictactoe move", a)
	}
	if g.Turn() != X {
		return nil, errors.Wrapf(core.ErrIllegalMove, "X is not to move in %s", g.Hash())
	}
	afterX, err := g.Play(mv)
	if err != nil {
		return nil, err
	}
	if afterX.IsTerminal() {
		return []core.Transition{{
			Prob:    1,
			Outcome: core.Outcome{State: g, Action: mv, Reward: m.rewards.Reward(afterX), NextState: afterX},
		}}, nil
	}
	replies := afterX.Moves()
	out := make([]core.Transition, len(replies))
	p := 1 / float64(len(replies))
	for i, reply := range replies {
		afterO, err := afterX.Play(reply)
		if err != nil {
			return nil, err
		}
		out[i] = core.Transition{
			Prob:    p,
			Outcome: core.Outcome{State: g, Action: mv, Reward: m.rewards.Reward(afterO), NextState: afterO},
		}
	}
	return out, nil
}

func generateStates() []core.State {
	seen := make(map[string]Game)
	var visit func(g Game)
	visit = func(g Game) {
		if _, ok := seen[g.Hash()]; ok {
			return
		}
		seen[g.Hash()] = g
		for _, mv := range g.Moves() {
			afterX, _ := g.Play(mv)
			if afterX.IsTerminal() {
				seen[afterX.Hash()] = afterX
				continue
			}
			for _, reply := range afterX.Moves() {
				afterO, _ := afterX.Play(reply)
				visit(afterO)
			}
		}
	}
	visit(NewGame())

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]core.State, len(keys))
	for i, k := range keys {
		out[i] = seen[k]
	}
	return out
}
