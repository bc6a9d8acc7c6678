package tictactoe

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/zeu5/tictactoe-rl/analysis"
	"github.com/zeu5/tictactoe-rl/core"
	"github.com/zeu5/tictactoe-rl/util"
)

// SavePolicy writes the policy as a JSON object from game hash to cell
func SavePolicy(path string, policy *core.Policy) error {
	return util.SaveJson(path, policy.Map())
}

// ReadPolicy loads a policy written by SavePolicy
func ReadPolicy(path string) (*core.Policy, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "error reading file")
	}
	m := make(map[string]string)
	if err := json.Unmarshal(bs, &m); err != nil {
		return nil, errors.Wrap(err, "error reading file contents")
	}
	return PolicyFromMap(m)
}

// PolicyFromMap parses game and move hashes. Every move must be legal in its
// game.
func PolicyFromMap(m map[string]string) (*core.Policy, error) {
	policy := core.NewPolicy()
	for state, action := range m {
		g, err := ParseGame(state)
		if err != nil {
			return nil, err
		}
		cell, err := strconv.Atoi(action)
		if err != nil {
			return nil, errors.Wrapf(core.ErrIllegalMove, "move %q in game %s", action, state)
		}
		mv := Move{Cell: cell}
		if !g.IsLegal(mv) {
			return nil, errors.Wrapf(core.ErrIllegalMove, "move %s in game %s", mv, state)
		}
		policy.Set(g, mv)
	}
	return policy, nil
}

// Judge reads the result for X off the final board
func Judge(final core.State, _ float64) analysis.GameResult {
	g, ok := final.(Game)
	if !ok {
		return analysis.Loss
	}
	switch g.Winner() {
	case X:
		return analysis.Win
	case O:
		return analysis.Loss
	}
	return analysis.Draw
}
