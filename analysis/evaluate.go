package analysis

import (
	"github.com/pkg/errors"
	"github.com/zeu5/tictactoe-rl/core"
	"gonum.org/v1/gonum/stat"
)

type GameResult int

const (
	Loss GameResult = iota
	Draw
	Win
)

func (r GameResult) String() string {
	switch r {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "loss"
	}
}

// Judge decides the result of a finished game from its final state and the
// return collected by the agent.
type Judge func(final core.State, ret float64) GameResult

// ReturnJudge counts positive returns as wins and negative returns as losses
func ReturnJudge(_ core.State, ret float64) GameResult {
	switch {
	case ret > 0:
		return Win
	case ret < 0:
		return Loss
	}
	return Draw
}

// maxGameSteps bounds a single evaluation game
const maxGameSteps = 1000

type Evaluation struct {
	Games  int `json:"games"`
	Wins   int `json:"wins"`
	Draws  int `json:"draws"`
	Losses int `json:"losses"`

	MeanReturn float64 `json:"mean_return"`
	StdReturn  float64 `json:"std_return"`
}

func (e *Evaluation) WinRate() float64 {
	if e.Games == 0 {
		return 0
	}
	return float64(e.Wins) / float64(e.Games)
}

// Evaluate plays games in the environment following the policy until a
// terminal state of the space is reached and tallies the results. A
// non-terminal state without an action in the policy is an error. A nil judge
// falls back to ReturnJudge.
func Evaluate(space core.StateSpace, policy *core.Policy, env core.Environment, games int, judge Judge) (*Evaluation, error) {
	if judge == nil {
		judge = ReturnJudge
	}
	out := &Evaluation{}
	returns := make([]float64, 0, games)
	for game := 0; game < games; game++ {
		s, err := env.Reset()
		if err != nil {
			return nil, errors.Wrapf(err, "resetting environment for game %d", game)
		}
		ret := float64(0)
		for step := 0; !space.IsTerminal(s); step++ {
			if step >= maxGameSteps {
				return nil, errors.Errorf("game %d did not finish within %d steps", game, maxGameSteps)
			}
			a, ok := policy.ActionFor(s)
			if !ok {
				return nil, errors.Wrapf(core.ErrUnknownState, "policy has no action for %s", s.Hash())
			}
			o, err := env.ExecuteMove(a)
			if err != nil {
				return nil, errors.WithMessagef(err, "game %d step %d", game, step)
			}
			ret += o.Reward
			s = o.NextState
		}
		switch judge(s, ret) {
		case Win:
			out.Wins++
		case Draw:
			out.Draws++
		default:
			out.Losses++
		}
		returns = append(returns, ret)
		out.Games++
	}
	switch {
	case len(returns) > 1:
		out.MeanReturn, out.StdReturn = stat.MeanStdDev(returns, nil)
	case len(returns) == 1:
		out.MeanReturn = returns[0]
	}
	return out, nil
}
