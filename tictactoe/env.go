package tictactoe

import (
	"github.com/pkg/errors"
	"github.com/zeu5/tictactoe-rl/core"
	"golang.org/x/exp/rand"
)

// Opponent chooses O's reply
type Opponent interface {
	Reply(Game) (Move, error)
}

// RandomOpponent replies with a uniformly random legal move
type RandomOpponent struct {
	rand *rand.Rand
}

var _ Opponent = &RandomOpponent{}

func NewRandomOpponent(src rand.Source) *RandomOpponent {
	return &RandomOpponent{rand: rand.New(src)}
}

func (r *RandomOpponent) Reply(g Game) (Move, error) {
	moves := g.Moves()
	if len(moves) == 0 {
		return Move{}, errors.Wrapf(core.ErrNoLegalActions, "game %s", g.Hash())
	}
	return moves[r.rand.Intn(len(moves))], nil
}

// FirstMoveOpponent always plays the lowest free cell
type FirstMoveOpponent struct{}

var _ Opponent = FirstMoveOpponent{}

func (FirstMoveOpponent) Reply(g Game) (Move, error) {
	moves := g.Moves()
	if len(moves) == 0 {
		return Move{}, errors.Wrapf(core.ErrNoLegalActions, "game %s", g.Hash())
	}
	return moves[0], nil
}

// PolicyOpponent plays O with a policy trained for X by looking up the
// mirrored position. Positions the policy does not know are answered by the
// fallback.
type PolicyOpponent struct {
	policy   *core.Policy
	fallback Opponent
}

var _ Opponent = &PolicyOpponent{}

func NewPolicyOpponent(policy *core.Policy, fallback Opponent) *PolicyOpponent {
	return &PolicyOpponent{
		policy:   policy,
		fallback: fallback,
	}
}

func (p *PolicyOpponent) Reply(g Game) (Move, error) {
	if a, ok := p.policy.ActionFor(g.Mirror()); ok {
		if mv, ok := a.(Move); ok && g.IsLegal(mv) {
			return mv, nil
		}
	}
	if p.fallback == nil {
		return Move{}, errors.Wrapf(core.ErrUnknownState, "policy has no reply for %s", g.Hash())
	}
	return p.fallback.Reply(g)
}

// Env is a game of X against an Opponent
type Env struct {
	rewards  Rewards
	opponent Opponent
	game     Game
}

var _ core.Environment = &Env{}

func NewEnv(rewards Rewards, opponent Opponent) *Env {
	return &Env{
		rewards:  rewards,
		opponent: opponent,
		game:     NewGame(),
	}
}

func (e *Env) Reset() (core.State, error) {
	e.game = NewGame()
	return e.game, nil
}

func (e *Env) CurrentState() core.State {
	return e.game
}

// ExecuteMove plays X's move and the opponent's reply, if the game is not
// over yet.
func (e *Env) ExecuteMove(a core.Action) (core.Outcome, error) {
	mv, ok := a.(Move)
	if !ok {
		return core.Outcome{}, errors.Wrapf(core.ErrIllegalMove, "%T is not a tictactoe move", a)
	}
	start := e.game
	next, err := start.Play(mv)
	if err != nil {
		return core.Outcome{}, err
	}
	if !next.IsTerminal() {
		reply, err := e.opponent.Reply(next)
		if err != nil {
			return core.Outcome{}, errors.WithMessage(err, "opponent reply")
		}
		next, err = next.Play(reply)
		if err != nil {
			return core.Outcome{}, errors.WithMessage(err, "opponent reply")
		}
	}
	e.game = next
	return core.Outcome{
		State:     start,
		Action:    mv,
		Reward:    e.rewards.Reward(next),
		NextState: next,
	}, nil
}
