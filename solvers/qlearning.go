package solvers

import (
	"math"

	"github.com/pkg/errors"
	"github.com/zeu5/tictactoe-rl/core"
	"golang.org/x/exp/rand"
)

var ErrEpisodeTooLong = errors.New("episode exceeded the step limit")

// QLearning learns a QTable from episodes played in an environment and
// derives a greedy policy from it.
type QLearning struct {
	space  core.StateSpace
	env    core.Environment
	params Params

	qTable   *QTable
	explorer Explorer
	rand     *rand.Rand
	epsilon  float64

	observer core.EpisodeObserver
}

var _ core.Observable = &QLearning{}

// NewQLearning creates a learner whose q-values for every legal pair of the
// space start at 0. Exploration defaults to EGreedy drawing from src.
func NewQLearning(space core.StateSpace, env core.Environment, params Params, src rand.Source) (*QLearning, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := core.ValidateStateSpace(space); err != nil {
		return nil, errors.WithMessage(err, "q-learning")
	}
	rnd := rand.New(src)
	return &QLearning{
		space:    space,
		env:      env,
		params:   params,
		qTable:   NewQTable(space),
		explorer: NewEGreedy(rnd),
		rand:     rnd,
		epsilon:  params.Epsilon,
	}, nil
}

func (q *QLearning) Name() string {
	return "q-learning"
}

func (q *QLearning) SetExplorer(e Explorer) {
	q.explorer = e
}

func (q *QLearning) SetObserver(o core.EpisodeObserver) {
	q.observer = o
}

// Reset sets all q-values back to 0 and restores the initial exploration rate.
// Explorers keeping their own statistics are reset too.
func (q *QLearning) Reset() {
	q.qTable.Reset()
	q.epsilon = q.params.Epsilon
	if r, ok := q.explorer.(interface{ Reset() }); ok {
		r.Reset()
	}
}

// SelectAction picks the action to play in s using the explorer
func (q *QLearning) SelectAction(s core.State) (core.Action, error) {
	return q.explorer.Pick(q.qTable, s, q.space.LegalActions(s), q.epsilon)
}

// Update applies the temporal difference update for the outcome:
//
//	Q(s,a) <- (1-alpha) Q(s,a) + alpha (r + gamma max_a' Q(s',a'))
//
// where the max is 0 when s' is terminal.
func (q *QLearning) Update(o core.Outcome) error {
	cur, err := q.qTable.Get(o.State, o.Action)
	if err != nil {
		return err
	}
	next := float64(0)
	if !q.space.IsTerminal(o.NextState) {
		if !q.qTable.HasState(o.NextState) {
			return errors.Wrapf(core.ErrUnknownState, "successor %s", o.NextState.Hash())
		}
		next = q.qTable.Max(o.NextState)
	}
	val := (1-q.params.Alpha)*cur + q.params.Alpha*(o.Reward+q.params.Gamma*next)
	return q.qTable.Set(o.State, o.Action, val)
}

// RunEpisode plays from the environment's current state until a terminal
// state is reached, updating the table after every move.
func (q *QLearning) RunEpisode(eCtx *core.EpisodeContext) error {
	s := q.env.CurrentState()
	for step := 0; !q.space.IsTerminal(s); step++ {
		if q.params.MaxEpisodeSteps > 0 && step >= q.params.MaxEpisodeSteps {
			return errors.Wrapf(ErrEpisodeTooLong, "episode %d", eCtx.Episode)
		}
		a, err := q.SelectAction(s)
		if err != nil {
			return errors.WithMessagef(err, "episode %d step %d", eCtx.Episode, step)
		}
		o, err := q.env.ExecuteMove(a)
		if err != nil {
			return errors.WithMessagef(err, "episode %d step %d", eCtx.Episode, step)
		}
		if err := q.Update(o); err != nil {
			return errors.WithMessagef(err, "episode %d step %d", eCtx.Episode, step)
		}
		eCtx.Trace.AddStep(&core.Step{Outcome: o})
		s = o.NextState
	}
	return nil
}

// Train plays Params.Episodes episodes and returns the greedy policy of the
// learned table. Any environment error, including ErrIllegalMove, aborts
// training.
func (q *QLearning) Train() (*core.Policy, error) {
	if _, err := q.env.Reset(); err != nil {
		return nil, errors.Wrap(err, "resetting environment")
	}
	for episode := 0; episode < q.params.Episodes; episode++ {
		eCtx := core.NewEpisodeContext(0, episode)
		eCtx.Epsilon = q.epsilon

		err := q.RunEpisode(eCtx)
		if err != nil {
			eCtx.Trace.SetError(err)
		}
		if q.observer != nil {
			q.observer.ObserveEpisode(eCtx)
		}
		if err != nil {
			return nil, err
		}

		q.epsilon = math.Max(q.params.MinEpsilon, q.epsilon*q.params.EpsilonDecay)
		if _, err := q.env.Reset(); err != nil {
			return nil, errors.Wrapf(err, "resetting environment after episode %d", episode)
		}
	}
	q.params.Logger.Debug().Int("episodes", q.params.Episodes).Float64("epsilon", q.epsilon).Msg("q-learning finished")
	return q.ExtractPolicy(), nil
}

// ExtractPolicy maps every state of the table to its highest valued action.
// Ties go to the action listed first by the state space.
func (q *QLearning) ExtractPolicy() *core.Policy {
	policy := core.NewPolicy()
	for _, s := range q.qTable.States() {
		if a, _, ok := q.qTable.ArgMax(s); ok {
			policy.Set(s, a)
		}
	}
	return policy
}

func (q *QLearning) QTable() *QTable {
	return q.qTable
}

// Epsilon returns the current exploration rate
func (q *QLearning) Epsilon() float64 {
	return q.epsilon
}

type QLearningConstructor struct {
	Space  core.StateSpace
	Env    core.Environment
	Params Params
	Seed   uint64
}

var _ core.TrainerConstructor = &QLearningConstructor{}

func (c *QLearningConstructor) NewTrainer() (core.Trainer, error) {
	return NewQLearning(c.Space, c.Env, c.Params, rand.NewSource(c.Seed))
}
