package solvers

import (
	"math"

	"github.com/pkg/errors"
	"github.com/zeu5/tictactoe-rl/core"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Explorer picks the action to take while learning
type Explorer interface {
	Pick(q *QTable, s core.State, actions []core.Action, epsilon float64) (core.Action, error)
}

// EGreedy picks a uniformly random action with probability epsilon and
// otherwise a maximizer of the q-values, breaking ties uniformly at random.
type EGreedy struct {
	rand *rand.Rand
}

var _ Explorer = &EGreedy{}

func NewEGreedy(rnd *rand.Rand) *EGreedy {
	return &EGreedy{rand: rnd}
}

func (e *EGreedy) Pick(q *QTable, s core.State, actions []core.Action, epsilon float64) (core.Action, error) {
	if len(actions) == 0 {
		return nil, errors.Wrapf(core.ErrNoLegalActions, "state %s", s.Hash())
	}
	if e.rand.Float64() < epsilon {
		return actions[e.rand.Intn(len(actions))], nil
	}
	a, _, ok := q.MaxAmong(s, e.rand)
	if !ok {
		return nil, errors.Wrapf(core.ErrUnknownState, "state %s has no q-values", s.Hash())
	}
	return a, nil
}

// SoftMax samples actions with probability proportional to
// exp(Q(s,a) / Temperature). Epsilon is ignored.
type SoftMax struct {
	Temperature float64

	src rand.Source
}

var _ Explorer = &SoftMax{}

func NewSoftMax(temperature float64, src rand.Source) *SoftMax {
	return &SoftMax{
		Temperature: temperature,
		src:         src,
	}
}

func (s *SoftMax) Pick(q *QTable, state core.State, actions []core.Action, _ float64) (core.Action, error) {
	if len(actions) == 0 {
		return nil, errors.Wrapf(core.ErrNoLegalActions, "state %s", state.Hash())
	}
	vals := make([]float64, len(actions))
	largest := math.Inf(-1)
	for i, a := range actions {
		val, err := q.Get(state, a)
		if err != nil {
			return nil, err
		}
		vals[i] = val / s.Temperature
		if vals[i] > largest {
			largest = vals[i]
		}
	}

	// Normalizing
	weights := make([]float64, len(vals))
	sum := float64(0)
	for i, v := range vals {
		weights[i] = math.Exp(v - largest)
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	i, ok := sampleuv.NewWeighted(weights, s.src).Take()
	if !ok {
		return nil, errors.Errorf("sampling action in state %s", state.Hash())
	}
	return actions[i], nil
}

// UCB picks the action maximizing Q(s,a) + c sqrt(ln N(s) / n(s,a)) where N
// and n count earlier picks of the state and pair. Untried actions come
// first, in action order. Epsilon is ignored.
type UCB struct {
	Constant float64

	visits      map[string]map[string]int
	stateVisits map[string]int
}

var _ Explorer = &UCB{}

func NewUCB(constant float64) *UCB {
	u := &UCB{Constant: constant}
	u.Reset()
	return u
}

func (u *UCB) Reset() {
	u.visits = make(map[string]map[string]int)
	u.stateVisits = make(map[string]int)
}

func (u *UCB) Pick(q *QTable, s core.State, actions []core.Action, _ float64) (core.Action, error) {
	if len(actions) == 0 {
		return nil, errors.Wrapf(core.ErrNoLegalActions, "state %s", s.Hash())
	}
	key := s.Hash()
	if _, ok := u.visits[key]; !ok {
		u.visits[key] = make(map[string]int)
	}
	visits := u.visits[key]

	var best core.Action
	bestVal := math.Inf(-1)
	for _, a := range actions {
		n := visits[a.Hash()]
		if n == 0 {
			best = a
			break
		}
		val, err := q.Get(s, a)
		if err != nil {
			return nil, err
		}
		val += u.Constant * math.Sqrt(math.Log(float64(u.stateVisits[key]))/float64(n))
		if val > bestVal {
			best = a
			bestVal = val
		}
	}
	visits[best.Hash()]++
	u.stateVisits[key]++
	return best, nil
}
