package core

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// ModelEnvironment plays a Model by sampling an outcome from its transition
// distribution on every move.
type ModelEnvironment struct {
	model Model
	start State
	src   rand.Source
	cur   State
}

var _ Environment = &ModelEnvironment{}

func NewModelEnvironment(model Model, start State, src rand.Source) *ModelEnvironment {
	return &ModelEnvironment{
		model: model,
		start: start,
		src:   src,
		cur:   start,
	}
}

func (m *ModelEnvironment) Reset() (State, error) {
	m.cur = m.start
	return m.cur, nil
}

func (m *ModelEnvironment) CurrentState() State {
	return m.cur
}

func (m *ModelEnvironment) ExecuteMove(a Action) (Outcome, error) {
	transitions, err := m.model.Transitions(m.cur, a)
	if err != nil {
		return Outcome{}, err
	}
	if err := CheckDistribution(m.cur, a, transitions); err != nil {
		return Outcome{}, err
	}
	weights := make([]float64, len(transitions))
	for i, t := range transitions {
		weights[i] = t.Prob
	}
	i, ok := sampleuv.NewWeighted(weights, m.src).Take()
	if !ok {
		return Outcome{}, errors.Wrapf(ErrBadDistribution, "sampling outcome of %s in %s", a.Hash(), m.cur.Hash())
	}
	o := transitions[i].Outcome
	m.cur = o.NextState
	return o, nil
}
