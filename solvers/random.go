package solvers

import (
	"github.com/zeu5/tictactoe-rl/core"
	"golang.org/x/exp/rand"
)

// RandomPolicy assigns a uniformly random legal action to every non-terminal
// state of the space, visiting states in space order so that a given source
// always yields the same policy.
func RandomPolicy(space core.StateSpace, rnd *rand.Rand) *core.Policy {
	policy := core.NewPolicy()
	for _, s := range space.States() {
		actions := space.LegalActions(s)
		if space.IsTerminal(s) || len(actions) == 0 {
			continue
		}
		policy.Set(s, actions[rnd.Intn(len(actions))])
	}
	return policy
}

// Random is a baseline trainer that returns a random legal policy
type Random struct {
	space core.StateSpace
	seed  uint64
	rand  *rand.Rand
}

var _ core.Trainer = &Random{}

func NewRandom(space core.StateSpace, seed uint64) *Random {
	return &Random{
		space: space,
		seed:  seed,
		rand:  rand.New(rand.NewSource(seed)),
	}
}

func (r *Random) Name() string {
	return "random"
}

// Reset restarts the random stream from the seed
func (r *Random) Reset() {
	r.rand = rand.New(rand.NewSource(r.seed))
}

func (r *Random) Train() (*core.Policy, error) {
	return RandomPolicy(r.space, r.rand), nil
}

type RandomConstructor struct {
	Space core.StateSpace
	Seed  uint64
}

func (r *RandomConstructor) NewTrainer() (core.Trainer, error) {
	return NewRandom(r.Space, r.Seed), nil
}
