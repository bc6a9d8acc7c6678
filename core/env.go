package core

// State is one configuration of the game together with the side to move.
// Two states are equal iff their hashes are equal.
type State interface {
	Hash() string
}

// Action is a move. It is only meaningful paired with the state it was
// generated from.
type Action interface {
	Hash() string
}

// Outcome is a single (s, a, r, s') transition.
type Outcome struct {
	State     State
	Action    Action
	Reward    float64
	NextState State
}

// Transition pairs an outcome with the probability of observing it.
type Transition struct {
	Prob    float64
	Outcome Outcome
}

// StateSpace enumerates the reachable states and the legal actions in each.
// LegalActions must return the same order on every call and must be empty iff
// the state is terminal.
type StateSpace interface {
	States() []State
	IsTerminal(State) bool
	LegalActions(State) []Action
}

// Model is a StateSpace with a known transition distribution.
type Model interface {
	StateSpace
	// Transitions returns the distribution over outcomes of taking the
	// action in the state. Only defined for legal pairs, otherwise it
	// returns ErrIllegalMove.
	Transitions(State, Action) ([]Transition, error)
}

// Environment is the interactive counterpart of a Model used for learning
// from simulated episodes.
type Environment interface {
	Reset() (State, error)
	CurrentState() State
	// ExecuteMove plays the action, lets the opponent respond and returns
	// the resulting outcome. Illegal actions return ErrIllegalMove.
	ExecuteMove(Action) (Outcome, error)
}

type EpisodeContext struct {
	Episode int
	Run     int
	// Epsilon is the exploration rate used during the episode, if any
	Epsilon float64

	Trace *Trace
}

func NewEpisodeContext(run, episode int) *EpisodeContext {
	return &EpisodeContext{
		Run:     run,
		Episode: episode,
		Trace:   NewTrace(),
	}
}

// EpisodeObserver is notified after every completed training episode.
type EpisodeObserver interface {
	ObserveEpisode(*EpisodeContext)
}

// EpisodeObserverFunc adapts a function to the EpisodeObserver interface
type EpisodeObserverFunc func(*EpisodeContext)

func (f EpisodeObserverFunc) ObserveEpisode(e *EpisodeContext) {
	f(e)
}
