package core

// Trainer is anything that can produce a Policy by training.
type Trainer interface {
	Name() string
	Train() (*Policy, error)
	// Reset discards everything learned so far. The next call to Train
	// starts from scratch.
	Reset()
}

type TrainerConstructor interface {
	NewTrainer() (Trainer, error)
}

// Observable is a Trainer that reports its training episodes.
type Observable interface {
	Trainer
	// SetObserver replaces the observer notified after every episode. A nil
	// observer disables notifications.
	SetObserver(EpisodeObserver)
}
