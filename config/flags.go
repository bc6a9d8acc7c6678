// Package config holds the options of the command line tool.
package config

import (
	"path"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/zeu5/tictactoe-rl/solvers"
	"github.com/zeu5/tictactoe-rl/tictactoe"
	"github.com/zeu5/tictactoe-rl/util"
)

var ErrInvalidFlags = errors.New("invalid flags")

type Flags struct {
	SavePath string
	Seed     uint64
	Debug    bool
	// Opponent playing O in the environment, "random" or "first"
	Opponent string
	// Saved policy that plays O where it knows the mirrored position,
	// falling back to Opponent elsewhere
	OpponentPolicy string

	SolverFlags
	LearningFlags
	RunFlags
	Rewards tictactoe.Rewards
}

type SolverFlags struct {
	Gamma           float64
	Delta           float64
	MaxSweeps       int
	MaxEvalSweeps   int
	MaxIterations   int
	ExactEvaluation bool
}

type LearningFlags struct {
	Alpha           float64
	Epsilon         float64
	EpsilonDecay    float64
	MinEpsilon      float64
	Episodes        int
	MaxEpisodeSteps int
	// Temperature of the softmax explorer, 0 selects epsilon-greedy
	Temperature float64
	// Exploration constant of the UCB explorer, takes precedence over
	// Temperature when positive
	UCBConstant float64
}

type RunFlags struct {
	NumRuns     int
	ReportEvery int
	// Games played with every trained policy after training
	EvalGames int
	// Episodes averaged in the returns chart
	ReturnsWindow int
	// Episodes before which no trace is written, negative disables traces
	TraceAfter int
}

func DefaultFlags() *Flags {
	params := solvers.DefaultParams()
	return &Flags{
		SavePath: "results",
		Seed:     0,
		Debug:    false,
		Opponent: "random",
		SolverFlags: SolverFlags{
			Gamma:           params.Gamma,
			Delta:           params.Delta,
			MaxSweeps:       params.MaxSweeps,
			MaxEvalSweeps:   params.MaxEvalSweeps,
			MaxIterations:   params.MaxIterations,
			ExactEvaluation: false,
		},
		LearningFlags: LearningFlags{
			Alpha:           params.Alpha,
			Epsilon:         params.Epsilon,
			EpsilonDecay:    params.EpsilonDecay,
			MinEpsilon:      params.MinEpsilon,
			Episodes:        params.Episodes,
			MaxEpisodeSteps: params.MaxEpisodeSteps,
			Temperature:     0,
			UCBConstant:     0,
		},
		RunFlags: RunFlags{
			NumRuns:       1,
			ReportEvery:   100,
			EvalGames:     1000,
			ReturnsWindow: 50,
			TraceAfter:    -1,
		},
		Rewards: tictactoe.DefaultRewards(),
	}
}

// AddFlags binds the fields to the flag set, using the current values as
// defaults.
func (f *Flags) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.SavePath, "save-path", f.SavePath, "Path to save results")
	fs.Uint64Var(&f.Seed, "seed", f.Seed, "Seed of every random source")
	fs.BoolVar(&f.Debug, "debug", f.Debug, "Enable debug logs")
	fs.StringVar(&f.Opponent, "opponent", f.Opponent, "Opponent playing O: random or first")
	fs.StringVar(&f.OpponentPolicy, "opponent-policy", f.OpponentPolicy, "Saved policy played by O on mirrored positions")

	fs.Float64Var(&f.Gamma, "gamma", f.Gamma, "Discount factor")
	fs.Float64Var(&f.Delta, "delta", f.Delta, "Convergence threshold")
	fs.IntVar(&f.MaxSweeps, "max-sweeps", f.MaxSweeps, "Maximum value iteration sweeps")
	fs.IntVar(&f.MaxEvalSweeps, "max-eval-sweeps", f.MaxEvalSweeps, "Maximum policy evaluation sweeps")
	fs.IntVar(&f.MaxIterations, "max-iterations", f.MaxIterations, "Maximum policy iteration rounds")
	fs.BoolVar(&f.ExactEvaluation, "exact-evaluation", f.ExactEvaluation, "Evaluate policies by solving the linear system")

	fs.Float64Var(&f.Alpha, "alpha", f.Alpha, "Learning rate")
	fs.Float64Var(&f.Epsilon, "epsilon", f.Epsilon, "Exploration rate")
	fs.Float64Var(&f.EpsilonDecay, "epsilon-decay", f.EpsilonDecay, "Multiplicative exploration decay per episode")
	fs.Float64Var(&f.MinEpsilon, "min-epsilon", f.MinEpsilon, "Lower bound of the exploration rate")
	fs.IntVar(&f.Episodes, "episodes", f.Episodes, "Number of episodes")
	fs.IntVar(&f.MaxEpisodeSteps, "max-episode-steps", f.MaxEpisodeSteps, "Maximum steps of an episode")
	fs.Float64Var(&f.Temperature, "temperature", f.Temperature, "Softmax exploration temperature, 0 for epsilon-greedy")
	fs.Float64Var(&f.UCBConstant, "ucb", f.UCBConstant, "UCB exploration constant, 0 to disable")

	fs.IntVar(&f.NumRuns, "num-runs", f.NumRuns, "Number of runs")
	fs.IntVar(&f.ReportEvery, "report-every", f.ReportEvery, "Episodes between progress updates")
	fs.IntVar(&f.EvalGames, "eval-games", f.EvalGames, "Games played to evaluate each policy")
	fs.IntVar(&f.ReturnsWindow, "returns-window", f.ReturnsWindow, "Moving average window of the returns chart")
	fs.IntVar(&f.TraceAfter, "trace-after", f.TraceAfter, "Write episode traces from this episode on, negative to disable")

	fs.Float64Var(&f.Rewards.Win, "reward-win", f.Rewards.Win, "Reward for winning")
	fs.Float64Var(&f.Rewards.Lose, "reward-lose", f.Rewards.Lose, "Reward for losing")
	fs.Float64Var(&f.Rewards.Draw, "reward-draw", f.Rewards.Draw, "Reward for a draw")
	fs.Float64Var(&f.Rewards.Living, "reward-living", f.Rewards.Living, "Reward for every other move")
}

// SolverParams converts the flags into solver parameters logging to logger
func (f *Flags) SolverParams(logger zerolog.Logger) solvers.Params {
	return solvers.Params{
		Gamma:           f.Gamma,
		Delta:           f.Delta,
		MaxSweeps:       f.MaxSweeps,
		MaxEvalSweeps:   f.MaxEvalSweeps,
		MaxIterations:   f.MaxIterations,
		ExactEvaluation: f.ExactEvaluation,
		Alpha:           f.Alpha,
		Epsilon:         f.Epsilon,
		EpsilonDecay:    f.EpsilonDecay,
		MinEpsilon:      f.MinEpsilon,
		Episodes:        f.Episodes,
		MaxEpisodeSteps: f.MaxEpisodeSteps,
		Logger:          logger,
	}
}

func (f *Flags) Validate() error {
	if err := f.SolverParams(zerolog.Nop()).Validate(); err != nil {
		return err
	}
	switch {
	case f.SavePath == "":
		return errors.Wrap(ErrInvalidFlags, "save path is empty")
	case f.Opponent != "random" && f.Opponent != "first":
		return errors.Wrapf(ErrInvalidFlags, "unknown opponent %q", f.Opponent)
	case f.Temperature < 0:
		return errors.Wrapf(ErrInvalidFlags, "temperature %v is negative", f.Temperature)
	case f.UCBConstant < 0:
		return errors.Wrapf(ErrInvalidFlags, "ucb constant %v is negative", f.UCBConstant)
	case f.NumRuns < 1:
		return errors.Wrapf(ErrInvalidFlags, "num runs %d must be positive", f.NumRuns)
	case f.ReportEvery < 0 || f.EvalGames < 0 || f.ReturnsWindow < 0:
		return errors.Wrap(ErrInvalidFlags, "report, evaluation and window sizes must not be negative")
	}
	return nil
}

func (f *Flags) Record() error {
	return util.SaveJson(path.Join(f.SavePath, "config.json"), f)
}
