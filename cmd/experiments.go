package cmd

import (
	"fmt"
	"io"
	"path"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/zeu5/tictactoe-rl/analysis"
	"github.com/zeu5/tictactoe-rl/core"
	"github.com/zeu5/tictactoe-rl/solvers"
	"github.com/zeu5/tictactoe-rl/tictactoe"
	"github.com/zeu5/tictactoe-rl/util"
	"golang.org/x/exp/rand"
)

const (
	valueIteration  = "value-iteration"
	policyIteration = "policy-iteration"
	qLearning       = "q-learning"
	randomBaseline  = "random"
)

var allExperiments = []string{valueIteration, policyIteration, qLearning, randomBaseline}

// Seeds of the independent random streams derived from flags.Seed
const (
	learnerStream = iota
	explorerStream
	trainingOpponentStream
	evaluationOpponentStream
)

func seed(stream uint64) uint64 {
	return flags.Seed*4 + stream
}

func newOpponent(seed uint64) (tictactoe.Opponent, error) {
	var opponent tictactoe.Opponent = tictactoe.NewRandomOpponent(rand.NewSource(seed))
	if flags.Opponent == "first" {
		opponent = tictactoe.FirstMoveOpponent{}
	}
	if flags.OpponentPolicy == "" {
		return opponent, nil
	}
	policy, err := tictactoe.ReadPolicy(flags.OpponentPolicy)
	if err != nil {
		return nil, errors.WithMessage(err, "opponent policy")
	}
	return tictactoe.NewPolicyOpponent(policy, opponent), nil
}

type comparisonSetup struct {
	comparison  *core.Comparison
	evaluations *analysis.EvaluationComparatorConstructor
	qLearners   map[string]*solvers.QLearning
}

func newTrainer(name string, mdp *tictactoe.MDP, params solvers.Params) (core.Trainer, error) {
	switch name {
	case valueIteration:
		return solvers.NewValueIteration(mdp, params)
	case policyIteration:
		return solvers.NewPolicyIteration(mdp, params, rand.NewSource(seed(learnerStream)))
	case qLearning:
		opponent, err := newOpponent(seed(trainingOpponentStream))
		if err != nil {
			return nil, err
		}
		env := tictactoe.NewEnv(mdp.Rewards(), opponent)
		q, err := solvers.NewQLearning(mdp, env, params, rand.NewSource(seed(learnerStream)))
		if err != nil {
			return nil, err
		}
		switch {
		case flags.UCBConstant > 0:
			q.SetExplorer(solvers.NewUCB(flags.UCBConstant))
		case flags.Temperature > 0:
			q.SetExplorer(solvers.NewSoftMax(flags.Temperature, rand.NewSource(seed(explorerStream))))
		}
		return q, nil
	case randomBaseline:
		return solvers.NewRandom(mdp, seed(learnerStream)), nil
	}
	return nil, errors.Errorf("unknown experiment %q", name)
}

func prepareComparison(experiments ...string) (*comparisonSetup, error) {
	start := time.Now()
	mdp := tictactoe.NewMDP(flags.Rewards)
	logger.Debug().Int("states", len(mdp.States())).Dur("duration", time.Since(start)).Msg("generated states")

	params := flags.SolverParams(logger)
	setup := &comparisonSetup{
		comparison: core.NewComparison(),
		qLearners:  make(map[string]*solvers.QLearning),
	}
	for _, name := range experiments {
		trainer, err := newTrainer(name, mdp, params.WithLogger(logger.With().Str("experiment", name).Logger()))
		if err != nil {
			return nil, errors.WithMessagef(err, "experiment %s", name)
		}
		if q, ok := trainer.(*solvers.QLearning); ok {
			setup.qLearners[name] = q
		}
		setup.comparison.AddExperiment(&core.Experiment{
			Name:    name,
			Trainer: trainer,
		})
	}

	setup.evaluations = analysis.NewEvaluationComparatorConstructor(
		flags.SavePath,
		mdp,
		func() (core.Environment, error) {
			opponent, err := newOpponent(seed(evaluationOpponentStream))
			if err != nil {
				return nil, err
			}
			return tictactoe.NewEnv(mdp.Rewards(), opponent), nil
		},
		flags.EvalGames,
		tictactoe.Judge,
		logger,
	)
	setup.comparison.AddAnalysis("evaluation", nil, setup.evaluations)
	setup.comparison.AddAnalysis("agreement", nil, analysis.NewAgreementComparatorConstructor(flags.SavePath))
	setup.comparison.AddAnalysis(
		analysis.ReturnsAnalysis,
		analysis.NewReturnsAnalyzerConstructor(),
		analysis.NewReturnsComparatorConstructor(flags.SavePath, flags.ReturnsWindow),
	)
	setup.comparison.AddAnalysis(
		"events",
		analysis.NewEventAnalyzerConstructor(flags.SavePath, analysis.ResultEvents(tictactoe.Judge)...),
		analysis.NewEventComparatorConstructor(flags.SavePath, "events"),
	)
	setup.comparison.AddAnalysis(
		"errors",
		analysis.NewErrorAnalyzerConstructor(flags.SavePath),
		analysis.NewErrorComparatorConstructor(flags.SavePath),
	)
	if flags.TraceAfter >= 0 {
		setup.comparison.AddAnalysis(
			"traces",
			analysis.NewTraceAnalyzerConstructor(flags.SavePath, flags.TraceAfter),
			analysis.NewNoOpComparatorConstructor(),
		)
	}
	return setup, nil
}

// runExperiments trains the experiments with live progress on out and prints
// the evaluation of every trained policy.
func runExperiments(out io.Writer, experiments ...string) error {
	setup, err := prepareComparison(experiments...)
	if err != nil {
		return err
	}

	ctx, done := signalContext()
	defer done()

	printer := util.NewTerminalPrinter(out, 200*time.Millisecond)
	progress := printer.NewOutput()
	printer.Start(ctx)

	err = setup.comparison.Run(ctx, &core.RunConfig{
		Runs:        flags.NumRuns,
		ReportEvery: flags.ReportEvery,
		Logger:      logger,
		Progress:    progress,
	})
	printer.Stop()
	if err != nil {
		return err
	}

	for name, q := range setup.qLearners {
		file := path.Join(flags.SavePath, fmt.Sprintf("qtable_%s.jsonl", name))
		if err := q.QTable().Record(file); err != nil {
			return errors.WithMessagef(err, "saving q-table of %s", name)
		}
		logger.Info().Str("file", file).Msg("saved q-table")
	}
	printEvaluations(out, setup.evaluations.Evaluations())
	return nil
}

func printEvaluations(out io.Writer, evaluations map[int]map[string]*analysis.Evaluation) {
	if len(evaluations) == 0 {
		return
	}
	runs := make([]int, 0, len(evaluations))
	for run := range evaluations {
		runs = append(runs, run)
	}
	sort.Ints(runs)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tEXPERIMENT\tGAMES\tWINS\tDRAWS\tLOSSES\tWIN RATE\tMEAN RETURN")
	for _, run := range runs {
		names := make([]string, 0, len(evaluations[run]))
		for name := range evaluations[run] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			e := evaluations[run][name]
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\t%.3f\t%.3f\n",
				run, name, e.Games, e.Wins, e.Draws, e.Losses, e.WinRate(), e.MeanReturn)
		}
	}
	w.Flush()
}
