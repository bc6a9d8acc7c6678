package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
)

var ErrCancelled = errors.New("comparison cancelled")

type experimentRunContext struct {
	run       int
	analyzers map[string]Analyzer

	*RunConfig
}

func (e *Experiment) run(ctx *experimentRunContext) *ExperimentResult {
	result := &ExperimentResult{
		Name:     e.Name,
		Run:      ctx.run,
		Datasets: make(map[string]DataSet),
	}
	e.Trainer.Reset()

	if o, ok := e.Trainer.(Observable); ok {
		o.SetObserver(EpisodeObserverFunc(func(eCtx *EpisodeContext) {
			eCtx.Run = ctx.run
			result.Episodes++
			for _, a := range ctx.analyzers {
				a.Analyze(eCtx)
			}
			if ctx.Progress != nil && ctx.ReportEvery > 0 && result.Episodes%ctx.ReportEvery == 0 {
				fmt.Fprintf(
					ctx.Progress,
					"Experiment: %s, Run %d, Episode %d, Return: %.2f, Epsilon: %.3f\n",
					e.Name, ctx.run, eCtx.Episode, eCtx.Trace.Return(), eCtx.Epsilon,
				)
			}
		}))
		defer o.SetObserver(nil)
	}

	start := time.Now()
	policy, err := e.Trainer.Train()
	result.Duration = time.Since(start)
	result.Policy = policy
	result.Error = err

	if err != nil {
		ctx.Logger.Error().Err(err).Str("experiment", e.Name).Int("run", ctx.run).Msg("training failed")
	} else {
		ctx.Logger.Info().
			Str("experiment", e.Name).
			Int("run", ctx.run).
			Int("states", policy.Len()).
			Int("episodes", result.Episodes).
			Dur("duration", result.Duration).
			Msg("training finished")
	}

	for name, a := range ctx.analyzers {
		result.Datasets[name] = a.DataSet()
	}
	return result
}

// Run trains every experiment sequentially, once per run, and hands the
// results of each run to the comparators. The context is only checked
// between experiments.
func (c *Comparison) Run(ctx context.Context, rConfig *RunConfig) error {
	runs := rConfig.Runs
	if runs <= 0 {
		runs = 1
	}
	for run := 0; run < runs; run++ {
		results := make([]*ExperimentResult, 0, len(c.Experiments))

		for _, e := range c.Experiments {
			select {
			case <-ctx.Done():
				return ErrCancelled
			default:
			}
			eCtx := &experimentRunContext{
				run:       run,
				analyzers: make(map[string]Analyzer),
				RunConfig: rConfig,
			}
			for name, aC := range c.Analyzers {
				if aC == nil {
					continue
				}
				eCtx.analyzers[name] = aC.NewAnalyzer(e.Name, run)
			}
			results = append(results, e.run(eCtx))
		}

		names := make([]string, len(results))
		for i, r := range results {
			names[i] = r.Name
		}
		// deterministic comparator order
		cmpNames := make([]string, 0, len(c.Comparators))
		for name := range c.Comparators {
			cmpNames = append(cmpNames, name)
		}
		sort.Strings(cmpNames)
		for _, name := range cmpNames {
			cC := c.Comparators[name]
			if cC == nil {
				continue
			}
			cC.NewComparator(run).Compare(names, results)
		}
	}
	return nil
}
