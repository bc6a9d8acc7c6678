package analysis

import (
	"fmt"
	"path"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/zeu5/tictactoe-rl/core"
	"github.com/zeu5/tictactoe-rl/util"
)

// EnvFactory creates a fresh environment to evaluate a policy in
type EnvFactory func() (core.Environment, error)

type policyEvaluation struct {
	*Evaluation
	States      int    `json:"states"`
	Fingerprint string `json:"fingerprint"`
	Error       string `json:"error,omitempty"`
}

// EvaluationComparator saves the policy of every experiment of a run and
// plays evaluation games with it.
type EvaluationComparator struct {
	savePath string
	run      int
	parent   *EvaluationComparatorConstructor
}

var _ core.Comparator = &EvaluationComparator{}

func (c *EvaluationComparator) Compare(experimentNames []string, results []*core.ExperimentResult) {
	p := c.parent
	out := make(map[string]*policyEvaluation)
	for i, name := range experimentNames {
		r := results[i]
		if r.IsError() || r.Policy == nil {
			continue
		}
		pm := r.Policy.Map()
		util.SaveJson(path.Join(c.savePath, fmt.Sprintf("policy_%s.json", name)), pm)

		eval := &policyEvaluation{
			Evaluation:  &Evaluation{},
			States:      r.Policy.Len(),
			Fingerprint: util.JsonHash(pm),
		}
		out[name] = eval
		if p.games == 0 || p.newEnv == nil {
			continue
		}
		env, err := p.newEnv()
		if err == nil {
			eval.Evaluation, err = Evaluate(p.space, r.Policy, env, p.games, p.judge)
		}
		if err != nil {
			eval.Evaluation = &Evaluation{}
			eval.Error = err.Error()
			p.logger.Error().Err(err).Str("experiment", name).Int("run", c.run).Msg("evaluation failed")
			continue
		}
		p.logger.Info().
			Str("experiment", name).
			Int("run", c.run).
			Int("games", eval.Games).
			Int("wins", eval.Wins).
			Int("draws", eval.Draws).
			Int("losses", eval.Losses).
			Float64("mean_return", eval.MeanReturn).
			Msg("policy evaluated")
		p.record(c.run, name, eval.Evaluation)
	}
	util.SaveJson(path.Join(c.savePath, "evaluation.json"), out)
}

type EvaluationComparatorConstructor struct {
	savePath string
	space    core.StateSpace
	newEnv   EnvFactory
	games    int
	judge    Judge
	logger   zerolog.Logger

	evaluations map[int]map[string]*Evaluation
}

var _ core.ComparatorConstructor = &EvaluationComparatorConstructor{}

func NewEvaluationComparatorConstructor(
	savePath string,
	space core.StateSpace,
	newEnv EnvFactory,
	games int,
	judge Judge,
	logger zerolog.Logger,
) *EvaluationComparatorConstructor {
	return &EvaluationComparatorConstructor{
		savePath:    savePath,
		space:       space,
		newEnv:      newEnv,
		games:       games,
		judge:       judge,
		logger:      logger,
		evaluations: make(map[int]map[string]*Evaluation),
	}
}

func (c *EvaluationComparatorConstructor) NewComparator(run int) core.Comparator {
	return &EvaluationComparator{
		savePath: path.Join(c.savePath, strconv.Itoa(run)),
		run:      run,
		parent:   c,
	}
}

func (c *EvaluationComparatorConstructor) record(run int, name string, e *Evaluation) {
	if _, ok := c.evaluations[run]; !ok {
		c.evaluations[run] = make(map[string]*Evaluation)
	}
	c.evaluations[run][name] = e
}

// Evaluations returns the evaluations of every run so far, by run and
// experiment name
func (c *EvaluationComparatorConstructor) Evaluations() map[int]map[string]*Evaluation {
	return c.evaluations
}
