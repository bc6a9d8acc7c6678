package analysis

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/tictactoe-rl/core"
)

type label string

func (l label) Hash() string { return string(l) }

// lineSpace: "a" -> "b" -> "end"
type lineSpace struct{}

func (lineSpace) States() []core.State {
	return []core.State{label("a"), label("b"), label("end")}
}

func (lineSpace) IsTerminal(s core.State) bool { return s.Hash() == "end" }

func (l lineSpace) LegalActions(s core.State) []core.Action {
	if l.IsTerminal(s) {
		return nil
	}
	return []core.Action{label("next"), label("quit")}
}

// lineEnv rewards "next" with 1 and "quit" with -1, quitting ends the game
type lineEnv struct {
	cur core.State
}

func (e *lineEnv) Reset() (core.State, error) {
	e.cur = label("a")
	return e.cur, nil
}

func (e *lineEnv) CurrentState() core.State { return e.cur }

func (e *lineEnv) ExecuteMove(a core.Action) (core.Outcome, error) {
	o := core.Outcome{State: e.cur, Action: a}
	switch {
	case a.Hash() == "quit":
		o.Reward = -1
		o.NextState = label("end")
	case e.cur.Hash() == "a":
		o.Reward = 1
		o.NextState = label("b")
	default:
		o.Reward = 1
		o.NextState = label("end")
	}
	e.cur = o.NextState
	return o, nil
}

func policyOf(pairs ...string) *core.Policy {
	p := core.NewPolicy()
	for i := 0; i+1 < len(pairs); i += 2 {
		p.Set(label(pairs[i]), label(pairs[i+1]))
	}
	return p
}

func TestEvaluate(t *testing.T) {
	eval, err := Evaluate(lineSpace{}, policyOf("a", "next", "b", "next"), &lineEnv{}, 10, nil)
	require.NoError(t, err)
	require.Equal(t, 10, eval.Wins)
	require.Equal(t, 2.0, eval.MeanReturn)
	require.Zero(t, eval.StdReturn)
	require.Equal(t, 1.0, eval.WinRate())

	eval, err = Evaluate(lineSpace{}, policyOf("a", "next", "b", "quit"), &lineEnv{}, 3, nil)
	require.NoError(t, err)
	require.Equal(t, 3, eval.Draws)

	eval, err = Evaluate(lineSpace{}, policyOf("a", "quit"), &lineEnv{}, 1, nil)
	require.NoError(t, err)
	require.Equal(t, 1, eval.Losses)
	require.Equal(t, -1.0, eval.MeanReturn)

	_, err = Evaluate(lineSpace{}, policyOf("a", "next"), &lineEnv{}, 1, nil)
	require.True(t, errors.Is(err, core.ErrUnknownState))
}

func result(name string, policy *core.Policy, err error) *core.ExperimentResult {
	return &core.ExperimentResult{
		Name:     name,
		Policy:   policy,
		Error:    err,
		Datasets: make(map[string]core.DataSet),
	}
}

func TestAgreementComparator(t *testing.T) {
	dir := t.TempDir()
	c := NewAgreementComparatorConstructor(dir).NewComparator(0).(*AgreementComparator)
	c.Compare(
		[]string{"one", "two", "broken"},
		[]*core.ExperimentResult{
			result("one", policyOf("a", "next", "b", "next"), nil),
			result("two", policyOf("a", "next", "b", "quit"), nil),
			result("broken", nil, core.ErrIllegalMove),
		},
	)
	v, ok := c.Agreement("one", "two")
	require.True(t, ok)
	require.Equal(t, 0.5, v)
	v, _ = c.Agreement("two", "two")
	require.Equal(t, 1.0, v)
	_, ok = c.Agreement("broken", "one")
	require.False(t, ok)

	bs, err := os.ReadFile(filepath.Join(dir, "0", "agreement.json"))
	require.NoError(t, err)
	var saved agreementDataset
	require.NoError(t, json.Unmarshal(bs, &saved))
	require.Equal(t, []string{"broken"}, saved.Failed)
}

func TestReturnsAnalyzerAndComparator(t *testing.T) {
	a := NewReturnsAnalyzer()
	for i, r := range []float64{1, -1, 3} {
		eCtx := core.NewEpisodeContext(0, i)
		eCtx.Trace.AddStep(&core.Step{Outcome: core.Outcome{Reward: r}})
		a.Analyze(eCtx)
	}
	failed := core.NewEpisodeContext(0, 3)
	failed.Trace.SetError(core.ErrIllegalMove)
	a.Analyze(failed)

	ds := a.DataSet().(*returnsDataset)
	require.Equal(t, []float64{1, -1, 3}, ds.Returns)
	require.Equal(t, []int{0, 1, 2}, ds.Episodes)
	require.Equal(t, []float64{1, 0, 1}, ds.MovingAverage(2))

	dir := t.TempDir()
	r := result("q", nil, nil)
	r.Datasets[ReturnsAnalysis] = ds
	NewReturnsComparatorConstructor(dir, 2).NewComparator(1).Compare([]string{"q"}, []*core.ExperimentResult{r})
	require.FileExists(t, filepath.Join(dir, "1", "returns.json"))
	require.FileExists(t, filepath.Join(dir, "1", "returns.html"))

	a.Reset()
	require.Empty(t, a.DataSet().(*returnsDataset).Returns)
}

func TestEventAnalyzer(t *testing.T) {
	dir := t.TempDir()
	events := ResultEvents(ReturnJudge, Loss)
	a := NewEventAnalyzerConstructor(dir, events...).NewAnalyzer("exp", 0)

	for i, r := range []float64{1, -1, 0, 1} {
		eCtx := core.NewEpisodeContext(0, i)
		eCtx.Trace.AddStep(&core.Step{Outcome: core.Outcome{
			State:     label("a"),
			Action:    label("next"),
			Reward:    r,
			NextState: label("end"),
		}})
		a.Analyze(eCtx)
	}
	ds := a.DataSet().(*eventsDataset)
	require.Equal(t, 4, ds.Episodes)
	require.Equal(t, map[string]int{"win": 2, "loss": 1, "draw": 1}, ds.Counts)
	require.Equal(t, 1, ds.First["loss"])
	require.FileExists(t, filepath.Join(dir, "events", "0_exp_loss_1.txt"))
	require.NoFileExists(t, filepath.Join(dir, "events", "0_exp_win_0.txt"))
}

func TestErrorAnalyzerAndComparator(t *testing.T) {
	dir := t.TempDir()
	a := NewErrorAnalyzerConstructor(dir).NewAnalyzer("exp", 0)
	ok := core.NewEpisodeContext(0, 0)
	a.Analyze(ok)
	bad := core.NewEpisodeContext(0, 1)
	bad.Trace.SetError(errors.Wrap(core.ErrIllegalMove, "move"))
	a.Analyze(bad)

	require.NoFileExists(t, filepath.Join(dir, "errors", "0_exp_error_0.txt"))
	bs, err := os.ReadFile(filepath.Join(dir, "errors", "0_exp_error_1.txt"))
	require.NoError(t, err)
	require.Contains(t, string(bs), "illegal")

	NewErrorComparatorConstructor(dir).NewComparator(2).Compare(
		[]string{"failed"},
		[]*core.ExperimentResult{result("failed", nil, core.ErrIllegalMove)},
	)
	require.FileExists(t, filepath.Join(dir, "errors", "2_failed.txt"))
}

func TestTraceAnalyzerThreshold(t *testing.T) {
	dir := t.TempDir()
	a := NewTraceAnalyzerConstructor(dir, 1).NewAnalyzer("exp", 0)
	for i := 0; i < 3; i++ {
		eCtx := core.NewEpisodeContext(0, i)
		eCtx.Trace.AddStep(&core.Step{Outcome: core.Outcome{
			State:     label("a"),
			Action:    label("next"),
			Reward:    1,
			NextState: label("b"),
		}})
		a.Analyze(eCtx)
	}
	require.NoFileExists(t, filepath.Join(dir, "traces", "0_exp_trace_0.txt"))
	bs, err := os.ReadFile(filepath.Join(dir, "traces", "0_exp_trace_2.txt"))
	require.NoError(t, err)
	require.Contains(t, string(bs), "Action: next")
	require.Contains(t, string(bs), "Return: 1.00")
}

func TestEvaluationComparator(t *testing.T) {
	dir := t.TempDir()
	cc := NewEvaluationComparatorConstructor(
		dir,
		lineSpace{},
		func() (core.Environment, error) { return &lineEnv{}, nil },
		4,
		nil,
		zerolog.Nop(),
	)
	cc.NewComparator(0).Compare(
		[]string{"good", "partial"},
		[]*core.ExperimentResult{
			result("good", policyOf("a", "next", "b", "next"), nil),
			result("partial", policyOf("a", "next"), nil),
		},
	)
	evals := cc.Evaluations()
	require.Equal(t, 4, evals[0]["good"].Wins)
	_, ok := evals[0]["partial"]
	require.False(t, ok)
	require.FileExists(t, filepath.Join(dir, "0", "policy_good.json"))
	require.FileExists(t, filepath.Join(dir, "0", "evaluation.json"))
}
