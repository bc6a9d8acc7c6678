package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/zeu5/tictactoe-rl/core"
)

// TraceAnalyzer writes the steps of every episode to the traces directory of
// the save path once the episode number reaches the threshold.
type TraceAnalyzer struct {
	// savePath is the path to save the trace
	savePath string
	exp      string
	// will save the trace to the file only after the episode number exceeds this threshold
	thresholdEpisode int
}

var _ core.Analyzer = &TraceAnalyzer{}

func NewTraceAnalyzer(savePath string, threshold int) *TraceAnalyzer {
	// create a traces directory under save path if not exists
	if _, err := os.Stat(path.Join(savePath, "traces")); os.IsNotExist(err) {
		os.MkdirAll(path.Join(savePath, "traces"), 0755)
	}
	return &TraceAnalyzer{
		savePath:         path.Join(savePath, "traces"),
		thresholdEpisode: threshold,
	}
}

func (a *TraceAnalyzer) Analyze(ctx *core.EpisodeContext) {
	if ctx.Episode < a.thresholdEpisode {
		return
	}
	fileName := fmt.Sprintf("%d_trace_%d.txt", ctx.Run, ctx.Episode)
	if a.exp != "" {
		fileName = fmt.Sprintf("%d_%s_trace_%d.txt", ctx.Run, a.exp, ctx.Episode)
	}
	file := path.Join(a.savePath, fileName)
	os.WriteFile(file, []byte(traceToString(ctx.Trace)), 0644)
}

func traceToString(trace *core.Trace) string {
	buf := new(bytes.Buffer)
	for i := 0; i < trace.Len(); i++ {
		step := trace.Step(i)
		buf.WriteString(fmt.Sprintf("Step %d\n%s\n", i, stepToString(step)))
	}
	buf.WriteString(fmt.Sprintf("Return: %.2f\n", trace.Return()))
	return buf.String()
}

func stepToString(step *core.Step) string {
	return fmt.Sprintf(
		"State: \n%s\nAction: %s\nReward: %.2f\nNext State: \n%s\n%s",
		stateToString(step.State),
		actionToString(step.Action),
		step.Reward,
		stateToString(step.NextState),
		addInfoToString(step.Misc),
	)
}

func addInfoToString(addInfo map[string]interface{}) string {
	if len(addInfo) == 0 {
		return ""
	}
	keys := make([]string, 0, len(addInfo))
	for k := range addInfo {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := "Additional Info:\n"
	for _, k := range keys {
		bs, _ := json.Marshal(addInfo[k])
		out += fmt.Sprintf("%s: %s\n", k, string(bs))
	}
	return out
}

func stateToString(state core.State) string {
	if state == nil {
		return "none\n"
	}
	if s, ok := state.(fmt.Stringer); ok {
		return s.String()
	}
	return state.Hash() + "\n"
}

func actionToString(action core.Action) string {
	if action == nil {
		return "none"
	}
	if a, ok := action.(fmt.Stringer); ok {
		return a.String()
	}
	return action.Hash()
}

func (a *TraceAnalyzer) DataSet() core.DataSet {
	return nil
}

func (a *TraceAnalyzer) Reset() {
	// do nothing
}

type TraceAnalyzerConstructor struct {
	SavePath         string
	ThresholdEpisode int
}

var _ core.AnalyzerConstructor = &TraceAnalyzerConstructor{}

func NewTraceAnalyzerConstructor(savePath string, thresholdEpisode int) *TraceAnalyzerConstructor {
	return &TraceAnalyzerConstructor{
		SavePath:         savePath,
		ThresholdEpisode: thresholdEpisode,
	}
}

func (c *TraceAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewTraceAnalyzer(c.SavePath, c.ThresholdEpisode)
	a.exp = exp
	return a
}
