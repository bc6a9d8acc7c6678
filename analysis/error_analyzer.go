package analysis

import (
	"bytes"
	"fmt"
	"os"
	"path"

	"github.com/zeu5/tictactoe-rl/core"
)

// ErrorAnalyzer writes the trace of every episode that ended in an error
type ErrorAnalyzer struct {
	savePath string
	exp      string
}

var _ core.Analyzer = &ErrorAnalyzer{}

func NewErrorAnalyzer(savePath string) *ErrorAnalyzer {
	if _, err := os.Stat(path.Join(savePath, "errors")); os.IsNotExist(err) {
		os.MkdirAll(path.Join(savePath, "errors"), 0755)
	}
	return &ErrorAnalyzer{
		savePath: path.Join(savePath, "errors"),
	}
}

func (a *ErrorAnalyzer) Analyze(ctx *core.EpisodeContext) {
	err := ctx.Trace.Error()
	if err == nil {
		return
	}
	buf := new(bytes.Buffer)
	buf.WriteString(fmt.Sprintf("Error: %s\n", err))
	buf.WriteString(traceToString(ctx.Trace))

	fileName := fmt.Sprintf("%d_error_%d.txt", ctx.Run, ctx.Episode)
	if a.exp != "" {
		fileName = fmt.Sprintf("%d_%s_error_%d.txt", ctx.Run, a.exp, ctx.Episode)
	}
	file := path.Join(a.savePath, fileName)
	os.WriteFile(file, buf.Bytes(), 0644)
}

func (a *ErrorAnalyzer) DataSet() core.DataSet {
	return nil
}

func (a *ErrorAnalyzer) Reset() {
	// do nothing
}

type ErrorAnalyzerConstructor struct {
	SavePath string
}

var _ core.AnalyzerConstructor = &ErrorAnalyzerConstructor{}

func NewErrorAnalyzerConstructor(savePath string) *ErrorAnalyzerConstructor {
	return &ErrorAnalyzerConstructor{
		SavePath: savePath,
	}
}

func (e *ErrorAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewErrorAnalyzer(e.SavePath)
	a.exp = exp
	return a
}

// ErrorComparator writes the error of every failed experiment of a run,
// including trainers that do not report episodes.
type ErrorComparator struct {
	savePath string
	run      int
}

var _ core.Comparator = &ErrorComparator{}

func (c *ErrorComparator) Compare(experimentNames []string, results []*core.ExperimentResult) {
	for i, r := range results {
		if !r.IsError() {
			continue
		}
		if _, err := os.Stat(c.savePath); os.IsNotExist(err) {
			os.MkdirAll(c.savePath, 0755)
		}
		// %+v includes the stack recorded by pkg/errors
		out := fmt.Sprintf("Experiment: %s\nRun: %d\nEpisodes: %d\nError: %+v\n", experimentNames[i], c.run, r.Episodes, r.Error)
		file := path.Join(c.savePath, fmt.Sprintf("%d_%s.txt", c.run, experimentNames[i]))
		os.WriteFile(file, []byte(out), 0644)
	}
}

type ErrorComparatorConstructor struct {
	SavePath string
}

var _ core.ComparatorConstructor = &ErrorComparatorConstructor{}

func NewErrorComparatorConstructor(savePath string) *ErrorComparatorConstructor {
	return &ErrorComparatorConstructor{
		SavePath: savePath,
	}
}

func (e *ErrorComparatorConstructor) NewComparator(run int) core.Comparator {
	return &ErrorComparator{
		savePath: path.Join(e.SavePath, "errors"),
		run:      run,
	}
}
