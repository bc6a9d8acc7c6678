package analysis

import (
	"fmt"
	"os"
	"path"

	"github.com/zeu5/tictactoe-rl/core"
	"github.com/zeu5/tictactoe-rl/util"
)

// EventSpec names a property of an episode, such as the agent losing
type EventSpec struct {
	Name  string
	Check func(*core.Trace) bool
	// Save writes the traces of matching episodes to disk
	Save bool
}

// ResultEvents returns one event per game result as decided by the judge
func ResultEvents(judge Judge, save ...GameResult) []EventSpec {
	saved := make(map[GameResult]bool)
	for _, r := range save {
		saved[r] = true
	}
	out := make([]EventSpec, 0, 3)
	for _, r := range []GameResult{Win, Draw, Loss} {
		result := r
		out = append(out, EventSpec{
			Name: result.String(),
			Check: func(t *core.Trace) bool {
				last := t.Last()
				return last != nil && judge(last.NextState, t.Return()) == result
			},
			Save: saved[result],
		})
	}
	return out
}

type eventsDataset struct {
	Episodes int            `json:"episodes"`
	Counts   map[string]int `json:"counts"`
	// First episode in which each event occurred
	First map[string]int `json:"first"`
}

func (e *eventsDataset) Copy() *eventsDataset {
	out := &eventsDataset{
		Episodes: e.Episodes,
		Counts:   util.CopyStringIntMap(e.Counts),
		First:    util.CopyStringIntMap(e.First),
	}
	return out
}

// EventAnalyzer counts the episodes matching each event and optionally dumps
// their traces under the events directory.
type EventAnalyzer struct {
	events   []EventSpec
	savePath string
	exp      string
	dataset  *eventsDataset
}

var _ core.Analyzer = &EventAnalyzer{}

func NewEventAnalyzer(savePath string, events ...EventSpec) *EventAnalyzer {
	if _, err := os.Stat(path.Join(savePath, "events")); os.IsNotExist(err) {
		os.MkdirAll(path.Join(savePath, "events"), 0755)
	}
	e := &EventAnalyzer{
		events:   events,
		savePath: path.Join(savePath, "events"),
	}
	e.Reset()
	return e
}

func (ea *EventAnalyzer) Analyze(eCtx *core.EpisodeContext) {
	trace := eCtx.Trace
	if trace.Error() != nil {
		return
	}
	ea.dataset.Episodes++
	for _, event := range ea.events {
		if !event.Check(trace) {
			continue
		}
		ea.dataset.Counts[event.Name]++
		if _, ok := ea.dataset.First[event.Name]; !ok {
			ea.dataset.First[event.Name] = eCtx.Episode
		}
		if !event.Save {
			continue
		}
		fileName := path.Join(ea.savePath, fmt.Sprintf("%d_%s_%d.txt", eCtx.Run, event.Name, eCtx.Episode))
		if ea.exp != "" {
			fileName = path.Join(ea.savePath, fmt.Sprintf("%d_%s_%s_%d.txt", eCtx.Run, ea.exp, event.Name, eCtx.Episode))
		}
		os.WriteFile(fileName, []byte(traceToString(trace)), 0644)
	}
}

func (ea *EventAnalyzer) DataSet() core.DataSet {
	return ea.dataset.Copy()
}

func (ea *EventAnalyzer) Reset() {
	ea.dataset = &eventsDataset{
		Counts: make(map[string]int),
		First:  make(map[string]int),
	}
}

type EventAnalyzerConstructor struct {
	SavePath string
	Events   []EventSpec
}

var _ core.AnalyzerConstructor = &EventAnalyzerConstructor{}

func NewEventAnalyzerConstructor(savePath string, events ...EventSpec) *EventAnalyzerConstructor {
	return &EventAnalyzerConstructor{
		SavePath: savePath,
		Events:   events,
	}
}

func (e *EventAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewEventAnalyzer(e.SavePath, e.Events...)
	a.exp = exp
	return a
}

// EventComparator saves the event counts of all experiments of a run
type EventComparator struct {
	savePath string
	name     string
}

var _ core.Comparator = &EventComparator{}

func (c *EventComparator) Compare(experimentNames []string, results []*core.ExperimentResult) {
	out := make(map[string]*eventsDataset)
	for i, name := range experimentNames {
		if ds, ok := results[i].Datasets[c.name].(*eventsDataset); ok {
			out[name] = ds
		}
	}
	util.SaveJson(path.Join(c.savePath, "events.json"), out)
}

type EventComparatorConstructor struct {
	savePath string
	// name under which the event analyzer is registered
	name string
}

var _ core.ComparatorConstructor = &EventComparatorConstructor{}

func NewEventComparatorConstructor(savePath, name string) *EventComparatorConstructor {
	return &EventComparatorConstructor{
		savePath: savePath,
		name:     name,
	}
}

func (c *EventComparatorConstructor) NewComparator(run int) core.Comparator {
	return &EventComparator{
		savePath: path.Join(c.savePath, fmt.Sprint(run)),
		name:     c.name,
	}
}
