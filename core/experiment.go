package core

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

type Experiment struct {
	Name    string
	Trainer Trainer
}

type DataSet interface{}

// Analyzer consumes the training episodes of one experiment run
type Analyzer interface {
	Analyze(*EpisodeContext)
	DataSet() DataSet
	Reset()
}

type AnalyzerConstructor interface {
	// new analyzer based on experiment name and run
	NewAnalyzer(string, int) Analyzer
}

// Comparator is invoked once per run with the results of every experiment
type Comparator interface {
	Compare([]string, []*ExperimentResult)
}

type ComparatorConstructor interface {
	NewComparator(int) Comparator
}

type RunConfig struct {
	Runs int
	// ReportEvery is the number of episodes between progress lines
	ReportEvery int

	Logger zerolog.Logger
	// Progress receives a live status line, may be nil
	Progress io.Writer
}

type ExperimentResult struct {
	Name     string
	Run      int
	Policy   *Policy
	Episodes int
	Duration time.Duration

	Error    error
	Datasets map[string]DataSet
}

func (r *ExperimentResult) IsError() bool {
	return r.Error != nil
}

type Comparison struct {
	Experiments []*Experiment
	Analyzers   map[string]AnalyzerConstructor
	Comparators map[string]ComparatorConstructor
}

func NewComparison() *Comparison {
	return &Comparison{
		Analyzers:   make(map[string]AnalyzerConstructor),
		Comparators: make(map[string]ComparatorConstructor),
		Experiments: make([]*Experiment, 0),
	}
}

func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

func (c *Comparison) AddAnalysis(name string, a AnalyzerConstructor, cmp ComparatorConstructor) {
	c.Analyzers[name] = a
	c.Comparators[name] = cmp
}
