package analysis

import (
	"os"
	"path"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
	"github.com/zeu5/tictactoe-rl/core"
	"github.com/zeu5/tictactoe-rl/util"
	"gonum.org/v1/gonum/stat"
)

// ReturnsAnalysis is the name under which the returns analyzer has to be
// registered for ReturnsComparator to find its datasets.
const ReturnsAnalysis = "returns"

type returnsDataset struct {
	Episodes []int     `json:"episodes"`
	Returns  []float64 `json:"returns"`
	Lengths  []int     `json:"lengths"`
}

func (r *returnsDataset) Copy() *returnsDataset {
	out := &returnsDataset{
		Episodes: util.CopyIntSlice(r.Episodes),
		Returns:  make([]float64, len(r.Returns)),
		Lengths:  util.CopyIntSlice(r.Lengths),
	}
	copy(out.Returns, r.Returns)
	return out
}

// MovingAverage averages the returns over a trailing window of episodes
func (r *returnsDataset) MovingAverage(window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(r.Returns))
	for i := range r.Returns {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		out[i] = stat.Mean(r.Returns[start:i+1], nil)
	}
	return out
}

// ReturnsAnalyzer records the undiscounted return and length of every episode
type ReturnsAnalyzer struct {
	dataset *returnsDataset
}

var _ core.Analyzer = &ReturnsAnalyzer{}

func NewReturnsAnalyzer() *ReturnsAnalyzer {
	r := &ReturnsAnalyzer{}
	r.Reset()
	return r
}

func (r *ReturnsAnalyzer) Analyze(eCtx *core.EpisodeContext) {
	if eCtx.Trace.Error() != nil {
		return
	}
	r.dataset.Episodes = append(r.dataset.Episodes, eCtx.Episode)
	r.dataset.Returns = append(r.dataset.Returns, eCtx.Trace.Return())
	r.dataset.Lengths = append(r.dataset.Lengths, eCtx.Trace.Len())
}

func (r *ReturnsAnalyzer) DataSet() core.DataSet {
	return r.dataset.Copy()
}

func (r *ReturnsAnalyzer) Reset() {
	r.dataset = &returnsDataset{
		Episodes: make([]int, 0),
		Returns:  make([]float64, 0),
		Lengths:  make([]int, 0),
	}
}

type ReturnsAnalyzerConstructor struct{}

var _ core.AnalyzerConstructor = &ReturnsAnalyzerConstructor{}

func NewReturnsAnalyzerConstructor() *ReturnsAnalyzerConstructor {
	return &ReturnsAnalyzerConstructor{}
}

func (ReturnsAnalyzerConstructor) NewAnalyzer(_ string, _ int) core.Analyzer {
	return NewReturnsAnalyzer()
}

// ReturnsComparator saves the returns of every experiment as JSON and plots
// their moving averages into a single HTML line chart.
type ReturnsComparator struct {
	savePath string
	window   int
}

var _ core.Comparator = &ReturnsComparator{}

func NewReturnsComparator(savePath string, window int) *ReturnsComparator {
	return &ReturnsComparator{
		savePath: savePath,
		window:   window,
	}
}

func (c *ReturnsComparator) Compare(experimentNames []string, results []*core.ExperimentResult) {
	out := make(map[string]*returnsDataset)
	for i, name := range experimentNames {
		ds, ok := results[i].Datasets[ReturnsAnalysis].(*returnsDataset)
		if !ok || len(ds.Returns) == 0 {
			continue
		}
		out[name] = ds
	}
	if len(out) == 0 {
		return
	}
	util.SaveJson(path.Join(c.savePath, "returns.json"), out)
	c.plot(experimentNames, out)
}

func (c *ReturnsComparator) plot(experimentNames []string, datasets map[string]*returnsDataset) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Episode returns",
			Subtitle: "moving average over " + strconv.Itoa(c.window) + " episodes",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)

	numEpisodes := 0
	for _, ds := range datasets {
		if len(ds.Returns) > numEpisodes {
			numEpisodes = len(ds.Returns)
		}
	}
	var episodes []string
	for i := 0; i < numEpisodes; i++ {
		episodes = append(episodes, strconv.Itoa(i))
	}
	line = line.SetXAxis(episodes)

	for _, name := range experimentNames {
		ds, ok := datasets[name]
		if !ok {
			continue
		}
		items := make([]opts.LineData, 0, len(ds.Returns))
		for _, v := range ds.MovingAverage(c.window) {
			items = append(items, opts.LineData{Value: v})
		}
		line.AddSeries(name, items)
	}

	page := components.NewPage()
	page.AddCharts(line)
	if err := os.MkdirAll(c.savePath, 0755); err != nil {
		return errors.Wrap(err, "creating chart directory")
	}
	f, err := os.Create(path.Join(c.savePath, "returns.html"))
	if err != nil {
		return errors.Wrap(err, "creating chart file")
	}
	defer f.Close()
	return page.Render(f)
}

type ReturnsComparatorConstructor struct {
	savePath string
	window   int
}

var _ core.ComparatorConstructor = &ReturnsComparatorConstructor{}

func NewReturnsComparatorConstructor(savePath string, window int) *ReturnsComparatorConstructor {
	return &ReturnsComparatorConstructor{
		savePath: savePath,
		window:   window,
	}
}

func (c *ReturnsComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewReturnsComparator(path.Join(c.savePath, strconv.Itoa(run)), c.window)
}
