package analysis

import (
	"path"
	"strconv"

	"github.com/zeu5/tictactoe-rl/core"
	"github.com/zeu5/tictactoe-rl/util"
)

// agreementDataset holds, for every ordered pair of experiments, the fraction
// of their shared states on which both policies pick the same action.
type agreementDataset struct {
	Experiments []string                      `json:"experiments"`
	Agreement   map[string]map[string]float64 `json:"agreement"`
	Common      map[string]map[string]int     `json:"common_states"`
	Failed      []string                      `json:"failed,omitempty"`
}

// AgreementComparator compares the policies trained in one run
type AgreementComparator struct {
	savePath string
	last     *agreementDataset
}

var _ core.Comparator = &AgreementComparator{}

func NewAgreementComparator(savePath string) *AgreementComparator {
	return &AgreementComparator{
		savePath: path.Join(savePath, "agreement.json"),
	}
}

func (c *AgreementComparator) Compare(experimentNames []string, results []*core.ExperimentResult) {
	out := &agreementDataset{
		Experiments: experimentNames,
		Agreement:   make(map[string]map[string]float64),
		Common:      make(map[string]map[string]int),
		Failed:      make([]string, 0),
	}
	for i, r := range results {
		if r.IsError() || r.Policy == nil {
			out.Failed = append(out.Failed, experimentNames[i])
			continue
		}
		out.Agreement[experimentNames[i]] = make(map[string]float64)
		out.Common[experimentNames[i]] = make(map[string]int)
		for j, other := range results {
			if other.IsError() || other.Policy == nil {
				continue
			}
			frac, common := r.Policy.Agreement(other.Policy)
			out.Agreement[experimentNames[i]][experimentNames[j]] = frac
			out.Common[experimentNames[i]][experimentNames[j]] = common
		}
	}
	c.last = out
	if c.savePath == "" {
		return
	}
	util.SaveJson(c.savePath, out)
}

// Agreement returns the value computed by the last Compare call for the pair
func (c *AgreementComparator) Agreement(a, b string) (float64, bool) {
	if c.last == nil {
		return 0, false
	}
	row, ok := c.last.Agreement[a]
	if !ok {
		return 0, false
	}
	v, ok := row[b]
	return v, ok
}

type AgreementComparatorConstructor struct {
	savePath string
}

var _ core.ComparatorConstructor = &AgreementComparatorConstructor{}

func NewAgreementComparatorConstructor(savePath string) *AgreementComparatorConstructor {
	return &AgreementComparatorConstructor{
		savePath: savePath,
	}
}

func (c *AgreementComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewAgreementComparator(path.Join(c.savePath, strconv.Itoa(run)))
}
