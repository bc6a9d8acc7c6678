package solvers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"math"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/zeu5/tictactoe-rl/core"
	"golang.org/x/exp/rand"
)

// ValueTable maps states to value estimates. Missing states read as 0.
type ValueTable struct {
	values map[string]float64
}

// NewValueTable returns a table holding 0 for every state
func NewValueTable(states []core.State) *ValueTable {
	v := &ValueTable{values: make(map[string]float64, len(states))}
	for _, s := range states {
		v.values[s.Hash()] = 0
	}
	return v
}

func (v *ValueTable) Get(s core.State) float64 {
	return v.values[s.Hash()]
}

func (v *ValueTable) Set(s core.State, val float64) {
	v.values[s.Hash()] = val
}

func (v *ValueTable) Len() int {
	return len(v.values)
}

func (v *ValueTable) Copy() *ValueTable {
	out := &ValueTable{values: make(map[string]float64, len(v.values))}
	for k, val := range v.values {
		out.values[k] = val
	}
	return out
}

// Map returns a copy of the table keyed by state hash
func (v *ValueTable) Map() map[string]float64 {
	return v.Copy().values
}

type qEntry struct {
	action core.Action
	value  float64
}

// QTable holds a value for every (state, legal action) pair of a state space
// and for nothing else. Actions of a state keep the order in which the state
// space listed them.
type QTable struct {
	states  map[string]core.State
	order   []string
	entries map[string][]*qEntry
	index   map[string]map[string]int
}

// NewQTable creates a table with a zero entry for every legal pair of the
// space. Terminal states get no entries.
func NewQTable(space core.StateSpace) *QTable {
	q := &QTable{
		states:  make(map[string]core.State),
		order:   make([]string, 0),
		entries: make(map[string][]*qEntry),
		index:   make(map[string]map[string]int),
	}
	for _, s := range space.States() {
		actions := space.LegalActions(s)
		if len(actions) == 0 {
			continue
		}
		key := s.Hash()
		if _, ok := q.states[key]; ok {
			continue
		}
		q.states[key] = s
		q.order = append(q.order, key)
		q.entries[key] = make([]*qEntry, len(actions))
		q.index[key] = make(map[string]int, len(actions))
		for i, a := range actions {
			q.entries[key][i] = &qEntry{action: a, value: 0}
			q.index[key][a.Hash()] = i
		}
	}
	return q
}

func (q *QTable) entry(s core.State, a core.Action) (*qEntry, error) {
	idx, ok := q.index[s.Hash()]
	if !ok {
		return nil, errors.Wrapf(core.ErrUnknownState, "state %s has no q-values", s.Hash())
	}
	i, ok := idx[a.Hash()]
	if !ok {
		return nil, errors.Wrapf(core.ErrIllegalMove, "action %s in state %s", a.Hash(), s.Hash())
	}
	return q.entries[s.Hash()][i], nil
}

func (q *QTable) Get(s core.State, a core.Action) (float64, error) {
	e, err := q.entry(s, a)
	if err != nil {
		return 0, err
	}
	return e.value, nil
}

// Set updates an existing entry. Pairs that were not created with the table
// are rejected.
func (q *QTable) Set(s core.State, a core.Action, val float64) error {
	e, err := q.entry(s, a)
	if err != nil {
		return err
	}
	e.value = val
	return nil
}

func (q *QTable) HasState(s core.State) bool {
	_, ok := q.states[s.Hash()]
	return ok
}

// Size returns the number of states in the table
func (q *QTable) Size() int {
	return len(q.order)
}

// States returns the states in the table in state space order
func (q *QTable) States() []core.State {
	out := make([]core.State, len(q.order))
	for i, k := range q.order {
		out[i] = q.states[k]
	}
	return out
}

// Max returns the largest value of the state, or 0 if the state has no
// entries.
func (q *QTable) Max(s core.State) float64 {
	_, val, ok := q.ArgMax(s)
	if !ok {
		return 0
	}
	return val
}

// ArgMax returns the first action with the largest value in action order
func (q *QTable) ArgMax(s core.State) (core.Action, float64, bool) {
	entries, ok := q.entries[s.Hash()]
	if !ok || len(entries) == 0 {
		return nil, 0, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.value > best.value {
			best = e
		}
	}
	return best.action, best.value, true
}

// MaxAmong returns an action with the largest value, chosen uniformly at
// random among all maximizers.
func (q *QTable) MaxAmong(s core.State, rnd *rand.Rand) (core.Action, float64, bool) {
	entries, ok := q.entries[s.Hash()]
	if !ok || len(entries) == 0 {
		return nil, 0, false
	}
	maxVal := math.Inf(-1)
	maxActions := make([]core.Action, 0, len(entries))
	for _, e := range entries {
		if e.value > maxVal {
			maxActions = maxActions[:0]
			maxVal = e.value
		}
		if e.value == maxVal {
			maxActions = append(maxActions, e.action)
		}
	}
	return maxActions[rnd.Intn(len(maxActions))], maxVal, true
}

// Values returns the values of the state's actions in action order
func (q *QTable) Values(s core.State) []float64 {
	entries := q.entries[s.Hash()]
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = e.value
	}
	return out
}

// Reset sets every entry back to 0
func (q *QTable) Reset() {
	for _, entries := range q.entries {
		for _, e := range entries {
			e.value = 0
		}
	}
}

type qRecord struct {
	State   string             `json:"state"`
	Entries map[string]float64 `json:"entries"`
}

// Record writes the table as JSON lines, one state per line
func (q *QTable) Record(path string) error {
	bs := new(bytes.Buffer)
	keys := append([]string(nil), q.order...)
	sort.Strings(keys)
	for _, state := range keys {
		rec := qRecord{State: state, Entries: make(map[string]float64)}
		for _, e := range q.entries[state] {
			rec.Entries[e.action.Hash()] = e.value
		}
		line, err := json.Marshal(rec)
		if err != nil {
			return errors.Wrapf(err, "encoding q-values of state %s", state)
		}
		bs.Write(line)
		bs.WriteByte('\n')
	}
	return os.WriteFile(path, bs.Bytes(), 0644)
}

// Read loads values written by Record. Every record must refer to a pair
// that already exists in the table.
func (q *QTable) Read(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "error reading file")
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec qRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return errors.Wrap(err, "error reading file contents")
		}
		idx, ok := q.index[rec.State]
		if !ok {
			return errors.Wrapf(core.ErrUnknownState, "state %s", rec.State)
		}
		for action, val := range rec.Entries {
			i, ok := idx[action]
			if !ok {
				return errors.Wrapf(core.ErrIllegalMove, "action %s in state %s", action, rec.State)
			}
			q.entries[rec.State][i].value = val
		}
	}
	return scanner.Err()
}
