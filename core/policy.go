package core

import "sort"

// Policy maps states to the action recommended in them. It never holds
// entries for terminal states.
type Policy struct {
	states  map[string]State
	actions map[string]Action
}

func NewPolicy() *Policy {
	return &Policy{
		states:  make(map[string]State),
		actions: make(map[string]Action),
	}
}

// ActionFor returns the action for the state. The second return value is false
// for terminal or unknown states.
func (p *Policy) ActionFor(s State) (Action, bool) {
	a, ok := p.actions[s.Hash()]
	return a, ok
}

func (p *Policy) Set(s State, a Action) {
	key := s.Hash()
	p.states[key] = s
	p.actions[key] = a
}

func (p *Policy) Len() int {
	return len(p.actions)
}

// States returns the states of the policy ordered by hash
func (p *Policy) States() []State {
	keys := make([]string, 0, len(p.states))
	for k := range p.states {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]State, len(keys))
	for i, k := range keys {
		out[i] = p.states[k]
	}
	return out
}

// Copy returns a policy that does not share storage with p
func (p *Policy) Copy() *Policy {
	out := NewPolicy()
	for k, s := range p.states {
		out.states[k] = s
		out.actions[k] = p.actions[k]
	}
	return out
}

// Agreement returns the fraction of the states common to both policies on
// which they recommend the same action, and the number of common states.
func (p *Policy) Agreement(other *Policy) (float64, int) {
	common := 0
	same := 0
	for k, a := range p.actions {
		b, ok := other.actions[k]
		if !ok {
			continue
		}
		common++
		if a.Hash() == b.Hash() {
			same++
		}
	}
	if common == 0 {
		return 0, 0
	}
	return float64(same) / float64(common), common
}

// Map returns the policy as state hash -> action hash, suitable for
// serialization.
func (p *Policy) Map() map[string]string {
	out := make(map[string]string, len(p.actions))
	for k, a := range p.actions {
		out[k] = a.Hash()
	}
	return out
}
