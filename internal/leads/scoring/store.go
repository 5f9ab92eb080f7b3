package scoring

import (
	"sort"
	"sync/atomic"
)

// Store publishes the active Scorer. Readers always see a complete rule set:
// Swap replaces the whole Scorer pointer in one step.
type Store struct {
	current atomic.Pointer[Scorer]
}

// NewStore returns a store serving s, or the default scorer when s is nil.
func NewStore(s *Scorer) *Store {
	if s == nil {
		s = Default()
	}
	st := &Store{}
	st.current.Store(s)
	return st
}

// Current returns the active scorer.
func (st *Store) Current() *Scorer {
	return st.current.Load()
}

// Score scores in with the active scorer.
func (st *Store) Score(in Input) Result {
	return st.Current().Score(in)
}

// Swap installs rules. Invalid rules leave the previous scorer in place.
func (st *Store) Swap(rules Rules) error {
	s, err := New(rules)
	if err != nil {
		return err
	}
	st.current.Store(s)
	return nil
}

// Reload reads path and swaps the result in.
func (st *Store) Reload(path string) error {
	rules, err := LoadRules(path)
	if err != nil {
		return err
	}
	return st.Swap(rules)
}

// Ranked pairs an opaque lead key with its score.
type Ranked[K any] struct {
	Key    K
	Result Result
}

// Rank orders items by score, highest first. Ties keep their input order.
func Rank[K any](items []Ranked[K]) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Result.Score > items[j].Result.Score
	})
}
