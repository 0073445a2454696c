// Package report regroups probe results by kind, restoring the order in
// which targets were declared.
package report

import (
	"fmt"
	"sync"

	"github.com/jaxxstorm/netdiag/internal/model"
	"github.com/jaxxstorm/netdiag/internal/scheduler"
)

type Aggregator struct {
	specs []model.ProbeSpec

	mu      sync.Mutex
	results []*model.ProbeResult
}

func New(specs []model.ProbeSpec) *Aggregator {
	return &Aggregator{
		specs:   specs,
		results: make([]*model.ProbeResult, len(specs)),
	}
}

// Add records the result for the probe at index. Unknown or repeated indices
// are rejected and leave the aggregator unchanged.
func (a *Aggregator) Add(index int, result model.ProbeResult) error {
	if index < 0 || index >= len(a.specs) {
		return fmt.Errorf("result index %d out of range [0,%d)", index, len(a.specs))
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.results[index] != nil {
		return fmt.Errorf("duplicate result for %s", a.specs[index])
	}
	r := result
	a.results[index] = &r
	return nil
}

// Pending is the number of specs still without a result.
func (a *Aggregator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, r := range a.results {
		if r == nil {
			n++
		}
	}
	return n
}

// Report builds one section per kind in model.Kinds order. Results inside a
// section follow declaration order; specs without a result are skipped.
func (a *Aggregator) Report() model.Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	byKind := map[model.Kind][]model.ProbeResult{}
	for i, spec := range a.specs {
		if a.results[i] == nil {
			continue
		}
		byKind[spec.Kind] = append(byKind[spec.Kind], *a.results[i])
	}

	sections := make([]model.Section, 0, len(model.Kinds))
	for _, kind := range model.Kinds {
		results := byKind[kind]
		if results == nil {
			results = []model.ProbeResult{}
		}
		sections = append(sections, model.Section{Kind: kind, Results: results})
	}
	return model.Report{Sections: sections}
}

// Build drains completions into a fresh aggregator. Rejected completions are
// passed to onReject when it is non-nil.
func Build(specs []model.ProbeSpec, completions <-chan scheduler.Completion, onReject func(error)) model.Report {
	a := New(specs)
	for c := range completions {
		if err := a.Add(c.Index, c.Result); err != nil && onReject != nil {
			onReject(err)
		}
	}
	return a.Report()
}
