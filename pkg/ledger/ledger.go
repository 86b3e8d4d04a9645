// pkg/ledger/ledger.go
package ledger

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// ErrFrozen is returned when a frozen ledger is written to
var ErrFrozen = errors.New("ledger is frozen")

// valueSet is an insertion-ordered set of cells keyed by Cell.Key
type valueSet struct {
	keys   map[string]struct{}
	values []model.Cell
}

func (s *valueSet) add(v model.Cell) {
	key := v.Key()
	if _, ok := s.keys[key]; ok {
		return
	}
	s.keys[key] = struct{}{}
	s.values = append(s.values, v)
}

// Ledger records, per column and stage, the values a stage was expected to
// fix but left unchanged. It only grows, and is read-only once frozen.
type Ledger struct {
	mu      sync.RWMutex
	frozen  bool
	order   []string
	entries map[string]map[string]*valueSet
	stages  map[string][]string
}

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{
		entries: make(map[string]map[string]*valueSet),
		stages:  make(map[string][]string),
	}
}

// Add records value under (column, stage). Repeated values are stored once.
func (l *Ledger) Add(column, stage string, value model.Cell) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.frozen {
		return ErrFrozen
	}
	l.add(column, stage, value)
	return nil
}

func (l *Ledger) add(column, stage string, value model.Cell) {
	byStage, ok := l.entries[column]
	if !ok {
		byStage = make(map[string]*valueSet)
		l.entries[column] = byStage
		l.order = append(l.order, column)
	}

	set, ok := byStage[stage]
	if !ok {
		set = &valueSet{keys: make(map[string]struct{})}
		byStage[stage] = set
		l.stages[column] = append(l.stages[column], stage)
	}
	set.add(value)
}

// Merge unions other into l. Column-level fan-in gives disjoint key spaces,
// but overlapping keys are unioned as sets rather than rejected.
func (l *Ledger) Merge(other *Ledger) error {
	if other == nil || other == l {
		return nil
	}

	other.mu.RLock()
	defer other.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.frozen {
		return ErrFrozen
	}

	for _, column := range other.order {
		for _, stage := range other.stages[column] {
			for _, v := range other.entries[column][stage].values {
				l.add(column, stage, v)
			}
		}
	}
	return nil
}

// Freeze makes the ledger read-only. Freezing twice is a no-op.
func (l *Ledger) Freeze() {
	l.mu.Lock()
	l.frozen = true
	l.mu.Unlock()
}

// Frozen reports whether the ledger is read-only
func (l *Ledger) Frozen() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frozen
}

// ForColumn returns stage name to recorded values for one column.
// Columns with no entries yield an empty map.
func (l *Ledger) ForColumn(column string) map[string][]model.Cell {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string][]model.Cell, len(l.stages[column]))
	for _, stage := range l.stages[column] {
		out[stage] = slices.Clone(l.entries[column][stage].values)
	}
	return out
}

// Stages returns the stages with entries for a column, in first-seen order
func (l *Ledger) Stages(column string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.stages[column])
}

// Values returns the values recorded under (column, stage) in insertion order
func (l *Ledger) Values(column, stage string) []model.Cell {
	l.mu.RLock()
	defer l.mu.RUnlock()

	set, ok := l.entries[column][stage]
	if !ok {
		return nil
	}
	return slices.Clone(set.values)
}

// Contains reports whether value was recorded under (column, stage)
func (l *Ledger) Contains(column, stage string, value model.Cell) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	set, ok := l.entries[column][stage]
	if !ok {
		return false
	}
	_, found := set.keys[value.Key()]
	return found
}

// Columns returns the columns with entries, in first-seen order
func (l *Ledger) Columns() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.order)
}

// Len returns the total number of recorded values
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := 0
	for _, byStage := range l.entries {
		for _, set := range byStage {
			total += len(set.values)
		}
	}
	return total
}

// IsEmpty reports whether nothing was recorded
func (l *Ledger) IsEmpty() bool {
	return l.Len() == 0
}

// String renders a short summary, e.g. for log fields
func (l *Ledger) String() string {
	return fmt.Sprintf("ledger{columns=%d values=%d frozen=%t}", len(l.Columns()), l.Len(), l.Frozen())
}
