// Package labels - Label registry mapping class names to stable integer indices.
package labels

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Background is the implicit class at index 0; it is never assigned to a real box.
const Background = "__background__"

// ErrUnknownLabel is returned when a name is not part of a label set.
var ErrUnknownLabel = errors.New("unknown label")

// LabelSet assigns each distinct class name a 1-based index.
type LabelSet struct {
	// Names in index order; names[i] has index i+1.
	names []string
	// nameToIdx for fast lookup by name.
	nameToIdx map[string]int
}

// NewLabelSet builds a label set that keeps the given order. Duplicates keep their
// first position. Use it for explicit, user supplied label lists.
func NewLabelSet(names []string) *LabelSet {
	s := &LabelSet{nameToIdx: make(map[string]int, len(names))}
	for _, name := range names {
		if _, ok := s.nameToIdx[name]; ok {
			continue
		}
		s.names = append(s.names, name)
		s.nameToIdx[name] = len(s.names)
	}
	return s
}

// FromObserved builds a label set from the distinct names seen while scanning a corpus.
// Names are sorted so indices are reproducible for identical input.
func FromObserved(observed []string) *LabelSet {
	distinct := make(map[string]struct{}, len(observed))
	for _, name := range observed {
		distinct[name] = struct{}{}
	}
	names := make([]string, 0, len(distinct))
	for name := range distinct {
		names = append(names, name)
	}
	sort.Strings(names)
	return NewLabelSet(names)
}

// Len returns the number of real classes (background excluded).
func (s *LabelSet) Len() int {
	return len(s.names)
}

// Names returns a copy of the class names in index order (index 1 first).
func (s *LabelSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Index returns the 1-based index of name.
func (s *LabelSet) Index(name string) (int, error) {
	idx, ok := s.nameToIdx[name]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownLabel, "%q", name)
	}
	return idx, nil
}

// Contains reports whether name is part of the set.
func (s *LabelSet) Contains(name string) bool {
	_, ok := s.nameToIdx[name]
	return ok
}

// Name returns the class name for idx; 0 yields Background.
func (s *LabelSet) Name(idx int) (string, error) {
	if idx == 0 {
		return Background, nil
	}
	if idx < 0 || idx > len(s.names) {
		return "", fmt.Errorf("index %d out of range [0, %d]", idx, len(s.names))
	}
	return s.names[idx-1], nil
}
