package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Pair is a single label name/value pair.
type Pair struct {
	Name  string
	Value string
}

// LabelSet is an immutable, order-independent set of label pairs. Two label
// sets with the same pairs are equal regardless of how they were built, and
// Key returns the same canonical string for both.
//
// The zero value is the empty label set.
type LabelSet struct {
	pairs []Pair
	key   string
}

// NewLabelSet builds a LabelSet from a name/value map.
func NewLabelSet(labels map[string]string) LabelSet {
	pairs := make([]Pair, 0, len(labels))
	for name, value := range labels {
		pairs = append(pairs, Pair{Name: name, Value: value})
	}
	return newSortedLabelSet(pairs)
}

// Normalize converts caller-supplied label input into a LabelSet.
//
// Accepted inputs:
//   - LabelSet or *LabelSet: returned unchanged
//   - nil: the empty set
//   - map[string]string, map[string]any: one pair per entry
//   - []Pair, [][2]string: one pair per element
//
// Any other input fails with ErrInvalidLabels, as does a pair sequence that
// assigns two different values to the same name. The caller's input is never
// modified.
func Normalize(input any) (LabelSet, error) {
	switch v := input.(type) {
	case LabelSet:
		return v, nil
	case *LabelSet:
		if v == nil {
			return LabelSet{}, nil
		}
		return *v, nil
	case nil:
		return LabelSet{}, nil
	case map[string]string:
		return NewLabelSet(v), nil
	case map[string]any:
		pairs := make([]Pair, 0, len(v))
		for name, value := range v {
			pairs = append(pairs, Pair{Name: name, Value: fmt.Sprint(value)})
		}
		return newSortedLabelSet(pairs), nil
	case []Pair:
		return fromPairs(v)
	case [][2]string:
		pairs := make([]Pair, len(v))
		for i, p := range v {
			pairs[i] = Pair{Name: p[0], Value: p[1]}
		}
		return fromPairs(pairs)
	default:
		return LabelSet{}, fmt.Errorf("%w: could not normalize labels of type %T", ErrInvalidLabels, input)
	}
}

// MustNormalize is like Normalize but panics on error. Intended for tests
// and static label sets.
func MustNormalize(input any) LabelSet {
	ls, err := Normalize(input)
	if err != nil {
		panic(err)
	}
	return ls
}

// fromPairs copies, deduplicates and sorts a pair sequence.
func fromPairs(in []Pair) (LabelSet, error) {
	seen := make(map[string]string, len(in))
	pairs := make([]Pair, 0, len(in))
	for _, p := range in {
		if prev, ok := seen[p.Name]; ok {
			if prev != p.Value {
				return LabelSet{}, fmt.Errorf("%w: label %q has conflicting values %q and %q",
					ErrInvalidLabels, p.Name, prev, p.Value)
			}
			continue
		}
		seen[p.Name] = p.Value
		pairs = append(pairs, p)
	}
	return newSortedLabelSet(pairs), nil
}

func newSortedLabelSet(pairs []Pair) LabelSet {
	if len(pairs) == 0 {
		return LabelSet{}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Name < pairs[j].Name })

	// Length-prefixed so that no choice of names or values can collide.
	var sb strings.Builder
	for _, p := range pairs {
		sb.WriteString(strconv.Itoa(len(p.Name)))
		sb.WriteByte(':')
		sb.WriteString(p.Name)
		sb.WriteString(strconv.Itoa(len(p.Value)))
		sb.WriteByte(':')
		sb.WriteString(p.Value)
	}
	return LabelSet{pairs: pairs, key: sb.String()}
}

// Key returns the canonical identity of the set, suitable as a map key.
func (ls LabelSet) Key() string {
	return ls.key
}

// Equal reports whether both sets hold the same pairs.
func (ls LabelSet) Equal(other LabelSet) bool {
	return ls.key == other.key
}

// Len returns the number of pairs.
func (ls LabelSet) Len() int {
	return len(ls.pairs)
}

// Pairs returns a copy of the pairs sorted by name.
func (ls LabelSet) Pairs() []Pair {
	out := make([]Pair, len(ls.pairs))
	copy(out, ls.pairs)
	return out
}

// Get returns the value for name and whether it is present.
func (ls LabelSet) Get(name string) (string, bool) {
	for _, p := range ls.pairs {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Map returns the set as a freshly allocated map.
func (ls LabelSet) Map() map[string]string {
	m := make(map[string]string, len(ls.pairs))
	for _, p := range ls.pairs {
		m[p.Name] = p.Value
	}
	return m
}

// With returns a new set with name set to value, replacing any existing
// value for name.
func (ls LabelSet) With(name, value string) LabelSet {
	pairs := make([]Pair, 0, len(ls.pairs)+1)
	for _, p := range ls.pairs {
		if p.Name != name {
			pairs = append(pairs, p)
		}
	}
	pairs = append(pairs, Pair{Name: name, Value: value})
	return newSortedLabelSet(pairs)
}

// String renders the set in exposition form, e.g. {a="1",b="2"}.
func (ls LabelSet) String() string {
	return FormatLabels(ls.pairs)
}
