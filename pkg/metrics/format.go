package metrics

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// FormatValue renders a sample value the way the exposition consumer expects:
// +Inf, -Inf and NaN for the special values, otherwise the shortest decimal
// that round-trips, always carrying a fractional part or an exponent
// (1 renders as "1.0", 1e16 as "1e+16").
func FormatValue(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsNaN(v):
		return "NaN"
	}

	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// FormatLabels renders pairs as {name="value",...} sorted by name. Values
// are substituted as-is. An empty input renders as the empty string.
func FormatLabels(pairs []Pair) string {
	if len(pairs) == 0 {
		return ""
	}

	sorted := pairs
	if !sort.SliceIsSorted(pairs, func(i, j int) bool { return pairs[i].Name < pairs[j].Name }) {
		sorted = make([]Pair, len(pairs))
		copy(sorted, pairs)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	}

	var sb strings.Builder
	sb.WriteByte('{')
	for i, p := range sorted {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(p.Name)
		sb.WriteString(`="`)
		sb.WriteString(p.Value)
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String()
}

// RenderLine renders a single sample line: name, labels (if any), a space
// and the formatted value.
func RenderLine(name string, labels []Pair, value float64) string {
	return name + FormatLabels(labels) + " " + FormatValue(value)
}
