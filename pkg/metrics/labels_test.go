package metrics

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	want := NewLabelSet(map[string]string{"foo": "bar"})

	tests := []struct {
		name    string
		input   any
		want    LabelSet
		wantErr bool
	}{
		{name: "label set", input: want, want: want},
		{name: "label set pointer", input: &want, want: want},
		{name: "nil", input: nil, want: LabelSet{}},
		{name: "empty map", input: map[string]string{}, want: LabelSet{}},
		{name: "string map", input: map[string]string{"foo": "bar"}, want: want},
		{name: "any map", input: map[string]any{"foo": "bar"}, want: want},
		{name: "pairs", input: []Pair{{Name: "foo", Value: "bar"}}, want: want},
		{name: "string tuples", input: [][2]string{{"foo", "bar"}}, want: want},
		{name: "duplicate identical pairs", input: []Pair{{"foo", "bar"}, {"foo", "bar"}}, want: want},
		{name: "conflicting pairs", input: []Pair{{"foo", "bar"}, {"foo", "baz"}}, wantErr: true},
		{name: "string", input: "foobar", wantErr: true},
		{name: "int", input: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLabels) {
					t.Fatalf("Normalize() error = %v, want ErrInvalidLabels", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize() unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Normalize() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNormalize_OrderIndependent(t *testing.T) {
	a := MustNormalize(map[string]string{"a": "1", "b": "2"})
	b := MustNormalize([]Pair{{"b", "2"}, {"a", "1"}})

	if !a.Equal(b) {
		t.Errorf("label sets differ: %s vs %s", a, b)
	}
	if a.Key() != b.Key() {
		t.Errorf("keys differ: %q vs %q", a.Key(), b.Key())
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	first := MustNormalize(map[string]string{"x": "y"})
	second := MustNormalize(first)
	if !first.Equal(second) {
		t.Errorf("Normalize(LabelSet) changed the set: %s vs %s", first, second)
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := []Pair{{"b", "2"}, {"a", "1"}}
	_ = MustNormalize(in)
	if in[0].Name != "b" || in[1].Name != "a" {
		t.Errorf("input was reordered: %v", in)
	}
}

func TestLabelSet_KeyIsUnambiguous(t *testing.T) {
	a := MustNormalize(map[string]string{"ab": "c"})
	b := MustNormalize(map[string]string{"a": "bc"})
	if a.Equal(b) {
		t.Error("distinct label sets compare equal")
	}
}

func TestLabelSet_With(t *testing.T) {
	base := MustNormalize(map[string]string{"foo": "bar"})
	withLe := base.With("le", "1.0")

	if base.Len() != 1 {
		t.Errorf("With mutated receiver: %s", base)
	}
	if got := withLe.String(); got != `{foo="bar",le="1.0"}` {
		t.Errorf("With() = %s", got)
	}

	replaced := withLe.With("foo", "baz")
	if v, _ := replaced.Get("foo"); v != "baz" {
		t.Errorf("With() did not replace value, got %q", v)
	}
}

func TestLabelSet_Map(t *testing.T) {
	ls := MustNormalize(map[string]string{"a": "1", "b": "2"})
	m := ls.Map()
	m["c"] = "3"
	if ls.Len() != 2 {
		t.Error("Map() exposed internal state")
	}
}
