// internal/rewrite/translate_test.go
package rewrite

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/xpathrewriter/internal/filter"
	"github.com/solatis/xpathrewriter/internal/rules"
	"github.com/solatis/xpathrewriter/internal/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTranslator(t *testing.T, raw ...string) *Translator {
	t.Helper()
	return NewTranslator(rules.NewRuleSet(raw, quietLogger()), nil, quietLogger())
}

func TestTranslate_XPathSubstitution(t *testing.T) {
	tr := newTranslator(t, `"/a/b":"x.y"`)

	tests := []struct {
		name   string
		source filter.Filter
		want   filter.Filter
	}{
		{
			name:   "exists becomes not null",
			source: filter.XPathExists{Expression: "/a/b"},
			want:   filter.Not{Filter: filter.IsNull{Attribute: "x.y"}},
		},
		{
			name:   "case insensitive like",
			source: filter.XPathIsLike{Expression: "/a/b", Pattern: "foo", CaseSensitive: false},
			want:   filter.IsLike{Attribute: "x.y", Pattern: "foo", CaseSensitive: false},
		},
		{
			name:   "case sensitive like",
			source: filter.XPathIsLike{Expression: "/a/b", Pattern: "Foo", CaseSensitive: true},
			want:   filter.IsLike{Attribute: "x.y", Pattern: "Foo", CaseSensitive: true},
		},
		{
			name:   "fuzzy",
			source: filter.XPathIsFuzzy{Expression: "/a/b", Literal: "fo"},
			want:   filter.IsFuzzy{Attribute: "x.y", Literal: "fo"},
		},
		{
			name:   "unmatched exists passes through",
			source: filter.XPathExists{Expression: "/a/c"},
			want:   filter.XPathExists{Expression: "/a/c"},
		},
		{
			name:   "unmatched like passes through",
			source: filter.XPathIsLike{Expression: "/a/b/c", Pattern: "foo", CaseSensitive: true},
			want:   filter.XPathIsLike{Expression: "/a/b/c", Pattern: "foo", CaseSensitive: true},
		},
		{
			name:   "unmatched fuzzy passes through",
			source: filter.XPathIsFuzzy{Expression: "a/b", Literal: "fo"},
			want:   filter.XPathIsFuzzy{Expression: "a/b", Literal: "fo"},
		},
		{
			name: "nested inside logical nodes",
			source: filter.Or{Filters: []filter.Filter{
				filter.Not{Filter: filter.XPathExists{Expression: "/a/b"}},
				filter.And{Filters: []filter.Filter{filter.XPathIsFuzzy{Expression: "/a/b", Literal: "z"}}},
			}},
			want: filter.Or{Filters: []filter.Filter{
				filter.Not{Filter: filter.Not{Filter: filter.IsNull{Attribute: "x.y"}}},
				filter.And{Filters: []filter.Filter{filter.IsFuzzy{Attribute: "x.y", Literal: "z"}}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tr.Translate(tt.source)
			if err != nil {
				t.Fatalf("Translate() error = %v, want nil", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Translate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTranslate_EmptyTableKeepsXPath(t *testing.T) {
	tr := NewTranslator(nil, nil, quietLogger())

	got, err := tr.Translate(filter.XPathExists{Expression: "/a/b"})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if want := (filter.XPathExists{Expression: "/a/b"}); got != want {
		t.Errorf("Translate() = %v, want %v", got, want)
	}
}

func TestTranslate_FirstMatchWins(t *testing.T) {
	tr := newTranslator(t, `"/a/.*":"p1"`, `"/a/b":"p2"`)

	got, err := tr.Translate(filter.XPathIsLike{Expression: "/a/b", Pattern: "v"})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	want := filter.IsLike{Attribute: "p1", Pattern: "v"}
	if got != want {
		t.Errorf("Translate() = %v, want %v", got, want)
	}
}

func TestTranslate_SupportedShapes(t *testing.T) {
	tr := newTranslator(t)
	instant := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		source filter.Filter
		want   filter.Filter
	}{
		{name: "include", source: filter.IncludeAll, want: filter.Include{}},
		{name: "exclude", source: filter.ExcludeAll, want: filter.Exclude{}},
		{
			name:   "text equality keeps case flag",
			source: filter.Comparison{Operator: filter.OpEqualTo, Attribute: "t", Literal: filter.Text{Value: "A", CaseSensitive: false}},
			want:   filter.Comparison{Operator: filter.OpEqualTo, Attribute: "t", Literal: filter.Text{Value: "A", CaseSensitive: false}},
		},
		{
			name:   "date inequality",
			source: filter.Comparison{Operator: filter.OpNotEqualTo, Attribute: "d", Literal: filter.Date{Value: instant}},
			want:   filter.Comparison{Operator: filter.OpNotEqualTo, Attribute: "d", Literal: filter.Date{Value: instant}},
		},
		{
			name:   "short ordering",
			source: filter.Comparison{Operator: filter.OpGreaterThanOrEqualTo, Attribute: "n", Literal: filter.Short(3)},
			want:   filter.Comparison{Operator: filter.OpGreaterThanOrEqualTo, Attribute: "n", Literal: filter.Short(3)},
		},
		{
			name:   "float ordering",
			source: filter.Comparison{Operator: filter.OpLessThan, Attribute: "n", Literal: filter.Float(0.5)},
			want:   filter.Comparison{Operator: filter.OpLessThan, Attribute: "n", Literal: filter.Float(0.5)},
		},
		{
			name:   "bool equality",
			source: filter.Comparison{Operator: filter.OpEqualTo, Attribute: "b", Literal: filter.Bool{Value: true}},
			want:   filter.Comparison{Operator: filter.OpEqualTo, Attribute: "b", Literal: filter.Bool{Value: true}},
		},
		{
			name:   "bytes equality",
			source: filter.Comparison{Operator: filter.OpEqualTo, Attribute: "raw", Literal: filter.Bytes{Value: []byte{1, 2}}},
			want:   filter.Comparison{Operator: filter.OpEqualTo, Attribute: "raw", Literal: filter.Bytes{Value: []byte{1, 2}}},
		},
		{
			name:   "mixed width between",
			source: filter.Between{Attribute: "n", Lower: filter.Int(1), Upper: filter.Double(9.5)},
			want:   filter.Between{Attribute: "n", Lower: filter.Int(1), Upper: filter.Double(9.5)},
		},
		{
			name: "function equality",
			source: filter.FunctionEqualTo{
				Function: "proximity",
				Args:     []any{filter.AttributeRef("anyText"), 2, "a b"},
				Literal:  filter.Bool{Value: true},
			},
			want: filter.FunctionEqualTo{
				Function: "proximity",
				Args:     []any{filter.AttributeRef("anyText"), 2, "a b"},
				Literal:  filter.Bool{Value: true},
			},
		},
		{
			name: "function attribute argument from plain string",
			source: filter.FunctionEqualTo{
				Function: "lower",
				Args:     []any{"title"},
				Literal:  filter.Text{Value: "x", CaseSensitive: true},
			},
			want: filter.FunctionEqualTo{
				Function: "lower",
				Args:     []any{filter.AttributeRef("title")},
				Literal:  filter.Text{Value: "x", CaseSensitive: true},
			},
		},
		{
			name:   "function without arguments",
			source: filter.FunctionEqualTo{Function: "proximity", Literal: filter.Bool{Value: true}},
			want:   filter.FunctionEqualTo{Function: "proximity", Literal: filter.Bool{Value: true}},
		},
		{
			name:   "beyond",
			source: filter.Spatial{Relation: filter.RelBeyond, Attribute: "g", WKT: "POINT (0 0)", Distance: 3},
			want:   filter.Spatial{Relation: filter.RelBeyond, Attribute: "g", WKT: "POINT (0 0)", Distance: 3},
		},
		{
			name:   "within",
			source: filter.Spatial{Relation: filter.RelWithin, Attribute: "g", WKT: "POINT (0 0)"},
			want:   filter.Spatial{Relation: filter.RelWithin, Attribute: "g", WKT: "POINT (0 0)"},
		},
		{
			name:   "relative",
			source: filter.Relative{Attribute: "m", Duration: time.Hour},
			want:   filter.Relative{Attribute: "m", Duration: time.Hour},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tr.Translate(tt.source)
			if err != nil {
				t.Fatalf("Translate() error = %v, want nil", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Translate() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestTranslate_Unsupported(t *testing.T) {
	tr := newTranslator(t, `"/a":"x"`)
	instant := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		source     filter.Filter
		wantKind   string
		wantDetail string
	}{
		{
			name:       "string ordering",
			source:     filter.Comparison{Operator: filter.OpGreaterThan, Attribute: "attr", Literal: filter.Text{Value: "stringLiteral"}},
			wantKind:   "greaterThan",
			wantDetail: "(attribute, text)",
		},
		{
			name:       "date ordering",
			source:     filter.Comparison{Operator: filter.OpLessThanOrEqualTo, Attribute: "d", Literal: filter.Date{Value: instant}},
			wantKind:   "lessThanOrEqualTo",
			wantDetail: "(attribute, date)",
		},
		{
			name:       "object ordering",
			source:     filter.Comparison{Operator: filter.OpLessThan, Attribute: "o", Literal: filter.Object{Value: 1}},
			wantKind:   "lessThan",
			wantDetail: "(attribute, object)",
		},
		{
			name:       "date range equality",
			source:     filter.Comparison{Operator: filter.OpEqualTo, Attribute: "d", Literal: filter.DateRange{Start: instant, End: instant}},
			wantKind:   "equalTo",
			wantDetail: "(attribute, dateRange)",
		},
		{
			name:       "object inequality",
			source:     filter.Comparison{Operator: filter.OpNotEqualTo, Attribute: "o", Literal: filter.Object{Value: struct{}{}}},
			wantKind:   "notEqualTo",
			wantDetail: "(attribute, object)",
		},
		{
			name:       "null literal",
			source:     filter.Comparison{Operator: filter.OpEqualTo, Attribute: "o"},
			wantKind:   "equalTo",
			wantDetail: "(attribute, null)",
		},
		{
			name:       "text between",
			source:     filter.Between{Attribute: "s", Lower: filter.Text{Value: "a"}, Upper: filter.Text{Value: "z"}},
			wantKind:   "between",
			wantDetail: "(attribute, text, text)",
		},
		{
			name:       "date between",
			source:     filter.Between{Attribute: "d", Lower: filter.Date{Value: instant}, Upper: filter.Long(1)},
			wantKind:   "between",
			wantDetail: "(attribute, date, number)",
		},
		{name: "crosses", source: filter.Spatial{Relation: filter.RelCrosses, Attribute: "g", WKT: "POINT (0 0)"}, wantKind: "crosses", wantDetail: "(attribute, wkt)"},
		{name: "disjoint", source: filter.Spatial{Relation: filter.RelDisjoint, Attribute: "g", WKT: "POINT (0 0)"}, wantKind: "disjoint", wantDetail: "(attribute, wkt)"},
		{name: "overlaps", source: filter.Spatial{Relation: filter.RelOverlaps, Attribute: "g", WKT: "POINT (0 0)"}, wantKind: "overlaps", wantDetail: "(attribute, wkt)"},
		{name: "touches", source: filter.Spatial{Relation: filter.RelTouches, Attribute: "g", WKT: "POINT (0 0)"}, wantKind: "touches", wantDetail: "(attribute, wkt)"},
		{
			name:       "function with bytes literal",
			source:     filter.FunctionEqualTo{Function: "f", Args: []any{filter.AttributeRef("a")}, Literal: filter.Bytes{Value: []byte{1}}},
			wantKind:   "functionEqualTo",
			wantDetail: "(f(...), bytes)",
		},
		{
			name: "unsupported leaf deep in tree",
			source: filter.And{Filters: []filter.Filter{
				filter.XPathExists{Expression: "/a"},
				filter.Not{Filter: filter.Spatial{Relation: filter.RelTouches, Attribute: "g", WKT: "POINT (0 0)"}},
			}},
			wantKind:   "touches",
			wantDetail: "(attribute, wkt)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tr.Translate(tt.source)
			if got != nil {
				t.Errorf("Translate() = %v, want nil", got)
			}
			if !errors.Is(err, types.ErrUnsupportedPredicate) {
				t.Fatalf("Translate() error = %v, want %v", err, types.ErrUnsupportedPredicate)
			}
			var upe *types.UnsupportedPredicateError
			if !errors.As(err, &upe) {
				t.Fatalf("Translate() error type = %T, want *types.UnsupportedPredicateError", err)
			}
			if upe.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", upe.Kind, tt.wantKind)
			}
			if upe.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", upe.Detail, tt.wantDetail)
			}
		})
	}
}

func TestTranslate_LongConjunctionChain(t *testing.T) {
	tr := newTranslator(t, `"/a/b":"x.y"`)

	source := filter.Filter(filter.XPathExists{Expression: "/a/b"})
	want := filter.Filter(filter.Not{Filter: filter.IsNull{Attribute: "x.y"}})
	for i := 0; i < 4*types.MaxFilterDepth; i++ {
		attr := fmt.Sprintf("attr%d", i)
		source = filter.And{Filters: []filter.Filter{source, filter.IsNull{Attribute: attr}}}
		want = filter.And{Filters: []filter.Filter{want, filter.IsNull{Attribute: attr}}}
	}

	got, err := tr.Translate(source)
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Translate() produced a different tree")
	}
}

func TestTranslate_InvalidTrees(t *testing.T) {
	tr := newTranslator(t)

	tests := []struct {
		name    string
		source  filter.Filter
		wantErr error
	}{
		{name: "nil root", source: nil, wantErr: types.ErrNilFilter},
		{name: "nil child", source: filter.Not{}, wantErr: types.ErrNilFilter},
		{name: "nil in and", source: filter.And{Filters: []filter.Filter{filter.IncludeAll, nil}}, wantErr: types.ErrNilFilter},
		{name: "pointer node", source: &filter.IsNull{Attribute: "a"}, wantErr: types.ErrUnknownFilter},
		{name: "no operator", source: filter.Comparison{Attribute: "a", Literal: filter.Long(1)}, wantErr: types.ErrUnknownFilter},
		{name: "no relation", source: filter.Spatial{Attribute: "g", WKT: "POINT (0 0)"}, wantErr: types.ErrUnknownFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Translate(tt.source)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Translate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// recordingBuilder wraps NodeBuilder and counts calls per method family.
type recordingBuilder struct {
	filter.NodeBuilder
	numbers int
}

func (b *recordingBuilder) CompareNumber(op filter.Operator, attribute string, value filter.Number) filter.Filter {
	b.numbers++
	return b.NodeBuilder.CompareNumber(op, attribute, value)
}

func TestTranslate_NumericWidthsShareOneBuilderCall(t *testing.T) {
	b := &recordingBuilder{}
	tr := NewTranslator(nil, b, quietLogger())

	source := filter.Or{Filters: []filter.Filter{
		filter.Comparison{Operator: filter.OpEqualTo, Attribute: "n", Literal: filter.Short(1)},
		filter.Comparison{Operator: filter.OpEqualTo, Attribute: "n", Literal: filter.Int(2)},
		filter.Comparison{Operator: filter.OpEqualTo, Attribute: "n", Literal: filter.Long(3)},
		filter.Comparison{Operator: filter.OpGreaterThan, Attribute: "n", Literal: filter.Float(4)},
		filter.Comparison{Operator: filter.OpLessThan, Attribute: "n", Literal: filter.Double(5)},
	}}

	if _, err := tr.Translate(source); err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if b.numbers != 5 {
		t.Errorf("CompareNumber calls = %d, want 5", b.numbers)
	}
}

// Property-based test: trees without XPath predicates come back unchanged
func TestTranslate_PropertyNoOpIdempotence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	tr := newTranslator(t, `"/a/.*":"p1"`, `".*":"everything"`)

	properties.Property("xpath-free trees translate to equal trees", prop.ForAll(
		func(seed int64) bool {
			source := randomTree(rand.New(rand.NewSource(seed)), 4)
			got, err := tr.Translate(source)
			if err != nil {
				t.Logf("Translate(%v) error = %v", source, err)
				return false
			}
			return reflect.DeepEqual(got, source)
		},
		gen.Int64(),
	))

	properties.Property("translation does not modify the source", prop.ForAll(
		func(seed int64) bool {
			source := randomTree(rand.New(rand.NewSource(seed)), 4)
			again := randomTree(rand.New(rand.NewSource(seed)), 4)
			if _, err := tr.Translate(source); err != nil {
				return false
			}
			return reflect.DeepEqual(source, again)
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

// randomTree builds a tree from supported, XPath-free node shapes.
func randomTree(r *rand.Rand, depth int) filter.Filter {
	if depth > 0 && r.Intn(3) == 0 {
		switch r.Intn(3) {
		case 0:
			return filter.Not{Filter: randomTree(r, depth-1)}
		case 1:
			return filter.And{Filters: randomChildren(r, depth-1)}
		default:
			return filter.Or{Filters: randomChildren(r, depth-1)}
		}
	}
	return randomLeaf(r)
}

func randomChildren(r *rand.Rand, depth int) []filter.Filter {
	children := make([]filter.Filter, r.Intn(4))
	for i := range children {
		children[i] = randomTree(r, depth)
	}
	return children
}

func randomLeaf(r *rand.Rand) filter.Filter {
	attrs := []string{"title", "security.releasableTo", "resource-size", "location", "modified"}
	attr := attrs[r.Intn(len(attrs))]
	instant := time.Unix(r.Int63n(1<<32), 0).UTC()
	equality := []filter.Operator{filter.OpEqualTo, filter.OpNotEqualTo}
	ordering := []filter.Operator{
		filter.OpGreaterThan, filter.OpGreaterThanOrEqualTo,
		filter.OpLessThan, filter.OpLessThanOrEqualTo,
	}
	numbers := []filter.Number{
		filter.Short(int16(r.Intn(100))),
		filter.Int(r.Int31()),
		filter.Long(r.Int63()),
		filter.Float(r.Float32()),
		filter.Double(r.NormFloat64()),
	}

	switch r.Intn(16) {
	case 0:
		return filter.IncludeAll
	case 1:
		return filter.ExcludeAll
	case 2:
		return filter.IsNull{Attribute: attr}
	case 3:
		return filter.IsLike{Attribute: attr, Pattern: "*foo*", CaseSensitive: r.Intn(2) == 0}
	case 4:
		return filter.IsFuzzy{Attribute: attr, Literal: "fooo"}
	case 5:
		return filter.Comparison{Operator: equality[r.Intn(2)], Attribute: attr,
			Literal: filter.Text{Value: "v", CaseSensitive: r.Intn(2) == 0}}
	case 6:
		return filter.Comparison{Operator: equality[r.Intn(2)], Attribute: attr, Literal: filter.Date{Value: instant}}
	case 7:
		return filter.Comparison{Operator: ordering[r.Intn(4)], Attribute: attr, Literal: numbers[r.Intn(5)]}
	case 8:
		return filter.Comparison{Operator: equality[r.Intn(2)], Attribute: attr, Literal: filter.Bool{Value: r.Intn(2) == 0}}
	case 9:
		return filter.Comparison{Operator: equality[r.Intn(2)], Attribute: attr, Literal: filter.Bytes{Value: []byte{byte(r.Intn(256))}}}
	case 10:
		return filter.FunctionEqualTo{Function: "proximity",
			Args: []any{filter.AttributeRef(attr), r.Intn(10)}, Literal: numbers[r.Intn(5)]}
	case 11:
		return filter.Between{Attribute: attr, Lower: numbers[r.Intn(5)], Upper: numbers[r.Intn(5)]}
	case 12:
		rels := []filter.SpatialRelation{filter.RelBeyond, filter.RelContains, filter.RelDWithin, filter.RelIntersects, filter.RelWithin}
		rel := rels[r.Intn(len(rels))]
		s := filter.Spatial{Relation: rel, Attribute: attr, WKT: "POINT (1 2)"}
		if rel.HasDistance() {
			s.Distance = r.Float64() * 1000
		}
		return s
	case 13:
		if r.Intn(2) == 0 {
			return filter.After{Attribute: attr, Instant: instant}
		}
		return filter.Before{Attribute: attr, Instant: instant}
	case 14:
		return filter.During{Attribute: attr, Start: instant, End: instant.Add(time.Hour)}
	default:
		return filter.Relative{Attribute: attr, Duration: time.Duration(r.Int63n(int64(time.Hour)))}
	}
}
