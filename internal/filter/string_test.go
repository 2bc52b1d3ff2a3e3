package filter

import (
	"testing"
	"time"
)

func TestFilterString(t *testing.T) {
	instant := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{name: "include", filter: IncludeAll, want: "INCLUDE"},
		{name: "exclude", filter: ExcludeAll, want: "EXCLUDE"},
		{
			name:   "case insensitive like",
			filter: IsLike{Attribute: "security.releasableTo", Pattern: "FVEY"},
			want:   "[ security.releasableTo is like FVEY ]",
		},
		{
			name:   "case sensitive like",
			filter: IsLike{Attribute: "title", Pattern: "Foo*", CaseSensitive: true},
			want:   "[ title LIKE Foo* ]",
		},
		{
			name:   "not is null",
			filter: Not{Filter: IsNull{Attribute: "title"}},
			want:   "[ NOT [ title IS NULL ] ]",
		},
		{
			name: "and of comparisons",
			filter: And{Filters: []Filter{
				Comparison{Operator: OpEqualTo, Attribute: "a", Literal: Long(1)},
				Comparison{Operator: OpGreaterThan, Attribute: "b", Literal: Int(2)},
			}},
			want: "[ [ a = 1 ] AND [ b > 2 ] ]",
		},
		{name: "empty or", filter: Or{}, want: "[ ]"},
		{
			name:   "fuzzy",
			filter: IsFuzzy{Attribute: "title", Literal: "pubs"},
			want:   "[ title is fuzzy like pubs ]",
		},
		{
			name:   "float literal keeps single precision digits",
			filter: Comparison{Operator: OpLessThanOrEqualTo, Attribute: "w", Literal: Float(0.1)},
			want:   "[ w <= 0.1 ]",
		},
		{
			name:   "between",
			filter: Between{Attribute: "size", Lower: Long(1), Upper: Double(2.5)},
			want:   "[ size BETWEEN 1 AND 2.5 ]",
		},
		{
			name: "function equality",
			filter: FunctionEqualTo{
				Function: "proximity",
				Args:     []any{AttributeRef("anyText"), 2, "foo bar"},
				Literal:  Bool{Value: true},
			},
			want: "[ proximity(anyText, 2, foo bar) = true ]",
		},
		{
			name:   "dwithin carries distance",
			filter: Spatial{Relation: RelDWithin, Attribute: "location", WKT: "POINT (1 2)", Distance: 10},
			want:   "[ location DWITHIN POINT (1 2) 10 ]",
		},
		{
			name:   "intersects",
			filter: Spatial{Relation: RelIntersects, Attribute: "location", WKT: "POINT (1 2)"},
			want:   "[ location INTERSECTS POINT (1 2) ]",
		},
		{
			name:   "after",
			filter: After{Attribute: "created", Instant: instant},
			want:   "[ created AFTER 2024-01-02T03:04:05Z ]",
		},
		{
			name:   "relative",
			filter: Relative{Attribute: "modified", Duration: 90 * time.Second},
			want:   "[ modified DURING LAST 1m30s ]",
		},
		{
			name:   "xpath exists",
			filter: XPathExists{Expression: "/a/b"},
			want:   "[ xpath(/a/b) EXISTS ]",
		},
		{
			name:   "xpath like",
			filter: XPathIsLike{Expression: "/a/b", Pattern: "foo"},
			want:   "[ xpath(/a/b) is like foo ]",
		},
		{
			name:   "nil child",
			filter: Not{},
			want:   "[ NOT <nil> ]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
