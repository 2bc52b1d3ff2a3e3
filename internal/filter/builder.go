// internal/filter/builder.go
package filter

import "time"

/*
 * Target tree construction.
 *
 * Builder is the capability the translator uses to produce rewritten nodes.
 * There is one method per target node shape, keyed by literal kind where the
 * shape has a literal, so a host can plug in a builder that emits its own
 * representation. NodeBuilder is the default and builds Filter values.
 *
 * Every method returns a new node. Slices handed to And, Or and
 * FunctionEqualTo are copied so the caller keeps ownership of its slice.
 */

// Builder constructs target filter nodes.
type Builder interface {
	Include() Filter
	Exclude() Filter
	Not(f Filter) Filter
	And(filters []Filter) Filter
	Or(filters []Filter) Filter

	IsNull(attribute string) Filter
	IsLike(attribute, pattern string, caseSensitive bool) Filter
	IsFuzzy(attribute, literal string) Filter

	CompareText(op Operator, attribute, value string, caseSensitive bool) Filter
	CompareDate(op Operator, attribute string, value time.Time) Filter
	CompareNumber(op Operator, attribute string, value Number) Filter
	CompareBool(op Operator, attribute string, value bool) Filter
	CompareBytes(op Operator, attribute string, value []byte) Filter
	FunctionEqualTo(function string, args []any, literal Literal) Filter
	BetweenNumbers(attribute string, lower, upper Number) Filter

	Spatial(rel SpatialRelation, attribute, wkt string, distance float64) Filter

	After(attribute string, instant time.Time) Filter
	Before(attribute string, instant time.Time) Filter
	During(attribute string, start, end time.Time) Filter
	Relative(attribute string, d time.Duration) Filter

	XPathExists(expression string) Filter
	XPathIsLike(expression, pattern string, caseSensitive bool) Filter
	XPathIsFuzzy(expression, literal string) Filter
}

// NodeBuilder builds Filter values.
type NodeBuilder struct{}

var _ Builder = NodeBuilder{}

func (NodeBuilder) Include() Filter { return Include{} }
func (NodeBuilder) Exclude() Filter { return Exclude{} }

func (NodeBuilder) Not(f Filter) Filter { return Not{Filter: f} }

func (NodeBuilder) And(filters []Filter) Filter {
	return And{Filters: cloneFilters(filters)}
}

func (NodeBuilder) Or(filters []Filter) Filter {
	return Or{Filters: cloneFilters(filters)}
}

func (NodeBuilder) IsNull(attribute string) Filter {
	return IsNull{Attribute: attribute}
}

func (NodeBuilder) IsLike(attribute, pattern string, caseSensitive bool) Filter {
	return IsLike{Attribute: attribute, Pattern: pattern, CaseSensitive: caseSensitive}
}

func (NodeBuilder) IsFuzzy(attribute, literal string) Filter {
	return IsFuzzy{Attribute: attribute, Literal: literal}
}

func (NodeBuilder) CompareText(op Operator, attribute, value string, caseSensitive bool) Filter {
	return Comparison{Operator: op, Attribute: attribute, Literal: Text{Value: value, CaseSensitive: caseSensitive}}
}

func (NodeBuilder) CompareDate(op Operator, attribute string, value time.Time) Filter {
	return Comparison{Operator: op, Attribute: attribute, Literal: Date{Value: value}}
}

func (NodeBuilder) CompareNumber(op Operator, attribute string, value Number) Filter {
	return Comparison{Operator: op, Attribute: attribute, Literal: value}
}

func (NodeBuilder) CompareBool(op Operator, attribute string, value bool) Filter {
	return Comparison{Operator: op, Attribute: attribute, Literal: Bool{Value: value}}
}

func (NodeBuilder) CompareBytes(op Operator, attribute string, value []byte) Filter {
	return Comparison{Operator: op, Attribute: attribute, Literal: Bytes{Value: cloneBytes(value)}}
}

func (NodeBuilder) FunctionEqualTo(function string, args []any, literal Literal) Filter {
	var all []any
	if len(args) > 0 {
		all = append(make([]any, 0, len(args)), args...)
	}
	return FunctionEqualTo{Function: function, Args: all, Literal: literal}
}

func (NodeBuilder) BetweenNumbers(attribute string, lower, upper Number) Filter {
	return Between{Attribute: attribute, Lower: lower, Upper: upper}
}

func (NodeBuilder) Spatial(rel SpatialRelation, attribute, wkt string, distance float64) Filter {
	if !rel.HasDistance() {
		distance = 0
	}
	return Spatial{Relation: rel, Attribute: attribute, WKT: wkt, Distance: distance}
}

func (NodeBuilder) After(attribute string, instant time.Time) Filter {
	return After{Attribute: attribute, Instant: instant}
}

func (NodeBuilder) Before(attribute string, instant time.Time) Filter {
	return Before{Attribute: attribute, Instant: instant}
}

func (NodeBuilder) During(attribute string, start, end time.Time) Filter {
	return During{Attribute: attribute, Start: start, End: end}
}

func (NodeBuilder) Relative(attribute string, d time.Duration) Filter {
	return Relative{Attribute: attribute, Duration: d}
}

func (NodeBuilder) XPathExists(expression string) Filter {
	return XPathExists{Expression: expression}
}

func (NodeBuilder) XPathIsLike(expression, pattern string, caseSensitive bool) Filter {
	return XPathIsLike{Expression: expression, Pattern: pattern, CaseSensitive: caseSensitive}
}

func (NodeBuilder) XPathIsFuzzy(expression, literal string) Filter {
	return XPathIsFuzzy{Expression: expression, Literal: literal}
}

func cloneFilters(filters []Filter) []Filter {
	if filters == nil {
		return nil
	}
	out := make([]Filter, len(filters))
	copy(out, filters)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
