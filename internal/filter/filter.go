// internal/filter/filter.go
package filter

import "time"

/*
 * Predicate tree node types.
 *
 * Filter is a sealed interface: only types in this package implement it, so the
 * translator and the codec can switch exhaustively over the node set. Nodes are
 * plain values. Nothing in the repository mutates a node after construction;
 * rewriting always builds new nodes through a Builder.
 *
 * Node families:
 *   - Logical: Include, Exclude, Not, And, Or
 *   - Null: IsNull
 *   - Like: IsLike, IsFuzzy
 *   - Comparison: equality, inequality and ordering over a Literal
 *   - Function equality: FunctionEqualTo
 *   - Range: Between
 *   - Spatial: Spatial with a SpatialRelation
 *   - Temporal: After, Before, During, Relative
 *   - XPath: XPathExists, XPathIsLike, XPathIsFuzzy
 *
 * Kind() names double as the "op" tag of the JSON wire form.
 */

// Filter is one node of a predicate tree.
type Filter interface {
	// Kind returns the predicate kind, e.g. "and", "isLike", "greaterThan".
	Kind() string

	// String renders the node in bracketed form, e.g. "[ title is like foo ]".
	String() string

	filterNode()
}

// Include matches everything.
type Include struct{}

// Exclude matches nothing.
type Exclude struct{}

// IncludeAll and ExcludeAll are the universal filter constants.
var (
	IncludeAll Filter = Include{}
	ExcludeAll Filter = Exclude{}
)

// Not negates its child.
type Not struct {
	Filter Filter
}

// And matches when all children match.
type And struct {
	Filters []Filter
}

// Or matches when any child matches.
type Or struct {
	Filters []Filter
}

// IsNull matches when the attribute has no value.
type IsNull struct {
	Attribute string
}

// IsLike matches the attribute against a wildcard pattern.
type IsLike struct {
	Attribute     string
	Pattern       string
	CaseSensitive bool
}

// IsFuzzy matches the attribute approximately against a literal.
type IsFuzzy struct {
	Attribute string
	Literal   string
}

// Comparison compares an attribute to a literal.
type Comparison struct {
	Operator  Operator
	Attribute string
	Literal   Literal
}

// FunctionEqualTo compares the result of a function call to a literal.
// By convention Args[0] references an attribute (AttributeRef); the
// remaining arguments are opaque values passed to the function.
type FunctionEqualTo struct {
	Function string
	Args     []any
	Literal  Literal
}

// Between matches lower <= attribute <= upper.
type Between struct {
	Attribute string
	Lower     Literal
	Upper     Literal
}

// Spatial relates an attribute geometry to a WKT geometry. Distance is used
// by the Beyond and DWithin relations only.
type Spatial struct {
	Relation  SpatialRelation
	Attribute string
	WKT       string
	Distance  float64
}

// After matches instants after Instant.
type After struct {
	Attribute string
	Instant   time.Time
}

// Before matches instants before Instant.
type Before struct {
	Attribute string
	Instant   time.Time
}

// During matches instants between Start and End.
type During struct {
	Attribute string
	Start     time.Time
	End       time.Time
}

// Relative matches instants within the last Duration.
type Relative struct {
	Attribute string
	Duration  time.Duration
}

// XPathExists matches documents where Expression selects a node.
type XPathExists struct {
	Expression string
}

// XPathIsLike matches the nodes selected by Expression against a pattern.
type XPathIsLike struct {
	Expression    string
	Pattern       string
	CaseSensitive bool
}

// XPathIsFuzzy matches the nodes selected by Expression approximately.
type XPathIsFuzzy struct {
	Expression string
	Literal    string
}

func (Include) filterNode()         {}
func (Exclude) filterNode()         {}
func (Not) filterNode()             {}
func (And) filterNode()             {}
func (Or) filterNode()              {}
func (IsNull) filterNode()          {}
func (IsLike) filterNode()          {}
func (IsFuzzy) filterNode()         {}
func (Comparison) filterNode()      {}
func (FunctionEqualTo) filterNode() {}
func (Between) filterNode()         {}
func (Spatial) filterNode()         {}
func (After) filterNode()           {}
func (Before) filterNode()          {}
func (During) filterNode()          {}
func (Relative) filterNode()        {}
func (XPathExists) filterNode()     {}
func (XPathIsLike) filterNode()     {}
func (XPathIsFuzzy) filterNode()    {}

func (Include) Kind() string         { return "include" }
func (Exclude) Kind() string         { return "exclude" }
func (Not) Kind() string             { return "not" }
func (And) Kind() string             { return "and" }
func (Or) Kind() string              { return "or" }
func (IsNull) Kind() string          { return "isNull" }
func (IsLike) Kind() string          { return "isLike" }
func (IsFuzzy) Kind() string         { return "isFuzzy" }
func (c Comparison) Kind() string    { return c.Operator.String() }
func (FunctionEqualTo) Kind() string { return "functionEqualTo" }
func (Between) Kind() string         { return "between" }
func (s Spatial) Kind() string       { return s.Relation.String() }
func (After) Kind() string           { return "after" }
func (Before) Kind() string          { return "before" }
func (During) Kind() string          { return "during" }
func (Relative) Kind() string        { return "relative" }
func (XPathExists) Kind() string     { return "xpathExists" }
func (XPathIsLike) Kind() string     { return "xpathIsLike" }
func (XPathIsFuzzy) Kind() string    { return "xpathIsFuzzy" }

// Operator identifies a comparison.
type Operator int

const (
	OpUnspecified Operator = iota
	OpEqualTo
	OpNotEqualTo
	OpGreaterThan
	OpGreaterThanOrEqualTo
	OpLessThan
	OpLessThanOrEqualTo
)

var operatorNames = map[Operator]string{
	OpEqualTo:              "equalTo",
	OpNotEqualTo:           "notEqualTo",
	OpGreaterThan:          "greaterThan",
	OpGreaterThanOrEqualTo: "greaterThanOrEqualTo",
	OpLessThan:             "lessThan",
	OpLessThanOrEqualTo:    "lessThanOrEqualTo",
}

var operatorSymbols = map[Operator]string{
	OpEqualTo:              "=",
	OpNotEqualTo:           "!=",
	OpGreaterThan:          ">",
	OpGreaterThanOrEqualTo: ">=",
	OpLessThan:             "<",
	OpLessThanOrEqualTo:    "<=",
}

// String returns the predicate kind name of the operator.
func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return "unspecified"
}

// Symbol returns the infix symbol used when rendering.
func (o Operator) Symbol() string {
	if sym, ok := operatorSymbols[o]; ok {
		return sym
	}
	return "?"
}

// IsOrdering reports whether the operator orders values (>, >=, <, <=).
func (o Operator) IsOrdering() bool {
	switch o {
	case OpGreaterThan, OpGreaterThanOrEqualTo, OpLessThan, OpLessThanOrEqualTo:
		return true
	default:
		return false
	}
}

// OperatorFromString is the inverse of Operator.String.
func OperatorFromString(s string) (Operator, bool) {
	for op, name := range operatorNames {
		if name == s {
			return op, true
		}
	}
	return OpUnspecified, false
}

// SpatialRelation identifies a spatial predicate.
type SpatialRelation int

const (
	RelUnspecified SpatialRelation = iota
	RelBeyond
	RelContains
	RelDWithin
	RelIntersects
	RelWithin
	RelCrosses
	RelDisjoint
	RelOverlaps
	RelTouches
)

var relationNames = map[SpatialRelation]string{
	RelBeyond:     "beyond",
	RelContains:   "contains",
	RelDWithin:    "dwithin",
	RelIntersects: "intersects",
	RelWithin:     "within",
	RelCrosses:    "crosses",
	RelDisjoint:   "disjoint",
	RelOverlaps:   "overlaps",
	RelTouches:    "touches",
}

func (r SpatialRelation) String() string {
	if name, ok := relationNames[r]; ok {
		return name
	}
	return "unspecified"
}

// HasDistance reports whether the relation carries a distance.
func (r SpatialRelation) HasDistance() bool {
	return r == RelBeyond || r == RelDWithin
}

// RelationFromString is the inverse of SpatialRelation.String.
func RelationFromString(s string) (SpatialRelation, bool) {
	for rel, name := range relationNames {
		if name == s {
			return rel, true
		}
	}
	return RelUnspecified, false
}
