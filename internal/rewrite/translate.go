// internal/rewrite/translate.go
package rewrite

import (
	"fmt"
	"log/slog"

	"github.com/solatis/xpathrewriter/internal/filter"
	"github.com/solatis/xpathrewriter/internal/types"
)

/*
 * Predicate translation.
 *
 * Translate walks a source tree and rebuilds it through a filter.Builder.
 * Every node kind is handled by one case of an exhaustive type switch; a
 * node type outside the sealed set is an error, never a pass-through.
 *
 * XPath substitution:
 *   - XPathExists(e)         -> Not(IsNull(r))           when e maps to r
 *   - XPathIsLike(e, p, cs)  -> IsLike(r, p, cs)
 *   - XPathIsFuzzy(e, l)     -> IsFuzzy(r, l)
 *   - no matching rule       -> the same XPath predicate, rebuilt
 *
 * Shapes the target cannot express faithfully fail with an
 * *types.UnsupportedPredicateError naming the kind and argument types:
 *   - ordering and between over anything but numbers
 *   - equality against a date range, an object or a null literal
 *   - crosses, disjoint, overlaps, touches
 *   - function equality against a bytes, date range, object or null literal
 *
 * A function call without arguments has no attribute to map and is rebuilt
 * as is. Tree depth is not bounded here; decoders bound untrusted input.
 *
 * The first error aborts the walk; no partial tree is returned.
 */

// Replacements resolves XPath expressions to attribute names.
type Replacements interface {
	FindReplacement(expression string) (string, bool)
}

type noReplacements struct{}

func (noReplacements) FindReplacement(string) (string, bool) { return "", false }

// Translator rebuilds predicate trees, substituting mapped XPath predicates.
// A Translator holds no mutable state and is safe for concurrent use when
// its Replacements is.
type Translator struct {
	replacements Replacements
	builder      filter.Builder
	logger       *slog.Logger
}

// NewTranslator creates a translator. A nil replacements matches nothing, a
// nil builder means filter.NodeBuilder, a nil logger means slog.Default.
func NewTranslator(replacements Replacements, builder filter.Builder, logger *slog.Logger) *Translator {
	if replacements == nil {
		replacements = noReplacements{}
	}
	if builder == nil {
		builder = filter.NodeBuilder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{replacements: replacements, builder: builder, logger: logger}
}

// Translate returns the rewritten equivalent of f.
func (t *Translator) Translate(f filter.Filter) (filter.Filter, error) {
	return t.translate(f)
}

func (t *Translator) translate(f filter.Filter) (filter.Filter, error) {
	b := t.builder
	switch n := f.(type) {
	case nil:
		return nil, types.ErrNilFilter

	// Logical
	case filter.Include:
		return b.Include(), nil
	case filter.Exclude:
		return b.Exclude(), nil
	case filter.Not:
		child, err := t.translate(n.Filter)
		if err != nil {
			return nil, err
		}
		return b.Not(child), nil
	case filter.And:
		children, err := t.translateAll(n.Filters)
		if err != nil {
			return nil, err
		}
		return b.And(children), nil
	case filter.Or:
		children, err := t.translateAll(n.Filters)
		if err != nil {
			return nil, err
		}
		return b.Or(children), nil

	// Null and like
	case filter.IsNull:
		return b.IsNull(n.Attribute), nil
	case filter.IsLike:
		return b.IsLike(n.Attribute, n.Pattern, n.CaseSensitive), nil
	case filter.IsFuzzy:
		return b.IsFuzzy(n.Attribute, n.Literal), nil

	// Comparison, function, range
	case filter.Comparison:
		return t.comparison(n)
	case filter.FunctionEqualTo:
		return t.functionEqualTo(n)
	case filter.Between:
		lower, lok := n.Lower.(filter.Number)
		upper, uok := n.Upper.(filter.Number)
		if !lok || !uok {
			return nil, types.Unsupported(n.Kind(), fmt.Sprintf("(attribute, %s, %s)",
				filter.LiteralTypeOf(n.Lower), filter.LiteralTypeOf(n.Upper)))
		}
		return b.BetweenNumbers(n.Attribute, lower, upper), nil

	// Spatial
	case filter.Spatial:
		switch n.Relation {
		case filter.RelBeyond, filter.RelContains, filter.RelDWithin, filter.RelIntersects, filter.RelWithin:
			return b.Spatial(n.Relation, n.Attribute, n.WKT, n.Distance), nil
		case filter.RelCrosses, filter.RelDisjoint, filter.RelOverlaps, filter.RelTouches:
			return nil, types.Unsupported(n.Kind(), "(attribute, wkt)")
		default:
			return nil, fmt.Errorf("%w: spatial relation %d", types.ErrUnknownFilter, n.Relation)
		}

	// Temporal
	case filter.After:
		return b.After(n.Attribute, n.Instant), nil
	case filter.Before:
		return b.Before(n.Attribute, n.Instant), nil
	case filter.During:
		return b.During(n.Attribute, n.Start, n.End), nil
	case filter.Relative:
		return b.Relative(n.Attribute, n.Duration), nil

	// XPath
	case filter.XPathExists:
		if attr, ok := t.lookup(n.Expression); ok {
			return b.Not(b.IsNull(attr)), nil
		}
		return b.XPathExists(n.Expression), nil
	case filter.XPathIsLike:
		if attr, ok := t.lookup(n.Expression); ok {
			return b.IsLike(attr, n.Pattern, n.CaseSensitive), nil
		}
		return b.XPathIsLike(n.Expression, n.Pattern, n.CaseSensitive), nil
	case filter.XPathIsFuzzy:
		if attr, ok := t.lookup(n.Expression); ok {
			return b.IsFuzzy(attr, n.Literal), nil
		}
		return b.XPathIsFuzzy(n.Expression, n.Literal), nil
	}

	return nil, fmt.Errorf("%w: %T", types.ErrUnknownFilter, f)
}

func (t *Translator) translateAll(filters []filter.Filter) ([]filter.Filter, error) {
	if filters == nil {
		return nil, nil
	}
	out := make([]filter.Filter, 0, len(filters))
	for _, f := range filters {
		child, err := t.translate(f)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

func (t *Translator) comparison(n filter.Comparison) (filter.Filter, error) {
	b := t.builder
	if n.Operator == filter.OpUnspecified {
		return nil, fmt.Errorf("%w: comparison without operator", types.ErrUnknownFilter)
	}

	if n.Operator.IsOrdering() {
		num, ok := n.Literal.(filter.Number)
		if !ok {
			return nil, unsupportedLiteral(n.Kind(), n.Literal)
		}
		return b.CompareNumber(n.Operator, n.Attribute, num), nil
	}

	switch lit := n.Literal.(type) {
	case filter.Text:
		return b.CompareText(n.Operator, n.Attribute, lit.Value, lit.CaseSensitive), nil
	case filter.Date:
		return b.CompareDate(n.Operator, n.Attribute, lit.Value), nil
	case filter.Number:
		return b.CompareNumber(n.Operator, n.Attribute, lit), nil
	case filter.Bool:
		return b.CompareBool(n.Operator, n.Attribute, lit.Value), nil
	case filter.Bytes:
		return b.CompareBytes(n.Operator, n.Attribute, lit.Value), nil
	}
	return nil, unsupportedLiteral(n.Kind(), n.Literal)
}

func (t *Translator) functionEqualTo(n filter.FunctionEqualTo) (filter.Filter, error) {
	switch n.Literal.(type) {
	case filter.Text, filter.Bool, filter.Number, filter.Date:
	default:
		return nil, types.Unsupported(n.Kind(), fmt.Sprintf("(%s(...), %s)", n.Function, filter.LiteralTypeOf(n.Literal)))
	}

	args := n.Args
	if len(args) > 0 {
		args = append([]any{filter.AttributeRef(fmt.Sprint(args[0]))}, args[1:]...)
	}
	return t.builder.FunctionEqualTo(n.Function, args, n.Literal), nil
}

func (t *Translator) lookup(expression string) (string, bool) {
	attr, ok := t.replacements.FindReplacement(expression)
	if ok {
		t.logger.Debug("xpath replacement found", "xpath", expression, "replacement", attr)
	} else {
		t.logger.Debug("no xpath replacement found", "xpath", expression)
	}
	return attr, ok
}

func unsupportedLiteral(kind string, lit filter.Literal) error {
	return types.Unsupported(kind, fmt.Sprintf("(attribute, %s)", filter.LiteralTypeOf(lit)))
}
