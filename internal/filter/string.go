// internal/filter/string.go
package filter

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

/*
 * Text rendering of predicate trees.
 *
 * Every predicate renders as "[ <lhs> <op> <rhs> ]" and logical nodes wrap
 * their rendered children, so a whole tree prints on one line:
 *
 *   [ [ title is like foo ] AND [ NOT [ country IS NULL ] ] ]
 *
 * The form is for logs, golden files and the CLI. It is not parsed back.
 */

func (Include) String() string { return "INCLUDE" }
func (Exclude) String() string { return "EXCLUDE" }

func (n Not) String() string {
	return "[ NOT " + render(n.Filter) + " ]"
}

func (a And) String() string { return joinFilters(a.Filters, "AND") }
func (o Or) String() string  { return joinFilters(o.Filters, "OR") }

func (n IsNull) String() string {
	return "[ " + n.Attribute + " IS NULL ]"
}

func (l IsLike) String() string {
	return "[ " + l.Attribute + " " + likeVerb(l.CaseSensitive) + " " + l.Pattern + " ]"
}

func (f IsFuzzy) String() string {
	return "[ " + f.Attribute + " is fuzzy like " + f.Literal + " ]"
}

func (c Comparison) String() string {
	return "[ " + c.Attribute + " " + c.Operator.Symbol() + " " + renderLiteral(c.Literal) + " ]"
}

func (f FunctionEqualTo) String() string {
	args := make([]string, len(f.Args))
	for i, arg := range f.Args {
		args[i] = fmt.Sprint(arg)
	}
	return "[ " + f.Function + "(" + strings.Join(args, ", ") + ") = " + renderLiteral(f.Literal) + " ]"
}

func (b Between) String() string {
	return "[ " + b.Attribute + " BETWEEN " + renderLiteral(b.Lower) + " AND " + renderLiteral(b.Upper) + " ]"
}

func (s Spatial) String() string {
	if s.Relation.HasDistance() {
		return fmt.Sprintf("[ %s %s %s %s ]", s.Attribute, strings.ToUpper(s.Relation.String()),
			s.WKT, strconv.FormatFloat(s.Distance, 'g', -1, 64))
	}
	return "[ " + s.Attribute + " " + strings.ToUpper(s.Relation.String()) + " " + s.WKT + " ]"
}

func (a After) String() string {
	return "[ " + a.Attribute + " AFTER " + formatTime(a.Instant) + " ]"
}

func (b Before) String() string {
	return "[ " + b.Attribute + " BEFORE " + formatTime(b.Instant) + " ]"
}

func (d During) String() string {
	return "[ " + d.Attribute + " DURING " + formatTime(d.Start) + "/" + formatTime(d.End) + " ]"
}

func (r Relative) String() string {
	return "[ " + r.Attribute + " DURING LAST " + r.Duration.String() + " ]"
}

func (x XPathExists) String() string {
	return "[ xpath(" + x.Expression + ") EXISTS ]"
}

func (x XPathIsLike) String() string {
	return "[ xpath(" + x.Expression + ") " + likeVerb(x.CaseSensitive) + " " + x.Pattern + " ]"
}

func (x XPathIsFuzzy) String() string {
	return "[ xpath(" + x.Expression + ") is fuzzy like " + x.Literal + " ]"
}

func (t Text) String() string { return t.Value }

func (d Date) String() string { return formatTime(d.Value) }

func (r DateRange) String() string {
	return formatTime(r.Start) + "/" + formatTime(r.End)
}

func (n Number) String() string {
	switch {
	case n.Kind.IsInteger():
		return strconv.FormatInt(n.Int, 10)
	case n.Kind == NumberFloat:
		return strconv.FormatFloat(n.Float, 'g', -1, 32)
	default:
		return strconv.FormatFloat(n.Float, 'g', -1, 64)
	}
}

func (b Bool) String() string { return strconv.FormatBool(b.Value) }

func (b Bytes) String() string { return base64.StdEncoding.EncodeToString(b.Value) }

func (o Object) String() string { return fmt.Sprint(o.Value) }

// Case-sensitive like renders as LIKE, case-insensitive as "is like".
func likeVerb(caseSensitive bool) string {
	if caseSensitive {
		return "LIKE"
	}
	return "is like"
}

func joinFilters(filters []Filter, op string) string {
	if len(filters) == 0 {
		return "[ ]"
	}
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = render(f)
	}
	return "[ " + strings.Join(parts, " "+op+" ") + " ]"
}

func render(f Filter) string {
	if f == nil {
		return "<nil>"
	}
	return f.String()
}

func renderLiteral(l Literal) string {
	if l == nil {
		return "null"
	}
	return l.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
