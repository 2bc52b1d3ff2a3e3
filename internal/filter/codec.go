// internal/filter/codec.go
package filter

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb/encoding/wkt"

	"github.com/solatis/xpathrewriter/internal/types"
)

/*
 * JSON wire form of predicate trees.
 *
 * Nodes are objects tagged by "op" (the node Kind). Literals are objects
 * tagged by "type" (the LiteralType). Example:
 *
 *   {"op":"and","filters":[
 *     {"op":"xpathIsLike","expression":"/a/b","pattern":"foo"},
 *     {"op":"greaterThan","attribute":"size",
 *      "literal":{"type":"number","kind":"long","value":10}}]}
 *
 * Numbers travel as JSON numbers but are decoded through json.Number so
 * long values keep full precision. Instants are RFC3339Nano, durations are
 * milliseconds. Spatial WKT must decode with orb's WKT reader.
 *
 * Decoding enforces types.MaxFilterDepth. Every decode failure wraps
 * types.ErrMalformedFilter.
 */

type wireFilter struct {
	Op string `json:"op"`

	Filter  *wireFilter   `json:"filter,omitempty"`
	Filters []*wireFilter `json:"filters,omitempty"`

	Attribute     string `json:"attribute,omitempty"`
	Expression    string `json:"expression,omitempty"`
	Pattern       string `json:"pattern,omitempty"`
	CaseSensitive bool   `json:"caseSensitive,omitempty"`
	Text          string `json:"text,omitempty"`

	Literal *wireLiteral `json:"literal,omitempty"`
	Lower   *wireLiteral `json:"lower,omitempty"`
	Upper   *wireLiteral `json:"upper,omitempty"`

	Function string            `json:"function,omitempty"`
	Args     []json.RawMessage `json:"args,omitempty"`

	WKT      string   `json:"wkt,omitempty"`
	Distance *float64 `json:"distance,omitempty"`

	Instant        *time.Time `json:"instant,omitempty"`
	Start          *time.Time `json:"start,omitempty"`
	End            *time.Time `json:"end,omitempty"`
	DurationMillis *int64     `json:"durationMillis,omitempty"`
}

type wireLiteral struct {
	Type          string          `json:"type"`
	Kind          string          `json:"kind,omitempty"`
	CaseSensitive *bool           `json:"caseSensitive,omitempty"`
	Value         json.RawMessage `json:"value,omitempty"`
	Start         *time.Time      `json:"start,omitempty"`
	End           *time.Time      `json:"end,omitempty"`
}

// Marshal encodes a filter tree to its JSON wire form.
func Marshal(f Filter) ([]byte, error) {
	w, err := toWire(f, 0)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// Unmarshal decodes a filter tree from its JSON wire form.
func Unmarshal(data []byte) (Filter, error) {
	var w wireFilter
	if err := decodeJSON(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrMalformedFilter, err)
	}
	return fromWire(&w, 0)
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func toWire(f Filter, depth int) (*wireFilter, error) {
	if depth > types.MaxFilterDepth {
		return nil, types.ErrFilterTooDeep
	}
	if f == nil {
		return nil, types.ErrNilFilter
	}

	w := &wireFilter{Op: f.Kind()}
	switch n := f.(type) {
	case Include, Exclude:
	case Not:
		child, err := toWire(n.Filter, depth+1)
		if err != nil {
			return nil, err
		}
		w.Filter = child
	case And:
		children, err := toWireList(n.Filters, depth+1)
		if err != nil {
			return nil, err
		}
		w.Filters = children
	case Or:
		children, err := toWireList(n.Filters, depth+1)
		if err != nil {
			return nil, err
		}
		w.Filters = children
	case IsNull:
		w.Attribute = n.Attribute
	case IsLike:
		w.Attribute, w.Pattern, w.CaseSensitive = n.Attribute, n.Pattern, n.CaseSensitive
	case IsFuzzy:
		w.Attribute, w.Text = n.Attribute, n.Literal
	case Comparison:
		if _, ok := operatorNames[n.Operator]; !ok {
			return nil, fmt.Errorf("%w: comparison operator %d", types.ErrUnknownFilter, n.Operator)
		}
		lit, err := literalToWire(n.Literal)
		if err != nil {
			return nil, err
		}
		w.Attribute, w.Literal = n.Attribute, lit
	case FunctionEqualTo:
		args, err := argsToWire(n.Args)
		if err != nil {
			return nil, err
		}
		lit, err := literalToWire(n.Literal)
		if err != nil {
			return nil, err
		}
		w.Function, w.Args, w.Literal = n.Function, args, lit
	case Between:
		lower, err := literalToWire(n.Lower)
		if err != nil {
			return nil, err
		}
		upper, err := literalToWire(n.Upper)
		if err != nil {
			return nil, err
		}
		w.Attribute, w.Lower, w.Upper = n.Attribute, lower, upper
	case Spatial:
		if _, ok := relationNames[n.Relation]; !ok {
			return nil, fmt.Errorf("%w: spatial relation %d", types.ErrUnknownFilter, n.Relation)
		}
		w.Attribute, w.WKT = n.Attribute, n.WKT
		if n.Relation.HasDistance() {
			d := n.Distance
			w.Distance = &d
		}
	case After:
		w.Attribute, w.Instant = n.Attribute, timePtr(n.Instant)
	case Before:
		w.Attribute, w.Instant = n.Attribute, timePtr(n.Instant)
	case During:
		w.Attribute, w.Start, w.End = n.Attribute, timePtr(n.Start), timePtr(n.End)
	case Relative:
		ms := n.Duration.Milliseconds()
		w.Attribute, w.DurationMillis = n.Attribute, &ms
	case XPathExists:
		w.Expression = n.Expression
	case XPathIsLike:
		w.Expression, w.Pattern, w.CaseSensitive = n.Expression, n.Pattern, n.CaseSensitive
	case XPathIsFuzzy:
		w.Expression, w.Text = n.Expression, n.Literal
	default:
		return nil, fmt.Errorf("%w: %T", types.ErrUnknownFilter, f)
	}
	return w, nil
}

func toWireList(filters []Filter, depth int) ([]*wireFilter, error) {
	out := make([]*wireFilter, 0, len(filters))
	for _, f := range filters {
		w, err := toWire(f, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func argsToWire(args []any) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(args))
	for _, arg := range args {
		var v any = arg
		if ref, ok := arg.(AttributeRef); ok {
			v = string(ref)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: function argument: %w", types.ErrMalformedFilter, err)
		}
		out = append(out, data)
	}
	return out, nil
}

func literalToWire(l Literal) (*wireLiteral, error) {
	if l == nil {
		return nil, nil
	}
	w := &wireLiteral{Type: l.LiteralType()}
	var value any
	switch lit := l.(type) {
	case Text:
		cs := lit.CaseSensitive
		w.CaseSensitive = &cs
		value = lit.Value
	case Date:
		value = lit.Value
	case DateRange:
		w.Start, w.End = timePtr(lit.Start), timePtr(lit.End)
		return w, nil
	case Number:
		if !lit.Kind.IsInteger() && (math.IsInf(lit.Float, 0) || math.IsNaN(lit.Float)) {
			return nil, fmt.Errorf("%w: non-finite number", types.ErrMalformedFilter)
		}
		w.Kind = lit.Kind.String()
		value = json.Number(lit.String())
	case Bool:
		value = lit.Value
	case Bytes:
		value = base64.StdEncoding.EncodeToString(lit.Value)
	case Object:
		value = lit.Value
	default:
		return nil, fmt.Errorf("%w: literal %T", types.ErrUnknownFilter, l)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s literal: %w", types.ErrMalformedFilter, w.Type, err)
	}
	w.Value = data
	return w, nil
}

func fromWire(w *wireFilter, depth int) (Filter, error) {
	if depth > types.MaxFilterDepth {
		return nil, types.ErrFilterTooDeep
	}
	if w == nil {
		return nil, fmt.Errorf("%w: null node", types.ErrMalformedFilter)
	}

	switch w.Op {
	case "include":
		return Include{}, nil
	case "exclude":
		return Exclude{}, nil
	case "not":
		child, err := fromWire(w.Filter, depth+1)
		if err != nil {
			return nil, err
		}
		return Not{Filter: child}, nil
	case "and", "or":
		children := make([]Filter, 0, len(w.Filters))
		for _, c := range w.Filters {
			child, err := fromWire(c, depth+1)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		if w.Op == "and" {
			return And{Filters: children}, nil
		}
		return Or{Filters: children}, nil
	case "isNull":
		return IsNull{Attribute: w.Attribute}, nil
	case "isLike":
		return IsLike{Attribute: w.Attribute, Pattern: w.Pattern, CaseSensitive: w.CaseSensitive}, nil
	case "isFuzzy":
		return IsFuzzy{Attribute: w.Attribute, Literal: w.Text}, nil
	case "functionEqualTo":
		return functionFromWire(w)
	case "between":
		lower, err := literalFromWire(w.Lower)
		if err != nil {
			return nil, err
		}
		upper, err := literalFromWire(w.Upper)
		if err != nil {
			return nil, err
		}
		return Between{Attribute: w.Attribute, Lower: lower, Upper: upper}, nil
	case "after", "before":
		if w.Instant == nil {
			return nil, fmt.Errorf("%w: %s without instant", types.ErrMalformedFilter, w.Op)
		}
		if w.Op == "after" {
			return After{Attribute: w.Attribute, Instant: *w.Instant}, nil
		}
		return Before{Attribute: w.Attribute, Instant: *w.Instant}, nil
	case "during":
		if w.Start == nil || w.End == nil {
			return nil, fmt.Errorf("%w: during without start and end", types.ErrMalformedFilter)
		}
		return During{Attribute: w.Attribute, Start: *w.Start, End: *w.End}, nil
	case "relative":
		if w.DurationMillis == nil {
			return nil, fmt.Errorf("%w: relative without durationMillis", types.ErrMalformedFilter)
		}
		return Relative{Attribute: w.Attribute, Duration: time.Duration(*w.DurationMillis) * time.Millisecond}, nil
	case "xpathExists":
		return XPathExists{Expression: w.Expression}, nil
	case "xpathIsLike":
		return XPathIsLike{Expression: w.Expression, Pattern: w.Pattern, CaseSensitive: w.CaseSensitive}, nil
	case "xpathIsFuzzy":
		return XPathIsFuzzy{Expression: w.Expression, Literal: w.Text}, nil
	}

	if op, ok := OperatorFromString(w.Op); ok {
		lit, err := literalFromWire(w.Literal)
		if err != nil {
			return nil, err
		}
		return Comparison{Operator: op, Attribute: w.Attribute, Literal: lit}, nil
	}
	if rel, ok := RelationFromString(w.Op); ok {
		return spatialFromWire(rel, w)
	}
	return nil, fmt.Errorf("%w: unknown op %q", types.ErrMalformedFilter, w.Op)
}

func functionFromWire(w *wireFilter) (Filter, error) {
	args := make([]any, 0, len(w.Args))
	for i, raw := range w.Args {
		var v any
		if err := decodeJSON(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: function argument %d: %w", types.ErrMalformedFilter, i, err)
		}
		if s, ok := v.(string); ok && i == 0 {
			v = AttributeRef(s)
		}
		args = append(args, v)
	}
	lit, err := literalFromWire(w.Literal)
	if err != nil {
		return nil, err
	}
	return FunctionEqualTo{Function: w.Function, Args: args, Literal: lit}, nil
}

func spatialFromWire(rel SpatialRelation, w *wireFilter) (Filter, error) {
	if _, err := wkt.Unmarshal(w.WKT); err != nil {
		return nil, fmt.Errorf("%w: %s %q: %w", types.ErrInvalidGeometry, rel, w.WKT, err)
	}
	s := Spatial{Relation: rel, Attribute: w.Attribute, WKT: w.WKT}
	if rel.HasDistance() {
		if w.Distance == nil {
			return nil, fmt.Errorf("%w: %s without distance", types.ErrMalformedFilter, rel)
		}
		s.Distance = *w.Distance
	}
	return s, nil
}

func literalFromWire(w *wireLiteral) (Literal, error) {
	if w == nil {
		return nil, nil
	}
	switch w.Type {
	case "text":
		var s string
		if err := decodeJSON(w.Value, &s); err != nil {
			return nil, literalError(w, err)
		}
		cs := true
		if w.CaseSensitive != nil {
			cs = *w.CaseSensitive
		}
		return Text{Value: s, CaseSensitive: cs}, nil
	case "date":
		var t time.Time
		if err := decodeJSON(w.Value, &t); err != nil {
			return nil, literalError(w, err)
		}
		return Date{Value: t}, nil
	case "dateRange":
		if w.Start == nil || w.End == nil {
			return nil, fmt.Errorf("%w: dateRange without start and end", types.ErrMalformedFilter)
		}
		return DateRange{Start: *w.Start, End: *w.End}, nil
	case "number":
		return numberFromWire(w)
	case "bool":
		var b bool
		if err := decodeJSON(w.Value, &b); err != nil {
			return nil, literalError(w, err)
		}
		return Bool{Value: b}, nil
	case "bytes":
		var s string
		if err := decodeJSON(w.Value, &s); err != nil {
			return nil, literalError(w, err)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, literalError(w, err)
		}
		return Bytes{Value: b}, nil
	case "object":
		var v any
		if len(w.Value) > 0 {
			if err := decodeJSON(w.Value, &v); err != nil {
				return nil, literalError(w, err)
			}
		}
		return Object{Value: v}, nil
	}
	return nil, fmt.Errorf("%w: unknown literal type %q", types.ErrMalformedFilter, w.Type)
}

func numberFromWire(w *wireLiteral) (Literal, error) {
	var n json.Number
	if err := decodeJSON(w.Value, &n); err != nil {
		return nil, literalError(w, err)
	}
	if w.Kind == "" {
		return coerceJSONNumber(n), nil
	}
	kind, ok := NumberKindFromString(w.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: unknown number kind %q", types.ErrMalformedFilter, w.Kind)
	}

	if kind.IsInteger() {
		i, err := n.Int64()
		if err != nil {
			return nil, literalError(w, err)
		}
		if (kind == NumberShort && (i < math.MinInt16 || i > math.MaxInt16)) ||
			(kind == NumberInt && (i < math.MinInt32 || i > math.MaxInt32)) {
			return nil, fmt.Errorf("%w: %d overflows %s", types.ErrMalformedFilter, i, kind)
		}
		return Number{Kind: kind, Int: i}, nil
	}

	f, err := n.Float64()
	if err != nil {
		return nil, literalError(w, err)
	}
	if kind == NumberFloat {
		return Float(float32(f)), nil
	}
	return Double(f), nil
}

func literalError(w *wireLiteral, err error) error {
	return fmt.Errorf("%w: %s literal: %w", types.ErrMalformedFilter, w.Type, err)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
