// internal/rewrite/rewriter.go
package rewrite

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/solatis/xpathrewriter/internal/catalog"
	"github.com/solatis/xpathrewriter/internal/filter"
	"github.com/solatis/xpathrewriter/internal/rules"
	"github.com/solatis/xpathrewriter/internal/types"
)

/*
 * Rewrite orchestration.
 *
 * A Rewriter owns a rules.Table and turns query requests into rewritten
 * copies. Each Rewrite call takes one table snapshot, so a concurrent
 * Configure is either fully visible to the request or not at all.
 *
 * Lifecycle: New -> Configure (zero or more times, any goroutine) -> Rewrite
 * (any goroutine).
 *
 * Rewrite is all-or-nothing: any translation error is wrapped as
 * types.ErrRewriteFailed and the caller's request is returned untouched.
 */

// Rewriter rewrites XPath predicates in query requests.
type Rewriter struct {
	table   *rules.Table
	builder filter.Builder
	logger  *slog.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithBuilder sets the target builder. Default filter.NodeBuilder.
func WithBuilder(b filter.Builder) Option {
	return func(r *Rewriter) { r.builder = b }
}

// WithLogger sets the logger. Default slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(r *Rewriter) { r.logger = l }
}

// WithTable shares an existing rule table.
func WithTable(t *rules.Table) Option {
	return func(r *Rewriter) { r.table = t }
}

// New creates a Rewriter with an empty rule table.
func New(opts ...Option) *Rewriter {
	r := &Rewriter{}
	for _, opt := range opts {
		opt(r)
	}
	if r.builder == nil {
		r.builder = filter.NodeBuilder{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.table == nil {
		r.table = rules.NewTable(r.logger)
	}
	return r
}

// Configure replaces the active rules and returns how many were accepted.
func (r *Rewriter) Configure(raw []string) int {
	return r.table.Rebuild(raw)
}

// Table returns the rule table.
func (r *Rewriter) Table() *rules.Table {
	return r.table
}

// RewriteFilter rewrites a bare filter tree against the active rules.
func (r *Rewriter) RewriteFilter(f filter.Filter) (filter.Filter, error) {
	out, err := r.translator().Translate(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrRewriteFailed, err)
	}
	return out, nil
}

// Rewrite returns a new request whose filter has mapped XPath predicates
// replaced. A nil request, or a request without a query, is returned as is.
func (r *Rewriter) Rewrite(req *catalog.QueryRequest) (*catalog.QueryRequest, error) {
	if req == nil || req.Query == nil {
		return req, nil
	}

	f, err := r.translator().Translate(req.Query.Filter)
	if err != nil {
		r.logger.Warn("query rewrite failed", "error", err)
		return nil, fmt.Errorf("%w: %w", types.ErrRewriteFailed, err)
	}

	src := req.Query
	query := catalog.NewQuery(f, src.StartIndex, src.PageSize, copySortBy(src.SortBy),
		src.RequestsTotalResultsCount, src.Timeout)

	return &catalog.QueryRequest{
		Query:      query,
		Enterprise: req.Enterprise,
		SourceIDs:  slices.Clone(req.SourceIDs),
		Properties: maps.Clone(req.Properties),
	}, nil
}

func (r *Rewriter) translator() *Translator {
	return NewTranslator(r.table.Snapshot(), r.builder, r.logger)
}

func copySortBy(s *catalog.SortBy) *catalog.SortBy {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
