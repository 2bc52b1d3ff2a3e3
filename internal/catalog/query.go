// internal/catalog/query.go
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/solatis/xpathrewriter/internal/filter"
	"github.com/solatis/xpathrewriter/internal/types"
)

/*
 * Catalog query request types.
 *
 * A Query carries a filter tree plus paging, sort, total-count and timeout
 * fields. A QueryRequest wraps a Query with the enterprise flag, the set of
 * source ids and a free-form property bag. The rewriter only replaces the
 * filter; every other field is copied through.
 *
 * JSON form:
 *
 *   {"query": {"filter": {...}, "startIndex": 1, "pageSize": 30,
 *              "sortBy": {"property": "modified", "order": "DESC"},
 *              "requestsTotalResultsCount": true, "timeoutMillis": 3000},
 *    "enterprise": false, "sourceIds": ["local"], "properties": {}}
 *
 * The filter uses the wire form of package filter.
 */

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAscending  SortOrder = "ASC"
	SortDescending SortOrder = "DESC"
	SortNatural    SortOrder = "NATURAL"
)

// SortBy names the property results are ordered by.
type SortBy struct {
	Property string    `json:"property"`
	Order    SortOrder `json:"order"`
}

// Query is a filter plus result-shaping fields.
type Query struct {
	Filter                    filter.Filter
	StartIndex                int
	PageSize                  int
	SortBy                    *SortBy
	RequestsTotalResultsCount bool
	Timeout                   time.Duration
}

// QueryRequest wraps a Query with routing metadata.
type QueryRequest struct {
	Query      *Query
	Enterprise bool
	SourceIDs  []string
	Properties map[string]any
}

// NewQuery creates a query over f with the given paging fields.
func NewQuery(f filter.Filter, startIndex, pageSize int, sortBy *SortBy, totalCount bool, timeout time.Duration) *Query {
	return &Query{
		Filter:                    f,
		StartIndex:                startIndex,
		PageSize:                  pageSize,
		SortBy:                    sortBy,
		RequestsTotalResultsCount: totalCount,
		Timeout:                   timeout,
	}
}

// NewQueryRequest wraps q for local sources.
func NewQueryRequest(q *Query) *QueryRequest {
	return &QueryRequest{Query: q, Properties: map[string]any{}}
}

type wireQuery struct {
	Filter                    json.RawMessage `json:"filter,omitempty"`
	StartIndex                int             `json:"startIndex"`
	PageSize                  int             `json:"pageSize"`
	SortBy                    *SortBy         `json:"sortBy,omitempty"`
	RequestsTotalResultsCount bool            `json:"requestsTotalResultsCount"`
	TimeoutMillis             int64           `json:"timeoutMillis"`
}

type wireRequest struct {
	Query      *Query         `json:"query,omitempty"`
	Enterprise bool           `json:"enterprise"`
	SourceIDs  []string       `json:"sourceIds,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// MarshalJSON encodes the query with its filter in wire form.
func (q *Query) MarshalJSON() ([]byte, error) {
	w := wireQuery{
		StartIndex:                q.StartIndex,
		PageSize:                  q.PageSize,
		SortBy:                    q.SortBy,
		RequestsTotalResultsCount: q.RequestsTotalResultsCount,
		TimeoutMillis:             q.Timeout.Milliseconds(),
	}
	if q.Filter != nil {
		data, err := filter.Marshal(q.Filter)
		if err != nil {
			return nil, err
		}
		w.Filter = data
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the query. A missing filter leaves Filter nil.
func (q *Query) UnmarshalJSON(data []byte) error {
	var w wireQuery
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: query: %w", types.ErrMalformedFilter, err)
	}

	var f filter.Filter
	if len(w.Filter) > 0 && !bytes.Equal(w.Filter, []byte("null")) {
		decoded, err := filter.Unmarshal(w.Filter)
		if err != nil {
			return err
		}
		f = decoded
	}

	*q = Query{
		Filter:                    f,
		StartIndex:                w.StartIndex,
		PageSize:                  w.PageSize,
		SortBy:                    w.SortBy,
		RequestsTotalResultsCount: w.RequestsTotalResultsCount,
		Timeout:                   time.Duration(w.TimeoutMillis) * time.Millisecond,
	}
	return nil
}

// MarshalJSON encodes the request.
func (r *QueryRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireRequest{
		Query:      r.Query,
		Enterprise: r.Enterprise,
		SourceIDs:  r.SourceIDs,
		Properties: r.Properties,
	})
}

// UnmarshalJSON decodes the request. Property numbers decode as json.Number.
func (r *QueryRequest) UnmarshalJSON(data []byte) error {
	var w wireRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&w); err != nil {
		return err
	}
	*r = QueryRequest(w)
	return nil
}

// DecodeRequest decodes a QueryRequest from JSON.
func DecodeRequest(data []byte) (*QueryRequest, error) {
	var r QueryRequest
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
