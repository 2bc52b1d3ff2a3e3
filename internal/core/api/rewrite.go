// internal/core/api/rewrite.go
package api

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/xpathrewriter/internal/catalog"
	"github.com/solatis/xpathrewriter/internal/types"
)

// Rewrite decodes a QueryRequest from the Struct, rewrites its filter with
// the active rules and returns the rewritten request.
//
// Struct numbers are doubles, so integer literals are exact up to 2^53.
func (s *RewriteService) Rewrite(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := ctx.Err(); err != nil {
		return nil, statusFromError(err)
	}

	req, err := requestFromStruct(in)
	if err != nil {
		return nil, invalidArgument(err)
	}

	rewritten, err := s.rewriter.Rewrite(req)
	if err != nil {
		return nil, statusFromError(err)
	}

	out, err := requestToStruct(rewritten)
	if err != nil {
		return nil, statusFromError(err)
	}
	return out, nil
}

func requestFromStruct(in *structpb.Struct) (*catalog.QueryRequest, error) {
	data, err := protojson.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrMalformedFilter, err)
	}
	req, err := catalog.DecodeRequest(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrMalformedFilter, err)
	}
	return req, nil
}

func requestToStruct(req *catalog.QueryRequest) (*structpb.Struct, error) {
	out := &structpb.Struct{}
	if req == nil {
		return out, nil
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}
