// internal/core/api/rules.go
package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/xpathrewriter/internal/core/auth"
)

// GetRules returns the active rules in table order with their ETag.
func (s *RewriteService) GetRules(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	raw := s.rewriter.Table().Snapshot().Raw()

	list := make([]any, len(raw))
	for i, r := range raw {
		list[i] = r
	}

	out, err := structpb.NewStruct(map[string]any{
		"rules": list,
		"etag":  computeETag(raw),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// SetRules replaces the rule collection. With a store the rules are
// persisted first and the table is rebuilt from the configured sources;
// without one the given rules become the table directly.
func (s *RewriteService) SetRules(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	raw, err := rulesFromStruct(in)
	if err != nil {
		return nil, invalidArgument(err)
	}

	if s.store == nil {
		s.rewriter.Configure(raw)
	} else {
		if _, err := s.store.Replace(ctx, raw); err != nil {
			return nil, statusFromError(err)
		}
		if err := s.reload(ctx); err != nil {
			return nil, statusFromError(err)
		}
	}

	s.logger.Info("xpath replacement rules replaced",
		"operator_id", auth.OperatorIDFromContext(ctx),
		"supplied", len(raw),
		"active", s.rewriter.Table().Len())
	return s.rulesReply()
}

// ReloadRules rebuilds the table from the configured sources.
func (s *RewriteService) ReloadRules(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if s.source == nil {
		return nil, status.Error(codes.FailedPrecondition, "no rule source configured")
	}
	if err := s.reload(ctx); err != nil {
		return nil, statusFromError(err)
	}

	s.logger.Info("xpath replacement rules reloaded",
		"operator_id", auth.OperatorIDFromContext(ctx),
		"active", s.rewriter.Table().Len())
	return s.rulesReply()
}

// Reload rebuilds the table from the configured sources. It is the startup
// path as well as the ReloadRules handler.
func (s *RewriteService) Reload(ctx context.Context) (int, error) {
	if s.source == nil {
		return 0, fmt.Errorf("no rule source configured")
	}
	if err := s.reload(ctx); err != nil {
		return 0, err
	}
	return s.rewriter.Table().Len(), nil
}

func (s *RewriteService) reload(ctx context.Context) error {
	raw, err := s.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	s.rewriter.Configure(raw)
	return nil
}

func (s *RewriteService) rulesReply() (*structpb.Struct, error) {
	raw := s.rewriter.Table().Snapshot().Raw()
	out, err := structpb.NewStruct(map[string]any{
		"accepted": len(raw),
		"etag":     computeETag(raw),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// rulesFromStruct reads {"rules": ["<raw>", ...]}. A missing list means an
// empty table.
func rulesFromStruct(in *structpb.Struct) ([]string, error) {
	v, ok := in.GetFields()["rules"]
	if !ok {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
			return nil, nil
		}
		return nil, errors.New("rules must be a list of strings")
	}

	raw := make([]string, len(list.GetValues()))
	for i, item := range list.GetValues() {
		str, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("rules[%d] must be a string", i)
		}
		raw[i] = str.StringValue
	}
	return raw, nil
}

// computeETag hashes the ordered raw rules. Order is part of the identity
// since the first matching rule wins.
func computeETag(raw []string) string {
	h := sha256.New()
	for _, r := range raw {
		h.Write([]byte(r))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
