// internal/core/api/client.go
package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// RewriteClient calls RewriteService over a client connection.
type RewriteClient struct {
	cc grpc.ClientConnInterface
}

// NewRewriteClient wraps cc.
func NewRewriteClient(cc grpc.ClientConnInterface) *RewriteClient {
	return &RewriteClient{cc: cc}
}

func (c *RewriteClient) Rewrite(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRewrite, in, opts...)
}

func (c *RewriteClient) GetRules(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetRules, in, opts...)
}

func (c *RewriteClient) SetRules(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodSetRules, in, opts...)
}

func (c *RewriteClient) ReloadRules(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodReloadRules, in, opts...)
}

func (c *RewriteClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
