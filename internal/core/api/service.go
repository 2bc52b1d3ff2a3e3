// internal/core/api/service.go

// Package api serves the rewrite engine over gRPC.
//
// The service is described by hand rather than generated: every method
// carries a google.protobuf.Struct in both directions, and the Struct holds
// the same JSON the catalog and filter codecs read and write.
package api

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/xpathrewriter/internal/rewrite"
	"github.com/solatis/xpathrewriter/internal/types"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "xpathrewriter.v1.RewriteService"

// Full method names, as seen by interceptors.
const (
	MethodRewrite     = "/" + ServiceName + "/Rewrite"
	MethodGetRules    = "/" + ServiceName + "/GetRules"
	MethodSetRules    = "/" + ServiceName + "/SetRules"
	MethodReloadRules = "/" + ServiceName + "/ReloadRules"
)

// AdminMethods lists the methods that change the active rules.
func AdminMethods() []string {
	return []string{MethodSetRules, MethodReloadRules}
}

// RewriteServer is the server side of RewriteService.
type RewriteServer interface {
	Rewrite(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRules(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetRules(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReloadRules(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc registers a RewriteServer with grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RewriteServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Rewrite", Handler: unaryHandler(MethodRewrite, RewriteServer.Rewrite)},
		{MethodName: "GetRules", Handler: unaryHandler(MethodGetRules, RewriteServer.GetRules)},
		{MethodName: "SetRules", Handler: unaryHandler(MethodSetRules, RewriteServer.SetRules)},
		{MethodName: "ReloadRules", Handler: unaryHandler(MethodReloadRules, RewriteServer.ReloadRules)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "xpathrewriter/v1/rewrite.proto",
}

// RegisterRewriteServer registers srv on s.
func RegisterRewriteServer(s grpc.ServiceRegistrar, srv RewriteServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type unaryMethod func(RewriteServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RewriteServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(RewriteServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RuleSource loads the ordered raw rule collection the active table is
// built from.
type RuleSource interface {
	Load(ctx context.Context) ([]string, error)
}

// RuleWriter persists a full replacement of the stored rules.
type RuleWriter interface {
	Replace(ctx context.Context, expressions []string) ([]types.StoredRule, error)
}

// RewriteService implements RewriteServer over one Rewriter.
type RewriteService struct {
	rewriter *rewrite.Rewriter
	source   RuleSource
	store    RuleWriter
	logger   *slog.Logger
}

// NewRewriteService creates the service. source may be nil, in which case
// ReloadRules is unavailable. store may be nil, in which case SetRules only
// changes the in-memory table; a store requires a source so the table can
// be rebuilt from it after a write.
func NewRewriteService(rewriter *rewrite.Rewriter, source RuleSource, store RuleWriter, logger *slog.Logger) (*RewriteService, error) {
	if rewriter == nil {
		return nil, fmt.Errorf("rewriter cannot be nil")
	}
	if store != nil && source == nil {
		return nil, fmt.Errorf("a rule store requires a rule source")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RewriteService{
		rewriter: rewriter,
		source:   source,
		store:    store,
		logger:   logger,
	}, nil
}

var _ RewriteServer = (*RewriteService)(nil)
