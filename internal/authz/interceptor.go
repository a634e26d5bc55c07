package authz

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/cordonio/cordon/internal/claims"
	"github.com/cordonio/cordon/internal/observability"
)

// Target identifies what a gRPC request wants to touch: the tenant it
// runs under, the resource, and the action.
type Target struct {
	TenantID     string
	ResourceKind string
	ResourceID   string
	Action       string
}

// TargetResolver extracts the authorization target from an incoming
// gRPC request. Returning ok=false skips authorization for the call,
// which is how health checks and reflection stay reachable.
type TargetResolver func(ctx context.Context, fullMethod string, req interface{}) (Target, bool)

// GRPCGuard authorizes incoming gRPC requests against the decision
// pipeline.
type GRPCGuard interface {
	// UnaryInterceptor returns a unary server interceptor.
	UnaryInterceptor() grpc.UnaryServerInterceptor

	// StreamInterceptor returns a stream server interceptor.
	StreamInterceptor() grpc.StreamServerInterceptor
}

// grpcGuard implements the GRPCGuard interface.
type grpcGuard struct {
	pipeline *Pipeline
	resolver TargetResolver
	logger   observability.Logger
}

// GRPCGuardOption is a functional option for the gRPC guard.
type GRPCGuardOption func(*grpcGuard)

// WithGRPCGuardLogger sets the logger.
func WithGRPCGuardLogger(logger observability.Logger) GRPCGuardOption {
	return func(g *grpcGuard) {
		g.logger = logger
	}
}

// WithTargetResolver sets the target resolver.
func WithTargetResolver(resolver TargetResolver) GRPCGuardOption {
	return func(g *grpcGuard) {
		g.resolver = resolver
	}
}

// NewGRPCGuard creates a new gRPC authorization guard.
func NewGRPCGuard(pipeline *Pipeline, opts ...GRPCGuardOption) GRPCGuard {
	g := &grpcGuard{
		pipeline: pipeline,
		resolver: MetadataTargetResolver,
		logger:   observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// MetadataTargetResolver is the default target resolver. It reads the
// target from incoming metadata: x-tenant-id, x-resource-kind,
// x-resource-id, and x-action. The action falls back to the gRPC method
// name when x-action is absent.
func MetadataTargetResolver(ctx context.Context, fullMethod string, _ interface{}) (Target, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return Target{}, true
	}

	target := Target{
		TenantID:     metadataValue(md, "x-tenant-id"),
		ResourceKind: metadataValue(md, "x-resource-kind"),
		ResourceID:   metadataValue(md, "x-resource-id"),
		Action:       metadataValue(md, "x-action"),
	}
	if target.Action == "" {
		target.Action = methodName(fullMethod)
	}
	return target, true
}

// claimsFromMetadata builds Claims from incoming gRPC metadata. gRPC
// lowercases metadata keys, so the HTTP header names are matched
// case-insensitively. Absent keys yield zero fields; the pipeline
// treats those as missing context and denies.
func claimsFromMetadata(md metadata.MD) *claims.Claims {
	return &claims.Claims{
		UserID:         metadataValue(md, claims.HeaderUserID),
		Roles:          splitMetadataList(metadataValue(md, claims.HeaderRoles)),
		AllowedTenants: splitMetadataList(metadataValue(md, claims.HeaderAllowedTenants)),
		GroupRef:       metadataValue(md, claims.HeaderGroupRef),
	}
}

// UnaryInterceptor returns a unary server interceptor. All denials map
// to a single NotFound status so a caller cannot distinguish a resource
// that does not exist from one they may not see.
func (g *grpcGuard) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		ctx, err := g.authorize(ctx, info.FullMethod, req)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamInterceptor returns a stream server interceptor.
func (g *grpcGuard) StreamInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := g.authorize(ss.Context(), info.FullMethod, nil)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedStream{ServerStream: ss, ctx: ctx})
	}
}

// authorize runs the pipeline for one gRPC call and returns a context
// carrying the claims on allow.
func (g *grpcGuard) authorize(ctx context.Context, fullMethod string, req interface{}) (context.Context, error) {
	target, required := g.resolver(ctx, fullMethod, req)
	if !required {
		return ctx, nil
	}

	md, _ := metadata.FromIncomingContext(ctx)
	c := claimsFromMetadata(md)

	decision, err := g.pipeline.Authorize(ctx, c, target.TenantID, target.ResourceKind, target.ResourceID, target.Action)
	if err != nil {
		g.logger.Error("authorization failed",
			observability.String("method", fullMethod),
			observability.Error(err),
		)
		return ctx, status.Error(codes.Internal, "authorization error")
	}

	if !decision.Allowed {
		g.logger.Debug("access denied",
			observability.String("method", fullMethod),
			observability.String("reason", string(decision.Reason)),
		)
		return ctx, status.Error(codes.NotFound, "resource not found")
	}

	if c != nil {
		ctx = claims.ContextWithClaims(ctx, c)
	}
	return ctx, nil
}

// wrappedStream overrides the stream context so handlers see the
// claims-carrying context.
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}

// metadataValue returns the first value for a metadata key, matching
// the key case-insensitively.
func metadataValue(md metadata.MD, key string) string {
	values := md.Get(strings.ToLower(key))
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

// splitMetadataList splits a comma-separated metadata value.
func splitMetadataList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// methodName extracts the method part of a gRPC full method name.
func methodName(fullMethod string) string {
	if idx := strings.LastIndex(fullMethod, "/"); idx >= 0 {
		return fullMethod[idx+1:]
	}
	return fullMethod
}

// Ensure grpcGuard implements GRPCGuard.
var _ GRPCGuard = (*grpcGuard)(nil)
