package authz

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cordonio/cordon/internal/claims"
	"github.com/cordonio/cordon/internal/observability"
)

// authzTracer is the OTEL tracer used for authorization operations.
var authzTracer = otel.Tracer("cordon/authz")

// Decision represents an authorization decision.
type Decision struct {
	// Allowed indicates if the request is allowed.
	Allowed bool

	// Reason is the deny reason code. Empty when allowed.
	Reason ReasonCode

	// Rule is the policy rule that allowed the request. Empty on deny.
	Rule string

	// Cached indicates if the decision came from the decision cache.
	Cached bool
}

// ResourceFetcher is the resource-lookup collaborator. FetchResource
// returns ErrResourceNotFound (possibly wrapped) when the resource does
// not exist; any other error is an infrastructure failure.
type ResourceFetcher interface {
	FetchResource(ctx context.Context, kind, id string) (*Resource, error)
}

// Pipeline composes the tenant membership gate, the resource lookup,
// and the policy evaluator into the single authorization entry point.
// The chain is strictly sequential and every gate is fatal for the
// request; nothing is retried, because a deny is definitive for that
// request. Independent decisions may run fully in parallel: the
// pipeline holds no cross-request mutable state.
type Pipeline struct {
	config    *Config
	evaluator *Evaluator
	fetcher   ResourceFetcher
	cache     DecisionCache
	logger    observability.Logger
	metrics   *Metrics
}

// PipelineOption is a functional option for the pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets the logger.
func WithPipelineLogger(logger observability.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithPipelineMetrics sets the metrics.
func WithPipelineMetrics(metrics *Metrics) PipelineOption {
	return func(p *Pipeline) {
		p.metrics = metrics
	}
}

// WithDecisionCache sets the decision cache.
func WithDecisionCache(cache DecisionCache) PipelineOption {
	return func(p *Pipeline) {
		p.cache = cache
	}
}

// NewPipeline creates a new decision pipeline.
func NewPipeline(config *Config, fetcher ResourceFetcher, directory GroupDirectory, opts ...PipelineOption) (*Pipeline, error) {
	if config == nil {
		return nil, ErrNilConfig
	}
	if fetcher == nil {
		return nil, ErrNilFetcher
	}

	p := &Pipeline{
		config:  config,
		fetcher: fetcher,
		logger:  observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.metrics == nil {
		p.metrics = NewMetrics("cordon")
	}

	evaluator, err := NewEvaluator(config, directory,
		WithEvaluatorLogger(p.logger),
		WithEvaluatorMetrics(p.metrics),
	)
	if err != nil {
		return nil, err
	}
	p.evaluator = evaluator

	if p.cache == nil {
		cache, err := NewDecisionCache(config.Cache, p.logger, p.metrics)
		if err != nil {
			return nil, err
		}
		p.cache = cache
	}

	return p, nil
}

// Authorize runs one authorization decision. A Deny is a regular return
// value carrying a reason code; the error return is reserved for
// infrastructure failures such as a broken resource lookup.
func (p *Pipeline) Authorize(
	ctx context.Context,
	c *claims.Claims,
	requestedTenantID, resourceKind, resourceID, action string,
) (*Decision, error) {
	ctx, span := authzTracer.Start(ctx, "authz.authorize",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("authz.tenant", requestedTenantID),
			attribute.String("authz.resource.kind", resourceKind),
			attribute.String("authz.resource.id", resourceID),
			attribute.String("authz.action", action),
		),
	)
	defer span.End()

	if !p.config.Enabled {
		span.SetAttributes(attribute.String("authz.result", "disabled"))
		return &Decision{Allowed: true}, nil
	}

	if c == nil {
		return nil, ErrNoClaims
	}

	// Gate 1: required claim fields.
	if !c.Complete() || requestedTenantID == "" {
		return p.deny(span, c, ReasonMissingContext), nil
	}

	span.SetAttributes(attribute.String("authz.subject", c.UserID))

	cacheKey := &CacheKey{
		UserID:         c.UserID,
		Roles:          c.Roles,
		AllowedTenants: c.AllowedTenants,
		GroupRef:       c.GroupRef,
		TenantID:       requestedTenantID,
		ResourceKind:   resourceKind,
		ResourceID:     resourceID,
		Action:         action,
	}
	if cached, ok := p.cache.Get(ctx, cacheKey); ok {
		decision := &Decision{
			Allowed: cached.Allowed,
			Reason:  cached.Reason,
			Rule:    cached.Rule,
			Cached:  true,
		}
		// Cached decisions are still decisions; the total must not
		// undercount once the cache is warm.
		p.metrics.RecordDecision(decision)
		span.SetAttributes(
			attribute.Bool("authz.cached", true),
			attribute.Bool("authz.allowed", cached.Allowed),
		)
		return decision, nil
	}

	// Gate 2: tenant membership, before any resource is touched.
	if !CheckMembership(c.AllowedTenants, requestedTenantID) {
		decision := p.deny(span, c, ReasonTenantNotPermitted)
		p.cacheDecision(ctx, cacheKey, decision)
		return decision, nil
	}

	// Gate 3: resource lookup. Not-found is a deny, not an error, and
	// is also what a true denial masks as.
	resource, err := p.fetchResource(ctx, resourceKind, resourceID)
	if err != nil {
		if IsResourceNotFound(err) {
			decision := p.deny(span, c, ReasonResourceNotFound)
			p.cacheDecision(ctx, cacheKey, decision)
			return decision, nil
		}
		span.SetAttributes(attribute.String("authz.result", "error"))
		return nil, err
	}

	// Gate 4: policy evaluation.
	principal := &Principal{
		ID:             c.UserID,
		Roles:          c.Roles,
		ActiveTenantID: requestedTenantID,
		GroupRef:       c.GroupRef,
	}
	decision := p.evaluator.Evaluate(ctx, principal, resource, action)

	p.cacheDecision(ctx, cacheKey, decision)
	p.metrics.RecordDecision(decision)

	span.SetAttributes(
		attribute.Bool("authz.cached", false),
		attribute.Bool("authz.allowed", decision.Allowed),
		attribute.String("authz.rule", decision.Rule),
		attribute.String("authz.reason", string(decision.Reason)),
	)

	p.logger.Debug("authorization decision",
		observability.String("subject", c.UserID),
		observability.String("tenant", requestedTenantID),
		observability.String("resource", resourceKind+"/"+resourceID),
		observability.String("action", action),
		observability.Bool("allowed", decision.Allowed),
		observability.String("rule", decision.Rule),
		observability.String("reason", string(decision.Reason)),
	)

	return decision, nil
}

// fetchResource resolves the resource via the lookup collaborator. The
// lookup is the only I/O in the decision path; its latency and failure
// semantics belong to the collaborator's contract.
func (p *Pipeline) fetchResource(ctx context.Context, kind, id string) (*Resource, error) {
	start := time.Now()
	resource, err := p.fetcher.FetchResource(ctx, kind, id)
	if err != nil {
		if !IsResourceNotFound(err) {
			p.logger.Error("resource lookup failed",
				observability.String("kind", kind),
				observability.String("id", id),
				observability.Duration("elapsed", time.Since(start)),
				observability.Error(err),
			)
		}
		return nil, err
	}
	return resource, nil
}

// deny records and returns a deny decision with the given reason.
func (p *Pipeline) deny(span trace.Span, c *claims.Claims, reason ReasonCode) *Decision {
	decision := &Decision{
		Allowed: false,
		Reason:  reason,
	}
	p.metrics.RecordDecision(decision)

	span.SetAttributes(
		attribute.Bool("authz.allowed", false),
		attribute.String("authz.reason", string(reason)),
	)

	subject := ""
	if c != nil {
		subject = c.UserID
	}
	p.logger.Debug("authorization denied",
		observability.String("subject", subject),
		observability.String("reason", string(reason)),
	)

	return decision
}

// cacheDecision stores a decision in the cache.
func (p *Pipeline) cacheDecision(ctx context.Context, key *CacheKey, decision *Decision) {
	p.cache.Set(ctx, key, &CachedDecision{
		Allowed: decision.Allowed,
		Reason:  decision.Reason,
		Rule:    decision.Rule,
	})
}

// Close releases pipeline resources.
func (p *Pipeline) Close() error {
	if p.cache != nil {
		return p.cache.Close()
	}
	return nil
}
