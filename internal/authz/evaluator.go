package authz

import (
	"context"
	"time"

	"github.com/cordonio/cordon/internal/observability"
)

// Evaluator is the rule-matching core. Given principal, resource, and
// action it returns an allow/deny decision by scanning the ordered rule
// table. It enforces its own preconditions: the resource-scoped tenant
// match and the action/kind recognition filter both run before any
// rule. The evaluator never errors for an authorization miss; missing
// attributes are failed predicates and deny.
type Evaluator struct {
	config  *Config
	groups  GroupDirectory
	logger  observability.Logger
	metrics *Metrics
	rules   []rule
	actions map[string]struct{}
	kinds   map[string]struct{}
}

// EvaluatorOption is a functional option for the evaluator.
type EvaluatorOption func(*Evaluator)

// WithEvaluatorLogger sets the logger.
func WithEvaluatorLogger(logger observability.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// WithEvaluatorMetrics sets the metrics.
func WithEvaluatorMetrics(metrics *Metrics) EvaluatorOption {
	return func(e *Evaluator) {
		e.metrics = metrics
	}
}

// NewEvaluator creates a new policy evaluator.
func NewEvaluator(config *Config, directory GroupDirectory, opts ...EvaluatorOption) (*Evaluator, error) {
	if config == nil {
		return nil, ErrNilConfig
	}
	if directory == nil {
		return nil, ErrNilDirectory
	}

	e := &Evaluator{
		config:  config,
		groups:  directory,
		logger:  observability.NopLogger(),
		rules:   ruleTable(config),
		actions: toSet(config.GetActions()),
		kinds:   toSet(config.GetResourceKinds()),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.metrics == nil {
		e.metrics = NewMetrics("cordon")
	}

	return e, nil
}

// Evaluate evaluates one authorization request against the rule table.
func (e *Evaluator) Evaluate(ctx context.Context, principal *Principal, resource *Resource, action string) *Decision {
	start := time.Now()

	// Tenant match gate, hoisted above all rules: any missing value or
	// mismatch denies before a single rule runs.
	if principal == nil || resource == nil ||
		resource.TenantID == "" || principal.ActiveTenantID == "" ||
		resource.TenantID != principal.ActiveTenantID {
		return e.deny(ctx, principal, resource, action, "tenant_mismatch", start)
	}

	// Unrecognized actions and resource kinds deny.
	if _, ok := e.actions[action]; !ok {
		return e.deny(ctx, principal, resource, action, "unrecognized_action", start)
	}
	if _, ok := e.kinds[resource.Kind]; !ok {
		return e.deny(ctx, principal, resource, action, "unrecognized_kind", start)
	}

	in := ruleInput{
		principal: principal,
		resource:  resource,
		groups:    e.groups,
	}

	for _, r := range e.rules {
		if !r.match(in) {
			continue
		}

		e.metrics.RecordEvaluation("allowed", time.Since(start))
		e.metrics.RecordRuleMatch(r.name)
		e.logger.Debug("policy decision",
			observability.String("subject", principal.ID),
			observability.String("resource", resource.ID),
			observability.String("action", action),
			observability.String("rule", r.name),
			observability.Bool("allowed", true),
		)

		return &Decision{
			Allowed: true,
			Rule:    r.name,
		}
	}

	return e.deny(ctx, principal, resource, action, "no_rule_matched", start)
}

// deny builds a deny decision and records it.
func (e *Evaluator) deny(_ context.Context, principal *Principal, resource *Resource, action, detail string, start time.Time) *Decision {
	e.metrics.RecordEvaluation("denied", time.Since(start))

	fields := []observability.Field{
		observability.String("action", action),
		observability.String("detail", detail),
		observability.Bool("allowed", false),
	}
	if principal != nil {
		fields = append(fields, observability.String("subject", principal.ID))
	}
	if resource != nil {
		fields = append(fields, observability.String("resource", resource.ID))
	}
	e.logger.Debug("policy decision", fields...)

	return &Decision{
		Allowed: false,
		Reason:  ReasonPolicyDenied,
	}
}

// toSet converts a string slice to a membership set.
func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
