// Package authz implements the tenant-aware authorization decision
// engine.
//
// A decision runs as a strict linear gate chain: normalized-claims
// validation, the tenant membership gate, resource lookup, then
// fine-grained policy evaluation. Every gate is fatal for the request
// and produces a Deny with a reason code; only a request that clears
// all gates is allowed. The engine fails closed: missing attributes are
// failed predicates, never errors.
//
// Policy evaluation itself is an ordered rule table, first match wins:
//
//   - elevated role: a designated role label grants any resource within
//     the matched tenant
//   - ownership: the principal owns the resource
//   - group delegation: a delegated role plus a tenant-matched
//     introducer group that lists the resource
//
// Both stages are preceded by tenant checks: the membership gate
// answers "may this principal operate under this tenant at all", and
// the evaluator separately requires the resource's tenant to match the
// active tenant before any rule runs.
//
// # Usage
//
//	pipeline, err := authz.NewPipeline(cfg, store, directory,
//	    authz.WithPipelineLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	decision, err := pipeline.Authorize(ctx, claims, tenantID, "account", "ac_100", "view")
//	if err != nil {
//	    // infrastructure failure, not a deny
//	}
//	if !decision.Allowed {
//	    // decision.Reason carries the deny reason code
//	}
package authz
