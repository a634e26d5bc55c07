package authz

import (
	"errors"
	"fmt"
)

// ReasonCode identifies why a request was denied. Authorization has
// exactly one success outcome and this small closed set of failure
// reasons.
type ReasonCode string

// Deny reason codes.
const (
	// ReasonMissingContext indicates required identity or tenant fields
	// were absent from the normalized claims.
	ReasonMissingContext ReasonCode = "missing_context"

	// ReasonTenantNotPermitted indicates the requested tenant is not in
	// the principal's allowed set.
	ReasonTenantNotPermitted ReasonCode = "tenant_not_permitted"

	// ReasonResourceNotFound indicates the resource lookup returned
	// nothing. Also used to mask true denials; intentionally
	// indistinguishable to the caller.
	ReasonResourceNotFound ReasonCode = "resource_not_found"

	// ReasonPolicyDenied indicates all rules evaluated and none matched.
	ReasonPolicyDenied ReasonCode = "policy_denied"
)

// Common authorization errors. These signal infrastructure or
// programming problems; an ordinary Deny is a regular return value,
// never an error.
var (
	// ErrResourceNotFound is returned by resource fetchers when the
	// requested resource does not exist.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrNoClaims indicates that no claims were supplied to the pipeline.
	ErrNoClaims = errors.New("no claims supplied")

	// ErrNilConfig indicates that a nil configuration was supplied.
	ErrNilConfig = errors.New("config is required")

	// ErrNilFetcher indicates that no resource fetcher was supplied.
	ErrNilFetcher = errors.New("resource fetcher is required")

	// ErrNilDirectory indicates that no group directory was supplied.
	ErrNilDirectory = errors.New("group directory is required")
)

// FetchError wraps a resource lookup failure with its coordinates.
type FetchError struct {
	// Kind is the resource kind that was requested.
	Kind string

	// ID is the resource identifier that was requested.
	ID string

	// Err is the underlying error.
	Err error
}

// Error returns the error message.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s/%s: %v", e.Kind, e.ID, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsResourceNotFound checks if an error is a resource not found error.
func IsResourceNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound)
}
