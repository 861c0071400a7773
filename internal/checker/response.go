package checker

import (
	"net/http"
	"time"

	"github.com/kimchi-link/kimchi/internal/policy"
	"github.com/kimchi-link/kimchi/internal/uri"
)

// Outcome is the transport-level result of a single check, before the
// Classifier maps it onto a domain-level status.
type Outcome struct {
	StatusCode int
	FinalUri   uri.Uri
	Redirected bool
	Err        error
	TimedOut   bool
	Excluded   *policy.Decision
	// Headers carries the response headers (e.g. Retry-After) the retry
	// schedule needs; empty for non-HTTP backends and transport errors.
	Headers http.Header
}

// Response is the terminal, per-URI record the Checker yields.
type Response struct {
	Uri      uri.Uri
	Status   Status
	Elapsed  time.Duration
	Attempts int
}

// Status is the domain-level classification of a Response.
type Status struct {
	Kind       StatusKind
	Code       int
	FinalUri   uri.Uri
	Reason     string
	PolicyInfo string
}

// StatusKind enumerates the Classifier's output alphabet; it must be total.
type StatusKind int

// Recognized status kinds.
const (
	StatusOk StatusKind = iota
	StatusRedirected
	StatusFailed
	StatusExcluded
	StatusTimeout
)

func (k StatusKind) String() string {
	switch k {
	case StatusOk:
		return "ok"
	case StatusRedirected:
		return "redirected"
	case StatusFailed:
		return "failed"
	case StatusExcluded:
		return "excluded"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}
