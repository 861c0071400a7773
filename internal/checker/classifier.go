package checker

import "github.com/kimchi-link/kimchi/internal/uri"

// AcceptedStatus is the operator-supplied set of HTTP status codes that
// count as success irrespective of the 2xx rule. Codes in the set are
// accepted in addition to 2xx; a nil/empty set accepts 2xx only.
type AcceptedStatus map[int]struct{}

// Accepts reports whether code should be treated as success.
func (a AcceptedStatus) Accepts(code int) bool {
	if _, ok := a[code]; ok {
		return true
	}
	return code >= 200 && code < 300
}

// Classify maps a transport Outcome plus the accepted-status set to the
// domain-level Status. This function is total: every Outcome shape
// produces exactly one StatusKind.
func Classify(u uri.Uri, outcome Outcome, accepted AcceptedStatus) Status {
	switch {
	case outcome.Excluded != nil:
		return Status{Kind: StatusExcluded, Reason: string(outcome.Excluded.Reason), PolicyInfo: string(outcome.Excluded.Reason)}
	case outcome.TimedOut:
		return Status{Kind: StatusTimeout, Reason: errString(outcome.Err)}
	case outcome.Err != nil:
		return Status{Kind: StatusFailed, Reason: outcome.Err.Error()}
	case outcome.Redirected && outcome.StatusCode >= 300 && outcome.StatusCode < 400:
		// The redirect handler hit max_redirects and returned the last,
		// still-3xx response rather than following further.
		return Status{Kind: StatusFailed, Code: outcome.StatusCode, Reason: "redirect_limit", FinalUri: outcome.FinalUri}
	case outcome.Redirected && accepted.Accepts(outcome.StatusCode):
		return Status{Kind: StatusRedirected, Code: outcome.StatusCode, FinalUri: outcome.FinalUri}
	case outcome.StatusCode == 0:
		// Mail (ambiguous RCPT) and FileRef (exists) backends signal success
		// with no real status code; accepted_status only governs HTTP codes.
		return Status{Kind: StatusOk, Code: 0}
	case accepted.Accepts(outcome.StatusCode):
		return Status{Kind: StatusOk, Code: outcome.StatusCode}
	default:
		return Status{Kind: StatusFailed, Code: outcome.StatusCode, Reason: "unacceptable status code", FinalUri: outcome.FinalUri}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
