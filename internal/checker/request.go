package checker

import (
	"time"

	"github.com/kimchi-link/kimchi/internal/uri"
)

// Method is the HTTP verb a Request is issued with.
type Method string

// Recognized methods.
const (
	MethodGet  Method = "GET"
	MethodHead Method = "HEAD"
)

// Request is immutable once built: Uri plus everything needed to issue and
// retry the check without reaching back into global config.
type Request struct {
	Uri           uri.Uri
	Method        Method
	Headers       map[string]string
	Timeout       time.Duration
	MaxRedirects  int
	BasicAuthUser string
	BasicAuthPass string
	BearerToken   string
	AllowInsecure bool
}
