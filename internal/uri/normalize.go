package uri

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize standardizes a web URL the same way the teacher crawler's
// NormalizeURL did: lowercase scheme/host, drop default ports, sort query
// parameters, drop the fragment. Canonicalize and the checker do not call
// it: reports render Uri.String, and the known-HEAD-intolerant host list is
// matched on Uri.Host.
func Normalize(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	q := u.Query()
	u.RawQuery = q.Encode()

	return u.String(), nil
}
