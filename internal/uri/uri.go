// Package uri implements kimchi's canonicalizer: turning a raw extracted
// link string into an absolute, typed Uri ready for policy evaluation and
// checking.
package uri

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind distinguishes the checkable address families a Uri can hold.
type Kind string

// Supported Uri kinds.
const (
	KindWeb     Kind = "web"
	KindMail    Kind = "mail"
	KindFileRef Kind = "file"
)

// SkipReason explains why a raw link never became a checkable Uri.
type SkipReason string

// Recognized skip reasons.
const (
	SkipRelativeWithoutBase SkipReason = "relative_without_base"
	SkipFragmentOnly        SkipReason = "fragment_only"
	SkipUnparsable          SkipReason = "unparsable"
)

// Uri is a parsed, absolute-where-possible address. Exactly one of the
// type-specific field groups is populated, selected by Kind.
type Uri struct {
	Kind Kind

	// Web fields.
	Scheme   string
	Host     string
	Port     string
	Path     string
	Query    string
	Fragment string
	UserInfo string

	// Mail fields.
	MailLocal  string
	MailDomain string

	// FileRef fields.
	AbsPath string

	// Raw is the original string this Uri was canonicalized from, kept for
	// policy matching and diagnostics.
	Raw string
}

// String renders the Uri back to a single address string for display,
// logging, and regex-based policy matching.
func (u Uri) String() string {
	switch u.Kind {
	case KindMail:
		return fmt.Sprintf("mailto:%s@%s", u.MailLocal, u.MailDomain)
	case KindFileRef:
		return u.AbsPath
	default:
		out := &url.URL{
			Scheme:   u.Scheme,
			Host:     u.hostPort(),
			Path:     u.Path,
			RawQuery: u.Query,
			Fragment: u.Fragment,
		}
		if u.UserInfo != "" {
			out.User = url.User(u.UserInfo)
		}
		return out.String()
	}
}

func (u Uri) hostPort() string {
	if u.Port == "" {
		return u.Host
	}
	return u.Host + ":" + u.Port
}

// MarshalJSON renders a Uri as its string form, matching how report output
// and progress events surface it to operators.
func (u Uri) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// IsFragmentOnly reports whether the raw link was nothing but a `#fragment`
// reference. Canonicalize skips such links as fragment_only when no base is
// given, and always for the trivial "#" and "#top"; with a base, any other
// fragment resolves to the base document's URL and the fragment itself is
// not verified.
func IsFragmentOnly(raw string) bool {
	raw = strings.TrimSpace(raw)
	return strings.HasPrefix(raw, "#")
}

// isTrivialFragment matches the handful of fragment forms original_source's
// collector.rs treats as never worth resolving even when a base is present
// (a bare "#" or the conventional "#top" back-to-top anchor).
func isTrivialFragment(raw string) bool {
	switch strings.TrimSpace(raw) {
	case "#", "#top":
		return true
	default:
		return false
	}
}

var mailShorthand = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Canonicalize resolves a raw extracted link string against an optional
// base URL and classifies the result. skip is non-empty only when the
// returned Uri is the zero value.
func Canonicalize(raw string, base *url.URL) (result Uri, skip SkipReason, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Uri{}, SkipUnparsable, fmt.Errorf("empty link")
	}

	if mailURI, ok := parseMail(raw); ok {
		return mailURI, "", nil
	}

	if strings.HasPrefix(raw, "#") {
		if base == nil || isTrivialFragment(raw) {
			return Uri{}, SkipFragmentOnly, nil
		}
	}

	parsed, perr := url.Parse(raw)
	if perr != nil {
		return Uri{}, SkipUnparsable, fmt.Errorf("parse url %q: %w", raw, perr)
	}

	if !parsed.IsAbs() {
		if base == nil {
			if looksLikeAbsoluteFilePath(raw) {
				return Uri{Kind: KindFileRef, AbsPath: filepath.Clean(raw), Raw: raw}, "", nil
			}
			return Uri{}, SkipRelativeWithoutBase, nil
		}
		parsed = base.ResolveReference(parsed)
	}

	if parsed.Scheme == "file" || looksLikeAbsoluteFilePath(raw) {
		return Uri{
			Kind:    KindFileRef,
			AbsPath: filePathFromURL(parsed, raw),
			Raw:     raw,
		}, "", nil
	}

	return Uri{
		Kind:     KindWeb,
		Scheme:   strings.ToLower(parsed.Scheme),
		Host:     strings.ToLower(parsed.Hostname()),
		Port:     parsed.Port(),
		Path:     parsed.Path,
		Query:    parsed.RawQuery,
		Fragment: parsed.Fragment,
		UserInfo: parsed.User.String(),
		Raw:      raw,
	}, "", nil
}

func parseMail(raw string) (Uri, bool) {
	candidate := raw
	switch {
	case strings.HasPrefix(raw, "mailto:"):
		candidate = strings.TrimPrefix(raw, "mailto:")
	case mailShorthand.MatchString(raw):
		// bare local@domain with no scheme at all
	default:
		return Uri{}, false
	}

	// original_source's collector.rs strips query parameters (subject=,
	// cc=, ...) before extracting the mailbox itself.
	if idx := strings.IndexByte(candidate, '?'); idx >= 0 {
		candidate = candidate[:idx]
	}
	at := strings.LastIndexByte(candidate, '@')
	if at <= 0 || at == len(candidate)-1 {
		return Uri{}, false
	}
	local, domain := candidate[:at], candidate[at+1:]
	if local == "" || domain == "" || !strings.Contains(domain, ".") {
		return Uri{}, false
	}
	return Uri{
		Kind:       KindMail,
		MailLocal:  local,
		MailDomain: strings.ToLower(domain),
		Raw:        raw,
	}, true
}

func looksLikeAbsoluteFilePath(raw string) bool {
	if strings.Contains(raw, "://") {
		return false
	}
	return filepath.IsAbs(raw)
}

func filePathFromURL(parsed *url.URL, raw string) string {
	if parsed.Scheme == "file" {
		if parsed.Path != "" {
			return filepath.Clean(parsed.Path)
		}
		return filepath.Clean(parsed.Opaque)
	}
	return filepath.Clean(raw)
}
