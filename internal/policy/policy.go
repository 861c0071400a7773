// Package policy implements kimchi's include/exclude decision algebra: a
// pure function from a canonicalized Uri and the merged CheckerConfig to a
// Check/Excluded verdict. It holds no state and consults no network or
// filesystem, so repeated calls with the same inputs always agree.
package policy

import (
	"regexp"
	"strings"

	"github.com/kimchi-link/kimchi/internal/uri"
)

// Reason explains why a Uri was excluded from checking.
type Reason string

// Recognized exclusion reasons, in the evaluation order spec §4.4 defines.
const (
	ReasonNotIncluded  Reason = "not_included"
	ReasonUserExcluded Reason = "user_excluded"
	ReasonWrongScheme  Reason = "wrong_scheme"
	ReasonMailDisabled Reason = "mail_disabled"
	ReasonPrivateIP    Reason = "private_ip"
)

// Decision is the Check/Excluded verdict returned by Classify.
type Decision struct {
	Checked bool
	Reason  Reason
}

// Checked builds an admitting decision.
func Checked() Decision { return Decision{Checked: true} }

// Excluded builds a rejecting decision carrying reason.
func Excluded(reason Reason) Decision { return Decision{Checked: false, Reason: reason} }

// Config is the subset of CheckerConfig the policy engine consults. Kept
// separate from the top-level config package so this engine stays a
// dependency-free pure function, per spec §9 ("Policy as a free function").
type Config struct {
	Include            []*regexp.Regexp
	Exclude            []*regexp.Regexp
	Scheme             string
	MailEnabled        bool
	ExcludePrivate     bool
	ExcludeLinkLocal   bool
	ExcludeLoopback    bool
}

// Classify applies the include/exclude/scheme/mail/private-IP rules in
// strict precedence order and short-circuits at the first decisive rule.
func Classify(u uri.Uri, cfg Config) Decision {
	target := u.String()

	if len(cfg.Include) > 0 && !anyMatch(cfg.Include, target) {
		return Excluded(ReasonNotIncluded)
	}
	// Include has strict precedence: a URI that passed a non-empty include
	// list is never excluded by an exclude pattern.
	if len(cfg.Include) == 0 && anyMatch(cfg.Exclude, target) {
		return Excluded(ReasonUserExcluded)
	}
	if cfg.Scheme != "" && u.Kind == uri.KindWeb && !strings.EqualFold(u.Scheme, cfg.Scheme) {
		return Excluded(ReasonWrongScheme)
	}

	switch u.Kind {
	case uri.KindMail:
		if !cfg.MailEnabled {
			return Excluded(ReasonMailDisabled)
		}
	case uri.KindWeb:
		if reason, excluded := classifyAddress(u.Host, cfg); excluded {
			return Excluded(reason)
		}
	}

	return Checked()
}

func anyMatch(patterns []*regexp.Regexp, target string) bool {
	for _, p := range patterns {
		if p == nil {
			continue
		}
		if p.MatchString(target) {
			return true
		}
	}
	return false
}

func classifyAddress(host string, cfg Config) (Reason, bool) {
	if !cfg.ExcludeLoopback && !cfg.ExcludeLinkLocal && !cfg.ExcludePrivate {
		return "", false
	}
	ip, ok := parseIPLiteral(host)
	if !ok {
		return "", false
	}
	if cfg.ExcludeLoopback && isLoopback(ip) {
		return ReasonPrivateIP, true
	}
	if cfg.ExcludeLinkLocal && isLinkLocal(ip) {
		return ReasonPrivateIP, true
	}
	if cfg.ExcludePrivate && isPrivate(ip) {
		return ReasonPrivateIP, true
	}
	return "", false
}
